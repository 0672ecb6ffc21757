package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/lookbusy1344/rv32-cachesim/cache"
	"github.com/lookbusy1344/rv32-cachesim/config"
	"github.com/lookbusy1344/rv32-cachesim/sim"
)

// PolicyReport is the JSON-friendly form of one sim.PolicyResult.
type PolicyReport struct {
	Policy          string  `json:"policy"`
	HitRateCombined float64 `json:"hit_rate_combined"`
	HitRateInstruct float64 `json:"hit_rate_instruction"`
	HitRateData     float64 `json:"hit_rate_data"`
}

// RunResponse is the body returned by POST /api/v1/run.
type RunResponse struct {
	Results []PolicyReport `json:"results"`
}

// handleRun accepts a multipart upload field named "image" holding a binary
// image in the format image.Load reads, runs both replacement policies
// against it, and returns the hit-rate report as JSON. It never accepts a
// -o window: the API surface is report-only, the file-snapshot side effect
// of the CLI's -o flag has no meaning over HTTP.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	const maxUploadBytes = 32 << 20 // 32MiB; images are tiny, this is generous headroom
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing upload: %v", err))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing \"image\" form field")
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "cachesim-upload-*.img")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "staging upload")
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		writeError(w, http.StatusInternalServerError, "staging upload")
		return
	}

	s.cfgMu.RLock()
	cfg := s.cfg
	s.cfgMu.RUnlock()

	opts := sim.Options{InputPath: tmp.Name()}
	results, err := sim.Run(opts, cfg, io.Discard)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := RunResponse{Results: make([]PolicyReport, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, PolicyReport{
			Policy:          policyName(res.Kind),
			HitRateCombined: res.Rates.Combined,
			HitRateInstruct: res.Rates.Inst,
			HitRateData:     res.Rates.Data,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func policyName(k cache.Kind) string {
	return k.String()
}

// handleConfig handles GET/PUT /api/v1/config: reading or replacing the
// execution/diagnostics/display settings that subsequent /api/v1/run calls
// on this server use.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetConfig(w, r)
	case http.MethodPut:
		s.handleUpdateConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.cfgMu.RLock()
	cfg := *s.cfg
	s.cfgMu.RUnlock()
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Config
	if err := readJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding config: %v", err))
		return
	}

	s.cfgMu.Lock()
	s.cfg = &cfg
	s.cfgMu.Unlock()

	writeJSON(w, http.StatusOK, cfg)
}

// readJSON decodes a size-limited JSON request body.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return decoder.Decode(v)
}

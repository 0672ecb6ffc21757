package api

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lookbusy1344/rv32-cachesim/config"
	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

func TestHandleHealth(t *testing.T) {
	s := NewServer(0, config.Default())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want \"ok\"", body["status"])
	}
}

func buildUploadBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var regs [rv32.NumRegisters]uint32
	regs[1] = 4 // raInit: halts on the first fetch after instr 0

	var imgBuf bytes.Buffer
	for _, v := range regs {
		binary.Write(&imgBuf, binary.LittleEndian, v)
	}
	instr := uint32(1)<<20 | 5<<7 | 0x13 // ADDI x5, x0, 1
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, instr)
	binary.Write(&imgBuf, binary.LittleEndian, uint32(0))
	binary.Write(&imgBuf, binary.LittleEndian, uint32(len(payload)))
	imgBuf.Write(payload)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "program.img")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	part.Write(imgBuf.Bytes())
	w.Close()

	return &body, w.FormDataContentType()
}

func TestHandleRunReturnsBothPolicies(t *testing.T) {
	s := NewServer(0, config.Default())
	body, contentType := buildUploadBody(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp RunResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(resp.Results))
	}
}

func TestHandleConfigGetReturnsCurrentConfig(t *testing.T) {
	s := NewServer(0, config.Default())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got config.Config
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Execution.MaxInstructions != config.Default().Execution.MaxInstructions {
		t.Errorf("MaxInstructions = %d, want %d", got.Execution.MaxInstructions, config.Default().Execution.MaxInstructions)
	}
}

func TestHandleConfigPutReplacesConfig(t *testing.T) {
	s := NewServer(0, config.Default())
	updated := *config.Default()
	updated.Execution.MaxInstructions = 12345

	body, err := json.Marshal(updated)
	if err != nil {
		t.Fatalf("marshaling config: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	s.cfgMu.RLock()
	got := s.cfg.Execution.MaxInstructions
	s.cfgMu.RUnlock()
	if got != 12345 {
		t.Errorf("stored MaxInstructions = %d, want 12345", got)
	}
}

func TestHandleConfigPutRejectsInvalidJSON(t *testing.T) {
	s := NewServer(0, config.Default())
	req := httptest.NewRequest(http.MethodPut, "/api/v1/config", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRunRejectsMissingImageField(t *testing.T) {
	s := NewServer(0, config.Default())
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

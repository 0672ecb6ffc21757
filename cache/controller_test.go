package cache

import (
	"math"
	"testing"

	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

func newTestController(t *testing.T, kind Kind) (*Controller, *rv32.RAM) {
	t.Helper()
	ram, err := rv32.NewRAM(nil)
	if err != nil {
		t.Fatalf("rv32.NewRAM() error = %v", err)
	}
	return NewController(kind, ram), ram
}

func TestControllerColdAccessIsMiss(t *testing.T) {
	c, _ := newTestController(t, LRU)
	if _, err := c.ReadWord(0, false); err != nil {
		t.Fatalf("ReadWord() error = %v", err)
	}
	if c.LastAccessWasHit() {
		t.Error("first access to a cold cache reported a hit")
	}
}

func TestControllerRepeatedAccessIsHit(t *testing.T) {
	c, _ := newTestController(t, LRU)
	if _, err := c.ReadWord(0, false); err != nil {
		t.Fatalf("ReadWord() error = %v", err)
	}
	if _, err := c.ReadWord(4, false); err != nil {
		t.Fatalf("ReadWord() error = %v", err)
	}
	if !c.LastAccessWasHit() {
		t.Error("second access to the same line reported a miss")
	}
}

func TestControllerOutOfRangeAddressErrors(t *testing.T) {
	c, _ := newTestController(t, LRU)
	if _, err := c.ReadByte(rv32.MemorySize, true); err == nil {
		t.Error("ReadByte(MemorySize) = nil error, want an error")
	}
}

func TestControllerWriteBackOnDirtyEviction(t *testing.T) {
	c, ram := newTestController(t, LRU)

	// write to the first line of set 0, then force three more distinct
	// tags into set 0 to exhaust its four ways, then a fifth to evict the
	// dirty line and confirm it was written back to RAM.
	if err := c.WriteWord(0, true, 0xCAFEF00D); err != nil {
		t.Fatalf("WriteWord() error = %v", err)
	}
	for tag := uint32(1); tag <= 4; tag++ {
		addr := rv32.LineAddress(tag, 0)
		if _, err := c.ReadWord(addr, true); err != nil {
			t.Fatalf("ReadWord() error = %v", err)
		}
	}

	got := ram.ReadLine(0)
	want := uint32(got[0]) | uint32(got[1])<<8 | uint32(got[2])<<16 | uint32(got[3])<<24
	if want != 0xCAFEF00D {
		t.Errorf("written-back word = 0x%X, want 0xCAFEF00D", want)
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	c, _ := newTestController(t, LRU)
	if err := c.WriteWord(0, true, 1); err != nil {
		t.Fatalf("WriteWord() error = %v", err)
	}
	c.Flush()
	c.Flush() // must not panic or double-write
}

func TestHitRatesZeroDivisorIsNaN(t *testing.T) {
	c, _ := newTestController(t, LRU)
	rates := c.HitRates()
	if !math.IsNaN(rates.Combined) {
		t.Errorf("HitRates().Combined with no accesses = %v, want NaN", rates.Combined)
	}
}

func TestReportLabelWidth(t *testing.T) {
	r := Rates{Combined: 50, Inst: 60, Data: 40}
	line := r.Report(LRU.String())
	if len(line) == 0 {
		t.Fatal("Report() returned empty string")
	}
	// the label is right-aligned to the 11-character "replacement" header column
	if len(line) < 12 || line[:12] != "        LRU\t" {
		t.Errorf("Report() label column = %q, want %q", line, "        LRU\t...")
	}
}

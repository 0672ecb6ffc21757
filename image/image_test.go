package image

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

func writeRegisterBank(t *testing.T, f *os.File, regs [rv32.NumRegisters]uint32) {
	t.Helper()
	for _, v := range regs {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			t.Fatalf("writing register: %v", err)
		}
	}
}

func TestLoadRegistersAndFragments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error = %v", err)
	}

	var regs [rv32.NumRegisters]uint32
	regs[0] = 0x1000
	regs[1] = 0x2000
	writeRegisterBank(t, f, regs)

	binary.Write(f, binary.LittleEndian, uint32(0x1000))
	binary.Write(f, binary.LittleEndian, uint32(4))
	f.Write([]byte{1, 2, 3, 4})
	f.Close()

	gotRegs, fragments, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if gotRegs[0] != 0x1000 || gotRegs[1] != 0x2000 {
		t.Errorf("registers = %v, want [0x1000, 0x2000, ...]", gotRegs[:2])
	}
	if len(fragments) != 1 {
		t.Fatalf("len(fragments) = %d, want 1", len(fragments))
	}
	if fragments[0].Base != 0x1000 || string(fragments[0].Data) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("fragment = %+v, want base 0x1000 data [1 2 3 4]", fragments[0])
	}
}

func TestLoadToleratesTruncatedFragment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error = %v", err)
	}
	var regs [rv32.NumRegisters]uint32
	writeRegisterBank(t, f, regs)

	// a fragment header claiming 100 bytes but only 2 are actually present
	binary.Write(f, binary.LittleEndian, uint32(0))
	binary.Write(f, binary.LittleEndian, uint32(100))
	f.Write([]byte{1, 2})
	f.Close()

	_, fragments, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil (truncation is tolerated)", err)
	}
	if len(fragments) != 0 {
		t.Errorf("len(fragments) = %d, want 0 (truncated fragment dropped)", len(fragments))
	}
}

func TestWriteSnapshotReadSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.bin")

	ram, err := rv32.NewRAM([]rv32.Fragment{{Base: 0x40, Data: []byte{9, 8, 7, 6}}})
	if err != nil {
		t.Fatalf("rv32.NewRAM() error = %v", err)
	}

	var regs [rv32.NumRegisters]uint32
	regs[2] = 0xABCD

	if err := WriteSnapshot(path, 0x123, regs, 0x40, 4, ram); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}

	snap, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	if snap.Regs[0] != 0x123 {
		t.Errorf("snapshot PC = 0x%X, want 0x123", snap.Regs[0])
	}
	if snap.Regs[2] != 0xABCD {
		t.Errorf("snapshot x2 = 0x%X, want 0xABCD", snap.Regs[2])
	}
	if snap.WindowBase != 0x40 {
		t.Errorf("WindowBase = 0x%X, want 0x40", snap.WindowBase)
	}
	if string(snap.Window) != string([]byte{9, 8, 7, 6}) {
		t.Errorf("Window = %v, want [9 8 7 6]", snap.Window)
	}
}

// Package image reads and writes the simulator's binary image format: the
// initial register bank and memory fragments on load, and the final
// register file plus a memory window on save.
package image

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

// Registers holds the 32 little-endian register words read from an image.
// Slot 0 is the initial program counter (a format-level convention, not a
// register-file property — see Design Note "Image-slot-0 as PC"); slots
// 1..31 are the initial x1..x31.
type Registers [rv32.NumRegisters]uint32

// Load reads the register bank followed by zero or more memory fragments
// from path. A short read on any field of a fragment (base address,
// length, or payload) stops loading silently and keeps everything read so
// far, per the format's truncation tolerance.
func Load(path string) (Registers, []rv32.Fragment, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the -i CLI flag
	if err != nil {
		return Registers{}, nil, fmt.Errorf("image: opening %s: %w", path, err)
	}
	defer f.Close()

	var regs Registers
	for i := range regs {
		if err := binary.Read(f, binary.LittleEndian, &regs[i]); err != nil {
			return Registers{}, nil, fmt.Errorf("image: reading register slot %d: %w", i, err)
		}
	}

	var fragments []rv32.Fragment
	for {
		var base, length uint32
		if err := binary.Read(f, binary.LittleEndian, &base); err != nil {
			break
		}
		if err := binary.Read(f, binary.LittleEndian, &length); err != nil {
			break
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			break
		}
		fragments = append(fragments, rv32.Fragment{Base: base, Data: payload})
	}

	return regs, fragments, nil
}

// WriteSnapshot writes the final register file (PC in slot 0, then x1..x31)
// followed by the window's base address, length, and bytes, matching the
// output format §6 of the specification.
func WriteSnapshot(path string, finalPC uint32, x [rv32.NumRegisters]uint32, windowBase, windowLen uint32, ram *rv32.RAM) error {
	f, err := os.Create(path) // #nosec G304 -- path comes from the -o CLI flag
	if err != nil {
		return fmt.Errorf("image: creating %s: %w", path, err)
	}
	defer f.Close()

	out := x
	out[0] = finalPC

	for i, v := range out {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("image: writing register slot %d: %w", i, err)
		}
	}
	if err := binary.Write(f, binary.LittleEndian, windowBase); err != nil {
		return fmt.Errorf("image: writing window base: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, windowLen); err != nil {
		return fmt.Errorf("image: writing window length: %w", err)
	}
	if _, err := f.Write(ram.Window(windowBase, windowLen)); err != nil {
		return fmt.Errorf("image: writing window payload: %w", err)
	}
	return nil
}

// Snapshot is a decoded output-file: the final register bank plus the
// persisted memory window, as written by WriteSnapshot.
type Snapshot struct {
	Regs       Registers
	WindowBase uint32
	Window     []byte
}

// ReadSnapshot parses a file produced by WriteSnapshot. It is used by the
// inspector (cmd/cachesim-inspect), not by the simulation driver itself.
func ReadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied snapshot path
	if err != nil {
		return Snapshot{}, fmt.Errorf("image: opening %s: %w", path, err)
	}
	defer f.Close()

	var snap Snapshot
	for i := range snap.Regs {
		if err := binary.Read(f, binary.LittleEndian, &snap.Regs[i]); err != nil {
			return Snapshot{}, fmt.Errorf("image: reading register slot %d: %w", i, err)
		}
	}
	if err := binary.Read(f, binary.LittleEndian, &snap.WindowBase); err != nil {
		return Snapshot{}, fmt.Errorf("image: reading window base: %w", err)
	}
	var windowLen uint32
	if err := binary.Read(f, binary.LittleEndian, &windowLen); err != nil {
		return Snapshot{}, fmt.Errorf("image: reading window length: %w", err)
	}
	snap.Window = make([]byte, windowLen)
	if _, err := io.ReadFull(f, snap.Window); err != nil {
		return Snapshot{}, fmt.Errorf("image: reading window payload: %w", err)
	}
	return snap, nil
}

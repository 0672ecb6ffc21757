package rv32

import "fmt"

// RAM is the flat, byte-addressable backing store behind the cache. It is
// zero-initialized and then overlaid with the image's memory fragments; the
// cache controller is its only reader/writer during a run.
type RAM struct {
	data [MemorySize]byte
}

// Fragment is a (base address, payload) pair used to seed RAM before a run.
type Fragment struct {
	Base uint32
	Data []byte
}

// NewRAM builds a zero-initialized RAM and overlays the given fragments in
// order. A fragment whose range falls outside the address space is a fatal
// configuration error: the source image is malformed and execution cannot
// proceed meaningfully.
func NewRAM(fragments []Fragment) (*RAM, error) {
	r := &RAM{}
	for _, f := range fragments {
		end := uint64(f.Base) + uint64(len(f.Data))
		if end > MemorySize {
			return nil, fmt.Errorf("rv32: fragment at 0x%05X (len %d) exceeds %d-byte address space", f.Base, len(f.Data), MemorySize)
		}
		copy(r.data[f.Base:], f.Data)
	}
	return r, nil
}

// ReadLine reads the 64-byte line at a line-aligned address.
func (r *RAM) ReadLine(addr uint32) [CacheLineSize]byte {
	var line [CacheLineSize]byte
	copy(line[:], r.data[addr:addr+CacheLineSize])
	return line
}

// WriteLine writes a 64-byte line back to a line-aligned address.
func (r *RAM) WriteLine(addr uint32, line [CacheLineSize]byte) {
	copy(r.data[addr:addr+CacheLineSize], line[:])
}

// Raw exposes the full backing array. Callers must not retain the slice
// past the RAM's lifetime assumptions (single-threaded, exclusive ownership
// per §5 of the design).
func (r *RAM) Raw() []byte {
	return r.data[:]
}

// Window copies out length bytes starting at base, clamped to the address
// space, for use by the snapshot writer.
func (r *RAM) Window(base, length uint32) []byte {
	raw := r.Raw()
	end := uint64(base) + uint64(length)
	if end > MemorySize {
		end = MemorySize
	}
	if uint64(base) >= end {
		return nil
	}
	out := make([]byte, end-uint64(base))
	copy(out, raw[base:end])
	return out
}

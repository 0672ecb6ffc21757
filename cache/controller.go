package cache

import (
	"fmt"

	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

// Controller is the 16-set unified instruction+data cache sitting in front
// of an rv32.RAM. It is constructed fresh for each policy run (see
// spec §3 Lifecycle: the two runs never share cache state).
type Controller struct {
	kind Kind
	sets [rv32.CacheSetCount]*Set
	ram  *rv32.RAM

	hitsInst, hitsData   uint64
	countInst, countData uint64
	lastHit              bool
}

// NewController builds a cold (all-invalid) cache of the given policy kind
// over ram.
func NewController(kind Kind, ram *rv32.RAM) *Controller {
	c := &Controller{kind: kind, ram: ram}
	for i := range c.sets {
		c.sets[i] = newSet(kind)
	}
	return c
}

func (c *Controller) resolve(addr uint32, isData bool) (set *Set, way int, offset uint32, err error) {
	if addr >= rv32.MemorySize {
		return nil, 0, 0, fmt.Errorf("cache: address 0x%08X is out of range (memory is %d bytes)", addr, rv32.MemorySize)
	}

	tag := rv32.Tag(addr)
	index := rv32.Index(addr)
	offset = rv32.Offset(addr)
	set = c.sets[index]

	if isData {
		c.countData++
	} else {
		c.countInst++
	}

	if w, ok := set.Hit(tag); ok {
		if isData {
			c.hitsData++
		} else {
			c.hitsInst++
		}
		c.lastHit = true
		return set, w, offset, nil
	}

	c.lastHit = false
	way = c.refill(set, tag, index)
	return set, way, offset, nil
}

// LastAccessWasHit reports whether the most recently resolved access hit in
// the cache. It exists for diagnostic tracing (SPEC_FULL.md §4.10); it is
// not part of the architectural state.
func (c *Controller) LastAccessWasHit() bool { return c.lastHit }

// refill picks a victim, writes it back if dirty, and loads the requested
// line from RAM. It does not update replacement-policy recency: that
// happens when the caller performs the actual read/write (spec §4.7 step 5).
func (c *Controller) refill(set *Set, tag, index uint32) int {
	way := set.Victim()
	if set.IsValid(way) && set.IsDirty(way) {
		oldAddr := rv32.LineAddress(set.Tag(way), index)
		c.ram.WriteLine(oldAddr, set.LineData(way))
	}
	line := c.ram.ReadLine(rv32.LineAddress(tag, index))
	set.Refill(way, line, tag)
	return way
}

// ReadByte, ReadHalf and ReadWord perform a typed load through the cache.
// isData distinguishes the data stream from the instruction-fetch stream
// for hit-rate accounting; it does not affect cache placement. An
// out-of-range address is treated as a fatal error rather than the
// reference implementation's undefined behavior (spec §4.3/§7).
func (c *Controller) ReadByte(addr uint32, isData bool) (uint8, error) {
	set, way, offset, err := c.resolve(addr, isData)
	if err != nil {
		return 0, err
	}
	return set.ReadByte(way, offset), nil
}

func (c *Controller) ReadHalf(addr uint32, isData bool) (uint16, error) {
	set, way, offset, err := c.resolve(addr, isData)
	if err != nil {
		return 0, err
	}
	return set.ReadHalf(way, offset), nil
}

func (c *Controller) ReadWord(addr uint32, isData bool) (uint32, error) {
	set, way, offset, err := c.resolve(addr, isData)
	if err != nil {
		return 0, err
	}
	return set.ReadWord(way, offset), nil
}

// WriteByte, WriteHalf and WriteWord perform a typed store through the
// cache (always isData=true in practice, but the parameter is kept for
// symmetry with the read side and for tests).
func (c *Controller) WriteByte(addr uint32, isData bool, value uint8) error {
	set, way, offset, err := c.resolve(addr, isData)
	if err != nil {
		return err
	}
	set.WriteByte(way, offset, value)
	return nil
}

func (c *Controller) WriteHalf(addr uint32, isData bool, value uint16) error {
	set, way, offset, err := c.resolve(addr, isData)
	if err != nil {
		return err
	}
	set.WriteHalf(way, offset, value)
	return nil
}

func (c *Controller) WriteWord(addr uint32, isData bool, value uint32) error {
	set, way, offset, err := c.resolve(addr, isData)
	if err != nil {
		return err
	}
	set.WriteWord(way, offset, value)
	return nil
}

// Flush writes back every dirty line to RAM and then invalidates the whole
// cache. It is idempotent and does not touch the hit/miss counters.
func (c *Controller) Flush() {
	for index, set := range c.sets {
		for way := 0; way < rv32.CacheWayCount; way++ {
			if set.IsValid(way) && set.IsDirty(way) {
				addr := rv32.LineAddress(set.Tag(way), uint32(index))
				c.ram.WriteLine(addr, set.LineData(way))
			}
			set.Invalidate(way)
		}
	}
}

// Rates holds the combined and per-stream hit rates as done in spec §4.7;
// ratios are left un-clamped (a zero divisor yields NaN/Inf, matching the
// C printf convention the original relies on).
type Rates struct {
	Combined float64
	Inst     float64
	Data     float64
}

// HitRates computes the current combined/instruction/data hit rates.
func (c *Controller) HitRates() Rates {
	total := c.countInst + c.countData
	hits := c.hitsInst + c.hitsData
	return Rates{
		Combined: abs(100 * float64(hits) / float64(total)),
		Inst:     abs(100 * float64(c.hitsInst) / float64(c.countInst)),
		Data:     abs(100 * float64(c.hitsData) / float64(c.countData)),
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Report formats one tab-separated report line in the form the driver
// prints: a right-aligned policy label followed by the three percentages,
// each as "%3.5f%%".
func (r Rates) Report(label string) string {
	return fmt.Sprintf("%11s\t%3.5f%%\t%3.5f%%\t%3.5f%%", label, r.Combined, r.Inst, r.Data)
}

// Kind reports which replacement policy this controller was built with.
func (c *Controller) Kind() Kind { return c.kind }

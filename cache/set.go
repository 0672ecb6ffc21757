package cache

import "github.com/lookbusy1344/rv32-cachesim/rv32"

// Kind selects which replacement policy a Set or Controller uses.
type Kind int

const (
	LRU Kind = iota
	BitPLRU
)

func (k Kind) String() string {
	if k == BitPLRU {
		return "bpLRU"
	}
	return "LRU"
}

// Set is one of the cache's 16 sets: four ways plus the metadata its
// replacement policy needs.
type Set struct {
	lines  [rv32.CacheWayCount]Line
	policy Policy
}

func newSet(kind Kind) *Set {
	s := &Set{}
	for i := range s.lines {
		s.lines[i] = newLine()
	}
	if kind == BitPLRU {
		s.policy = bitPLRUPolicy{}
	} else {
		s.policy = newLRUPolicy()
	}
	return s
}

// Hit scans the four ways for a valid line carrying tag.
func (s *Set) Hit(tag uint32) (way int, ok bool) {
	for i := range s.lines {
		if s.lines[i].Valid && s.lines[i].Tag == tag {
			return i, true
		}
	}
	return 0, false
}

// Victim asks the active policy which way to evict on a miss.
func (s *Set) Victim() int {
	return s.policy.Victim(&s.lines)
}

func (s *Set) IsValid(way int) bool { return s.lines[way].Valid }
func (s *Set) IsDirty(way int) bool { return s.lines[way].Dirty }
func (s *Set) Tag(way int) uint32   { return s.lines[way].Tag }
func (s *Set) LineData(way int) [rv32.CacheLineSize]byte {
	return s.lines[way].Data
}

// Refill installs freshly-read RAM contents into way and tags it.
func (s *Set) Refill(way int, data [rv32.CacheLineSize]byte, tag uint32) {
	s.lines[way].Refill(data, tag)
}

// ReadByte, ReadHalf and ReadWord touch the policy (the way just accessed
// becomes most-recently-used / gets its pLRU bit set) and then perform the
// typed read.
func (s *Set) ReadByte(way int, offset uint32) uint8 {
	s.policy.Touch(way, &s.lines)
	return s.lines[way].ReadByte(offset)
}

func (s *Set) ReadHalf(way int, offset uint32) uint16 {
	s.policy.Touch(way, &s.lines)
	return s.lines[way].ReadHalf(offset)
}

func (s *Set) ReadWord(way int, offset uint32) uint32 {
	s.policy.Touch(way, &s.lines)
	return s.lines[way].ReadWord(offset)
}

func (s *Set) WriteByte(way int, offset uint32, value uint8) {
	s.policy.Touch(way, &s.lines)
	s.lines[way].WriteByte(offset, value)
}

func (s *Set) WriteHalf(way int, offset uint32, value uint16) {
	s.policy.Touch(way, &s.lines)
	s.lines[way].WriteHalf(offset, value)
}

func (s *Set) WriteWord(way int, offset uint32, value uint32) {
	s.policy.Touch(way, &s.lines)
	s.lines[way].WriteWord(offset, value)
}

// Invalidate resets way to its at-rest state without writing it back; the
// caller is responsible for any write-back beforehand.
func (s *Set) Invalidate(way int) {
	s.lines[way].Invalidate()
}

package cache

import (
	"container/list"

	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

// Policy picks eviction victims and tracks recency for one cache set. A set
// owns exactly one Policy instance for its lifetime (see Design Note
// "Policy polymorphism" — dispatch through an interface rather than a
// compile-time specialization).
type Policy interface {
	// Victim returns the way to evict next. It must not mutate recency
	// state; that happens in Touch once the access actually lands.
	Victim(lines *[rv32.CacheWayCount]Line) int

	// Touch records that way was just read or written.
	Touch(way int, lines *[rv32.CacheWayCount]Line)
}

// lruPolicy implements true LRU with an explicit ordered list of touched
// ways, least-recently-used at the front.
type lruPolicy struct {
	order *list.List
	elems map[int]*list.Element
}

func newLRUPolicy() *lruPolicy {
	return &lruPolicy{
		order: list.New(),
		elems: make(map[int]*list.Element, rv32.CacheWayCount),
	}
}

func (p *lruPolicy) Victim(_ *[rv32.CacheWayCount]Line) int {
	if p.order.Len() < rv32.CacheWayCount {
		return p.order.Len()
	}
	return p.order.Front().Value.(int)
}

func (p *lruPolicy) Touch(way int, _ *[rv32.CacheWayCount]Line) {
	if elem, ok := p.elems[way]; ok {
		p.order.Remove(elem)
	}
	p.elems[way] = p.order.PushBack(way)
}

// bitPLRUPolicy approximates LRU with one "recently used" bit per way (NRU).
// It holds no state of its own: the bits live on the lines themselves so
// that a flush (which resets every line) resets the policy for free.
type bitPLRUPolicy struct{}

func (bitPLRUPolicy) Victim(lines *[rv32.CacheWayCount]Line) int {
	for i := range lines {
		if !lines[i].PLRU {
			return i
		}
	}
	return 0 // vacuous under the invariant that not all bits are ever 1 at rest
}

func (bitPLRUPolicy) Touch(way int, lines *[rv32.CacheWayCount]Line) {
	lines[way].PLRU = true
	allBusy := true
	for i := range lines {
		if !lines[i].PLRU {
			allBusy = false
			break
		}
	}
	if allBusy {
		for i := range lines {
			lines[i].PLRU = false
		}
		lines[way].PLRU = true
	}
}

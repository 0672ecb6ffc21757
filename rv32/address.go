package rv32

// Tag extracts the upper CacheTagBits of a 17-bit address.
func Tag(addr uint32) uint32 {
	return addr >> (CacheIndexBits + CacheLineBits)
}

// Index extracts the cache-set index bits of an address.
func Index(addr uint32) uint32 {
	return (addr >> CacheLineBits) & (CacheSetCount - 1)
}

// Offset extracts the within-line byte offset of an address.
func Offset(addr uint32) uint32 {
	return addr & (CacheLineSize - 1)
}

// LineAddress recomposes the line-aligned address for a given tag and set
// index; the offset is always zero since refills and write-backs operate on
// whole lines.
func LineAddress(tag, index uint32) uint32 {
	return (tag << (CacheIndexBits + CacheLineBits)) | (index << CacheLineBits)
}

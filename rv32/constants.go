// Package rv32 implements the fixed-geometry RV32I+M core that the cache
// simulator executes instructions on: address decomposition, instruction
// field decoding, the flat backing RAM, and the register file.
package rv32

// Address space and cache geometry. These are fixed by the simulated
// hardware, not runtime configuration (see config for the ambient knobs
// that are).
const (
	AddressBits = 17
	MemorySize  = 1 << AddressBits // 131072 bytes

	CacheLineBits = 6
	CacheLineSize = 1 << CacheLineBits // 64 bytes

	CacheIndexBits = 4
	CacheSetCount  = 1 << CacheIndexBits // 16 sets

	CacheWayCount = 4

	CacheTagBits = AddressBits - CacheIndexBits - CacheLineBits // 7 bits

	NumRegisters = 32
)

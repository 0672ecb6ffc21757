// Package cpu implements the fetch-decode-dispatch engine: RV32I plus the M
// multiply/divide extension, running against a cache.Controller.
package cpu

import (
	"fmt"
	"math"

	"github.com/lookbusy1344/rv32-cachesim/cache"
	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

const (
	opLUI     = 0b0110111
	opAUIPC   = 0b0010111
	opOpImm   = 0b0010011
	opOp      = 0b0110011
	opJAL     = 0b1101111
	opJALR    = 0b1100111
	opBranch  = 0b1100011
	opLoad    = 0b0000011
	opStore   = 0b0100011
	opMiscMem = 0b0001111

	instrECALL  = 0x00000073
	instrEBREAK = 0x00100073
)

// Config governs the engine's ambient, non-architectural behavior (see
// SPEC_FULL.md §4.10): whether an unrecognized opcode is a fatal error or
// reproduces the historical "silent no-op, pc unchanged" wart, and an
// optional instruction budget that turns a would-be infinite loop into a
// clean failure instead of a hang.
type Config struct {
	TrapUnsupportedOpcode bool
	MaxInstructions       uint64 // 0 means unbounded
	Trace                 func(pc uint32, instr uint32, hit bool)
}

// Engine is the CPU state plus the dispatch loop. One Engine owns one
// cache.Controller and drives it exclusively (spec §5: the controller has
// exclusive mutable access to RAM and cache for the life of one run).
type Engine struct {
	Regs rv32.Registers
	PC   uint32

	raInit uint32
	cache  *cache.Controller
	cfg    Config

	instructionsExecuted uint64
	Halted               bool
}

// ErrInstructionLimitExceeded is returned by Run when cfg.MaxInstructions is
// exceeded without reaching a halt condition — the guard against the
// documented "unsupported opcode leaves pc unchanged" infinite loop.
var ErrInstructionLimitExceeded = fmt.Errorf("cpu: exceeded maximum instruction count without halting")

// NewEngine builds an engine from the image's initial register bank: slot 0
// is the initial PC, slots 1..31 populate x1..x31 (x0 always reads 0). x1's
// initial value is latched as the return-address termination sentinel.
func NewEngine(ctrl *cache.Controller, initialRegs [rv32.NumRegisters]uint32, cfg Config) *Engine {
	e := &Engine{
		cache:  ctrl,
		cfg:    cfg,
		PC:     initialRegs[0],
		raInit: initialRegs[1],
	}
	for r := 1; r < rv32.NumRegisters; r++ {
		e.Regs.Set(uint32(r), initialRegs[r])
	}
	return e
}

// Run executes instructions until a halt condition (spec §4.8) or a fatal
// error (malformed instruction stream, out-of-range access, or an
// instruction-budget overrun).
func (e *Engine) Run() error {
	for {
		halted, err := e.Step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// Step executes a single instruction. It returns halted=true (with no
// error) once the termination sentinel or an ECALL/EBREAK is reached.
func (e *Engine) Step() (halted bool, err error) {
	if e.PC == e.raInit {
		e.Halted = true
		return true, nil
	}
	if e.cfg.MaxInstructions > 0 && e.instructionsExecuted >= e.cfg.MaxInstructions {
		return false, ErrInstructionLimitExceeded
	}

	instr, err := e.cache.ReadWord(e.PC, false)
	if err != nil {
		return false, fmt.Errorf("cpu: instruction fetch at pc=0x%05X: %w", e.PC, err)
	}

	if e.cfg.Trace != nil {
		e.cfg.Trace(e.PC, instr, e.cache.LastAccessWasHit())
	}

	if instr == instrECALL || instr == instrEBREAK {
		e.Halted = true
		return true, nil
	}

	if err := e.dispatch(instr); err != nil {
		return false, err
	}
	e.instructionsExecuted++
	return false, nil
}

func (e *Engine) unsupported(instr uint32) error {
	if e.cfg.TrapUnsupportedOpcode {
		return fmt.Errorf("cpu: unsupported instruction 0x%08X at pc=0x%05X", instr, e.PC)
	}
	return nil // historical wart: pc is left unchanged by the caller
}

func (e *Engine) dispatch(instr uint32) error {
	switch rv32.Opcode(instr) {
	case opLUI:
		e.Regs.Set(rv32.Rd(instr), rv32.ImmU(instr))
		e.PC += 4
	case opAUIPC:
		e.Regs.Set(rv32.Rd(instr), e.PC+rv32.ImmU(instr))
		e.PC += 4
	case opOpImm:
		return e.execOpImm(instr)
	case opOp:
		return e.execOp(instr)
	case opJAL:
		rd := rv32.Rd(instr)
		target := uint32(int32(e.PC) + rv32.ImmJ(instr))
		e.Regs.Set(rd, e.PC+4)
		e.PC = target
	case opJALR:
		target := (e.Regs.Get(rv32.Rs1(instr)) + uint32(rv32.ImmI(instr))) &^ 1
		link := e.PC + 4
		e.PC = target
		e.Regs.Set(rv32.Rd(instr), link)
	case opBranch:
		return e.execBranch(instr)
	case opLoad:
		return e.execLoad(instr)
	case opStore:
		return e.execStore(instr)
	case opMiscMem:
		e.PC += 4 // FENCE and friends are NOPs in this core
	default:
		return e.unsupported(instr)
	}
	return nil
}

func (e *Engine) execOpImm(instr uint32) error {
	rd, rs1, funct3 := rv32.Rd(instr), rv32.Rs1(instr), rv32.Funct3(instr)
	imm := rv32.ImmI(instr)

	switch funct3 {
	case 0b000: // ADDI
		e.Regs.Set(rd, e.Regs.Get(rs1)+uint32(imm))
	case 0b010: // SLTI
		e.Regs.Set(rd, boolReg(int32(e.Regs.Get(rs1)) < imm))
	case 0b011: // SLTIU
		e.Regs.Set(rd, boolReg(e.Regs.Get(rs1) < uint32(imm)))
	case 0b100: // XORI
		e.Regs.Set(rd, e.Regs.Get(rs1)^uint32(imm))
	case 0b110: // ORI
		e.Regs.Set(rd, e.Regs.Get(rs1)|uint32(imm))
	case 0b111: // ANDI
		e.Regs.Set(rd, e.Regs.Get(rs1)&uint32(imm))
	case 0b001: // SLLI
		if rv32.Funct7(instr) != 0 {
			return e.unsupported(instr)
		}
		e.Regs.Set(rd, e.Regs.Get(rs1)<<rv32.Shamt(instr))
	case 0b101: // SRLI / SRAI
		switch rv32.Funct7(instr) {
		case 0x00:
			e.Regs.Set(rd, e.Regs.Get(rs1)>>rv32.Shamt(instr))
		case 0x20:
			e.Regs.Set(rd, uint32(int32(e.Regs.Get(rs1))>>rv32.Shamt(instr)))
		default:
			return e.unsupported(instr)
		}
	default:
		return e.unsupported(instr)
	}
	e.PC += 4
	return nil
}

func (e *Engine) execOp(instr uint32) error {
	rd, rs1, rs2, funct3 := rv32.Rd(instr), rv32.Rs1(instr), rv32.Rs2(instr), rv32.Funct3(instr)
	a, b := e.Regs.Get(rs1), e.Regs.Get(rs2)

	switch rv32.Funct7(instr) {
	case 0x00:
		switch funct3 {
		case 0b000: // ADD
			e.Regs.Set(rd, a+b)
		case 0b001: // SLL
			e.Regs.Set(rd, a<<(b&0x1F))
		case 0b010: // SLT
			e.Regs.Set(rd, boolReg(int32(a) < int32(b)))
		case 0b011: // SLTU
			e.Regs.Set(rd, boolReg(a < b))
		case 0b100: // XOR
			e.Regs.Set(rd, a^b)
		case 0b101: // SRL
			e.Regs.Set(rd, a>>(b&0x1F))
		case 0b110: // OR
			e.Regs.Set(rd, a|b)
		case 0b111: // AND
			e.Regs.Set(rd, a&b)
		default:
			return e.unsupported(instr)
		}
	case 0x20:
		switch funct3 {
		case 0b000: // SUB
			e.Regs.Set(rd, a-b)
		case 0b101: // SRA
			e.Regs.Set(rd, uint32(int32(a)>>(b&0x1F)))
		default:
			return e.unsupported(instr)
		}
	case 0x01: // RV32M
		e.Regs.Set(rd, mulDivResult(funct3, a, b))
	default:
		return e.unsupported(instr)
	}
	e.PC += 4
	return nil
}

// mulDivResult computes one of the eight RV32M results selected by funct3.
// Division by zero and the INT_MIN/-1 overflow case follow the RISC-V
// unprivileged spec's defined results rather than the reference
// implementation's unspecified (crash-prone in C++) behavior.
func mulDivResult(funct3 uint32, a, b uint32) uint32 {
	switch funct3 {
	case 0b000: // MUL
		return a * b
	case 0b001: // MULH
		p := int64(int32(a)) * int64(int32(b))
		return uint32(uint64(p) >> 32)
	case 0b010: // MULHSU
		p := uint64(int64(int32(a))) * uint64(b)
		return uint32(p >> 32)
	case 0b011: // MULHU
		p := uint64(a) * uint64(b)
		return uint32(p >> 32)
	case 0b100: // DIV
		sa, sb := int32(a), int32(b)
		switch {
		case sb == 0:
			return ^uint32(0)
		case sa == math.MinInt32 && sb == -1:
			return uint32(sa)
		default:
			return uint32(sa / sb)
		}
	case 0b101: // DIVU
		if b == 0 {
			return ^uint32(0)
		}
		return a / b
	case 0b110: // REM
		sa, sb := int32(a), int32(b)
		switch {
		case sb == 0:
			return uint32(sa)
		case sa == math.MinInt32 && sb == -1:
			return 0
		default:
			return uint32(sa % sb)
		}
	default: // 0b111 REMU
		if b == 0 {
			return a
		}
		return a % b
	}
}

func (e *Engine) execBranch(instr uint32) error {
	rs1, rs2, funct3 := rv32.Rs1(instr), rv32.Rs2(instr), rv32.Funct3(instr)
	a, b := e.Regs.Get(rs1), e.Regs.Get(rs2)

	var taken bool
	switch funct3 {
	case 0b000: // BEQ
		taken = a == b
	case 0b001: // BNE
		taken = a != b
	case 0b100: // BLT
		taken = int32(a) < int32(b)
	case 0b101: // BGE
		taken = int32(a) >= int32(b)
	case 0b110: // BLTU
		taken = a < b
	case 0b111: // BGEU
		taken = a >= b
	default:
		return e.unsupported(instr)
	}

	if taken {
		e.PC = uint32(int32(e.PC) + rv32.ImmB(instr))
	} else {
		e.PC += 4
	}
	return nil
}

func (e *Engine) execLoad(instr uint32) error {
	rd, rs1, funct3 := rv32.Rd(instr), rv32.Rs1(instr), rv32.Funct3(instr)
	addr := e.Regs.Get(rs1) + uint32(rv32.ImmI(instr))

	var value uint32
	var err error
	switch funct3 {
	case 0b000: // LB
		var b uint8
		b, err = e.cache.ReadByte(addr, true)
		value = uint32(int32(int8(b)))
	case 0b001: // LH
		var h uint16
		h, err = e.cache.ReadHalf(addr, true)
		value = uint32(int32(int16(h)))
	case 0b010: // LW
		value, err = e.cache.ReadWord(addr, true)
	case 0b100: // LBU
		var b uint8
		b, err = e.cache.ReadByte(addr, true)
		value = uint32(b)
	case 0b101: // LHU
		var h uint16
		h, err = e.cache.ReadHalf(addr, true)
		value = uint32(h)
	default:
		return e.unsupported(instr)
	}
	if err != nil {
		return err
	}
	e.Regs.Set(rd, value)
	e.PC += 4
	return nil
}

func (e *Engine) execStore(instr uint32) error {
	rs1, rs2, funct3 := rv32.Rs1(instr), rv32.Rs2(instr), rv32.Funct3(instr)
	addr := e.Regs.Get(rs1) + uint32(rv32.ImmS(instr))
	value := e.Regs.Get(rs2)

	var err error
	switch funct3 {
	case 0b000: // SB
		err = e.cache.WriteByte(addr, true, uint8(value))
	case 0b001: // SH
		err = e.cache.WriteHalf(addr, true, uint16(value))
	case 0b010: // SW
		err = e.cache.WriteWord(addr, true, value)
	default:
		return e.unsupported(instr)
	}
	if err != nil {
		return err
	}
	e.PC += 4
	return nil
}

func boolReg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

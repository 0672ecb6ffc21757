package cache

import "testing"

func TestLineWriteReadWord(t *testing.T) {
	l := newLine()
	l.WriteWord(0, 0x12345678)
	if got := l.ReadWord(0); got != 0x12345678 {
		t.Errorf("ReadWord = 0x%X, want 0x12345678", got)
	}
	if !l.Valid || !l.Dirty {
		t.Error("WriteWord did not mark the line valid+dirty")
	}
}

func TestLineWriteHalfByteLittleEndian(t *testing.T) {
	l := newLine()
	l.WriteHalf(4, 0xBEEF)
	if got := l.Data[4]; got != 0xEF {
		t.Errorf("low byte = 0x%X, want 0xEF", got)
	}
	if got := l.Data[5]; got != 0xBE {
		t.Errorf("high byte = 0x%X, want 0xBE", got)
	}
	if got := l.ReadHalf(4); got != 0xBEEF {
		t.Errorf("ReadHalf = 0x%X, want 0xBEEF", got)
	}
}

func TestAccessWrapsWithinLine(t *testing.T) {
	l := newLine()
	// a word write at offset 62 must wrap around to bytes 62,63,0,1
	l.WriteWord(62, 0xAABBCCDD)
	if l.Data[62] != 0xDD || l.Data[63] != 0xCC || l.Data[0] != 0xBB || l.Data[1] != 0xAA {
		t.Errorf("wraparound write landed wrong: data[0:2]=%v data[62:64]=%v", l.Data[0:2], l.Data[62:64])
	}
	if got := l.ReadWord(62); got != 0xAABBCCDD {
		t.Errorf("ReadWord(62) = 0x%X, want 0xAABBCCDD", got)
	}
}

func TestRefillClearsDirtyAndSetsTag(t *testing.T) {
	l := newLine()
	l.WriteByte(0, 1)
	var data [64]byte
	data[0] = 0xFF
	l.Refill(data, 7)
	if l.Dirty {
		t.Error("Refill left the line dirty")
	}
	if !l.Valid {
		t.Error("Refill left the line invalid")
	}
	if l.Tag != 7 {
		t.Errorf("Tag after Refill = %d, want 7", l.Tag)
	}
	if l.Data[0] != 0xFF {
		t.Errorf("Data after Refill = %v, want first byte 0xFF", l.Data[:4])
	}
}

func TestInvalidateResetsLine(t *testing.T) {
	l := newLine()
	l.WriteByte(0, 1)
	l.PLRU = true
	l.Invalidate()
	if l.Valid || l.Dirty || l.PLRU {
		t.Error("Invalidate left Valid/Dirty/PLRU set")
	}
	if l.Tag != ^uint32(0) {
		t.Errorf("Tag after Invalidate = 0x%X, want 0x%X", l.Tag, ^uint32(0))
	}
}

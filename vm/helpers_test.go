package vm

import (
	"encoding/binary"
	"io"
)

// recordingSink captures every byte OUT writes, for assertions.
type recordingSink struct {
	bytes []byte
}

func (s *recordingSink) WriteByte(b byte) error {
	s.bytes = append(s.bytes, b)
	return nil
}

// fixedInput replays a fixed byte sequence to IN, then reports EOF.
type fixedInput struct {
	bytes []byte
	pos   int
}

func (s *fixedInput) ReadByte() (byte, error) {
	if s.pos >= len(s.bytes) {
		return 0, io.EOF
	}
	b := s.bytes[s.pos]
	s.pos++
	return b, nil
}

// buildBinary assembles a complete 0x1DEADFAD binary from a constant pool
// and a text pool, for tests that exercise the full Load pipeline rather
// than individual passes.
func buildBinary(constants []int32, text []byte) []byte {
	var buf []byte

	var magic [4]byte
	binary.BigEndian.PutUint32(magic[:], magicHeader)
	buf = append(buf, magic[:]...)

	constPayload := make([]byte, len(constants)*4)
	for i, c := range constants {
		binary.BigEndian.PutUint32(constPayload[i*4:], uint32(c))
	}
	buf = append(buf, blockBytes(0, constPayload)...)
	buf = append(buf, blockBytes(0, text)...)

	return buf
}

func blockBytes(origin uint32, payload []byte) []byte {
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], origin)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(payload)))
	return append(header[:], payload...)
}

// be16 appends a big-endian u16 to text, the shape every branch/call/LDC_W
// operand takes.
func be16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// beSigned16 is be16 for a signed branch offset.
func beSigned16(v int16) []byte {
	return be16(uint16(v))
}

package vm

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const magicHeader uint32 = 0x1DEADFAD

// block is a length-prefixed section of the binary: a big-endian origin
// address the bytes are meant to start at, followed by size-many payload
// bytes. Both the constant pool and the text pool are encoded this way.
type block struct {
	origin  uint32
	payload []byte
}

// readBlock parses one origin+size+payload block from r, per spec.md §4.1.
func readBlock(r io.Reader) (block, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return block{}, errors.Wrap(ErrTruncatedBlock, err.Error())
	}

	origin := binary.BigEndian.Uint32(header[0:4])
	size := binary.BigEndian.Uint32(header[4:8])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return block{}, errors.Wrap(ErrTruncatedBlock, err.Error())
	}

	return block{origin: origin, payload: payload}, nil
}

// readHeader consumes the binary and returns the raw constant and text
// blocks. It does not interpret either block's contents.
func readHeader(r io.Reader) (constants block, text block, err error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return block{}, block{}, errors.Wrap(ErrTruncatedBlock, err.Error())
	}
	if binary.BigEndian.Uint32(magic[:]) != magicHeader {
		return block{}, block{}, ErrInvalidHeader
	}

	constants, err = readBlock(r)
	if err != nil {
		return block{}, block{}, err
	}

	text, err = readBlock(r)
	if err != nil {
		return block{}, block{}, err
	}

	return constants, text, nil
}

// decodeConstants interprets a constant block's payload as big-endian
// signed 32-bit integers, one per 4 bytes.
func decodeConstants(b block) []int32 {
	n := len(b.payload) / 4
	constants := make([]int32, n)
	for i := 0; i < n; i++ {
		constants[i] = int32(binary.BigEndian.Uint32(b.payload[i*4 : i*4+4]))
	}
	return constants
}

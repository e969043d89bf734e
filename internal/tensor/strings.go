package tensor

import (
	"encoding/binary"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

// Variable-length tensor elements travel on the wire as a 4-byte
// little-endian length prefix followed by exactly that many raw bytes, with
// no terminator, repeated per element in row-major order. The same encoding
// is used on ingestion and emission and must round-trip exactly.

const lengthPrefixSize = 4

// EncodeStrings serializes elems with the length-prefix scheme.
func EncodeStrings(elems [][]byte) []byte {
	size := 0
	for _, e := range elems {
		size += lengthPrefixSize + len(e)
	}
	out := make([]byte, 0, size)
	var prefix [lengthPrefixSize]byte
	for _, e := range elems {
		binary.LittleEndian.PutUint32(prefix[:], uint32(len(e)))
		out = append(out, prefix[:]...)
		out = append(out, e...)
	}
	return out
}

// DecodeStrings parses a fully length-prefixed buffer back into its
// elements. Trailing bytes that do not form a complete element are an error.
func DecodeStrings(content []byte) ([][]byte, error) {
	var elems [][]byte
	for len(content) > 0 {
		if len(content) < lengthPrefixSize {
			return nil, errors.InvalidArgumentf(
				"incomplete string data: %d trailing bytes do not form a length prefix", len(content))
		}
		l := binary.LittleEndian.Uint32(content)
		content = content[lengthPrefixSize:]
		if uint32(len(content)) < l {
			return nil, errors.InvalidArgumentf(
				"incomplete string data: expecting string of length %d but only %d bytes available",
				l, len(content))
		}
		elem := make([]byte, l)
		copy(elem, content[:l])
		elems = append(elems, elem)
		content = content[l:]
	}
	return elems, nil
}

// SerializeStrings re-encodes count elements of a string tensor starting at
// offset, producing the response-emission wire form.
func SerializeStrings(t *Tensor, offset, count int64) ([]byte, error) {
	elems := make([][]byte, 0, count)
	for e := int64(0); e < count; e++ {
		s, err := t.StringAt(offset + e)
		if err != nil {
			return nil, err
		}
		elems = append(elems, s)
	}
	return EncodeStrings(elems), nil
}

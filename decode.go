package ethbind

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// DecodeArgs decodes an encoded block back into an ordered value list, the
// mirror of EncodeArgs. Integers come back as *big.Int regardless of width,
// addresses as common.Address, byte types as []byte, and composites as
// []any. Truncated data and out-of-bounds offsets or lengths fail with a
// *DecodingError; a type/data mismatch that stays in bounds is not
// detectable and decodes to garbage.
func DecodeArgs(params []Param, data []byte) ([]any, error) {
	types := make([]Type, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return decodeBlock(types, data)
}

// decodeBlock walks the head words of one block, consuming static values in
// place and following offset words into the tail for dynamic ones.
func decodeBlock(types []Type, block []byte) ([]any, error) {
	out := make([]any, len(types))
	off := 0
	for i, t := range types {
		if t.IsDynamic() {
			at, err := readWordInt(t, block, off)
			if err != nil {
				return nil, err
			}
			v, err := decodeDynamic(t, block, at)
			if err != nil {
				return nil, err
			}
			out[i] = v
			off += WordSize
		} else {
			v, err := decodeStatic(t, block, off)
			if err != nil {
				return nil, err
			}
			out[i] = v
			off += t.headSize()
		}
	}
	return out, nil
}

// decodeDynamic decodes a dynamic value whose payload starts at byte offset
// `at` within the enclosing block. Nested offsets are relative to the start
// of the nested block, as produced by encodeBlock.
func decodeDynamic(t Type, block []byte, at int) (any, error) {
	switch t.Kind {
	case KindBytes, KindString:
		n, err := readWordInt(t, block, at)
		if err != nil {
			return nil, err
		}
		if at+WordSize+n > len(block) {
			return nil, shortData(t, at+WordSize+n, len(block))
		}
		b := make([]byte, n)
		copy(b, block[at+WordSize:])
		if t.Kind == KindString {
			return string(b), nil
		}
		return b, nil

	case KindArray:
		n, err := readWordInt(t, block, at)
		if err != nil {
			return nil, err
		}
		body := block[at+WordSize:]
		if n*t.Elem.headSize() > len(body) {
			return nil, shortData(t, at+WordSize+n*t.Elem.headSize(), len(block))
		}
		return decodeBlock(repeatType(*t.Elem, n), body)

	case KindFixedArray:
		if at > len(block) {
			return nil, shortData(t, at, len(block))
		}
		return decodeBlock(repeatType(*t.Elem, t.Size), block[at:])

	case KindTuple:
		if at > len(block) {
			return nil, shortData(t, at, len(block))
		}
		return decodeBlock(t.Components, block[at:])
	}
	return nil, &DecodingError{Type: t.String(), Err: errors.New("not a dynamic type")}
}

// decodeStatic decodes a static value occupying t.headSize() bytes at `off`.
func decodeStatic(t Type, block []byte, off int) (any, error) {
	if off+t.headSize() > len(block) {
		return nil, shortData(t, off+t.headSize(), len(block))
	}
	word := block[off : off+WordSize]

	switch t.Kind {
	case KindUint:
		// The full word is authoritative; bits beyond the declared width
		// are not masked.
		return new(big.Int).SetBytes(word), nil
	case KindInt:
		return math.S256(new(big.Int).SetBytes(word)), nil
	case KindBool:
		for _, b := range word {
			if b != 0 {
				return true, nil
			}
		}
		return false, nil
	case KindAddress:
		return common.BytesToAddress(word[WordSize-common.AddressLength:]), nil
	case KindFixedBytes:
		b := make([]byte, t.Size)
		copy(b, word)
		return b, nil
	case KindFixedArray:
		out := make([]any, t.Size)
		for i := range out {
			v, err := decodeStatic(*t.Elem, block, off+i*t.Elem.headSize())
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case KindTuple:
		out := make([]any, len(t.Components))
		for i, c := range t.Components {
			v, err := decodeStatic(c, block, off)
			if err != nil {
				return nil, err
			}
			out[i] = v
			off += c.headSize()
		}
		return out, nil
	}
	return nil, &DecodingError{Type: t.String(), Err: errors.New("unsupported type")}
}

// readWordInt reads the word at `off` as a machine integer, used for offsets
// and lengths. Values that cannot index the block are rejected.
func readWordInt(t Type, block []byte, off int) (int, error) {
	if off+WordSize > len(block) {
		return 0, shortData(t, off+WordSize, len(block))
	}
	n := new(big.Int).SetBytes(block[off : off+WordSize])
	if !n.IsInt64() || n.Int64() > int64(len(block)) {
		return 0, &DecodingError{
			Type: t.String(),
			Err:  fmt.Errorf("offset or length %s exceeds data bounds", n),
		}
	}
	return int(n.Int64()), nil
}

func shortData(t Type, want, have int) error {
	return &DecodingError{
		Type: t.String(),
		Err:  fmt.Errorf("data too short: need %d byte(s), have %d", want, have),
	}
}

package ethbind

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// EncodeArgs encodes an ordered argument list against the given parameters
// using the standard head/tail ABI word encoding. The result is always a
// multiple of 32 bytes. An argument-count mismatch and any value that is out
// of range or of an incompatible Go type fail with an *EncodingError.
func EncodeArgs(params []Param, args []any) ([]byte, error) {
	if len(args) != len(params) {
		return nil, &EncodingError{
			Type: "argument list", Value: args,
			Err: fmt.Errorf("want %d value(s), got %d", len(params), len(args)),
		}
	}
	types := make([]Type, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return encodeBlock(types, args)
}

// encodeBlock performs head/tail encoding of one block: static values are
// encoded in place, dynamic values contribute an offset word to the head and
// their payload to the tail. Offsets are byte offsets from the start of the
// block.
func encodeBlock(types []Type, values []any) ([]byte, error) {
	headSize := 0
	for _, t := range types {
		headSize += t.headSize()
	}

	head := make([]byte, 0, headSize)
	var tail []byte

	for i, t := range types {
		enc, err := encodeValue(t, values[i])
		if err != nil {
			return nil, err
		}
		if t.IsDynamic() {
			head = append(head, encodeWordInt(headSize+len(tail))...)
			tail = append(tail, enc...)
		} else {
			head = append(head, enc...)
		}
	}
	return append(head, tail...), nil
}

// encodeValue produces the full encoding of one value: the in-place words
// for a static type, or the complete tail payload for a dynamic one.
func encodeValue(t Type, v any) ([]byte, error) {
	switch t.Kind {
	case KindUint, KindInt:
		return encodeInteger(t, v)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: errors.New("not a bool")}
		}
		word := make([]byte, WordSize)
		if b {
			word[WordSize-1] = 1
		}
		return word, nil
	case KindAddress:
		addr, err := toAddress(v)
		if err != nil {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: err}
		}
		word := make([]byte, WordSize)
		copy(word[WordSize-common.AddressLength:], addr[:])
		return word, nil
	case KindFixedBytes:
		b, err := toBytes(v)
		if err != nil {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: err}
		}
		if len(b) != t.Size {
			return nil, &EncodingError{
				Type: t.String(), Value: v,
				Err: fmt.Errorf("want %d bytes, got %d", t.Size, len(b)),
			}
		}
		word := make([]byte, WordSize)
		copy(word, b)
		return word, nil
	case KindBytes:
		b, err := toBytes(v)
		if err != nil {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: err}
		}
		return encodePadded(b), nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: errors.New("not a string")}
		}
		return encodePadded([]byte(s)), nil
	case KindFixedArray:
		elems, err := toSlice(v)
		if err != nil {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: err}
		}
		if len(elems) != t.Size {
			return nil, &EncodingError{
				Type: t.String(), Value: v,
				Err: fmt.Errorf("want %d element(s), got %d", t.Size, len(elems)),
			}
		}
		return encodeBlock(repeatType(*t.Elem, len(elems)), elems)
	case KindArray:
		elems, err := toSlice(v)
		if err != nil {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: err}
		}
		body, err := encodeBlock(repeatType(*t.Elem, len(elems)), elems)
		if err != nil {
			return nil, err
		}
		return append(encodeWordInt(len(elems)), body...), nil
	case KindTuple:
		elems, err := toSlice(v)
		if err != nil {
			return nil, &EncodingError{Type: t.String(), Value: v, Err: err}
		}
		if len(elems) != len(t.Components) {
			return nil, &EncodingError{
				Type: t.String(), Value: v,
				Err: fmt.Errorf("want %d component(s), got %d", len(t.Components), len(elems)),
			}
		}
		return encodeBlock(t.Components, elems)
	}
	return nil, &EncodingError{Type: t.String(), Value: v, Err: errors.New("unsupported type")}
}

// encodeInteger range-checks v against the declared width and emits one
// word: zero-extended for uints, two's-complement sign-extended for ints.
func encodeInteger(t Type, v any) ([]byte, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, &EncodingError{Type: t.String(), Value: v, Err: err}
	}
	if t.Kind == KindUint {
		if n.Sign() < 0 || n.BitLen() > t.Bits {
			return nil, &EncodingError{
				Type: t.String(), Value: v,
				Err: fmt.Errorf("value %s out of range", n),
			}
		}
	} else {
		// Signed range is [-2^(bits-1), 2^(bits-1)).
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, &EncodingError{
				Type: t.String(), Value: v,
				Err: fmt.Errorf("value %s out of range", n),
			}
		}
	}
	return math.U256Bytes(new(big.Int).Set(n)), nil
}

// encodePadded emits a length word followed by the bytes, right-padded to
// the next word boundary.
func encodePadded(b []byte) []byte {
	padded := len(b)
	if rem := padded % WordSize; rem != 0 {
		padded += WordSize - rem
	}
	out := make([]byte, WordSize+padded)
	copy(out, encodeWordInt(len(b)))
	copy(out[WordSize:], b)
	return out
}

// encodeWordInt emits a non-negative machine integer as one big-endian word.
func encodeWordInt(n int) []byte {
	word := make([]byte, WordSize)
	big.NewInt(int64(n)).FillBytes(word)
	return word
}

func repeatType(t Type, n int) []Type {
	types := make([]Type, n)
	for i := range types {
		types[i] = t
	}
	return types
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil *big.Int")
		}
		return n, nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	}
	return nil, fmt.Errorf("%T is not an integer", v)
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("%q is not a hex address", a)
		}
		return common.HexToAddress(a), nil
	}
	return common.Address{}, fmt.Errorf("%T is not an address", v)
}

// toBytes accepts []byte, fixed-size byte arrays (e.g. [32]byte or
// common.Hash), and 0x-prefixed hex strings.
func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case common.Hash:
		return b[:], nil
	case string:
		decoded, err := hexutil.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("%q is not hex data: %v", b, err)
		}
		return decoded, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}
	return nil, fmt.Errorf("%T is not a byte sequence", v)
}

// toSlice flattens any slice or array value into []any for recursive
// encoding.
func toSlice(v any) ([]any, error) {
	if elems, ok := v.([]any); ok {
		return elems, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%T is not a slice or array", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

package ethbind

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the ABI type categories.
type Kind uint8

const (
	// KindUint is an unsigned integer of 8-256 bits.
	KindUint Kind = iota

	// KindInt is a signed integer of 8-256 bits.
	KindInt

	// KindAddress is a 20-byte account address.
	KindAddress

	// KindBool is a boolean.
	KindBool

	// KindFixedBytes is a byte sequence of fixed length 1-32.
	KindFixedBytes

	// KindBytes is a dynamically sized byte sequence.
	KindBytes

	// KindString is a dynamically sized UTF-8 string.
	KindString

	// KindFixedArray is a fixed-length array of a single element type.
	KindFixedArray

	// KindArray is a dynamically sized array of a single element type.
	KindArray

	// KindTuple is an ordered group of component types.
	KindTuple
)

// WordSize is the width of one ABI word in bytes. Every encoded value
// occupies a whole number of words.
const WordSize = 32

// Type describes one ABI parameter type. The zero value is not a valid type;
// construct types through ParseType or the ABI parser.
type Type struct {
	Kind Kind

	// Bits is the declared width for KindUint and KindInt.
	Bits int

	// Size is the byte length for KindFixedBytes and the element count for
	// KindFixedArray.
	Size int

	// Elem is the element type for KindFixedArray and KindArray.
	Elem *Type

	// Components are the ordered member types for KindTuple.
	Components []Type
}

// ParseType parses an ABI type string such as "uint256", "bytes32",
// "address[4]", "string[]" or "uint256[2][]". Tuple types cannot be expressed
// as a bare string; they are built by the ABI parser from entry components.
func ParseType(s string) (Type, error) {
	if s == "" {
		return Type{}, fmt.Errorf("empty type string")
	}

	// Array suffixes nest outward: the rightmost suffix is the outermost
	// array, so "uint256[2][]" is a dynamic array of uint256[2].
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open < 1 {
			return Type{}, fmt.Errorf("malformed array type %q", s)
		}
		elem, err := ParseType(s[:open])
		if err != nil {
			return Type{}, err
		}
		dim := s[open+1 : len(s)-1]
		if dim == "" {
			return Type{Kind: KindArray, Elem: &elem}, nil
		}
		n, err := strconv.Atoi(dim)
		if err != nil || n <= 0 {
			return Type{}, fmt.Errorf("invalid array length in %q", s)
		}
		return Type{Kind: KindFixedArray, Size: n, Elem: &elem}, nil
	}

	switch {
	case s == "address":
		return Type{Kind: KindAddress}, nil
	case s == "bool":
		return Type{Kind: KindBool}, nil
	case s == "string":
		return Type{Kind: KindString}, nil
	case s == "bytes":
		return Type{Kind: KindBytes}, nil
	case s == "uint" || s == "int":
		k := KindUint
		if s == "int" {
			k = KindInt
		}
		return Type{Kind: k, Bits: 256}, nil
	case strings.HasPrefix(s, "uint"), strings.HasPrefix(s, "int"):
		k, rest := KindUint, s[4:]
		if s[0] == 'i' {
			k, rest = KindInt, s[3:]
		}
		bits, err := strconv.Atoi(rest)
		if err != nil || bits%8 != 0 || bits < 8 || bits > 256 {
			return Type{}, fmt.Errorf("invalid integer width in %q", s)
		}
		return Type{Kind: k, Bits: bits}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(s[5:])
		if err != nil || n < 1 || n > 32 {
			return Type{}, fmt.Errorf("invalid fixed bytes length in %q", s)
		}
		return Type{Kind: KindFixedBytes, Size: n}, nil
	}
	return Type{}, fmt.Errorf("unknown type %q", s)
}

// String returns the canonical type string used in function and event
// signatures. Tuples render as a parenthesized component list.
func (t Type) String() string {
	switch t.Kind {
	case KindUint:
		return "uint" + strconv.Itoa(t.Bits)
	case KindInt:
		return "int" + strconv.Itoa(t.Bits)
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindFixedArray:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	case KindArray:
		return t.Elem.String() + "[]"
	case KindTuple:
		parts := make([]string, len(t.Components))
		for i, c := range t.Components {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	return fmt.Sprintf("<invalid kind %d>", t.Kind)
}

// IsDynamic reports whether the encoded width of the type depends on the
// value. Dynamic types are referenced through an offset word in the head of
// the enclosing block.
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case KindBytes, KindString, KindArray:
		return true
	case KindFixedArray:
		return t.Elem.IsDynamic()
	case KindTuple:
		for _, c := range t.Components {
			if c.IsDynamic() {
				return true
			}
		}
	}
	return false
}

// headSize returns the number of bytes the type occupies in the head of an
// encoded block: the full in-place encoding for static types, one offset
// word for dynamic types.
func (t Type) headSize() int {
	if t.IsDynamic() {
		return WordSize
	}
	switch t.Kind {
	case KindFixedArray:
		return t.Size * t.Elem.headSize()
	case KindTuple:
		n := 0
		for _, c := range t.Components {
			n += c.headSize()
		}
		return n
	}
	return WordSize
}

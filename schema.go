package ethbind

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Param is one named, typed parameter of a function, event, or constructor.
// Indexed is meaningful for event parameters only.
type Param struct {
	Name    string
	Type    Type
	Indexed bool
}

// Method describes one callable function: its parameters and the 4-byte
// selector derived from the canonical signature. Immutable once parsed.
type Method struct {
	// Name is the function's original ABI name.
	Name string

	// DispatchName is the key the method is registered under. It equals
	// Name unless the name is overloaded, in which case it carries the
	// joined input types, e.g. "transfer__address__uint256".
	DispatchName string

	Inputs  []Param
	Outputs []Param

	// Sig is the canonical signature string, e.g. "transfer(address,uint256)".
	// Parameter names do not participate.
	Sig string

	// Selector is the first 4 bytes of Keccak256(Sig).
	Selector [4]byte
}

// Event describes one log event: its parameters (with indexed markers) and
// the 32-byte topic-0 derived from the canonical signature. Immutable.
type Event struct {
	Name         string
	DispatchName string
	Inputs       []Param
	Sig          string

	// Topic0 is Keccak256(Sig). Every non-anonymous log emitted for this
	// event carries it as its first topic.
	Topic0 common.Hash

	Anonymous bool
}

// indexedInputs returns the indexed parameters in declaration order.
func (e Event) indexedInputs() []Param {
	var out []Param
	for _, p := range e.Inputs {
		if p.Indexed {
			out = append(out, p)
		}
	}
	return out
}

// dataInputs returns the non-indexed parameters in declaration order. These
// are the ones encoded in the log's data field.
func (e Event) dataInputs() []Param {
	var out []Param
	for _, p := range e.Inputs {
		if !p.Indexed {
			out = append(out, p)
		}
	}
	return out
}

// Schema holds the parsed descriptors of one contract ABI. It is stateless
// after construction and safe for concurrent use.
type Schema struct {
	// Methods and Events are keyed by dispatch name.
	Methods map[string]Method
	Events  map[string]Event

	// Constructor is nil when the ABI declares none, which means a
	// no-argument constructor.
	Constructor *Method

	// overloaded maps an overloaded plain name to its disambiguated
	// dispatch names, for error reporting.
	overloaded map[string][]string
}

// abiEntry is the JSON shape of one ABI description entry.
type abiEntry struct {
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Inputs    []abiArg `json:"inputs"`
	Outputs   []abiArg `json:"outputs"`
	Anonymous bool     `json:"anonymous"`
}

type abiArg struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Components []abiArg `json:"components"`
	Indexed    bool     `json:"indexed"`
}

// ParseABI parses a JSON ABI description into a Schema. It fails with a
// *SchemaError when a type string cannot be parsed, a function or event
// lacks a name, or nothing callable remains after filtering constructor and
// fallback entries.
func ParseABI(data []byte) (*Schema, error) {
	var entries []abiEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &SchemaError{Err: err}
	}

	s := &Schema{
		Methods:    make(map[string]Method),
		Events:     make(map[string]Event),
		overloaded: make(map[string][]string),
	}

	var methods []Method
	var events []Event

	for _, entry := range entries {
		switch entry.Type {
		case "function", "": // legacy ABIs omit the tag for functions
			if entry.Name == "" {
				return nil, &SchemaError{Entry: "function", Err: errors.New("function without a name")}
			}
			in, err := parseArgs(entry.Inputs)
			if err != nil {
				return nil, &SchemaError{Entry: entry.Name, Err: err}
			}
			out, err := parseArgs(entry.Outputs)
			if err != nil {
				return nil, &SchemaError{Entry: entry.Name, Err: err}
			}
			m := Method{Name: entry.Name, Inputs: in, Outputs: out}
			m.Sig = signature(m.Name, in)
			copy(m.Selector[:], crypto.Keccak256([]byte(m.Sig))[:4])
			methods = append(methods, m)

		case "event":
			if entry.Name == "" {
				return nil, &SchemaError{Entry: "event", Err: errors.New("event without a name")}
			}
			in, err := parseArgs(entry.Inputs)
			if err != nil {
				return nil, &SchemaError{Entry: entry.Name, Err: err}
			}
			ev := Event{Name: entry.Name, Inputs: in, Anonymous: entry.Anonymous}
			ev.Sig = signature(ev.Name, in)
			ev.Topic0 = common.BytesToHash(crypto.Keccak256([]byte(ev.Sig)))
			events = append(events, ev)

		case "constructor":
			in, err := parseArgs(entry.Inputs)
			if err != nil {
				return nil, &SchemaError{Entry: "constructor", Err: err}
			}
			s.Constructor = &Method{Name: "constructor", Inputs: in}

		case "fallback", "receive":
			// Not directly callable through the binding.

		default:
			return nil, &SchemaError{Entry: entry.Type, Err: errors.New("unknown entry type")}
		}
	}

	if len(methods) == 0 && len(events) == 0 {
		return nil, &SchemaError{Err: ErrEmptyABI}
	}

	registerMethods(s, methods)
	registerEvents(s, events)
	return s, nil
}

// MustParseABI is like ParseABI but panics on error. Intended for ABIs
// embedded as constants.
func MustParseABI(data []byte) *Schema {
	s, err := ParseABI(data)
	if err != nil {
		panic(err)
	}
	return s
}

// Method resolves a dispatch name to its descriptor. Looking up the plain
// name of an overloaded function fails with a *MethodNotFoundError listing
// the disambiguated candidates.
func (s *Schema) Method(name string) (Method, error) {
	if m, ok := s.Methods[name]; ok {
		return m, nil
	}
	return Method{}, &MethodNotFoundError{Method: name, Candidates: s.overloaded[name]}
}

// Event resolves a dispatch name to its event descriptor.
func (s *Schema) Event(name string) (Event, error) {
	if ev, ok := s.Events[name]; ok {
		return ev, nil
	}
	return Event{}, &EventNotFoundError{Event: name}
}

// ConstructorArity returns the number of arguments the constructor takes.
// An absent constructor takes none.
func (s *Schema) ConstructorArity() int {
	if s.Constructor == nil {
		return 0
	}
	return len(s.Constructor.Inputs)
}

// signature renders the canonical signature string name(type1,type2,...).
func signature(name string, inputs []Param) string {
	parts := make([]string, len(inputs))
	for i, p := range inputs {
		parts[i] = p.Type.String()
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// dispatchName derives the disambiguated registry key for an overloaded
// name: the name joined with its input types by double underscores. The
// derivation depends only on the canonical type strings, so it is stable
// for a given ABI.
func dispatchName(name string, inputs []Param) string {
	parts := make([]string, 0, len(inputs)+1)
	parts = append(parts, name)
	for _, p := range inputs {
		parts = append(parts, p.Type.String())
	}
	return strings.Join(parts, "__")
}

func registerMethods(s *Schema, methods []Method) {
	byName := make(map[string]int)
	for _, m := range methods {
		byName[m.Name]++
	}
	for _, m := range methods {
		if byName[m.Name] > 1 {
			m.DispatchName = dispatchName(m.Name, m.Inputs)
			s.overloaded[m.Name] = append(s.overloaded[m.Name], m.DispatchName)
		} else {
			m.DispatchName = m.Name
		}
		s.Methods[m.DispatchName] = m
	}
	for name := range s.overloaded {
		sort.Strings(s.overloaded[name])
	}
}

func registerEvents(s *Schema, events []Event) {
	byName := make(map[string]int)
	for _, ev := range events {
		byName[ev.Name]++
	}
	for _, ev := range events {
		if byName[ev.Name] > 1 {
			ev.DispatchName = dispatchName(ev.Name, ev.Inputs)
		} else {
			ev.DispatchName = ev.Name
		}
		s.Events[ev.DispatchName] = ev
	}
}

func parseArgs(args []abiArg) ([]Param, error) {
	params := make([]Param, len(args))
	for i, a := range args {
		t, err := parseArgType(a)
		if err != nil {
			return nil, err
		}
		params[i] = Param{Name: a.Name, Type: t, Indexed: a.Indexed}
	}
	return params, nil
}

// parseArgType handles tuple types, whose component list lives beside the
// type string in the ABI JSON rather than inside it.
func parseArgType(a abiArg) (Type, error) {
	base := a.Type
	suffix := ""
	if i := strings.Index(base, "["); i >= 0 {
		base, suffix = base[:i], base[i:]
	}
	if base != "tuple" {
		return ParseType(a.Type)
	}

	comps := make([]Type, len(a.Components))
	for i, c := range a.Components {
		t, err := parseArgType(c)
		if err != nil {
			return Type{}, err
		}
		comps[i] = t
	}
	t := Type{Kind: KindTuple, Components: comps}

	// Re-apply any array suffixes around the tuple, innermost first.
	for suffix != "" {
		end := strings.Index(suffix, "]")
		if end < 0 {
			return Type{}, fmt.Errorf("malformed array type %q", a.Type)
		}
		dim := suffix[1:end]
		elem := t
		if dim == "" {
			t = Type{Kind: KindArray, Elem: &elem}
		} else {
			n, err := strconv.Atoi(dim)
			if err != nil || n <= 0 {
				return Type{}, fmt.Errorf("invalid array length in %q", a.Type)
			}
			t = Type{Kind: KindFixedArray, Size: n, Elem: &elem}
		}
		suffix = suffix[end+1:]
	}
	return t, nil
}

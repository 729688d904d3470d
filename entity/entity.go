// Package entity defines the JSON-RPC 2.0 message vocabulary as a discriminated
// union: Request, Notification, Result, Error, Batch, and the internal-only
// Malformed carrier.
// file: entity/entity.go
package entity

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version carried by every wire entity.
const Version = "2.0"

// ID is a JSON-RPC request identifier: an integer, a string, or absent.
// JSON-RPC allows either scalar type on the wire; keeping both distinguishable
// (rather than collapsing to interface{}) lets Encode round-trip the original
// type instead of guessing.
type ID struct {
	str    string
	num    int64
	isStr  bool
	isNum  bool
}

// NewStringID builds a string-valued ID.
func NewStringID(s string) ID { return ID{str: s, isStr: true} }

// NewIntID builds an integer-valued ID.
func NewIntID(n int64) ID { return ID{num: n, isNum: true} }

// IsZero reports whether the ID is absent (the zero value).
func (id ID) IsZero() bool { return !id.isStr && !id.isNum }

// String renders the ID for logging and map keys.
func (id ID) String() string {
	switch {
	case id.isStr:
		return id.str
	case id.isNum:
		return fmt.Sprintf("%d", id.num)
	default:
		return ""
	}
}

// Equal reports whether two IDs refer to the same request.
func (id ID) Equal(other ID) bool {
	return id.isStr == other.isStr && id.isNum == other.isNum &&
		id.str == other.str && id.num == other.num
}

// MarshalJSON emits the ID as its original scalar type.
func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case id.isStr:
		return json.Marshal(id.str)
	case id.isNum:
		return json.Marshal(id.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := string(data)
	if trimmed == "null" || trimmed == "" {
		*id = ID{}
		return nil
	}
	var asStr string
	if err := json.Unmarshal(data, &asStr); err == nil {
		*id = NewStringID(asStr)
		return nil
	}
	var asNum int64
	if err := json.Unmarshal(data, &asNum); err == nil {
		*id = NewIntID(asNum)
		return nil
	}
	return fmt.Errorf("entity: id must be a string, number, or null, got %q", data)
}

// ParamsKind discriminates the shape of a Params value.
type ParamsKind int

const (
	// ParamsNone means params were absent on the wire.
	ParamsNone ParamsKind = iota
	// ParamsPositional means params was a JSON array.
	ParamsPositional
	// ParamsNamed means params was a JSON object.
	ParamsNamed
	// ParamsRaw is a scalar params value; not valid on the wire but tolerated
	// internally (e.g. constructed programmatically) and rejected at encode time.
	ParamsRaw
)

// Params is the `params` shape-polymorphism the spec calls for: absent,
// positional (sequence), named (mapping), or an internal raw scalar.
type Params struct {
	Kind       ParamsKind
	Positional []any
	Named      map[string]any
	Raw        any
}

// NoParams is the absent-params value.
var NoParams = Params{Kind: ParamsNone}

// Positional builds a sequence-shaped Params.
func Positional(args ...any) Params {
	return Params{Kind: ParamsPositional, Positional: args}
}

// Named builds a mapping-shaped Params.
func Named(args map[string]any) Params {
	return Params{Kind: ParamsNamed, Named: args}
}

// IsAbsent reports whether params were omitted entirely.
func (p Params) IsAbsent() bool { return p.Kind == ParamsNone }

// MarshalJSON emits the params in their discriminated shape.
func (p Params) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case ParamsNone:
		return []byte("null"), nil
	case ParamsPositional:
		if p.Positional == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.Positional)
	case ParamsNamed:
		if p.Named == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(p.Named)
	case ParamsRaw:
		return nil, fmt.Errorf("entity: scalar params cannot be encoded")
	default:
		return []byte("null"), nil
	}
}

// ParseParams decodes raw JSON bytes (array, object, or absent) into a Params.
func ParseParams(data json.RawMessage) (Params, error) {
	if len(data) == 0 {
		return NoParams, nil
	}
	trimmed := trimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return NoParams, nil
	}
	switch trimmed[0] {
	case '[':
		var arr []any
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return Params{}, err
		}
		return Params{Kind: ParamsPositional, Positional: arr}, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Params{}, err
		}
		return Params{Kind: ParamsNamed, Named: obj}, nil
	default:
		var raw any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Params{}, err
		}
		return Params{Kind: ParamsRaw, Raw: raw}, nil
	}
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isJSONSpace(b[start]) {
		start++
	}
	for end > start && isJSONSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Entity is the sum type every wire message (and the internal Malformed
// carrier) implements. It is a closed, sealed interface: the unexported
// method prevents external packages from defining new variants.
type Entity interface {
	entityMarker()
}

// Request is an inbound or outbound JSON-RPC call expecting a reply.
type Request struct {
	ID     ID
	Method string
	Params Params
}

func (Request) entityMarker() {}

// Notification is a fire-and-forget call; no ID, no reply.
type Notification struct {
	Method string
	Params Params
}

func (Notification) entityMarker() {}

// Result is a successful reply correlated to a prior Request by ID.
type Result struct {
	ID     ID
	Result any
}

func (Result) entityMarker() {}

// ErrorDetails is the `error` object embedded in an Error entity.
type ErrorDetails struct {
	Code    int
	Message string
	Data    any
}

// Error is a failed reply. ID may be zero when the offending request's ID
// could not be determined.
type Error struct {
	ID    ID
	HasID bool
	Error ErrorDetails
}

func (Error) entityMarker() {}

// Batch is an ordered list of entities, sent and received as a JSON array.
// Batches never nest.
type Batch struct {
	Entities []Entity
}

func (Batch) entityMarker() {}

// MalformedKind classifies why an inbound payload could not be turned into a
// valid entity.
type MalformedKind int

const (
	// MalformedParseError means the bytes were not valid JSON.
	MalformedParseError MalformedKind = iota
	// MalformedInvalidRequest means the JSON parsed but did not match any
	// known entity shape (or an error object was missing code/message).
	MalformedInvalidRequest
	// MalformedEmptyBatch means an empty JSON array was received.
	MalformedEmptyBatch
)

// Malformed is never serialized; it exists purely as an in-memory routing
// signal so the endpoint can manufacture a proper Error reply for bytes that
// could not be parsed into any other variant.
type Malformed struct {
	ID    ID
	HasID bool
	Kind  MalformedKind
	Cause error
}

func (Malformed) entityMarker() {}

// Package serializer is the sole authority on JSON-RPC wire shape: it
// encodes entities to bytes and decodes bytes to entities. Decode is total —
// it never returns an error, folding any failure into an entity.Malformed so
// the endpoint's read loop stays alive across a malformed peer.
// file: serializer/serializer.go
package serializer

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/dkoosis/jsonrpcx/entity"
)

// wireMessage is the on-the-wire shape shared by Request/Notification/Result/Error.
// Fields are omitted, not nulled, when absent — encoding/json's omitempty on a
// pointer/RawMessage achieves the "absent vs. present-but-empty" distinction
// the spec requires (§4.1).
type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *entity.ID      `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

// wireError.Code is a pointer so decodeObject can tell "code omitted" apart
// from "code present as 0" — the same nil-pointer-means-absent trick
// wireMessage uses for ID.
type wireError struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Encode renders an entity into its wire bytes. Malformed entities cannot be
// encoded by contract (spec §3: "Malformed entities never cross the wire");
// Encode returns an error if asked to.
func Encode(e entity.Entity) ([]byte, error) {
	switch v := e.(type) {
	case entity.Request:
		return encodeRequest(v)
	case entity.Notification:
		return encodeNotification(v)
	case entity.Result:
		return encodeResult(v)
	case entity.Error:
		return encodeError(v)
	case entity.Batch:
		return encodeBatch(v)
	case entity.Malformed:
		return nil, errMalformedNotEncodable
	default:
		return nil, errUnknownEntity
	}
}

func encodeRequest(r entity.Request) ([]byte, error) {
	params, err := paramsJSON(r.Params)
	if err != nil {
		return nil, err
	}
	id := r.ID
	msg := wireMessage{JSONRPC: entity.Version, ID: &id, Method: r.Method, Params: params}
	return json.Marshal(msg)
}

func encodeNotification(n entity.Notification) ([]byte, error) {
	params, err := paramsJSON(n.Params)
	if err != nil {
		return nil, err
	}
	msg := wireMessage{JSONRPC: entity.Version, Method: n.Method, Params: params}
	return json.Marshal(msg)
}

func encodeResult(r entity.Result) ([]byte, error) {
	result, err := json.Marshal(r.Result)
	if err != nil {
		return nil, err
	}
	id := r.ID
	msg := wireMessage{JSONRPC: entity.Version, ID: &id, Result: result}
	return json.Marshal(msg)
}

// errorWire is a dedicated shape for Error: unlike Request/Result, its ID
// field is always emitted — present-and-null is meaningful (spec §3: "id may
// be null when the offending request's id was unparseable"), so it cannot
// use `omitempty` the way wireMessage does.
type errorWire struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      any        `json:"id"`
	Error   *wireError `json:"error"`
}

func encodeError(e entity.Error) ([]byte, error) {
	var data json.RawMessage
	if e.Error.Data != nil {
		d, err := json.Marshal(e.Error.Data)
		if err != nil {
			return nil, err
		}
		data = d
	}
	code := e.Error.Code
	out := errorWire{
		JSONRPC: entity.Version,
		Error:   &wireError{Code: &code, Message: e.Error.Message, Data: data},
	}
	if e.HasID {
		out.ID = e.ID
	}
	return json.Marshal(out)
}

func encodeBatch(b entity.Batch) ([]byte, error) {
	parts := make([]json.RawMessage, 0, len(b.Entities))
	for _, e := range b.Entities {
		raw, err := Encode(e)
		if err != nil {
			return nil, err
		}
		parts = append(parts, raw)
	}
	return json.Marshal(parts)
}

func paramsJSON(p entity.Params) (json.RawMessage, error) {
	if p.IsAbsent() {
		return nil, nil
	}
	raw, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Decode turns bytes into an entity, never failing: malformed input becomes
// an entity.Malformed carrying whatever ID could be salvaged (spec §3, §8).
func Decode(data []byte) entity.Entity {
	trimmed := trimSpace(data)
	if len(trimmed) == 0 {
		return entity.Malformed{Kind: entity.MalformedParseError, Cause: errEmptyPayload}
	}
	if trimmed[0] == '[' {
		return decodeBatch(trimmed)
	}
	return decodeObject(trimmed)
}

func decodeBatch(data []byte) entity.Entity {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return entity.Malformed{Kind: entity.MalformedParseError, Cause: err}
	}
	if len(raw) == 0 {
		return entity.Malformed{Kind: entity.MalformedEmptyBatch, Cause: errEmptyBatch}
	}
	entities := make([]entity.Entity, 0, len(raw))
	for _, item := range raw {
		entities = append(entities, decodeObject(item))
	}
	return entity.Batch{Entities: entities}
}

func decodeObject(data []byte) entity.Entity {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return entity.Malformed{ID: extractID(data), HasID: hasExtractableID(data), Kind: entity.MalformedParseError, Cause: err}
	}

	switch {
	case msg.Method != "" && msg.ID != nil:
		params, err := entity.ParseParams(msg.Params)
		if err != nil {
			return entity.Malformed{ID: *msg.ID, HasID: true, Kind: entity.MalformedInvalidRequest, Cause: err}
		}
		return entity.Request{ID: *msg.ID, Method: msg.Method, Params: params}

	case msg.Method != "" && msg.ID == nil:
		params, err := entity.ParseParams(msg.Params)
		if err != nil {
			return entity.Malformed{Kind: entity.MalformedInvalidRequest, Cause: err}
		}
		return entity.Notification{Method: msg.Method, Params: params}

	case msg.Result != nil:
		var result any
		if err := json.Unmarshal(msg.Result, &result); err != nil {
			return entity.Malformed{ID: idOrZero(msg.ID), HasID: msg.ID != nil, Kind: entity.MalformedInvalidRequest, Cause: err}
		}
		return entity.Result{ID: idOrZero(msg.ID), Result: result}

	case msg.Error != nil:
		// encoding/json leaves msg.ID nil for "id":null, so key presence is
		// checked on the raw bytes to keep an explicit null id.
		hasID := msg.ID != nil || hasExtractableID(data)
		if msg.Error.Code == nil || msg.Error.Message == "" {
			return entity.Malformed{ID: idOrZero(msg.ID), HasID: hasID, Kind: entity.MalformedInvalidRequest, Cause: errMissingErrorFields}
		}
		var data any
		if msg.Error.Data != nil {
			if err := json.Unmarshal(msg.Error.Data, &data); err != nil {
				return entity.Malformed{ID: idOrZero(msg.ID), HasID: hasID, Kind: entity.MalformedInvalidRequest, Cause: err}
			}
		}
		return entity.Error{
			ID:    idOrZero(msg.ID),
			HasID: hasID,
			Error: entity.ErrorDetails{Code: *msg.Error.Code, Message: msg.Error.Message, Data: data},
		}

	default:
		return entity.Malformed{ID: extractID(data), HasID: hasExtractableID(data), Kind: entity.MalformedInvalidRequest, Cause: errUnrecognizedShape}
	}
}

func idOrZero(id *entity.ID) entity.ID {
	if id == nil {
		return entity.ID{}
	}
	return *id
}

// extractID performs a best-effort pull of the "id" field out of bytes that
// failed strict unmarshaling, using gjson's tolerant path lookup (it can
// locate a field even when siblings are malformed, which encoding/json's
// all-or-nothing Unmarshal cannot). Used only on the already-failed path.
func extractID(data []byte) entity.ID {
	result := gjson.GetBytes(data, "id")
	if !result.Exists() {
		return entity.ID{}
	}
	switch result.Type {
	case gjson.String:
		return entity.NewStringID(result.String())
	case gjson.Number:
		return entity.NewIntID(result.Int())
	default:
		return entity.ID{}
	}
}

func hasExtractableID(data []byte) bool {
	return gjson.GetBytes(data, "id").Exists()
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

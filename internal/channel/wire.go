package channel

import (
	"encoding/json"
	"fmt"

	"github.com/zerosync-co/ghosttext/internal/suggest"
)

// Frame types on the wire.
const (
	TypeAutocomplete = "sql_autocomplete"
	TypeData         = "data"
	TypeError        = "error"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type RequestPayload struct {
	Query          string           `json:"query"`
	Suffix         string           `json:"suffix"`
	ContextID      int              `json:"contextId"`
	RequestVersion uint64           `json:"requestVersion"`
	Anchor         suggest.Position `json:"anchor"`
}

type ResponsePayload struct {
	Suggestion     string           `json:"suggestion"`
	RequestVersion uint64           `json:"requestVersion"`
	Anchor         suggest.Position `json:"anchor"`
}

// ErrorPayload reports a failed request. RequestVersion is zero when the
// failure is not tied to a request, such as a malformed frame.
type ErrorPayload struct {
	Message        string           `json:"message"`
	RequestVersion uint64           `json:"requestVersion"`
	Anchor         suggest.Position `json:"anchor"`
}

// Frame is a decoded message. Only the field matching Type is set.
type Frame struct {
	Type       string
	Request    suggest.Request
	Suggestion suggest.Suggestion
	Error      ErrorPayload
}

func EncodeRequest(req suggest.Request) ([]byte, error) {
	return encode(TypeAutocomplete, RequestPayload{
		Query:          req.Prefix,
		Suffix:         req.Suffix,
		ContextID:      req.ContextID,
		RequestVersion: req.Version,
		Anchor:         req.Anchor,
	})
}

func EncodeSuggestion(s suggest.Suggestion) ([]byte, error) {
	return encode(TypeData, ResponsePayload{
		Suggestion:     s.Text,
		RequestVersion: s.OriginVersion,
		Anchor:         s.Anchor,
	})
}

func EncodeError(version uint64, anchor suggest.Position, message string) ([]byte, error) {
	return encode(TypeError, ErrorPayload{Message: message, RequestVersion: version, Anchor: anchor})
}

// Decode parses any frame. Unknown types are returned with only Type set.
func Decode(data []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	f := Frame{Type: env.Type}
	if env.Type == "" {
		return f, fmt.Errorf("decode frame: missing type")
	}

	switch env.Type {
	case TypeAutocomplete:
		var p RequestPayload
		if err := unmarshalData(env, &p); err != nil {
			return f, err
		}
		f.Request = suggest.Request{
			Version:   p.RequestVersion,
			Prefix:    p.Query,
			Suffix:    p.Suffix,
			Anchor:    p.Anchor,
			ContextID: p.ContextID,
		}
	case TypeData:
		var p ResponsePayload
		if err := unmarshalData(env, &p); err != nil {
			return f, err
		}
		f.Suggestion = suggest.Suggestion{
			Text:          p.Suggestion,
			OriginVersion: p.RequestVersion,
			Anchor:        p.Anchor,
		}
	case TypeError:
		if err := unmarshalData(env, &f.Error); err != nil {
			return f, err
		}
	}
	return f, nil
}

func encode(typ string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(envelope{Type: typ, Data: data})
}

func unmarshalData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("decode %s frame: missing data", env.Type)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s frame: %w", env.Type, err)
	}
	return nil
}

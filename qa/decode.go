package qa

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

const (
	valuesField = "valores_dominio"
	codeField   = "codigo_valor_dominio"
)

// ErrInvalidUTF8 is returned when a file is not UTF-8 text.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// ErrNotObject is returned when the document is not a JSON object.
var ErrNotObject = errors.New("document is not a JSON object")

// Decoder turns the content of a domain-value file into its codes.
type Decoder interface {
	Decode(data []byte) ([]string, error)
}

// JSONDecoder decodes documents of the form
//
//	{"valores_dominio": [{"codigo_valor_dominio": "A", ...}, ...]}
//
// The top level must be an object and field names match exactly. A missing
// or null valores_dominio yields no codes. Every element must carry
// codigo_valor_dominio; string codes are unquoted and any other JSON value
// keeps its literal text.
type JSONDecoder struct{}

// NewJSONDecoder creates a new JSONDecoder instance
func NewJSONDecoder() *JSONDecoder {
	return &JSONDecoder{}
}

// Decode extracts the codes of data in document order.
func (d *JSONDecoder) Decode(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if doc == nil {
		return nil, ErrNotObject
	}

	var values []map[string]json.RawMessage
	if raw, ok := doc[valuesField]; ok {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("%s: %w", valuesField, err)
		}
	}

	codes := make([]string, 0, len(values))
	for i, item := range values {
		raw, ok := item[codeField]
		if !ok || isNull(raw) {
			return nil, fmt.Errorf("%s[%d]: missing %s", valuesField, i, codeField)
		}

		code, err := codeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d].%s: %w", valuesField, i, codeField, err)
		}
		codes = append(codes, code)
	}

	return codes, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func codeString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", err
	}
	return compact.String(), nil
}

package fetcher

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeJSONObject decodes a single JSON object from a reader.
func DecodeJSONObject[T any](r io.Reader) (*T, error) {
	var obj T
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &obj, nil
}

// DecodeJSONRecords decodes a payload that is either a bare array or an
// object wrapping the array under "data". Numbers are kept as json.Number.
// An empty or null payload yields no records.
func DecodeJSONRecords[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := func(b []byte, v any) error {
		d := json.NewDecoder(bytes.NewReader(b))
		d.UseNumber()
		return d.Decode(v)
	}

	switch raw[0] {
	case '[':
		var out []T
		if err := dec(raw, &out); err != nil {
			return nil, eris.Wrap(err, "json: decode array")
		}
		return out, nil
	case '{':
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, eris.Wrap(err, "json: decode wrapper")
		}
		data := bytes.TrimSpace(wrapper.Data)
		if len(data) == 0 || data[0] != '[' {
			return nil, nil
		}
		var out []T
		if err := dec(data, &out); err != nil {
			return nil, eris.Wrap(err, "json: decode data array")
		}
		return out, nil
	}
	return nil, eris.Errorf("json: unexpected payload starting with %q", raw[0])
}

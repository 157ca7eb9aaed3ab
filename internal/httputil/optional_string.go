package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString tracks presence and value of a nullable JSON field, so a move
// request can tell "to root" (null) from "field missing":
//   - Present=false: field absent from JSON
//   - Present=true, Value=nil: field is JSON null
//   - Present=true, Value=&"id": field has value
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON implements json.Unmarshaler.
// When this method is called, the field was present in the JSON.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

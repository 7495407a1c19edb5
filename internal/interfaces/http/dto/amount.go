package dto

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errAmountType = errors.New("amount must be a number or a numeric string")

// Amount accepts both 1500 and "1500.00" in request bodies. Parsing into a
// decimal is left to the domain so that a single rule decides what is valid.
type Amount string

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errAmountType
	}
	*a = Amount(n.String())
	return nil
}

// String returns the raw amount text
func (a Amount) String() string {
	return string(a)
}

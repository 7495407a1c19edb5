package mobilemoney

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Metadata item names sent by the network
const (
	MetadataReceiptNumber   = "MpesaReceiptNumber"
	MetadataAmount          = "Amount"
	MetadataPhoneNumber     = "PhoneNumber"
	MetadataTransactionDate = "TransactionDate"
)

// CallbackEnvelope is the asynchronous STK push result posted by the network
type CallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback carries the result of one STK push
type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        flexibleInt       `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackMetadata is the list of name/value pairs sent on success
type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem is one name/value pair. Value may be a number, a string or absent.
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value,omitempty"`
}

// Text returns the value as text. Numbers keep their literal form.
func (i MetadataItem) Text() string {
	raw := bytes.TrimSpace(i.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Lookup finds a metadata value by item name
func (m *CallbackMetadata) Lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, item := range m.Item {
		if item.Name == name {
			return item.Text(), true
		}
	}
	return "", false
}

// CallbackResult is the decoded, typed form of a callback
type CallbackResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	ReceiptNumber     string
	Amount            string
	PhoneNumber       string
	TransactionDate   string
}

// Succeeded returns true if the network reports the payment as completed
func (r *CallbackResult) Succeeded() bool {
	return r.ResultCode == ResultCodeSuccess
}

// ParseCallback decodes a raw callback body. At least one correlation id
// must be present.
func ParseCallback(raw []byte) (*CallbackResult, error) {
	var env CallbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrInvalidCallback
	}
	cb := env.Body.StkCallback
	if !cb.ResultCode.set {
		return nil, ErrInvalidCallback
	}
	result := &CallbackResult{
		MerchantRequestID: strings.TrimSpace(cb.MerchantRequestID),
		CheckoutRequestID: strings.TrimSpace(cb.CheckoutRequestID),
		ResultCode:        cb.ResultCode.value,
		ResultDesc:        cb.ResultDesc,
	}
	if result.MerchantRequestID == "" && result.CheckoutRequestID == "" {
		return nil, ErrInvalidCallback
	}
	result.ReceiptNumber, _ = cb.CallbackMetadata.Lookup(MetadataReceiptNumber)
	result.Amount, _ = cb.CallbackMetadata.Lookup(MetadataAmount)
	result.PhoneNumber, _ = cb.CallbackMetadata.Lookup(MetadataPhoneNumber)
	result.TransactionDate, _ = cb.CallbackMetadata.Lookup(MetadataTransactionDate)
	return result, nil
}

// flexibleInt accepts both 0 and "0"
type flexibleInt struct {
	value int
	set   bool
}

func (f *flexibleInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.value, f.set = v, true
	return nil
}

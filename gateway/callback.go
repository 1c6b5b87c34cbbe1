package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// STKCallbackEnvelope mirrors the JSON Daraja delivers to the callback
// URL after an STK push resolves.
type STKCallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback is the inner result structure. ResultCode 0 means the
// customer completed the payment; anything else is a failure.
type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// CallbackItem is one name/value pair in the success metadata list.
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Success reports whether the callback indicates a completed payment.
func (cb STKCallback) Success() bool {
	return cb.ResultCode == 0
}

// Amount extracts the gross amount the customer paid from the metadata.
func (cb STKCallback) Amount() (decimal.Decimal, error) {
	v, ok := cb.metadataValue("Amount")
	if !ok {
		return decimal.Zero, fmt.Errorf("callback metadata missing Amount")
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		return decimal.NewFromString(val)
	default:
		return decimal.Zero, fmt.Errorf("unexpected Amount type %T", v)
	}
}

// ReceiptNumber extracts the M-Pesa receipt number from the metadata.
func (cb STKCallback) ReceiptNumber() string {
	if v, ok := cb.metadataValue("MpesaReceiptNumber"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PayerPhone extracts the payer's phone number from the metadata.
func (cb STKCallback) PayerPhone() string {
	if v, ok := cb.metadataValue("PhoneNumber"); ok {
		switch val := v.(type) {
		case string:
			return val
		case float64:
			return decimal.NewFromFloat(val).String()
		}
	}
	return ""
}

func (cb STKCallback) metadataValue(name string) (interface{}, bool) {
	if cb.CallbackMetadata == nil {
		return nil, false
	}
	for _, item := range cb.CallbackMetadata.Item {
		if item.Name == name {
			return item.Value, true
		}
	}
	return nil, false
}

// ParseSTKCallback decodes a raw callback body.
func ParseSTKCallback(body []byte) (*STKCallback, error) {
	var envelope STKCallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode stk callback: %w", err)
	}
	cb := envelope.Body.StkCallback
	if cb.MerchantRequestID == "" {
		return nil, fmt.Errorf("stk callback missing MerchantRequestID")
	}
	return &cb, nil
}

package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"

	timestampLayout = "20060102150405"
)

// AuthError means the client-credentials handshake was rejected. The
// push attempt is abandoned, not retried.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mpesa auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError means the push request itself failed, either in transport
// or because the gateway rejected it. No ledger commitment may be
// created after this error.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("mpesa request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to the Daraja API for one resolved credential bundle.
// It is stateless apart from the bundle; safe for concurrent use.
type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Daraja client. The base URL is selected by the
// bundle's environment flag.
func NewClient(creds Credentials) *Client {
	baseURL := sandboxBaseURL
	if creds.Env == "production" {
		baseURL = productionBaseURL
	}
	return &Client{
		creds:      creds,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(creds Credentials, baseURL string) *Client {
	c := NewClient(creds)
	c.baseURL = baseURL
	return c
}

// Token performs the client-credentials handshake and returns a
// short-lived bearer token.
func (c *Client) Token(ctx context.Context) (string, error) {
	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.SetBasicAuth(c.creds.ConsumerKey, c.creds.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &AuthError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", &AuthError{Err: err}
	}
	if res.AccessToken == "" {
		return "", &AuthError{Err: fmt.Errorf("empty access token")}
	}
	return res.AccessToken, nil
}

// STKPushResult carries the gateway-issued correlation identifiers plus
// the raw response body for the audit trail.
type STKPushResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	RawResponse       string
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ErrorMessage        string `json:"errorMessage"`
}

// STKPush submits a push-payment request to the customer's phone.
// Daraja takes whole shillings, so the amount is truncated to its
// integer part before submission.
func (c *Client) STKPush(ctx context.Context, token string, amount decimal.Decimal, phone, accountRef, desc string) (*STKPushResult, error) {
	timestamp := time.Now().Format(timestampLayout)
	password := base64.StdEncoding.EncodeToString([]byte(c.creds.Shortcode + c.creds.Passkey + timestamp))
	msisdn := NormalizePhone(phone)

	payload := stkPushRequest{
		BusinessShortCode: c.creds.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount.Truncate(0).String(),
		PartyA:            msisdn,
		PartyB:            c.creds.Shortcode,
		PhoneNumber:       msisdn,
		CallBackURL:       c.creds.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   desc,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(body))
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	var res stkPushResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, &RequestError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK || res.ResponseCode != "0" {
		msg := res.ErrorMessage
		if msg == "" {
			msg = res.ResponseDescription
		}
		return nil, &RequestError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, msg)}
	}
	if res.MerchantRequestID == "" || res.CheckoutRequestID == "" {
		return nil, &RequestError{Err: fmt.Errorf("gateway accepted push without correlation ids")}
	}

	return &STKPushResult{
		MerchantRequestID: res.MerchantRequestID,
		CheckoutRequestID: res.CheckoutRequestID,
		RawResponse:       string(raw),
	}, nil
}

// NormalizePhone rewrites a local-format Kenyan number into
// international form: 0712345678 becomes 254712345678. Numbers already
// in international form pass through unchanged.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "0") {
		return "254" + phone[1:]
	}
	return phone
}

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
)

const codeInvoiceNotAvailable = "INVOICE_NOT_AVAILABLE"

// knownCodes maps server error codes back to their sentinels so callers can use errors.Is.
var knownCodes = map[string]error{
	publicinvoicedomain.ErrAmountOutOfBounds.Error():  publicinvoicedomain.ErrAmountOutOfBounds,
	publicinvoicedomain.ErrInvoiceAlreadyPaid.Error(): publicinvoicedomain.ErrInvoiceAlreadyPaid,
	publicinvoicedomain.ErrReceiptUnavailable.Error(): publicinvoicedomain.ErrReceiptUnavailable,
	publicinvoicedomain.ErrConfirmInProgress.Error():  publicinvoicedomain.ErrConfirmInProgress,
	paymentdomain.ErrInvoiceMismatch.Error():          paymentdomain.ErrInvoiceMismatch,
	paymentdomain.ErrPaymentNotSucceeded.Error():      paymentdomain.ErrPaymentNotSucceeded,
	paymentdomain.ErrGatewayUnavailable.Error():       paymentdomain.ErrGatewayUnavailable,
}

// APIError is a non-2xx answer from the public invoice API.
type APIError struct {
	Status    int
	Type      string
	Code      string
	Message   string
	Retryable bool

	err error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("public invoice api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("public invoice api %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

// HTTPClient talks to /public/orgs/:org_id/invoices/:token.
type HTTPClient struct {
	base string
	http *http.Client
}

func NewHTTPClient(baseURL string, orgID snowflake.ID, token string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	base := strings.TrimRight(baseURL, "/") +
		"/public/orgs/" + orgID.String() +
		"/invoices/" + url.PathEscape(strings.TrimSpace(token))
	return &HTTPClient{base: base, http: httpClient}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (c *HTTPClient) FetchInvoice(ctx context.Context) (*publicinvoicedomain.PublicInvoiceResponse, error) {
	var out publicinvoicedomain.PublicInvoiceResponse
	if err := c.do(ctx, http.MethodGet, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (*publicinvoicedomain.PaymentIntentResponse, error) {
	var out publicinvoicedomain.PaymentIntentResponse
	if err := c.do(ctx, http.MethodPost, "/payment-intents", amountRequest{Amount: amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ConfirmPaymentIntent(ctx context.Context, intentID string) (*publicinvoicedomain.ConfirmResponse, error) {
	var out publicinvoicedomain.ConfirmResponse
	path := "/payment-intents/" + url.PathEscape(intentID) + "/confirm"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateWalletOrder(ctx context.Context, amount decimal.Decimal) (*publicinvoicedomain.WalletOrderResponse, error) {
	var out publicinvoicedomain.WalletOrderResponse
	if err := c.do(ctx, http.MethodPost, "/wallet-orders", amountRequest{Amount: amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CaptureWalletOrder(ctx context.Context, orderID string) (*publicinvoicedomain.ConfirmResponse, error) {
	var out publicinvoicedomain.ConfirmResponse
	path := "/wallet-orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchReceipt downloads the receipt PDF.
func (c *HTTPClient) FetchReceipt(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/receipt", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Type      string `json:"type"`
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
		Errors    []struct {
			Code string `json:"code"`
		} `json:"errors"`
	} `json:"error"`
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	if body.Code == codeInvoiceNotAvailable {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.err = publicinvoicedomain.ErrInvoiceUnavailable
		return apiErr
	}
	if body.Error == nil {
		return apiErr
	}

	apiErr.Type = body.Error.Type
	apiErr.Code = body.Error.Code
	apiErr.Message = body.Error.Message
	apiErr.Retryable = body.Error.Retryable
	if apiErr.Code == "" && len(body.Error.Errors) > 0 {
		apiErr.Code = body.Error.Errors[0].Code
	}

	if apiErr.Type == "gateway_error" {
		return &paymentdomain.GatewayError{Code: apiErr.Code, Message: apiErr.Message, Err: apiErr}
	}
	apiErr.err = knownCodes[apiErr.Code]
	return apiErr
}

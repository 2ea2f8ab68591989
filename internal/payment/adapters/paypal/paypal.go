package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/config"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 12 * time.Second
	// tokens are refreshed this long before PayPal expires them
	tokenSkew = time.Minute
)

// Gateway is the approve-then-capture wallet gateway over the PayPal Orders v2 API.
type Gateway struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client
	log          *zap.Logger
	now          func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

var _ paymentdomain.WalletGateway = (*Gateway)(nil)

func NewGateway(cfg config.WalletConfig, log *zap.Logger) (*Gateway, error) {
	if !cfg.Enabled() {
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	if log == nil {
		log = zap.NewNop()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api-m.sandbox.paypal.com"
	}
	return &Gateway{
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		baseURL:      base,
		client:       &http.Client{Timeout: defaultTimeout},
		log:          log.Named("payment.paypal"),
		now:          time.Now,
	}, nil
}

func (g *Gateway) Provider() string { return paymentdomain.ProviderPayPal }

func (g *Gateway) ClientID() string { return g.clientID }

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string        `json:"reference_id,omitempty"`
	CustomID    string        `json:"custom_id,omitempty"`
	Description string        `json:"description,omitempty"`
	Amount      *money        `json:"amount,omitempty"`
	Payments    *unitPayments `json:"payments,omitempty"`
}

type unitPayments struct {
	Captures []capture `json:"captures"`
}

type capture struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	CustomID string `json:"custom_id"`
	Amount   money  `json:"amount"`
}

type orderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (g *Gateway) CreateOrder(ctx context.Context, input paymentdomain.CreateOrderInput) (*paymentdomain.Order, error) {
	if !input.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	body := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: input.ReferenceID,
			CustomID:    input.CustomID,
			Description: input.Description,
			Amount:      &money{CurrencyCode: currency, Value: input.Amount.StringFixed(2)},
		}},
	}

	var resp orderResponse
	if err := g.doJSON(ctx, "create_order", http.MethodPost, "/v2/checkout/orders", body, input.RequestID, &resp); err != nil {
		return nil, err
	}
	return &paymentdomain.Order{
		ID:       resp.ID,
		Status:   resp.Status,
		CustomID: input.CustomID,
		Amount:   input.Amount,
		Currency: currency,
	}, nil
}

func (g *Gateway) CaptureOrder(ctx context.Context, orderID, requestID string) (*paymentdomain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, paymentdomain.ErrInvalidID
	}

	var resp orderResponse
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := g.doJSON(ctx, "capture_order", http.MethodPost, path, struct{}{}, requestID, &resp); err != nil {
		return nil, err
	}

	order := &paymentdomain.Order{ID: resp.ID, Status: resp.Status}
	if len(resp.PurchaseUnits) == 0 {
		return order, nil
	}
	unit := resp.PurchaseUnits[0]
	order.CustomID = unit.CustomID
	if unit.Payments == nil || len(unit.Payments.Captures) == 0 {
		return order, nil
	}
	captured := unit.Payments.Captures[0]
	order.CaptureID = captured.ID
	if captured.CustomID != "" {
		order.CustomID = captured.CustomID
	}
	order.Currency = strings.ToUpper(captured.Amount.CurrencyCode)
	amount, err := decimal.NewFromString(captured.Amount.Value)
	if err != nil {
		return nil, &paymentdomain.GatewayError{
			Provider: paymentdomain.ProviderPayPal,
			Code:     "invalid_response",
			Message:  "The wallet returned an unreadable capture amount.",
			Err:      err,
		}
	}
	order.Amount = amount
	return order, nil
}

func (g *Gateway) doJSON(ctx context.Context, op, method, path string, body any, requestID string, out any) error {
	token, err := g.token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if requestID = strings.TrimSpace(requestID); requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return g.unavailable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return g.decodeError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return g.unavailable(op, err)
	}
	return nil
}

func (g *Gateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && g.now().Before(g.expiresAt) {
		return g.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.clientID, g.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", g.unavailable("oauth_token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", g.decodeError("oauth_token", resp)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", g.unavailable("oauth_token", err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return "", g.unavailable("oauth_token", fmt.Errorf("empty access token"))
	}

	g.accessToken = tok.AccessToken
	g.expiresAt = g.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	return g.accessToken, nil
}

func (g *Gateway) decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorResponse
	_ = json.Unmarshal(raw, &body)

	code := strings.TrimSpace(body.Name)
	message := strings.TrimSpace(body.Message)
	if len(body.Details) > 0 {
		if body.Details[0].Issue != "" {
			code = body.Details[0].Issue
		}
		if body.Details[0].Description != "" {
			message = body.Details[0].Description
		}
	}
	if code == "" {
		code = fmt.Sprintf("http_%d", resp.StatusCode)
	}
	if message == "" {
		message = "The wallet payment could not be completed."
	}

	g.log.Warn("paypal api error",
		zap.String("op", op),
		zap.String("code", code),
		zap.Int("http_status", resp.StatusCode),
	)
	gatewayErr := &paymentdomain.GatewayError{
		Provider: paymentdomain.ProviderPayPal,
		Code:     code,
		Message:  message,
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		gatewayErr.Err = paymentdomain.ErrGatewayUnavailable
	}
	return gatewayErr
}

func (g *Gateway) unavailable(op string, err error) error {
	g.log.Warn("paypal request failed", zap.String("op", op), zap.Error(err))
	return &paymentdomain.GatewayError{
		Provider: paymentdomain.ProviderPayPal,
		Code:     "unavailable",
		Message:  "The wallet is unavailable. Please try again.",
		Err:      fmt.Errorf("%w: %w", paymentdomain.ErrGatewayUnavailable, err),
	}
}

// Package session drives a payer through the public invoice page: load the invoice,
// pick an amount, pay by card or wallet, and land on a reconciled result.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"go.uber.org/zap"
)

type State string

const (
	StateLoading     State = "loading"
	StateError       State = "error"
	StateAlreadyPaid State = "already_paid"
	StateNoGateway   State = "no_gateway"
	StateCheckout    State = "checkout"
	StatePaying      State = "paying"
	StateSuccess     State = "success"
)

const DefaultConfirmTimeout = 30 * time.Second

var (
	ErrNotCheckout        = errors.New("session_not_in_checkout")
	ErrAmountOutOfBounds  = errors.New("amount_out_of_bounds")
	ErrGatewayNotOffered  = errors.New("gateway_not_offered")
	ErrConfirmNotAccepted = errors.New("payment_confirmation_not_accepted")
)

type Option func(*Session)

// WithConfirmTimeout bounds the collect-and-confirm step of a card payment and the
// approve-and-capture step of a wallet payment.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.confirmTimeout = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// Session is one payer's pass through the public invoice page. Methods are safe
// for concurrent use. The lock is not held across network calls, so State reports
// paying while a payment is in flight.
type Session struct {
	client         Client
	card           CardCollector
	wallet         WalletApprover
	log            *zap.Logger
	confirmTimeout time.Duration

	mu      sync.Mutex
	state   State
	invoice *publicinvoicedomain.PublicInvoiceResponse
	amount  decimal.Decimal
	lastErr error
}

// New returns a session in the loading state. card and wallet may be nil when the
// host cannot run that gateway's UI; the matching payment path is then not offered.
func New(client Client, card CardCollector, wallet WalletApprover, opts ...Option) *Session {
	s := &Session{
		client:         client,
		card:           card,
		wallet:         wallet,
		log:            zap.NewNop(),
		confirmTimeout: DefaultConfirmTimeout,
		state:          StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("publicinvoice.session")
	return s
}

// Load fetches the invoice and picks the landing state.
func (s *Session) Load(ctx context.Context) State {
	s.mu.Lock()
	if s.state == StatePaying {
		s.mu.Unlock()
		return StatePaying
	}
	s.state = StateLoading
	s.lastErr = nil
	s.mu.Unlock()

	invoice, err := s.client.FetchInvoice(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(invoice, err)
}

// Reload re-fetches after a payment; a partial payment lands back on checkout with
// the remaining balance selected.
func (s *Session) Reload(ctx context.Context) State {
	return s.Load(ctx)
}

func (s *Session) apply(invoice *publicinvoicedomain.PublicInvoiceResponse, err error) State {
	if err != nil {
		s.log.Debug("public invoice fetch failed", zap.Error(err))
		s.invoice = nil
		s.lastErr = err
		s.state = StateError
		return s.state
	}
	s.invoice = invoice
	s.amount = invoice.Invoice.Totals.BalanceDue.Round(2)

	switch {
	case !s.balance().IsPositive(), invoice.Invoice.PersistedStatus == invoicedomain.StatusPaid:
		s.state = StateAlreadyPaid
	case !s.cardOffered() && !s.walletOffered():
		s.state = StateNoGateway
	default:
		s.state = StateCheckout
	}
	return s.state
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Invoice() *publicinvoicedomain.PublicInvoiceResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoice
}

func (s *Session) Amount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amount
}

// LastError is the failure behind the current error state or the last failed payment.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) ReceiptAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoice != nil && s.invoice.ReceiptAvailable
}

func (s *Session) CardOffered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardOffered()
}

func (s *Session) WalletOffered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.walletOffered()
}

// SelectAmount sets the amount to pay. It is checked locally against
// [minimum, balance] and never reaches the network.
func (s *Session) SelectAmount(amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCheckout {
		return ErrNotCheckout
	}
	amount = amount.Round(2)
	if !amount.IsPositive() || amount.LessThan(s.invoice.MinimumAmount) || amount.GreaterThan(s.balance()) {
		return ErrAmountOutOfBounds
	}
	s.amount = amount
	return nil
}

// PayByCard creates an intent, hands it to the card collector and confirms it with
// the server. Any failure returns the session to checkout with LastError set.
func (s *Session) PayByCard(ctx context.Context) error {
	amount, err := s.begin(s.cardOffered)
	if err != nil {
		return err
	}

	intent, err := s.client.CreatePaymentIntent(ctx, amount)
	if err != nil {
		return s.fail(err)
	}

	cctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	if err := s.card.Collect(cctx, *intent); err != nil {
		return s.fail(err)
	}
	res, err := s.client.ConfirmPaymentIntent(cctx, intent.IntentID)
	if err != nil {
		return s.fail(err)
	}
	if !res.OK {
		return s.fail(ErrConfirmNotAccepted)
	}
	return s.succeed(ctx)
}

// PayByWallet creates an order, waits for payer approval and captures it. Like the
// card path it holds the paying state until capture settles, so a second payment
// cannot start while the approval window is open.
func (s *Session) PayByWallet(ctx context.Context) error {
	amount, err := s.begin(s.walletOffered)
	if err != nil {
		return err
	}

	order, err := s.client.CreateWalletOrder(ctx, amount)
	if err != nil {
		return s.fail(err)
	}

	cctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	if err := s.wallet.Approve(cctx, order.OrderID); err != nil {
		return s.fail(err)
	}
	res, err := s.client.CaptureWalletOrder(cctx, order.OrderID)
	if err != nil {
		return s.fail(err)
	}
	if !res.OK {
		return s.fail(ErrConfirmNotAccepted)
	}
	return s.succeed(ctx)
}

// begin moves checkout to paying and returns the selected amount.
func (s *Session) begin(offered func() bool) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCheckout {
		return decimal.Zero, ErrNotCheckout
	}
	if !offered() {
		return decimal.Zero, ErrGatewayNotOffered
	}
	s.state = StatePaying
	s.lastErr = nil
	return s.amount, nil
}

func (s *Session) fail(err error) error {
	s.log.Debug("payment attempt failed", zap.Error(err))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.state = StateCheckout
	return err
}

// succeed refreshes the invoice once so balance and receipt availability come from
// the server. A failed refresh keeps the success state.
func (s *Session) succeed(ctx context.Context) error {
	invoice, err := s.client.FetchInvoice(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSuccess
	if err != nil {
		s.log.Warn("refresh after payment failed", zap.Error(err))
		refreshed := *s.invoice
		refreshed.ReceiptAvailable = true
		s.invoice = &refreshed
		return nil
	}
	s.invoice = invoice
	return nil
}

func (s *Session) balance() decimal.Decimal {
	if s.invoice == nil {
		return decimal.Zero
	}
	return s.invoice.Invoice.Totals.BalanceDue.Round(2)
}

func (s *Session) cardOffered() bool {
	return s.card != nil && s.invoice != nil && s.invoice.Gateways.Card != nil
}

func (s *Session) walletOffered() bool {
	return s.wallet != nil && s.invoice != nil && s.invoice.Gateways.Wallet != nil
}

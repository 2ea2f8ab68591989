package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"github.com/smallbiznis/studiobooks/internal/publicinvoice/session"
	"github.com/smallbiznis/studiobooks/internal/publicinvoice/session/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceResponse(total, paid string, receipt bool) *publicinvoicedomain.PublicInvoiceResponse {
	totalDec := decimal.RequireFromString(total)
	paidDec := decimal.RequireFromString(paid)
	balance := totalDec.Sub(paidDec)

	status := invoicedomain.StatusPending
	switch {
	case !balance.IsPositive():
		status = invoicedomain.StatusPaid
	case paidDec.IsPositive():
		status = invoicedomain.StatusPartial
	}

	minimum := decimal.RequireFromString("0.5")
	if balance.LessThan(minimum) {
		minimum = decimal.Max(balance, decimal.Zero)
	}
	return &publicinvoicedomain.PublicInvoiceResponse{
		Invoice: publicinvoicedomain.PublicInvoiceView{
			InvoiceNumber: "INV-1",
			Currency:      "USD",
			Totals: invoicedomain.Totals{
				Total:      totalDec,
				PaidAmount: paidDec,
				BalanceDue: balance,
			},
			PersistedStatus: status,
			DisplayStatus:   status,
		},
		Gateways: publicinvoicedomain.Gateways{
			Card:   &publicinvoicedomain.CardAvailability{Provider: "stripe", PublishableKey: "pk_test"},
			Wallet: &publicinvoicedomain.WalletAvailability{Provider: "paypal", ClientID: "client"},
		},
		MinimumAmount:    minimum,
		ReceiptAvailable: receipt,
	}
}

type amountMatcher struct{ want decimal.Decimal }

func amountEq(v string) gomock.Matcher {
	return amountMatcher{want: decimal.RequireFromString(v)}
}

func (m amountMatcher) Matches(x interface{}) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m amountMatcher) String() string { return "amount equal to " + m.want.String() }

type fixture struct {
	client *mocks.MockClient
	card   *mocks.MockCardCollector
	wallet *mocks.MockWalletApprover
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	return fixture{
		client: mocks.NewMockClient(ctrl),
		card:   mocks.NewMockCardCollector(ctrl),
		wallet: mocks.NewMockWalletApprover(ctrl),
	}
}

func TestLoadLandingStates(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch error", func(t *testing.T) {
		f := newFixture(t)
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(nil, publicinvoicedomain.ErrInvoiceUnavailable)
		s := session.New(f.client, f.card, f.wallet)
		assert.Equal(t, session.StateError, s.Load(ctx))
		assert.ErrorIs(t, s.LastError(), publicinvoicedomain.ErrInvoiceUnavailable)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newFixture(t)
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "216", true), nil)
		s := session.New(f.client, f.card, f.wallet)
		assert.Equal(t, session.StateAlreadyPaid, s.Load(ctx))
	})

	t.Run("persisted paid with balance", func(t *testing.T) {
		f := newFixture(t)
		res := invoiceResponse("216", "100", true)
		res.Invoice.PersistedStatus = invoicedomain.StatusPaid
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(res, nil)
		s := session.New(f.client, f.card, f.wallet)
		assert.Equal(t, session.StateAlreadyPaid, s.Load(ctx))
	})

	t.Run("no gateway", func(t *testing.T) {
		f := newFixture(t)
		res := invoiceResponse("216", "0", false)
		res.Gateways = publicinvoicedomain.Gateways{}
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(res, nil)
		s := session.New(f.client, f.card, f.wallet)
		assert.Equal(t, session.StateNoGateway, s.Load(ctx))
	})

	t.Run("gateway offered but no host ui", func(t *testing.T) {
		f := newFixture(t)
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil)
		s := session.New(f.client, nil, nil)
		assert.Equal(t, session.StateNoGateway, s.Load(ctx))
	})

	t.Run("checkout", func(t *testing.T) {
		f := newFixture(t)
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil)
		s := session.New(f.client, f.card, f.wallet)
		assert.Equal(t, session.StateCheckout, s.Load(ctx))
		assert.True(t, decimal.NewFromInt(216).Equal(s.Amount()))
		assert.True(t, s.CardOffered())
		assert.True(t, s.WalletOffered())
	})
}

func TestSelectAmountIsLocal(t *testing.T) {
	f := newFixture(t)
	f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil)
	s := session.New(f.client, f.card, f.wallet)
	require.Equal(t, session.StateCheckout, s.Load(context.Background()))

	for _, amount := range []string{"0", "0.49", "216.01"} {
		assert.ErrorIs(t, s.SelectAmount(decimal.RequireFromString(amount)), session.ErrAmountOutOfBounds, amount)
	}
	assert.Equal(t, session.StateCheckout, s.State())
	require.NoError(t, s.SelectAmount(decimal.RequireFromString("100")))
	assert.True(t, decimal.NewFromInt(100).Equal(s.Amount()))
}

func TestSelectAmountOutsideCheckout(t *testing.T) {
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet)
	assert.ErrorIs(t, s.SelectAmount(decimal.NewFromInt(1)), session.ErrNotCheckout)
	assert.ErrorIs(t, s.PayByCard(context.Background()), session.ErrNotCheckout)
}

func TestPartialCardPaymentThenRevisit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet)

	intent := &publicinvoicedomain.PaymentIntentResponse{IntentID: "pi_1", ClientSecret: "secret", Amount: decimal.NewFromInt(100)}
	gomock.InOrder(
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil),
		f.client.EXPECT().CreatePaymentIntent(gomock.Any(), amountEq("100")).Return(intent, nil),
		f.card.EXPECT().Collect(gomock.Any(), *intent).Return(nil),
		f.client.EXPECT().ConfirmPaymentIntent(gomock.Any(), "pi_1").Return(&publicinvoicedomain.ConfirmResponse{OK: true}, nil),
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "100", true), nil),
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "100", true), nil),
	)

	require.Equal(t, session.StateCheckout, s.Load(ctx))
	assert.False(t, s.ReceiptAvailable())
	require.NoError(t, s.SelectAmount(decimal.NewFromInt(100)))
	require.NoError(t, s.PayByCard(ctx))

	assert.Equal(t, session.StateSuccess, s.State())
	assert.True(t, s.ReceiptAvailable())
	assert.True(t, decimal.NewFromInt(116).Equal(s.Invoice().Invoice.Totals.BalanceDue))
	assert.Equal(t, invoicedomain.StatusPartial, s.Invoice().Invoice.DisplayStatus)

	assert.Equal(t, session.StateCheckout, s.Reload(ctx))
	assert.True(t, decimal.NewFromInt(116).Equal(s.Amount()))
}

func TestCardGatewayErrorReturnsToCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet)

	declined := &paymentdomain.GatewayError{Code: "card_declined", Message: "Your card was declined."}
	intent := &publicinvoicedomain.PaymentIntentResponse{IntentID: "pi_1"}
	f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil)
	f.client.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).Return(intent, nil)
	f.card.EXPECT().Collect(gomock.Any(), gomock.Any()).Return(declined)

	require.Equal(t, session.StateCheckout, s.Load(ctx))
	err := s.PayByCard(ctx)
	assert.ErrorIs(t, err, declined)
	assert.Equal(t, session.StateCheckout, s.State())

	var gatewayErr *paymentdomain.GatewayError
	require.ErrorAs(t, s.LastError(), &gatewayErr)
	assert.Equal(t, "Your card was declined.", gatewayErr.Message)
}

func TestConfirmTimeoutIsNotRetried(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet, session.WithConfirmTimeout(20*time.Millisecond))

	intent := &publicinvoicedomain.PaymentIntentResponse{IntentID: "pi_1"}
	f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil)
	f.client.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).Return(intent, nil)
	f.card.EXPECT().Collect(gomock.Any(), gomock.Any()).Return(nil)
	f.client.EXPECT().ConfirmPaymentIntent(gomock.Any(), "pi_1").
		DoAndReturn(func(ctx context.Context, _ string) (*publicinvoicedomain.ConfirmResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	require.Equal(t, session.StateCheckout, s.Load(ctx))
	err := s.PayByCard(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, session.StateCheckout, s.State())
	assert.ErrorIs(t, s.LastError(), context.DeadlineExceeded)
}

func TestWalletPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet)

	gomock.InOrder(
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil),
		f.client.EXPECT().CreateWalletOrder(gomock.Any(), amountEq("216")).Return(&publicinvoicedomain.WalletOrderResponse{OrderID: "ORDER-1"}, nil),
		f.wallet.EXPECT().Approve(gomock.Any(), "ORDER-1").Return(nil),
		f.client.EXPECT().CaptureWalletOrder(gomock.Any(), "ORDER-1").Return(&publicinvoicedomain.ConfirmResponse{OK: true}, nil),
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "216", true), nil),
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "216", true), nil),
	)

	require.Equal(t, session.StateCheckout, s.Load(ctx))
	require.NoError(t, s.PayByWallet(ctx))
	assert.Equal(t, session.StateSuccess, s.State())
	assert.True(t, s.ReceiptAvailable())
	assert.Equal(t, session.StateAlreadyPaid, s.Reload(ctx))
}

func TestWalletApprovalCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet)

	cancelled := errors.New("payer closed the approval window")
	f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil)
	f.client.EXPECT().CreateWalletOrder(gomock.Any(), gomock.Any()).Return(&publicinvoicedomain.WalletOrderResponse{OrderID: "ORDER-1"}, nil)
	f.wallet.EXPECT().Approve(gomock.Any(), "ORDER-1").Return(cancelled)

	require.Equal(t, session.StateCheckout, s.Load(ctx))
	assert.ErrorIs(t, s.PayByWallet(ctx), cancelled)
	assert.Equal(t, session.StateCheckout, s.State())
}

func TestSuccessSurvivesFailedRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet)

	gomock.InOrder(
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil),
		f.client.EXPECT().CreateWalletOrder(gomock.Any(), gomock.Any()).Return(&publicinvoicedomain.WalletOrderResponse{OrderID: "ORDER-1"}, nil),
		f.wallet.EXPECT().Approve(gomock.Any(), "ORDER-1").Return(nil),
		f.client.EXPECT().CaptureWalletOrder(gomock.Any(), "ORDER-1").Return(&publicinvoicedomain.ConfirmResponse{OK: true}, nil),
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(nil, errors.New("connection reset")),
	)

	require.Equal(t, session.StateCheckout, s.Load(ctx))
	require.NoError(t, s.PayByWallet(ctx))
	assert.Equal(t, session.StateSuccess, s.State())
	assert.True(t, s.ReceiptAvailable())
}

func TestWalletApprovalHoldsPayingState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := session.New(f.client, f.card, f.wallet)

	gomock.InOrder(
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "0", false), nil),
		f.client.EXPECT().CreateWalletOrder(gomock.Any(), gomock.Any()).Return(&publicinvoicedomain.WalletOrderResponse{OrderID: "ORDER-1"}, nil),
		f.wallet.EXPECT().Approve(gomock.Any(), "ORDER-1").DoAndReturn(func(context.Context, string) error {
			assert.Equal(t, session.StatePaying, s.State())
			assert.ErrorIs(t, s.PayByCard(ctx), session.ErrNotCheckout)
			return nil
		}),
		f.client.EXPECT().CaptureWalletOrder(gomock.Any(), "ORDER-1").Return(&publicinvoicedomain.ConfirmResponse{OK: true}, nil),
		f.client.EXPECT().FetchInvoice(gomock.Any()).Return(invoiceResponse("216", "216", true), nil),
	)

	require.Equal(t, session.StateCheckout, s.Load(ctx))
	require.NoError(t, s.PayByWallet(ctx))
	assert.Equal(t, session.StateSuccess, s.State())
}

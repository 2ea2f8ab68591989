package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/clock"
	"github.com/smallbiznis/studiobooks/internal/config"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	customerrepo "github.com/smallbiznis/studiobooks/internal/customer/repository"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/studiobooks/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/studiobooks/internal/invoice/service"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/smallbiznis/studiobooks/internal/payment/domain/mocks"
	paymentrepo "github.com/smallbiznis/studiobooks/internal/payment/repository"
	paymentservice "github.com/smallbiznis/studiobooks/internal/payment/service"
	productdomain "github.com/smallbiznis/studiobooks/internal/product/domain"
	productrepo "github.com/smallbiznis/studiobooks/internal/product/repository"
	productservice "github.com/smallbiznis/studiobooks/internal/product/service"
	taxservice "github.com/smallbiznis/studiobooks/internal/tax/service"
	"github.com/smallbiznis/studiobooks/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type harness struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	ctx      context.Context
	orgID    snowflake.ID
	invoices invoicedomain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := dbtest.Open(t,
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
		&paymentdomain.EventRecord{},
		&customerdomain.Customer{},
		&customerdomain.CustomerCredit{},
		&productdomain.Product{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	h := &harness{
		db:    db,
		node:  node,
		clock: clock.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		orgID: node.Generate(),
	}
	h.ctx = orgcontext.WithOrgID(context.Background(), int64(h.orgID))

	holder := config.NewStaticSettingsHolder(config.DefaultSettings())
	h.invoices = invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       h.clock,
		Settings:    holder,
		Repo:        invoicerepo.Provide(),
		PaymentRepo: paymentrepo.Provide(),
		ProductSvc: productservice.New(productservice.Params{
			DB: db, Log: zap.NewNop(), GenID: node, Repo: productrepo.Provide(),
		}),
		TaxResolver: taxservice.NewResolver(taxservice.ResolverParams{
			DB: db, Log: zap.NewNop(), Settings: holder, CustomerRepo: customerrepo.Provide(),
		}),
	})
	return h
}

func (h *harness) service(invoices invoicedomain.Service, card paymentdomain.CardGateway) *paymentservice.Service {
	if invoices == nil {
		invoices = h.invoices
	}
	return paymentservice.NewService(paymentservice.Params{
		DB:           h.db,
		Log:          zap.NewNop(),
		GenID:        h.node,
		Clock:        h.clock,
		Repo:         paymentrepo.Provide(),
		InvoiceSvc:   invoices,
		InvoiceRepo:  invoicerepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		CardGateway:  card,
	})
}

// invoice saves a 216.00 invoice with no tax.
func (h *harness) invoice(t *testing.T, customerID *snowflake.ID) snowflake.ID {
	t.Helper()
	id := h.node.Generate()
	now := h.clock.Now()
	require.NoError(t, invoicerepo.Provide().Insert(context.Background(), h.db, &invoicedomain.Invoice{
		ID:            id,
		OrgID:         h.orgID,
		CustomerID:    customerID,
		InvoiceNumber: "INV-20260501-0001",
		Items: datatypes.JSONSlice[invoicedomain.StoredLineItem]{
			{Kind: invoicedomain.LineKindCustom, Name: "Wedding package", Price: "216", Quantity: "1"},
		},
		Discount:        invoicedomain.DiscountRule{Kind: invoicedomain.DiscountPercent, Value: "0"},
		TaxRate:         decimal.Zero,
		TaxSource:       "default",
		PersistedStatus: invoicedomain.StatusPending,
		Currency:        "USD",
		IssuedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}))
	return id
}

func (h *harness) customer(t *testing.T) snowflake.ID {
	t.Helper()
	id := h.node.Generate()
	require.NoError(t, customerrepo.Provide().Insert(context.Background(), h.db, &customerdomain.Customer{
		ID:        id,
		OrgID:     h.orgID,
		Name:      "Jordan",
		Email:     "jordan@example.com",
		Metadata:  datatypes.JSONMap{},
		CreatedAt: h.clock.Now(),
		UpdatedAt: h.clock.Now(),
	}))
	return id
}

func (h *harness) payment(t *testing.T, invoiceID snowflake.ID, amount string, chargeID string) paymentdomain.Payment {
	t.Helper()
	p := paymentdomain.Payment{
		ID:          h.node.Generate(),
		OrgID:       h.orgID,
		InvoiceID:   invoiceID,
		Amount:      decimal.RequireFromString(amount),
		Method:      paymentdomain.MethodCash,
		Source:      paymentdomain.SourceManual,
		PaymentDate: h.clock.Now(),
		CreatedAt:   h.clock.Now(),
	}
	if chargeID != "" {
		p.Method = paymentdomain.MethodCard
		p.Source = paymentdomain.SourceOnline
		p.GatewayChargeID = &chargeID
	}
	require.NoError(t, paymentrepo.Provide().Insert(context.Background(), h.db, &p))
	h.clock.Advance(time.Second)
	return p
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s got %s", want, got.String())
}

func TestAddPaymentReconcilesFromSnapshot(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil, nil)
	invoiceID := h.invoice(t, nil)

	result, err := svc.AddPayment(h.ctx, invoiceID.String(), paymentservice.AddPaymentRequest{Amount: "100", Method: "check"})
	require.NoError(t, err)

	assert.Equal(t, paymentdomain.ReconcileSourceSnapshot, result.Source)
	assertDec(t, "100", result.Snapshot.Totals.PaidAmount)
	assertDec(t, "116", result.Snapshot.Totals.BalanceDue)
	assert.Equal(t, invoicedomain.StatusPartial, result.Snapshot.PersistedStatus)
	assert.Equal(t, paymentdomain.MethodCheck, result.Payment.Method)

	stored, err := invoicerepo.Provide().FindByID(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPartial, stored.PersistedStatus)
}

func TestAddPaymentValidation(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil, nil)
	invoiceID := h.invoice(t, nil)

	_, err := svc.AddPayment(h.ctx, invoiceID.String(), paymentservice.AddPaymentRequest{Amount: "-5", Method: "cash"})
	require.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)

	_, err = svc.AddPayment(h.ctx, invoiceID.String(), paymentservice.AddPaymentRequest{Amount: "5", Method: "barter"})
	require.ErrorIs(t, err, paymentdomain.ErrInvalidMethod)

	_, err = svc.AddPayment(h.ctx, h.node.Generate().String(), paymentservice.AddPaymentRequest{Amount: "5", Method: "cash"})
	require.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestRemovePaymentCreditScenario(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil, nil)
	customerID := h.customer(t)
	invoiceID := h.invoice(t, &customerID)
	h.payment(t, invoiceID, "100", "")
	credited := h.payment(t, invoiceID, "50", "")

	result, err := svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{
		PaymentID:  credited.ID,
		Action:     paymentdomain.ActionCredit,
		Amount:     dec("50"),
		CustomerID: &customerID,
	})
	require.NoError(t, err)

	assert.True(t, result.Removed)
	assert.Equal(t, paymentdomain.ReconcileSourceSnapshot, result.Source)
	assertDec(t, "100", result.Snapshot.Totals.PaidAmount)
	assertDec(t, "116", result.Snapshot.Totals.BalanceDue)
	require.NotNil(t, result.Credit)
	assertDec(t, "50", result.Credit.Amount)

	credits, err := customerrepo.Provide().ListCredits(context.Background(), h.db, h.orgID, customerID)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, credited.ID, credits[0].SourcePaymentID)

	removed, err := paymentrepo.Provide().FindByID(context.Background(), h.db, h.orgID, credited.ID)
	require.NoError(t, err)
	require.NotNil(t, removed.RemovalAction)
	assert.Equal(t, "credit", *removed.RemovalAction)
	assert.True(t, removed.IsRemoved())
}

func TestRemovePaymentRules(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil, nil)
	invoiceID := h.invoice(t, nil)
	p := h.payment(t, invoiceID, "50", "")

	_, err := svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: paymentdomain.ActionCredit, Amount: dec("50")})
	require.ErrorIs(t, err, paymentdomain.ErrActionUnavailable)

	_, err = svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: paymentdomain.ActionStripeRefund, Amount: dec("50")})
	require.ErrorIs(t, err, paymentdomain.ErrActionUnavailable)

	_, err = svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: paymentdomain.ActionDelete, Amount: dec("49.99")})
	require.ErrorIs(t, err, paymentdomain.ErrAmountMismatch)

	_, err = svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: "void", Amount: dec("50")})
	require.ErrorIs(t, err, paymentdomain.ErrInvalidAction)

	result, err := svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: paymentdomain.ActionDelete, Amount: dec("50")})
	require.NoError(t, err)
	assertDec(t, "0", result.Snapshot.Totals.PaidAmount)
	assert.Empty(t, result.Warnings)

	_, err = svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: paymentdomain.ActionDelete, Amount: dec("50")})
	require.ErrorIs(t, err, paymentdomain.ErrAlreadyRemoved)
}

func TestRemovePaymentRefundWarnsWithoutCallingGateway(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	card := mocks.NewMockCardGateway(ctrl)
	svc := h.service(nil, card)

	invoiceID := h.invoice(t, nil)
	p := h.payment(t, invoiceID, "100", "ch_refund_local")

	result, err := svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: paymentdomain.ActionRefund, Amount: dec("100")})
	require.NoError(t, err)
	assert.True(t, result.Removed)
	assert.Equal(t, []string{paymentdomain.WarningGatewayRefundNotIssued}, result.Warnings)
	assert.Nil(t, result.Refund)
}

func TestRemovePaymentGatewayRefund(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	card := mocks.NewMockCardGateway(ctrl)
	card.EXPECT().Provider().Return(paymentdomain.ProviderStripe).AnyTimes()
	svc := h.service(nil, card)

	invoiceID := h.invoice(t, nil)
	settled := h.payment(t, invoiceID, "100", "ch_settled")
	pending := h.payment(t, invoiceID, "16", "ch_pending")

	card.EXPECT().Refund(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in paymentdomain.RefundInput) (*paymentdomain.Refund, error) {
			assert.Equal(t, "ch_settled", in.ChargeID)
			assertDec(t, "100", in.Amount)
			assert.Equal(t, fmt.Sprintf("payment:%s:refund", settled.ID), in.IdempotencyKey)
			return &paymentdomain.Refund{ID: "re_1", Status: "succeeded", Amount: in.Amount}, nil
		})
	result, err := svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: settled.ID, Action: paymentdomain.ActionStripeRefund, Amount: dec("100")})
	require.NoError(t, err)
	assert.True(t, result.Removed)
	assertDec(t, "16", result.Snapshot.Totals.PaidAmount)

	stored, err := paymentrepo.Provide().FindByID(context.Background(), h.db, h.orgID, settled.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefundID)
	assert.Equal(t, "re_1", *stored.RefundID)

	card.EXPECT().Refund(gomock.Any(), gomock.Any()).Return(&paymentdomain.Refund{ID: "re_2", Status: "pending"}, nil)
	result, err = svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: pending.ID, Action: paymentdomain.ActionStripeRefund, Amount: dec("16")})
	require.NoError(t, err)
	assert.False(t, result.Removed)
	assert.Contains(t, result.Warnings, paymentdomain.WarningRefundPending)
	assertDec(t, "16", result.Snapshot.Totals.PaidAmount)
}

func TestRemovePaymentGatewayRefusalChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	card := mocks.NewMockCardGateway(ctrl)
	card.EXPECT().Provider().Return(paymentdomain.ProviderStripe).AnyTimes()
	card.EXPECT().Refund(gomock.Any(), gomock.Any()).Return(nil, &paymentdomain.GatewayError{
		Provider: paymentdomain.ProviderStripe,
		Code:     "charge_already_refunded",
		Message:  "Charge has already been refunded.",
	})
	svc := h.service(nil, card)

	invoiceID := h.invoice(t, nil)
	p := h.payment(t, invoiceID, "100", "ch_refunded")

	_, err := svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: p.ID, Action: paymentdomain.ActionStripeRefund, Amount: dec("100")})
	var gatewayErr *paymentdomain.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, "charge_already_refunded", gatewayErr.Code)

	stored, err := paymentrepo.Provide().FindByID(context.Background(), h.db, h.orgID, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRemoved())
}

type flakySnapshots struct {
	invoicedomain.Service
	calls int
}

func (f *flakySnapshots) GetSnapshot(ctx context.Context, orgID, id snowflake.ID) (invoicedomain.Snapshot, error) {
	f.calls++
	if f.calls > 1 {
		return invoicedomain.Snapshot{}, errors.New("connection reset by peer")
	}
	return f.Service.GetSnapshot(ctx, orgID, id)
}

func TestRemovePaymentFallsBackToLocalSnapshot(t *testing.T) {
	h := newHarness(t)
	flaky := &flakySnapshots{Service: h.invoices}
	svc := h.service(flaky, nil)

	invoiceID := h.invoice(t, nil)
	h.payment(t, invoiceID, "100", "")
	second := h.payment(t, invoiceID, "116", "")

	result, err := svc.RemovePayment(h.ctx, paymentdomain.RemovalRequest{PaymentID: second.ID, Action: paymentdomain.ActionDelete, Amount: dec("116")})
	require.NoError(t, err)

	assert.Equal(t, 2, flaky.calls)
	assert.Equal(t, paymentdomain.ReconcileSourceLocal, result.Source)
	assertDec(t, "100", result.Snapshot.Totals.PaidAmount)
	assertDec(t, "116", result.Snapshot.Totals.BalanceDue)
	assert.Equal(t, invoicedomain.StatusPartial, result.Snapshot.DisplayStatus)
	require.Len(t, result.Snapshot.Payments, 1)
}

func TestRemovalOptions(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	svc := h.service(nil, mocks.NewMockCardGateway(ctrl))
	invoiceID := h.invoice(t, nil)
	p := h.payment(t, invoiceID, "100", "ch_opts")

	opts, err := svc.RemovalOptions(h.ctx, p.ID.String())
	require.NoError(t, err)
	assertDec(t, "100", opts.Amount)

	credit, ok := opts.Option(paymentdomain.ActionCredit)
	require.True(t, ok)
	assert.False(t, credit.Available)
	assert.Equal(t, paymentdomain.ReasonNoCustomer, credit.Reason)

	refund, _ := opts.Option(paymentdomain.ActionRefund)
	assert.True(t, refund.Available)
	assert.Equal(t, paymentdomain.WarningGatewayRefundNotIssued, refund.Warning)

	gatewayRefund, _ := opts.Option(paymentdomain.ActionStripeRefund)
	assert.True(t, gatewayRefund.Available)
}

func TestRecordGatewayPaymentIsIdempotent(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil, nil)
	invoiceID := h.invoice(t, nil)

	input := paymentservice.GatewayPaymentInput{
		OrgID:     h.orgID,
		InvoiceID: invoiceID,
		Amount:    dec("100"),
		Method:    paymentdomain.MethodCard,
		ChargeID:  "ch_once",
	}
	first, replay, err := svc.RecordGatewayPayment(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, replay)

	second, replay, err := svc.RecordGatewayPayment(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, first.ID, second.ID)

	found, err := svc.LookupGatewayPayment(context.Background(), "ch_once", "")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	_, err = svc.LookupGatewayPayment(context.Background(), " ", "")
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidID)

	payments, err := paymentrepo.Provide().ListByInvoice(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, paymentdomain.SourceOnline, payments[0].Source)

	stored, err := invoicerepo.Provide().FindByID(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPartial, stored.PersistedStatus)
}

func TestProcessEventRecordsAndRefunds(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil, nil)
	invoiceID := h.invoice(t, nil)

	succeeded := &paymentdomain.PaymentEvent{
		Provider:          paymentdomain.ProviderStripe,
		ProviderEventID:   "evt_pi",
		ProviderPaymentID: "pi_1",
		ProviderChargeID:  "ch_1",
		Type:              paymentdomain.EventTypePaymentSucceeded,
		OrgID:             h.orgID,
		InvoiceID:         &invoiceID,
		Amount:            21600,
		Currency:          "USD",
		OccurredAt:        h.clock.Now(),
	}
	require.NoError(t, svc.ProcessEvent(context.Background(), succeeded, []byte(`{"id":"evt_pi"}`)))
	require.ErrorIs(t, svc.ProcessEvent(context.Background(), succeeded, []byte(`{"id":"evt_pi"}`)), paymentdomain.ErrEventAlreadyProcessed)

	payments, err := paymentrepo.Provide().ListByInvoice(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assertDec(t, "216", payments[0].Amount)

	refunded := &paymentdomain.PaymentEvent{
		Provider:          paymentdomain.ProviderStripe,
		ProviderEventID:   "evt_refund",
		ProviderPaymentID: "pi_1",
		ProviderRefundID:  "re_9",
		ProviderChargeID:  "ch_1",
		Type:              paymentdomain.EventTypeRefunded,
		OrgID:             h.orgID,
		Amount:            21600,
		OccurredAt:        h.clock.Now(),
	}
	require.NoError(t, svc.ProcessEvent(context.Background(), refunded, []byte(`{"id":"evt_refund"}`)))

	payments, err = paymentrepo.Provide().ListByInvoice(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	stored, err := invoicerepo.Provide().FindByID(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPending, stored.PersistedStatus)
}

func TestProcessEventKeepsPaymentOnPartialRefund(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil, nil)
	invoiceID := h.invoice(t, nil)

	event := func(id string, eventType string, amount int64) *paymentdomain.PaymentEvent {
		return &paymentdomain.PaymentEvent{
			Provider:          paymentdomain.ProviderStripe,
			ProviderEventID:   id,
			ProviderPaymentID: "pi_p",
			ProviderChargeID:  "ch_p",
			Type:              eventType,
			OrgID:             h.orgID,
			InvoiceID:         &invoiceID,
			Amount:            amount,
			Currency:          "USD",
			OccurredAt:        h.clock.Now(),
		}
	}
	require.NoError(t, svc.ProcessEvent(context.Background(), event("evt_paid", paymentdomain.EventTypePaymentSucceeded, 21600), []byte(`{"id":"evt_paid"}`)))

	require.NoError(t, svc.ProcessEvent(context.Background(), event("evt_partial", paymentdomain.EventTypeRefunded, 1000), []byte(`{"id":"evt_partial"}`)))

	payments, err := paymentrepo.Provide().ListByInvoice(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Nil(t, payments[0].RemovedAt)
	assertDec(t, "216", payments[0].Amount)

	stored, err := invoicerepo.Provide().FindByID(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, stored.PersistedStatus)

	// a later event carries the cumulative refunded amount
	require.NoError(t, svc.ProcessEvent(context.Background(), event("evt_rest", paymentdomain.EventTypeRefunded, 21600), []byte(`{"id":"evt_rest"}`)))

	payments, err = paymentrepo.Provide().ListByInvoice(context.Background(), h.db, h.orgID, invoiceID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

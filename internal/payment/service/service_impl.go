package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/clock"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	"github.com/smallbiznis/studiobooks/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/studiobooks/internal/observability/metrics"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/smallbiznis/studiobooks/pkg/db"
	"github.com/smallbiznis/studiobooks/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         paymentdomain.Repository
	InvoiceSvc   invoicedomain.Service
	InvoiceRepo  invoicedomain.Repository
	CustomerRepo customerdomain.Repository
	CardGateway  paymentdomain.CardGateway `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics       `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         paymentdomain.Repository
	invoiceSvc   invoicedomain.Service
	invoiceRepo  invoicedomain.Repository
	customerRepo customerdomain.Repository
	cardGateway  paymentdomain.CardGateway
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		invoiceSvc:   p.InvoiceSvc,
		invoiceRepo:  p.InvoiceRepo,
		customerRepo: p.CustomerRepo,
		cardGateway:  p.CardGateway,
		obsMetrics:   p.ObsMetrics,
	}
}

type AddPaymentRequest struct {
	Amount      string
	Method      string
	PaymentDate *time.Time
	Notes       *string
}

// MutationResult is the reconciled state after a payment was added.
type MutationResult struct {
	Payment  paymentdomain.Payment  `json:"payment"`
	Snapshot invoicedomain.Snapshot `json:"snapshot"`
	Source   string                 `json:"source"`
}

// RemovalResult is the reconciled state after a removal. Removed is false when a
// gateway refund was requested but has not settled yet.
type RemovalResult struct {
	Action   paymentdomain.RemovalAction    `json:"action"`
	Removed  bool                           `json:"removed"`
	Snapshot invoicedomain.Snapshot         `json:"snapshot"`
	Source   string                         `json:"source"`
	Credit   *customerdomain.CustomerCredit `json:"credit,omitempty"`
	Refund   *paymentdomain.Refund          `json:"refund,omitempty"`
	Warnings []string                       `json:"warnings,omitempty"`
}

// GatewayPaymentInput is a payment captured by a card or wallet gateway. Exactly one
// of ChargeID or OrderID keys the idempotent insert.
type GatewayPaymentInput struct {
	OrgID       snowflake.ID
	InvoiceID   snowflake.ID
	Amount      decimal.Decimal
	Method      paymentdomain.Method
	ChargeID    string
	OrderID     string
	PaymentDate time.Time
}

// AddPayment records a manual payment and reconciles the invoice.
func (s *Service) AddPayment(ctx context.Context, invoiceID string, req AddPaymentRequest) (MutationResult, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return MutationResult{}, err
	}
	id, err := parseID(invoiceID)
	if err != nil {
		return MutationResult{}, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return MutationResult{}, paymentdomain.ErrInvalidAmount
	}
	method, err := paymentdomain.ParseMethod(req.Method)
	if err != nil {
		return MutationResult{}, err
	}

	ctx, cid := correlation.EnsureCorrelationID(ctx)
	before, err := s.loadSnapshot(ctx, orgID, id)
	if err != nil {
		return MutationResult{}, err
	}

	now := s.clock.Now()
	paymentDate := now
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		paymentDate = req.PaymentDate.UTC()
	}

	payment := paymentdomain.Payment{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		InvoiceID:   id,
		Amount:      amount,
		Method:      method,
		Source:      paymentdomain.SourceManual,
		PaymentDate: paymentDate,
		Notes:       req.Notes,
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		return MutationResult{}, paymentdomain.NewMutationError("add_payment", err)
	}

	s.obsMetrics.RecordPayment(ctx, string(payment.Method), string(payment.Source))
	s.log.Info("payment added",
		zap.String("correlation_id", cid),
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", id.String()),
		zap.String("amount", payment.Amount.String()),
	)

	snapshot, source := s.reconcile(ctx, orgID, before, before.Ledger().Append(payment))
	return MutationResult{Payment: payment, Snapshot: snapshot, Source: source}, nil
}

// RecordGatewayPayment inserts a gateway-captured payment once. A replay returns the
// stored payment with alreadyRecorded set.
func (s *Service) RecordGatewayPayment(ctx context.Context, input GatewayPaymentInput) (*paymentdomain.Payment, bool, error) {
	if input.OrgID == 0 {
		return nil, false, paymentdomain.ErrInvalidOrganization
	}
	if !input.Amount.IsPositive() {
		return nil, false, paymentdomain.ErrInvalidAmount
	}
	chargeID := strings.TrimSpace(input.ChargeID)
	orderID := strings.TrimSpace(input.OrderID)
	if chargeID == "" && orderID == "" {
		return nil, false, paymentdomain.ErrInvalidID
	}

	existing, err := s.findGatewayPayment(ctx, chargeID, orderID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, input.OrgID, input.InvoiceID)
	if err != nil {
		return nil, false, err
	}
	if invoice == nil {
		return nil, false, invoicedomain.ErrNotFound
	}

	now := s.clock.Now()
	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = now
	}
	payment := paymentdomain.Payment{
		ID:          s.genID.Generate(),
		OrgID:       input.OrgID,
		InvoiceID:   input.InvoiceID,
		Amount:      input.Amount,
		Method:      input.Method,
		Source:      paymentdomain.SourceOnline,
		PaymentDate: paymentDate,
		CreatedAt:   now,
	}
	if chargeID != "" {
		payment.GatewayChargeID = &chargeID
	}
	if orderID != "" {
		payment.GatewayOrderID = &orderID
	}

	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.findGatewayPayment(ctx, chargeID, orderID)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, paymentdomain.NewMutationError("record_gateway_payment", err)
	}

	s.obsMetrics.RecordPayment(ctx, string(payment.Method), string(payment.Source))
	s.log.Info("gateway payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.String("amount", payment.Amount.String()),
	)

	if _, err := s.invoiceSvc.RefreshStatus(ctx, input.OrgID, input.InvoiceID); err != nil {
		s.log.Warn("refresh invoice status after gateway payment failed",
			zap.String("invoice_id", input.InvoiceID.String()),
			zap.Error(err),
		)
	}

	return &payment, false, nil
}

// RemovalOptions lists which removal actions apply to a payment and what the operator
// should be warned about.
func (s *Service) RemovalOptions(ctx context.Context, paymentID string) (paymentdomain.RemovalOptions, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return paymentdomain.RemovalOptions{}, err
	}
	id, err := parseID(paymentID)
	if err != nil {
		return paymentdomain.RemovalOptions{}, err
	}

	payment, err := s.loadLivePayment(ctx, orgID, id)
	if err != nil {
		return paymentdomain.RemovalOptions{}, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, orgID, payment.InvoiceID)
	if err != nil {
		return paymentdomain.RemovalOptions{}, err
	}
	if invoice == nil {
		return paymentdomain.RemovalOptions{}, invoicedomain.ErrNotFound
	}

	return s.resolveRemoval(*payment, *invoice), nil
}

// RemovePayment applies one removal action and reconciles the invoice.
func (s *Service) RemovePayment(ctx context.Context, req paymentdomain.RemovalRequest) (RemovalResult, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return RemovalResult{}, err
	}
	if req.PaymentID == 0 {
		return RemovalResult{}, paymentdomain.ErrInvalidID
	}
	action, err := paymentdomain.ParseRemovalAction(string(req.Action))
	if err != nil {
		return RemovalResult{}, err
	}

	payment, err := s.loadLivePayment(ctx, orgID, req.PaymentID)
	if err != nil {
		return RemovalResult{}, err
	}
	if !req.Amount.Equal(payment.Amount) {
		return RemovalResult{}, paymentdomain.ErrAmountMismatch
	}

	ctx, cid := correlation.EnsureCorrelationID(ctx)
	before, err := s.loadSnapshot(ctx, orgID, payment.InvoiceID)
	if err != nil {
		return RemovalResult{}, err
	}

	options := s.resolveRemoval(*payment, before.Invoice)
	option, _ := options.Option(action)
	if !option.Available {
		return RemovalResult{}, fmt.Errorf("%w: %s", paymentdomain.ErrActionUnavailable, option.Reason)
	}
	if action == paymentdomain.ActionCredit && req.CustomerID != nil && *req.CustomerID != *before.Invoice.CustomerID {
		return RemovalResult{}, paymentdomain.ErrCustomerMismatch
	}

	result := RemovalResult{Action: action}
	if option.Warning != "" {
		result.Warnings = append(result.Warnings, option.Warning)
	}

	now := s.clock.Now()
	switch action {
	case paymentdomain.ActionDelete, paymentdomain.ActionRefund:
		if err := s.markRemoved(ctx, s.db, orgID, payment.ID, action, nil, now); err != nil {
			return RemovalResult{}, err
		}
		result.Removed = true

	case paymentdomain.ActionCredit:
		credit := customerdomain.CustomerCredit{
			ID:              s.genID.Generate(),
			OrgID:           orgID,
			CustomerID:      *before.Invoice.CustomerID,
			InvoiceID:       payment.InvoiceID,
			SourcePaymentID: payment.ID,
			Amount:          payment.Amount,
			CreatedAt:       now,
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.markRemoved(ctx, tx, orgID, payment.ID, action, nil, now); err != nil {
				return err
			}
			if err := s.customerRepo.InsertCredit(ctx, tx, &credit); err != nil {
				return paymentdomain.NewMutationError("insert_credit", err)
			}
			return nil
		})
		if err != nil {
			return RemovalResult{}, err
		}
		result.Removed = true
		result.Credit = &credit

	case paymentdomain.ActionStripeRefund:
		refund, err := s.cardGateway.Refund(ctx, paymentdomain.RefundInput{
			ChargeID:       *payment.GatewayChargeID,
			Amount:         payment.Amount,
			Currency:       before.Invoice.Currency,
			IdempotencyKey: fmt.Sprintf("payment:%s:refund", payment.ID.String()),
			Metadata: map[string]string{
				"payment_id": payment.ID.String(),
				"invoice_id": payment.InvoiceID.String(),
				"org_id":     orgID.String(),
			},
		})
		s.obsMetrics.RecordGatewayCall(ctx, s.cardGateway.Provider(), "refund", err)
		if err != nil {
			return RemovalResult{}, paymentdomain.NewMutationError("gateway_refund", err)
		}
		result.Refund = refund
		if refund.Succeeded() {
			refundID := refund.ID
			if err := s.markRemoved(ctx, s.db, orgID, payment.ID, action, &refundID, now); err != nil {
				return RemovalResult{}, err
			}
			result.Removed = true
		} else {
			result.Warnings = append(result.Warnings, paymentdomain.WarningRefundPending)
		}
	}

	s.obsMetrics.RecordRemoval(ctx, string(action))
	s.log.Info("payment removal applied",
		zap.String("correlation_id", cid),
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.String("action", string(action)),
		zap.Bool("removed", result.Removed),
	)

	ledger := before.Ledger()
	if result.Removed {
		ledger = ledger.Without(payment.ID)
	}
	result.Snapshot, result.Source = s.reconcile(ctx, orgID, before, ledger)
	return result, nil
}

// resolveRemoval is the decision table over removal actions.
func (s *Service) resolveRemoval(payment paymentdomain.Payment, invoice invoicedomain.Invoice) paymentdomain.RemovalOptions {
	credit := paymentdomain.RemovalOption{Action: paymentdomain.ActionCredit, Available: true}
	if invoice.CustomerID == nil {
		credit.Available = false
		credit.Reason = paymentdomain.ReasonNoCustomer
	}

	refund := paymentdomain.RemovalOption{Action: paymentdomain.ActionRefund, Available: true}
	if payment.HasGatewayCharge() {
		refund.Warning = paymentdomain.WarningGatewayRefundNotIssued
	}

	gatewayRefund := paymentdomain.RemovalOption{Action: paymentdomain.ActionStripeRefund, Available: true}
	switch {
	case !payment.HasGatewayCharge():
		gatewayRefund.Available = false
		gatewayRefund.Reason = paymentdomain.ReasonNoGatewayCharge
	case s.cardGateway == nil:
		gatewayRefund.Available = false
		gatewayRefund.Reason = paymentdomain.ReasonNoCardGateway
	}

	return paymentdomain.RemovalOptions{
		PaymentID: payment.ID,
		InvoiceID: payment.InvoiceID,
		Amount:    payment.Amount,
		Options: []paymentdomain.RemovalOption{
			{Action: paymentdomain.ActionDelete, Available: true},
			credit,
			refund,
			gatewayRefund,
		},
	}
}

// reconcile fetches the authoritative snapshot exactly once. Only when that read
// fails is the snapshot rebuilt locally from the pre-mutation state and ledger.
func (s *Service) reconcile(ctx context.Context, orgID snowflake.ID, before invoicedomain.Snapshot, ledger paymentdomain.Ledger) (invoicedomain.Snapshot, string) {
	snapshot, err := s.invoiceSvc.GetSnapshot(ctx, orgID, before.Invoice.ID)
	if err != nil {
		s.log.Warn("reconciliation fetch failed, using local snapshot",
			zap.String("correlation_id", correlation.ExtractCorrelationID(ctx)),
			zap.String("invoice_id", before.Invoice.ID.String()),
			zap.Error(err),
		)
		s.obsMetrics.RecordReconciliation(ctx, paymentdomain.ReconcileSourceLocal)
		return calc.Reprice(before, ledger, s.clock.Now()), paymentdomain.ReconcileSourceLocal
	}

	s.syncPersistedStatus(ctx, orgID, &snapshot)
	s.obsMetrics.RecordReconciliation(ctx, paymentdomain.ReconcileSourceSnapshot)
	return snapshot, paymentdomain.ReconcileSourceSnapshot
}

func (s *Service) syncPersistedStatus(ctx context.Context, orgID snowflake.ID, snapshot *invoicedomain.Snapshot) {
	status := calc.PersistedStatus(snapshot.Totals.Total, snapshot.Totals.PaidAmount)
	if status == snapshot.PersistedStatus {
		return
	}
	if err := s.invoiceRepo.UpdatePersistedStatus(ctx, s.db, orgID, snapshot.Invoice.ID, status, s.clock.Now()); err != nil {
		s.log.Warn("persisted status update failed",
			zap.String("invoice_id", snapshot.Invoice.ID.String()),
			zap.Error(err),
		)
		return
	}
	snapshot.PersistedStatus = status
	snapshot.Invoice.PersistedStatus = status
}

func (s *Service) markRemoved(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID, action paymentdomain.RemovalAction, refundID *string, at time.Time) error {
	ok, err := s.repo.MarkRemoved(ctx, tx, orgID, id, action, refundID, at)
	if err != nil {
		return paymentdomain.NewMutationError("remove_payment", err)
	}
	if !ok {
		return paymentdomain.ErrAlreadyRemoved
	}
	return nil
}

func (s *Service) loadLivePayment(ctx context.Context, orgID, id snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, paymentdomain.ErrNotFound
	}
	if payment.IsRemoved() {
		return nil, paymentdomain.ErrAlreadyRemoved
	}
	return payment, nil
}

func (s *Service) loadSnapshot(ctx context.Context, orgID, invoiceID snowflake.ID) (invoicedomain.Snapshot, error) {
	snapshot, err := s.invoiceSvc.GetSnapshot(ctx, orgID, invoiceID)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrNotFound) || errors.Is(err, invoicedomain.ErrInvalidOrganization) {
			return invoicedomain.Snapshot{}, err
		}
		return invoicedomain.Snapshot{}, paymentdomain.NewMutationError("load_invoice", err)
	}
	return snapshot, nil
}

// LookupGatewayPayment returns the payment recorded for a gateway charge or order, or nil.
func (s *Service) LookupGatewayPayment(ctx context.Context, chargeID, orderID string) (*paymentdomain.Payment, error) {
	chargeID = strings.TrimSpace(chargeID)
	orderID = strings.TrimSpace(orderID)
	if chargeID == "" && orderID == "" {
		return nil, paymentdomain.ErrInvalidID
	}
	return s.findGatewayPayment(ctx, chargeID, orderID)
}

func (s *Service) findGatewayPayment(ctx context.Context, chargeID, orderID string) (*paymentdomain.Payment, error) {
	if chargeID != "" {
		return s.repo.FindByGatewayCharge(ctx, s.db, chargeID)
	}
	return s.repo.FindByGatewayOrder(ctx, s.db, orderID)
}

// ProcessEvent stores a verified webhook event once and applies it.
func (s *Service) ProcessEvent(ctx context.Context, event *paymentdomain.PaymentEvent, payload []byte) error {
	if event == nil {
		return paymentdomain.ErrInvalidEvent
	}
	event.Provider = strings.ToLower(strings.TrimSpace(event.Provider))
	if event.Provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}
	if err := validateEvent(event); err != nil {
		return err
	}

	now := s.clock.Now()
	received := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		OrgID:           event.OrgID,
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		InvoiceID:       event.InvoiceID,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return paymentdomain.ErrEventAlreadyProcessed
		}
	}

	if err := s.processEvent(ctx, event); err != nil {
		return err
	}

	return s.repo.MarkProcessed(ctx, s.db, stored.ID, now)
}

func validateEvent(event *paymentdomain.PaymentEvent) error {
	event.ProviderEventID = strings.TrimSpace(event.ProviderEventID)
	if event.ProviderEventID == "" {
		return paymentdomain.ErrInvalidEvent
	}
	event.Type = strings.TrimSpace(event.Type)
	if event.OccurredAt.IsZero() {
		return paymentdomain.ErrInvalidEvent
	}
	switch event.Type {
	case paymentdomain.EventTypePaymentSucceeded:
		if event.OrgID == 0 {
			return paymentdomain.ErrInvalidEvent
		}
		if event.Amount <= 0 {
			return paymentdomain.ErrInvalidAmount
		}
		if event.InvoiceID == nil || *event.InvoiceID == 0 {
			return paymentdomain.ErrInvalidEvent
		}
	case paymentdomain.EventTypeRefunded:
		if strings.TrimSpace(event.ProviderChargeID) == "" {
			return paymentdomain.ErrInvalidEvent
		}
	default:
		return paymentdomain.ErrInvalidEvent
	}
	return nil
}

func (s *Service) processEvent(ctx context.Context, event *paymentdomain.PaymentEvent) error {
	switch event.Type {
	case paymentdomain.EventTypePaymentSucceeded:
		chargeID := strings.TrimSpace(event.ProviderChargeID)
		if chargeID == "" {
			chargeID = strings.TrimSpace(event.ProviderPaymentID)
		}
		_, _, err := s.RecordGatewayPayment(ctx, GatewayPaymentInput{
			OrgID:       event.OrgID,
			InvoiceID:   *event.InvoiceID,
			Amount:      paymentdomain.FromMinorUnits(event.Amount),
			Method:      paymentdomain.MethodCard,
			ChargeID:    chargeID,
			PaymentDate: event.OccurredAt,
		})
		return err
	case paymentdomain.EventTypeRefunded:
		return s.settleRefund(ctx, event)
	}
	return paymentdomain.ErrInvalidEvent
}

// settleRefund marks the payment behind a fully refunded charge as removed. Unknown
// charges are ignored; the refund may have been issued outside this system.
func (s *Service) settleRefund(ctx context.Context, event *paymentdomain.PaymentEvent) error {
	payment, err := s.repo.FindByGatewayCharge(ctx, s.db, strings.TrimSpace(event.ProviderChargeID))
	if err != nil {
		return err
	}
	if payment == nil && strings.TrimSpace(event.ProviderPaymentID) != "" {
		payment, err = s.repo.FindByGatewayCharge(ctx, s.db, strings.TrimSpace(event.ProviderPaymentID))
		if err != nil {
			return err
		}
	}
	if payment == nil || payment.IsRemoved() {
		s.log.Debug("refund event has no live payment", zap.String("charge_id", event.ProviderChargeID))
		return nil
	}

	// The gateway reports the cumulative refunded amount. Payments are immutable, so
	// only a refund covering the whole payment removes it.
	refunded := paymentdomain.FromMinorUnits(event.Amount)
	if refunded.LessThan(payment.Amount.Round(2)) {
		s.log.Info("partial refund left payment in place",
			zap.String("payment_id", payment.ID.String()),
			zap.String("refunded", refunded.StringFixed(2)),
			zap.String("amount", payment.Amount.StringFixed(2)),
		)
		return nil
	}

	var refundID *string
	if id := strings.TrimSpace(event.ProviderRefundID); id != "" {
		refundID = &id
	}
	ok, err := s.repo.MarkRemoved(ctx, s.db, payment.OrgID, payment.ID, paymentdomain.ActionStripeRefund, refundID, s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	s.obsMetrics.RecordRemoval(ctx, string(paymentdomain.ActionStripeRefund))
	if _, err := s.invoiceSvc.RefreshStatus(ctx, payment.OrgID, payment.InvoiceID); err != nil {
		s.log.Warn("refresh invoice status after refund failed",
			zap.String("invoice_id", payment.InvoiceID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, paymentdomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, paymentdomain.ErrInvalidID
	}
	return id, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/clock"
	"github.com/smallbiznis/studiobooks/internal/config"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	"github.com/smallbiznis/studiobooks/internal/invoice/format"
	obsmetrics "github.com/smallbiznis/studiobooks/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	paymentservice "github.com/smallbiznis/studiobooks/internal/payment/service"
	"github.com/smallbiznis/studiobooks/internal/providers/pdf"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"github.com/smallbiznis/studiobooks/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	gatewayCacheTTL = 60 * time.Second
	gatewayTimeout  = 20 * time.Second
	confirmLockTTL  = 30 * time.Second
	confirmLockWait = 5 * time.Second
)

type paymentRecorder interface {
	RecordGatewayPayment(ctx context.Context, input paymentservice.GatewayPaymentInput) (*paymentdomain.Payment, bool, error)
	LookupGatewayPayment(ctx context.Context, chargeID, orderID string) (*paymentdomain.Payment, error)
}

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Settings      *config.SettingsHolder
	TokenRepo     publicinvoicedomain.TokenRepository
	InvoiceSvc    invoicedomain.Service
	CustomerRepo  customerdomain.Repository
	PaymentSvc    *paymentservice.Service
	PDF           pdf.Provider
	CardGateway   paymentdomain.CardGateway   `optional:"true"`
	WalletGateway paymentdomain.WalletGateway `optional:"true"`
	Locker        *ratelimit.Locker           `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics         `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	settings     *config.SettingsHolder
	tokenRepo    publicinvoicedomain.TokenRepository
	invoiceSvc   invoicedomain.Service
	customerRepo customerdomain.Repository
	payments     paymentRecorder
	pdf          pdf.Provider
	card         paymentdomain.CardGateway
	wallet       paymentdomain.WalletGateway
	locker       *ratelimit.Locker
	obsMetrics   *obsmetrics.Metrics

	availability struct {
		sync.Mutex
		value   publicinvoicedomain.Gateways
		expires time.Time
	}
}

func New(p Params) publicinvoicedomain.Service {
	return newService(p, p.PaymentSvc)
}

func newService(p Params, payments paymentRecorder) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("publicinvoice.service"),
		clock:        p.Clock,
		settings:     p.Settings,
		tokenRepo:    p.TokenRepo,
		invoiceSvc:   p.InvoiceSvc,
		customerRepo: p.CustomerRepo,
		payments:     payments,
		pdf:          p.PDF,
		card:         p.CardGateway,
		wallet:       p.WalletGateway,
		locker:       p.Locker,
		obsMetrics:   p.ObsMetrics,
	}
}

func (s *Service) FetchPublicInvoice(ctx context.Context, orgID snowflake.ID, token string) (*publicinvoicedomain.PublicInvoiceResponse, error) {
	snapshot, err := s.resolve(ctx, orgID, token)
	if err != nil {
		return nil, err
	}
	settings := s.settings.Get()

	view := publicinvoicedomain.PublicInvoiceView{
		InvoiceNumber:   snapshot.Invoice.InvoiceNumber,
		IssuedAt:        snapshot.Invoice.IssuedAt,
		DueDate:         snapshot.Invoice.DueDate,
		Currency:        snapshot.Invoice.Currency,
		Lines:           snapshot.Lines,
		Totals:          snapshot.Totals,
		Payments:        publicPayments(snapshot.Payments),
		PersistedStatus: snapshot.PersistedStatus,
		DisplayStatus:   snapshot.DisplayStatus,
	}
	if snapshot.Invoice.Notes != nil {
		view.Notes = *snapshot.Invoice.Notes
	}
	if customer := s.loadCustomer(ctx, snapshot.Invoice); customer != nil {
		view.BillToName = customer.Name
		view.BillToEmail = customer.Email
	}

	return &publicinvoicedomain.PublicInvoiceResponse{
		Invoice:  view,
		Gateways: s.gateways(),
		Branding: publicinvoicedomain.Branding{
			StudioName:  settings.Branding.StudioName,
			LogoURL:     settings.Branding.LogoURL,
			AccentColor: settings.Branding.AccentColor,
		},
		MinimumAmount:    s.minimumAmount(snapshot.Totals.BalanceDue),
		ReceiptAvailable: snapshot.ReceiptAvailable,
	}, nil
}

// CreatePaymentIntent opens a card intent for amount. Repeating the same amount
// before another payment lands reuses the gateway intent.
func (s *Service) CreatePaymentIntent(ctx context.Context, orgID snowflake.ID, token string, amount decimal.Decimal) (*publicinvoicedomain.PaymentIntentResponse, error) {
	snapshot, err := s.resolve(ctx, orgID, token)
	if err != nil {
		return nil, err
	}
	if s.card == nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	amount = amount.Round(2)
	if err := s.checkAmount(snapshot, amount); err != nil {
		return nil, err
	}

	invoice := snapshot.Invoice
	metadata := map[string]string{
		"invoice_id":     invoice.ID.String(),
		"invoice_number": invoice.InvoiceNumber,
		"org_id":         orgID.String(),
	}
	if invoice.CustomerID != nil {
		metadata["customer_id"] = invoice.CustomerID.String()
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	intent, err := s.card.CreateIntent(gctx, paymentdomain.CreateIntentInput{
		Amount:         amount,
		Currency:       invoice.Currency,
		Description:    fmt.Sprintf("Invoice %s", invoice.InvoiceNumber),
		IdempotencyKey: intentIdempotencyKey(snapshot, amount),
		Metadata:       metadata,
	})
	s.obsMetrics.RecordGatewayCall(ctx, s.card.Provider(), "create_intent", err)
	if err != nil {
		s.log.Warn("create payment intent failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return &publicinvoicedomain.PaymentIntentResponse{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}

// ConfirmPaymentIntent records a succeeded intent against the invoice. The webhook
// may race this call; both key the payment by charge id so only one row lands.
func (s *Service) ConfirmPaymentIntent(ctx context.Context, orgID snowflake.ID, token, intentID string) (*publicinvoicedomain.ConfirmResponse, error) {
	snapshot, err := s.resolve(ctx, orgID, token)
	if err != nil {
		return nil, err
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, paymentdomain.ErrInvalidID
	}
	if s.card == nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}

	release, err := s.lock(ctx, "lock:intent:"+intentID)
	if err != nil {
		return nil, err
	}
	defer release()

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	intent, err := s.card.GetIntent(gctx, intentID)
	s.obsMetrics.RecordGatewayCall(ctx, s.card.Provider(), "get_intent", err)
	if err != nil {
		return nil, err
	}
	if intent.Metadata["invoice_id"] != snapshot.Invoice.ID.String() {
		s.log.Warn("intent belongs to another invoice",
			zap.String("intent_id", intentID),
			zap.String("invoice_id", snapshot.Invoice.ID.String()),
		)
		return nil, paymentdomain.ErrInvoiceMismatch
	}
	if intent.Status != paymentdomain.IntentSucceeded {
		return nil, paymentdomain.ErrPaymentNotSucceeded
	}

	chargeID := intent.LatestChargeID
	if chargeID == "" {
		chargeID = intent.ID
	}
	_, already, err := s.payments.RecordGatewayPayment(ctx, paymentservice.GatewayPaymentInput{
		OrgID:       orgID,
		InvoiceID:   snapshot.Invoice.ID,
		Amount:      intent.Amount,
		Method:      paymentdomain.MethodCard,
		ChargeID:    chargeID,
		PaymentDate: s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &publicinvoicedomain.ConfirmResponse{OK: true, AlreadyRecorded: already}, nil
}

func (s *Service) CreateWalletOrder(ctx context.Context, orgID snowflake.ID, token string, amount decimal.Decimal) (*publicinvoicedomain.WalletOrderResponse, error) {
	snapshot, err := s.resolve(ctx, orgID, token)
	if err != nil {
		return nil, err
	}
	if s.wallet == nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	amount = amount.Round(2)
	if err := s.checkAmount(snapshot, amount); err != nil {
		return nil, err
	}

	invoice := snapshot.Invoice
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	order, err := s.wallet.CreateOrder(gctx, paymentdomain.CreateOrderInput{
		Amount:      amount,
		Currency:    invoice.Currency,
		CustomID:    invoice.ID.String(),
		ReferenceID: invoice.InvoiceNumber,
		Description: fmt.Sprintf("Invoice %s", invoice.InvoiceNumber),
		RequestID:   intentIdempotencyKey(snapshot, amount),
	})
	s.obsMetrics.RecordGatewayCall(ctx, s.wallet.Provider(), "create_order", err)
	if err != nil {
		return nil, err
	}
	return &publicinvoicedomain.WalletOrderResponse{OrderID: order.ID}, nil
}

// CaptureWalletOrder captures an approved order. A second capture of the same
// order answers from the stored payment without calling the gateway.
func (s *Service) CaptureWalletOrder(ctx context.Context, orgID snowflake.ID, token, orderID string) (*publicinvoicedomain.ConfirmResponse, error) {
	snapshot, err := s.resolve(ctx, orgID, token)
	if err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, paymentdomain.ErrInvalidID
	}
	if s.wallet == nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}

	release, err := s.lock(ctx, "lock:order:"+orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.payments.LookupGatewayPayment(ctx, "", orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.InvoiceID != snapshot.Invoice.ID {
			return nil, paymentdomain.ErrInvoiceMismatch
		}
		return &publicinvoicedomain.ConfirmResponse{OK: true, AlreadyRecorded: true}, nil
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	order, err := s.wallet.CaptureOrder(gctx, orderID, "order:"+orderID+":capture")
	s.obsMetrics.RecordGatewayCall(ctx, s.wallet.Provider(), "capture_order", err)
	if err != nil {
		return nil, err
	}
	if !order.Completed() || !order.Amount.IsPositive() {
		return nil, paymentdomain.ErrPaymentNotSucceeded
	}
	if order.CustomID != snapshot.Invoice.ID.String() {
		return nil, paymentdomain.ErrInvoiceMismatch
	}

	_, already, err := s.payments.RecordGatewayPayment(ctx, paymentservice.GatewayPaymentInput{
		OrgID:       orgID,
		InvoiceID:   snapshot.Invoice.ID,
		Amount:      order.Amount,
		Method:      paymentdomain.MethodWallet,
		OrderID:     order.ID,
		PaymentDate: s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &publicinvoicedomain.ConfirmResponse{OK: true, AlreadyRecorded: already}, nil
}

func (s *Service) FetchReceipt(ctx context.Context, orgID snowflake.ID, token string) (*publicinvoicedomain.Receipt, error) {
	snapshot, err := s.resolve(ctx, orgID, token)
	if err != nil {
		return nil, err
	}
	if !snapshot.ReceiptAvailable {
		return nil, publicinvoicedomain.ErrReceiptUnavailable
	}

	studio := s.settings.Get().Branding.StudioName
	data := receiptData(snapshot, studio)
	if customer := s.loadCustomer(ctx, snapshot.Invoice); customer != nil {
		data.BillToName = customer.Name
		data.BillToEmail = customer.Email
	}

	content, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		return nil, err
	}
	return &publicinvoicedomain.Receipt{
		Filename: slug.Make(studio+" "+snapshot.Invoice.InvoiceNumber+" receipt") + ".pdf",
		Content:  content,
	}, nil
}

// resolve maps a public token to its invoice snapshot. Unknown, expired, revoked and
// foreign-org tokens are indistinguishable to the caller.
func (s *Service) resolve(ctx context.Context, orgID snowflake.ID, token string) (invoicedomain.Snapshot, error) {
	token = strings.TrimSpace(token)
	if orgID == 0 || token == "" {
		return invoicedomain.Snapshot{}, publicinvoicedomain.ErrInvoiceUnavailable
	}

	row, err := s.tokenRepo.FindByHash(ctx, s.db, publicinvoicedomain.HashToken(token))
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	if row == nil || row.OrgID != orgID || !row.Active(s.clock.Now()) {
		return invoicedomain.Snapshot{}, publicinvoicedomain.ErrInvoiceUnavailable
	}

	snapshot, err := s.invoiceSvc.GetSnapshot(ctx, orgID, row.InvoiceID)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrNotFound) {
			return invoicedomain.Snapshot{}, publicinvoicedomain.ErrInvoiceUnavailable
		}
		return invoicedomain.Snapshot{}, err
	}
	return snapshot, nil
}

// minimumAmount is the configured floor, lowered to the balance when less is owed.
func (s *Service) minimumAmount(balance decimal.Decimal) decimal.Decimal {
	balance = balance.Round(2)
	if !balance.IsPositive() {
		return decimal.Zero
	}
	floor := s.settings.Get().MinimumPayment()
	if floor.GreaterThan(balance) {
		return balance
	}
	return floor
}

func (s *Service) checkAmount(snapshot invoicedomain.Snapshot, amount decimal.Decimal) error {
	balance := snapshot.Totals.BalanceDue.Round(2)
	if !balance.IsPositive() || snapshot.PersistedStatus == invoicedomain.StatusPaid {
		return publicinvoicedomain.ErrInvoiceAlreadyPaid
	}
	if !amount.IsPositive() || amount.LessThan(s.minimumAmount(balance)) || amount.GreaterThan(balance) {
		return publicinvoicedomain.ErrAmountOutOfBounds
	}
	return nil
}

func (s *Service) gateways() publicinvoicedomain.Gateways {
	now := s.clock.Now()

	s.availability.Lock()
	defer s.availability.Unlock()
	if now.Before(s.availability.expires) {
		return s.availability.value
	}

	var gateways publicinvoicedomain.Gateways
	if s.card != nil && s.card.PublishableKey() != "" {
		gateways.Card = &publicinvoicedomain.CardAvailability{
			Provider:       s.card.Provider(),
			PublishableKey: s.card.PublishableKey(),
		}
	}
	if s.wallet != nil && s.wallet.ClientID() != "" {
		gateways.Wallet = &publicinvoicedomain.WalletAvailability{
			Provider: s.wallet.Provider(),
			ClientID: s.wallet.ClientID(),
		}
	}
	s.availability.value = gateways
	s.availability.expires = now.Add(gatewayCacheTTL)
	return gateways
}

// lock serialises confirmation of one gateway reference. Without Redis the unique
// charge and order indexes still keep the insert single.
func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	release, err := s.locker.Acquire(ctx, key, confirmLockTTL, confirmLockWait)
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, ratelimit.ErrLockHeld):
		return nil, publicinvoicedomain.ErrConfirmInProgress
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		s.log.Warn("confirmation lock unavailable", zap.String("key", key), zap.Error(err))
		return func() {}, nil
	}
}

func (s *Service) loadCustomer(ctx context.Context, invoice invoicedomain.Invoice) *customerdomain.Customer {
	if invoice.CustomerID == nil || s.customerRepo == nil {
		return nil
	}
	customer, err := s.customerRepo.FindByID(ctx, s.db, invoice.OrgID, *invoice.CustomerID)
	if err != nil {
		s.log.Warn("load bill-to customer failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
		return nil
	}
	return customer
}

func intentIdempotencyKey(snapshot invoicedomain.Snapshot, amount decimal.Decimal) string {
	return fmt.Sprintf("invoice:%s:paid:%d:amount:%d",
		snapshot.Invoice.ID.String(),
		len(snapshot.Payments),
		paymentdomain.MinorUnits(amount),
	)
}

func publicPayments(payments []paymentdomain.Payment) []publicinvoicedomain.PublicPayment {
	out := make([]publicinvoicedomain.PublicPayment, 0, len(payments))
	for _, p := range payments {
		if p.IsRemoved() {
			continue
		}
		out = append(out, publicinvoicedomain.PublicPayment{
			Date:   p.PaymentDate,
			Method: string(p.Method),
			Amount: p.Amount,
			Online: p.IsOnline(),
		})
	}
	return out
}

func receiptData(snapshot invoicedomain.Snapshot, studio string) pdf.ReceiptData {
	currency := snapshot.Invoice.Currency
	totals := snapshot.Totals

	data := pdf.ReceiptData{
		StudioName:    studio,
		InvoiceNumber: snapshot.Invoice.InvoiceNumber,
		IssueDate:     snapshot.Invoice.IssuedAt.Format("Jan 2, 2006"),
		Status:        strings.ToUpper(string(snapshot.DisplayStatus)),
		Subtotal:      format.MoneyWithCurrency(totals.Subtotal, currency),
		Discount:      format.MoneyWithCurrency(totals.DiscountAmount, currency),
		Tax:           format.MoneyWithCurrency(totals.Tax, currency),
		Total:         format.MoneyWithCurrency(totals.Total, currency),
		Paid:          format.MoneyWithCurrency(totals.PaidAmount, currency),
		Balance:       format.MoneyWithCurrency(totals.BalanceDue, currency),
	}
	for _, line := range snapshot.Lines {
		description := line.Description
		if description == "" {
			description = line.Name
		}
		data.Items = append(data.Items, pdf.ReceiptItem{
			Description: description,
			Qty:         line.Quantity,
			UnitPrice:   format.MoneyWithCurrency(line.UnitPrice, currency),
			Amount:      format.MoneyWithCurrency(line.Total, currency),
		})
	}

	ledger := paymentdomain.NewLedger(snapshot.Payments)
	for _, p := range ledger.Payments() {
		data.Payments = append(data.Payments, pdf.ReceiptPayment{
			Date:   p.PaymentDate.Format("Jan 2, 2006"),
			Method: string(p.Method),
			Amount: format.MoneyWithCurrency(p.Amount, currency),
		})
	}
	if latest, ok := ledger.LatestOnline(); ok {
		data.LatestOnlineAmount = format.MoneyWithCurrency(latest.Amount, currency)
		data.LatestOnlineWords = pdf.AmountInWords(latest.Amount, currency)
	}
	return data
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/studiobooks/internal/clock"
	"github.com/smallbiznis/studiobooks/internal/config"
	"github.com/smallbiznis/studiobooks/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	"github.com/smallbiznis/studiobooks/internal/invoice/format"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	productdomain "github.com/smallbiznis/studiobooks/internal/product/domain"
	taxdomain "github.com/smallbiznis/studiobooks/internal/tax/domain"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Settings    *config.SettingsHolder
	Repo        invoicedomain.Repository
	PaymentRepo paymentdomain.Repository
	ProductSvc  productdomain.Service
	TaxResolver taxdomain.Resolver
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	settings    *config.SettingsHolder
	repo        invoicedomain.Repository
	paymentRepo paymentdomain.Repository
	productSvc  productdomain.Service
	taxResolver taxdomain.Resolver
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		settings:    p.Settings,
		repo:        p.Repo,
		paymentRepo: p.PaymentRepo,
		productSvc:  p.ProductSvc,
		taxResolver: p.TaxResolver,
	}
}

// Preview prices the working set at the live rate without saving anything.
func (s *Service) Preview(ctx context.Context, req invoicedomain.PreviewRequest) (invoicedomain.PreviewResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.PreviewResponse{}, err
	}

	items, err := invoicedomain.DecodeLineItems(req.Items)
	if err != nil {
		return invoicedomain.PreviewResponse{}, err
	}

	resolution, err := s.resolveTax(ctx, orgID, req.CustomerID)
	if err != nil {
		return invoicedomain.PreviewResponse{}, err
	}

	prices, err := s.priceList(ctx, orgID)
	if err != nil {
		return invoicedomain.PreviewResponse{}, err
	}

	pricer := calc.NewPricer(prices, calc.Rates{Live: resolution.Rate})
	lines := pricer.PriceAll(items, calc.ModeLive)
	s.warnUnresolved(ctx, lines)

	return invoicedomain.PreviewResponse{
		Lines:  lines,
		Totals: calc.Aggregate(lines, req.Discount, paymentdomain.NewLedger(nil)),
		Tax:    resolution,
	}, nil
}

// Create saves a new invoice and freezes the tax rate resolved right now.
func (s *Service) Create(ctx context.Context, req invoicedomain.SaveInvoiceRequest) (invoicedomain.Snapshot, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	stored, err := normalizeItems(req.Items)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	resolution, err := s.resolveTax(ctx, orgID, req.CustomerID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	settings := s.settings.Get()
	now := s.clock.Now()

	count, err := s.repo.CountByOrg(ctx, s.db, orgID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	template := strings.TrimSpace(settings.Invoice.NumberTemplate)
	if template == "" {
		template = format.DefaultInvoiceNumberTemplate
	}
	number, err := format.FormatInvoiceNumber(template, now, count+1)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	invoice := invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		CustomerID:    normalizeCustomerID(req.CustomerID),
		InvoiceNumber: number,
		Items:         datatypes.JSONSlice[invoicedomain.StoredLineItem](stored),
		Discount:      req.Discount.Normalized(),
		TaxRate:       resolution.Rate,
		TaxSource:     resolution.Source,
		DueDate:       normalizeDueDate(req.DueDate),
		Currency:      strings.ToUpper(strings.TrimSpace(settings.Invoice.Currency)),
		Notes:         req.Notes,
		IssuedAt:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	prices, err := s.priceList(ctx, orgID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	ledger := paymentdomain.NewLedger(nil)
	preview := calc.BuildSnapshot(invoice, prices, ledger, now)
	invoice.PersistedStatus = calc.PersistedStatus(preview.Totals.Total, preview.Totals.PaidAmount)

	if err := s.repo.Insert(ctx, s.db, &invoice); err != nil {
		return invoicedomain.Snapshot{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("tax_rate", invoice.TaxRate.String()),
		zap.String("tax_source", string(invoice.TaxSource)),
	)

	s.warnUnresolved(ctx, preview.Lines)
	return calc.BuildSnapshot(invoice, prices, ledger, now), nil
}

// Update replaces the editable fields, re-freezing the tax rate and recomputing the
// persisted status against payments already recorded.
func (s *Service) Update(ctx context.Context, id string, req invoicedomain.SaveInvoiceRequest) (invoicedomain.Snapshot, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	if invoice == nil {
		return invoicedomain.Snapshot{}, invoicedomain.ErrNotFound
	}

	stored, err := normalizeItems(req.Items)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	resolution, err := s.resolveTax(ctx, orgID, req.CustomerID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	payments, err := s.paymentRepo.ListByInvoice(ctx, s.db, orgID, invoice.ID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	prices, err := s.priceList(ctx, orgID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	now := s.clock.Now()
	invoice.CustomerID = normalizeCustomerID(req.CustomerID)
	invoice.Items = datatypes.JSONSlice[invoicedomain.StoredLineItem](stored)
	invoice.Discount = req.Discount.Normalized()
	invoice.TaxRate = resolution.Rate
	invoice.TaxSource = resolution.Source
	invoice.DueDate = normalizeDueDate(req.DueDate)
	invoice.Notes = req.Notes
	invoice.UpdatedAt = now

	ledger := paymentdomain.NewLedger(payments)
	snapshot := calc.BuildSnapshot(*invoice, prices, ledger, now)
	invoice.PersistedStatus = calc.PersistedStatus(snapshot.Totals.Total, snapshot.Totals.PaidAmount)

	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return invoicedomain.Snapshot{}, err
	}

	return calc.BuildSnapshot(*invoice, prices, ledger, now), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) GetSnapshot(ctx context.Context, orgID, id snowflake.ID) (invoicedomain.Snapshot, error) {
	if orgID == 0 {
		return invoicedomain.Snapshot{}, invoicedomain.ErrInvalidOrganization
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	if invoice == nil {
		return invoicedomain.Snapshot{}, invoicedomain.ErrNotFound
	}

	payments, err := s.paymentRepo.ListByInvoice(ctx, s.db, orgID, invoice.ID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	prices, err := s.priceList(ctx, orgID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	return calc.BuildSnapshot(*invoice, prices, paymentdomain.NewLedger(payments), s.clock.Now()), nil
}

func (s *Service) RefreshStatus(ctx context.Context, orgID, id snowflake.ID) (invoicedomain.Status, error) {
	snapshot, err := s.GetSnapshot(ctx, orgID, id)
	if err != nil {
		return "", err
	}

	status := calc.PersistedStatus(snapshot.Totals.Total, snapshot.Totals.PaidAmount)
	if status == snapshot.PersistedStatus {
		return status, nil
	}

	if err := s.repo.UpdatePersistedStatus(ctx, s.db, orgID, id, status, s.clock.Now()); err != nil {
		return "", err
	}
	s.log.Debug("invoice status refreshed",
		zap.String("invoice_id", id.String()),
		zap.String("from", string(snapshot.PersistedStatus)),
		zap.String("to", string(status)),
	)
	return status, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: int(req.PageSize)}
	if page.PageSize <= 0 {
		page.PageSize = 50
	}
	// the repository fetches Size()+1 rows, so has_more must be judged against the same size
	pageSize := int32(page.Size())

	items, err := s.repo.List(ctx, s.db, orgID, invoicedomain.ListFilter{CustomerID: req.CustomerID}, page)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *invoicedomain.Invoice) string {
		return pagination.TokenAt(invoice.ID.String(), invoice.CreatedAt)
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}
	items = lo.Compact(items)

	ids := lo.Map(items, func(invoice *invoicedomain.Invoice, _ int) snowflake.ID { return invoice.ID })
	payments, err := s.paymentRepo.ListByInvoices(ctx, s.db, orgID, ids)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	byInvoice := lo.GroupBy(payments, func(p paymentdomain.Payment) snowflake.ID { return p.InvoiceID })

	prices, err := s.priceList(ctx, orgID)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	now := s.clock.Now()
	rows := lo.Map(items, func(invoice *invoicedomain.Invoice, _ int) invoicedomain.InvoiceRow {
		snapshot := calc.BuildSnapshot(*invoice, prices, paymentdomain.NewLedger(byInvoice[invoice.ID]), now)
		return invoicedomain.InvoiceRow{
			ID:            invoice.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			CustomerID:    invoice.CustomerID,
			DueDate:       invoice.DueDate,
			Totals:        snapshot.Totals,
			DisplayStatus: snapshot.DisplayStatus,
			IssuedAt:      invoice.IssuedAt,
		}
	})

	resp := invoicedomain.ListInvoiceResponse{Invoices: rows}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) resolveTax(ctx context.Context, orgID snowflake.ID, customerID *snowflake.ID) (taxdomain.Resolution, error) {
	resolution, err := s.taxResolver.ResolveForCustomer(ctx, orgID, normalizeCustomerID(customerID))
	if err != nil {
		if errors.Is(err, taxdomain.ErrCustomerNotFound) {
			return taxdomain.Resolution{}, invoicedomain.ErrInvalidCustomer
		}
		return taxdomain.Resolution{}, err
	}
	return resolution, nil
}

func (s *Service) priceList(ctx context.Context, orgID snowflake.ID) (invoicedomain.PriceList, error) {
	prices, err := s.productSvc.PriceList(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return invoicedomain.PriceList(prices), nil
}

func (s *Service) warnUnresolved(ctx context.Context, lines []invoicedomain.ItemPricing) {
	for _, line := range lines {
		if !line.Unresolved {
			continue
		}
		productID := ""
		if line.ProductID != nil {
			productID = line.ProductID.String()
		}
		s.log.Warn("line item references unknown product, priced at zero",
			zap.String("product_id", productID),
			zap.String("kind", string(line.Kind)),
		)
	}
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, invoicedomain.ErrInvalidOrganization
	}
	return orgID, nil
}

// normalizeItems validates every line decodes and stores it in canonical form.
func normalizeItems(items []invoicedomain.StoredLineItem) ([]invoicedomain.StoredLineItem, error) {
	if len(items) == 0 {
		return nil, invoicedomain.ErrEmptyInvoice
	}
	decoded, err := invoicedomain.DecodeLineItems(items)
	if err != nil {
		return nil, err
	}
	return lo.Map(decoded, func(item invoicedomain.LineItem, _ int) invoicedomain.StoredLineItem {
		return invoicedomain.StoreLineItem(item)
	}), nil
}

func normalizeCustomerID(id *snowflake.ID) *snowflake.ID {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil || due.IsZero() {
		return nil
	}
	utc := due.UTC()
	return &utc
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}


package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/clock"
	"github.com/smallbiznis/studiobooks/internal/customer/domain"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPageSize = 50

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	orgID, err := orgIDFrom(ctx)
	if err != nil {
		return domain.Customer{}, err
	}

	name, err := normalizeName(req.Name)
	if err != nil {
		return domain.Customer{}, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Customer{}, err
	}
	billingState, err := normalizeBillingState(req.BillingState)
	if err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Name:         name,
		Email:        email,
		BillingState: billingState,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	s.log.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.Bool("has_billing_state", billingState != nil),
	)
	return customer, nil
}

// Update edits a client's contact details and billing state. Saved invoices keep
// the tax rate frozen on them; only later edits see the new state.
func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	customer, err := s.GetByID(ctx, domain.GetCustomerRequest{ID: req.ID})
	if err != nil {
		return domain.Customer{}, err
	}

	if req.Name != nil {
		if customer.Name, err = normalizeName(*req.Name); err != nil {
			return domain.Customer{}, err
		}
	}
	if req.Email != nil {
		if customer.Email, err = normalizeEmail(*req.Email); err != nil {
			return domain.Customer{}, err
		}
	}
	if req.BillingState != nil {
		if customer.BillingState, err = normalizeBillingState(*req.BillingState); err != nil {
			return domain.Customer{}, err
		}
	}
	customer.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	orgID, err := orgIDFrom(ctx)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: int(req.PageSize)}
	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}
	pageSize := int32(page.Size())

	items, err := s.repo.List(ctx, s.db, orgID, domain.ListCustomerFilter{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}, page)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		return pagination.TokenAt(customer.ID.String(), customer.CreatedAt)
	})
	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	resp := domain.ListCustomerResponse{
		Customers: lo.FilterMap(items, func(item *domain.Customer, _ int) (domain.Customer, bool) {
			if item == nil {
				return domain.Customer{}, false
			}
			return *item, true
		}),
	}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	orgID, err := orgIDFrom(ctx)
	if err != nil {
		return domain.Customer{}, err
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

// ListCredits returns the credits issued to a client together with their sum.
func (s *Service) ListCredits(ctx context.Context, req domain.GetCustomerRequest) (domain.ListCreditsResponse, error) {
	customer, err := s.GetByID(ctx, req)
	if err != nil {
		return domain.ListCreditsResponse{}, err
	}

	credits, err := s.repo.ListCredits(ctx, s.db, customer.OrgID, customer.ID)
	if err != nil {
		return domain.ListCreditsResponse{}, err
	}
	if credits == nil {
		credits = []domain.CustomerCredit{}
	}

	total := lo.Reduce(credits, func(acc decimal.Decimal, credit domain.CustomerCredit, _ int) decimal.Decimal {
		return acc.Add(credit.Amount)
	}, decimal.Zero)

	return domain.ListCreditsResponse{Credits: credits, Total: total}, nil
}

func orgIDFrom(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}

func normalizeName(value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

func normalizeEmail(value string) (string, error) {
	email := strings.TrimSpace(value)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

// normalizeBillingState accepts a two-letter state code in any case. Empty means
// no billing state on file.
func normalizeBillingState(value string) (*string, error) {
	state := strings.ToUpper(strings.TrimSpace(value))
	if state == "" {
		return nil, nil
	}
	if len(state) != 2 || strings.IndexFunc(state, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return nil, domain.ErrInvalidBillingState
	}
	return &state, nil
}

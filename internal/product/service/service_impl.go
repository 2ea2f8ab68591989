package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/clock"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
	"github.com/smallbiznis/studiobooks/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock `optional:"true"`
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: clk,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	orgID, err := orgIDFrom(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.FindAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Product, error) {
	orgID, err := orgIDFrom(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	unitPrice, err := parseUnitPrice(req.UnitPrice)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	product := &domain.Product{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Description: trimmedOrNil(req.Description),
		UnitPrice:   unitPrice,
		Active:      lo.FromPtrOr(req.Active, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, s.db, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update edits a product in place. Deactivating hides it from the editor's
// catalog while saved lines that reference it keep their price.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		product.Name = name
	}
	if req.Description != nil {
		product.Description = trimmedOrNil(req.Description)
	}
	if req.UnitPrice != nil {
		unitPrice, err := parseUnitPrice(*req.UnitPrice)
		if err != nil {
			return nil, err
		}
		if !unitPrice.Equal(product.UnitPrice) {
			s.log.Info("product repriced",
				zap.String("product_id", product.ID.String()),
				zap.String("from", product.UnitPrice.String()),
				zap.String("to", unitPrice.String()),
			)
		}
		product.UnitPrice = unitPrice
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	orgID, err := orgIDFrom(ctx)
	if err != nil {
		return nil, err
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) PriceList(ctx context.Context, orgID snowflake.ID) (map[snowflake.ID]decimal.Decimal, error) {
	items, err := s.repo.FindAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(items, func(item domain.Product) (snowflake.ID, decimal.Decimal) {
		return item.ID, item.UnitPrice
	}), nil
}

func orgIDFrom(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}

func parseUnitPrice(value string) (decimal.Decimal, error) {
	unitPrice, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || unitPrice.IsNegative() {
		return decimal.Zero, domain.ErrInvalidUnitPrice
	}
	return unitPrice, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

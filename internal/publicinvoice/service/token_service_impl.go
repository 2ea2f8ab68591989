package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/internal/clock"
	"github.com/smallbiznis/studiobooks/internal/config"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TokenParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	Repo        publicinvoicedomain.TokenRepository
	InvoiceRepo invoicedomain.Repository
}

type TokenService struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	publicURL   string
	repo        publicinvoicedomain.TokenRepository
	invoiceRepo invoicedomain.Repository
}

func NewTokenService(p TokenParams) publicinvoicedomain.TokenService {
	return &TokenService{
		db:          p.DB,
		log:         p.Log.Named("publicinvoice.token"),
		genID:       p.GenID,
		clock:       p.Clock,
		publicURL:   strings.TrimRight(p.Cfg.PublicURL, "/"),
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
	}
}

// EnsureForInvoice returns the active link for an invoice, creating one if none exists.
// With rotate the active token is revoked first so a fresh raw token can be handed out.
func (s *TokenService) EnsureForInvoice(ctx context.Context, invoiceID string, rotate bool) (publicinvoicedomain.PublicLink, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return publicinvoicedomain.PublicLink{}, invoicedomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(invoiceID))
	if err != nil {
		return publicinvoicedomain.PublicLink{}, invoicedomain.ErrInvalidID
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return publicinvoicedomain.PublicLink{}, err
	}
	if invoice == nil {
		return publicinvoicedomain.PublicLink{}, invoicedomain.ErrNotFound
	}

	var link publicinvoicedomain.PublicLink
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()
		existing, err := s.repo.FindActiveByInvoice(ctx, tx, orgID, id, now)
		if err != nil {
			return err
		}
		if existing != nil && !rotate {
			link = publicinvoicedomain.PublicLink{InvoiceID: id, CreatedAt: existing.CreatedAt}
			return nil
		}
		if existing != nil {
			if err := s.repo.Revoke(ctx, tx, orgID, id, now); err != nil {
				return err
			}
		}

		raw, err := generateToken()
		if err != nil {
			return err
		}
		token := publicinvoicedomain.PublicInvoiceToken{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			InvoiceID: id,
			TokenHash: publicinvoicedomain.HashToken(raw),
			CreatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, &token); err != nil {
			return err
		}

		link = publicinvoicedomain.PublicLink{
			InvoiceID: id,
			Token:     raw,
			URL:       s.publicURL + "/pay/" + orgID.String() + "/" + raw,
			Created:   true,
			CreatedAt: now,
		}
		return nil
	})
	if err != nil {
		return publicinvoicedomain.PublicLink{}, err
	}

	if link.Created {
		s.log.Info("public invoice link issued",
			zap.String("invoice_id", id.String()),
			zap.Bool("rotated", rotate),
		)
	}
	return link, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PublicLink is the result of ensuring an invoice has a public token. Token and URL
// are only set when the token was created by this call.
type PublicLink struct {
	InvoiceID snowflake.ID `json:"invoice_id"`
	Token     string       `json:"token,omitempty"`
	URL       string       `json:"url,omitempty"`
	Created   bool         `json:"created"`
	CreatedAt time.Time    `json:"created_at"`
}

// TokenService ensures an invoice has exactly one active public access token.
// It returns the existing token or creates one; it never rotates implicitly.
type TokenService interface {
	EnsureForInvoice(ctx context.Context, invoiceID string, rotate bool) (PublicLink, error)
}

var (
	ErrInvalidToken       = errors.New("invalid_public_token")
	ErrInvariantViolation = errors.New("invariant_violation")
)

// HashToken is the lookup key stored for a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

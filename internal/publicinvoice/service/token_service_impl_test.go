package service_test

import (
	"context"
	"strings"
	"testing"

	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	tokenrepo "github.com/smallbiznis/studiobooks/internal/publicinvoice/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureForInvoiceReusesActiveToken(t *testing.T) {
	h := newHarness(t)
	id, token := h.invoice(t)

	row, err := tokenrepo.Provide().FindByHash(context.Background(), h.db, publicinvoicedomain.HashToken(token))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, id, row.InvoiceID)
	assert.NotEqual(t, token, row.TokenHash)

	again, err := h.tokens.EnsureForInvoice(h.ctx, id.String(), false)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Empty(t, again.Token)
	assert.Empty(t, again.URL)
}

func TestEnsureForInvoiceRotate(t *testing.T) {
	h := newHarness(t)
	id, token := h.invoice(t)

	rotated, err := h.tokens.EnsureForInvoice(h.ctx, id.String(), true)
	require.NoError(t, err)
	assert.True(t, rotated.Created)
	assert.NotEqual(t, token, rotated.Token)
	assert.True(t, strings.HasPrefix(rotated.URL, "https://studio.example.com/pay/"+h.orgID.String()+"/"))

	old, err := tokenrepo.Provide().FindByHash(context.Background(), h.db, publicinvoicedomain.HashToken(token))
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.False(t, old.Active(h.clock.Now()))

	active, err := tokenrepo.Provide().FindActiveByInvoice(context.Background(), h.db, h.orgID, id, h.clock.Now())
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, publicinvoicedomain.HashToken(rotated.Token), active.TokenHash)
}

func TestEnsureForInvoiceValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.tokens.EnsureForInvoice(context.Background(), "1", false)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidOrganization)

	_, err = h.tokens.EnsureForInvoice(h.ctx, "nope", false)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidID)

	_, err = h.tokens.EnsureForInvoice(h.ctx, h.node.Generate().String(), false)
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

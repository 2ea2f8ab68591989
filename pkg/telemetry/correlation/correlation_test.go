package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCorrelationIDKeepsExisting(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "01HZX")
	ctx, cid := EnsureCorrelationID(ctx)
	assert.Equal(t, "01HZX", cid)
	assert.Equal(t, "01HZX", ExtractCorrelationID(ctx))
}

func TestEnsureCorrelationIDGenerates(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	assert.Len(t, cid, 26)
	assert.Equal(t, cid, ExtractCorrelationID(ctx))
	assert.Equal(t, cid, TraceIDFromContext(ctx))
}

// Package orgcontext carries the studio organization a request acts for.
// Every repository query is scoped by it.
package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type orgKey struct{}

// WithOrgID stores the org ID in the context.
func WithOrgID(ctx context.Context, orgID int64) context.Context {
	return context.WithValue(ctx, orgKey{}, snowflake.ID(orgID))
}

// OrgIDFromContext returns the org ID from context, if set. Zero is treated as unset.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	orgID, ok := ctx.Value(orgKey{}).(snowflake.ID)
	if !ok || orgID == 0 {
		return 0, false
	}
	return orgID, true
}

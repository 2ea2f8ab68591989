package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/studiobooks/internal/observability/context"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
)

const HeaderOrg = "X-Org-ID"

// OrgContext resolves the organization from the X-Org-ID header, falling back to
// the configured default org, and stores it on the request context.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := s.resolveOrgID(c)
		if !ok {
			AbortWithError(c, ErrOrgRequired)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), int64(orgID))
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) resolveOrgID(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.GetHeader(HeaderOrg))
	if raw == "" {
		if s.cfg.DefaultOrgID != 0 {
			return snowflake.ID(s.cfg.DefaultOrgID), true
		}
		return 0, false
	}
	orgID, err := snowflake.ParseString(raw)
	if err != nil || orgID <= 0 {
		return 0, false
	}
	return orgID, true
}

package server

import (
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/dunning/internal/observability/context"
	"github.com/smallbiznis/dunning/internal/workspace"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	contextWorkspaceKey = "workspace"
	runIDKey            = "run_id"
)

// WorkspaceContext binds the request to the caller's workspace, opening one
// when the cookie is missing or points at an evicted workspace.
func (s *Server) WorkspaceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := s.cookies.ReadID(c)
		ws, created := s.workspaces.Resolve(id)
		s.cookies.Set(c, ws.ID())

		if created {
			s.log.Debug("workspace opened",
				zap.String("workspace_id", ws.ID()),
				zap.Bool("replaced", id != ""),
			)
		}

		ctx := obscontext.WithWorkspaceID(c.Request.Context(), ws.ID())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextWorkspaceKey, ws)
		c.Next()
	}
}

func workspaceFrom(c *gin.Context) *workspace.Workspace {
	return c.MustGet(contextWorkspaceKey).(*workspace.Workspace)
}

// spanAttributes reports what a handler consumed or produced on the request span.
func spanAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if kind := c.GetString(uploadKindKey); kind != "" {
		attrs = append(attrs, attribute.String("upload.kind", kind))
	}
	if rows, ok := c.Get(uploadRowsKey); ok {
		if n, ok := rows.(int); ok {
			attrs = append(attrs, attribute.Int("upload.rows", n))
		}
	}
	if runID := c.GetString(runIDKey); runID != "" {
		attrs = append(attrs, attribute.String("run_id", runID))
	}
	return attrs
}

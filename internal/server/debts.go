package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

func (s *Server) LoadDebtBase(c *gin.Context) {
	table, err := s.readTable(c, "file", domain.TableKindDebts)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.svc.LoadDebtBase(c.Request.Context(), workspaceFrom(c), table)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDebtBase(c *gin.Context) {
	resp, err := s.svc.DebtBase(c.Request.Context(), workspaceFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReplaceDebtBase(c *gin.Context) {
	s.svc.ReplaceDebtBase(c.Request.Context(), workspaceFrom(c))
	c.Status(http.StatusNoContent)
}

func (s *Server) EndWorkspace(c *gin.Context) {
	if id, ok := s.cookies.ReadID(c); ok {
		s.workspaces.Delete(id)
	}
	s.cookies.Clear(c)
	c.Status(http.StatusNoContent)
}

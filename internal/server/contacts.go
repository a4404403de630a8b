package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/smallbiznis/dunning/internal/export"
)

func (s *Server) bindContactRequest(c *gin.Context) (domain.ContactRequest, error) {
	subscribers, err := s.readTable(c, "subscribers", domain.TableKindSubscribers)
	if err != nil {
		return domain.ContactRequest{}, err
	}
	payments, err := s.readTable(c, "payments", domain.TableKindPayments)
	if err != nil {
		return domain.ContactRequest{}, err
	}
	debts, err := s.readOptionalTable(c, "debts", domain.TableKindDebts)
	if err != nil {
		return domain.ContactRequest{}, err
	}

	classifications, err := parseClassifications(c.PostFormArray("classification"))
	if err != nil {
		return domain.ContactRequest{}, err
	}

	return domain.ContactRequest{
		Subscribers: subscribers,
		Payments:    payments,
		Debts:       debts,
		Filter:      domain.ContactFilter{Classifications: classifications},
	}, nil
}

func (s *Server) ListContacts(c *gin.Context) {
	req, err := s.bindContactRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.svc.Contacts(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportContacts(c *gin.Context) {
	req, err := s.bindContactRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	parts, set, err := parseOptionalInt(c.PostForm("parts"))
	if err != nil || (set && parts < 1) {
		AbortWithError(c, domain.ErrInvalidChunkCount)
		return
	}
	split, err := domain.ParseSplitBy(strings.TrimSpace(c.PostForm("split_by")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bundle, err := s.svc.ExportContacts(c.Request.Context(), req, domain.ExportRequest{
		Parts:   parts,
		Prefix:  strings.TrimSpace(c.PostForm("prefix")),
		SplitBy: split,
	})
	if errors.Is(err, domain.ErrEmptyExport) {
		warning := domain.WarningSummary{Code: domain.WarningEmptyResult, Kind: domain.TableKindSubscribers}
		c.JSON(http.StatusOK, gin.H{
			"data":     domain.ExportBundle{Files: []domain.ExportFile{}},
			"warnings": []domain.WarningSummary{warning},
		})
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	archive, err := export.Zip(bundle.Files, s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "contactos.zip"))
	c.Header("X-Export-Files", strconv.Itoa(len(bundle.Files)))
	c.Header("X-Export-Rows", strconv.Itoa(bundle.Rows))
	c.Data(http.StatusOK, "application/zip", archive)
}

package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

func (s *Server) CrossCheck(c *gin.Context) {
	table, err := s.readTable(c, "file", domain.TableKindPayments)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.svc.CrossCheck(c.Request.Context(), workspaceFrom(c), table)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set(runIDKey, resp.RunID)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type reportQuery struct {
	Period string `form:"period"`
	Type   string `form:"type"`
	Status string `form:"status"`
	Top    string `form:"top"`
}

func bindReportRequest(c *gin.Context) (domain.ReportRequest, error) {
	var query reportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return domain.ReportRequest{}, invalidRequestError()
	}

	status, err := parseStatus(query.Status)
	if err != nil {
		return domain.ReportRequest{}, err
	}
	top, _, err := parseOptionalInt(query.Top)
	if err != nil {
		return domain.ReportRequest{}, domain.ErrInvalidTopN
	}

	return domain.ReportRequest{
		Filter: domain.Filter{
			Period:   query.Period,
			DebtType: query.Type,
			Status:   status,
		},
		TopN: top,
	}, nil
}

func (s *Server) GetReport(c *gin.Context) {
	req, err := bindReportRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.svc.Report(c.Request.Context(), workspaceFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set(runIDKey, resp.RunID)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

var reportContentTypes = map[domain.ReportFormat]string{
	domain.ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	domain.ReportFormatPDF:  "application/pdf",
}

func (s *Server) DownloadReport(format domain.ReportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindReportRequest(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		file, err := s.svc.ReportDocument(c.Request.Context(), workspaceFrom(c), req, format)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		c.Data(http.StatusOK, reportContentTypes[format], file.Data)
	}
}

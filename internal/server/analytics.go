package server

import (
	"fmt"
	"net/http"

	"github.com/ayurtrace/ayurtrace/internal/analytics/domain"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) GetAnalytics(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var req domain.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.analyticsSvc.ComputeAnalytics(c.Request.Context(), who, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) ExportAnalytics(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var req domain.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	data, err := s.analyticsSvc.ExportAnalyticsXLSX(c.Request.Context(), who, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	timeframe, _ := domain.ParseTimeframe(req.Timeframe)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ayurtrace-analytics-%s.xlsx"`, timeframe))
	c.Data(http.StatusOK, xlsxContentType, data)
}

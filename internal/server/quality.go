package server

import (
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/quality/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) SubmitQualityTest(c *gin.Context) {
	handleCreate(s.qualitySvc.Submit)(c)
}

func (s *Server) GetQualityTest(c *gin.Context) {
	handleGet(s.qualitySvc.Get)(c)
}

func (s *Server) UpdateQualityTest(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var req domain.UpdateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.qualitySvc.UpdateResult(c.Request.Context(), who, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

package server

import (
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/collection/domain"
	"github.com/gin-gonic/gin"
)

type listCollectionEventsQuery struct {
	SpeciesID     string `form:"species_id"`
	CooperativeID string `form:"cooperative_id"`
	CollectorID   string `form:"collector_id"`
	Unbatched     string `form:"unbatched"`
	PageSize      int    `form:"page_size"`
}

func (s *Server) RecordCollectionEvent(c *gin.Context) {
	handleCreate(s.collectionSvc.Record)(c)
}

func (s *Server) GetCollectionEvent(c *gin.Context) {
	handleGet(s.collectionSvc.Get)(c)
}

func (s *Server) UpdateCollectionEvent(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var req domain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.collectionSvc.Update(c.Request.Context(), who, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) ListCollectionEvents(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var query listCollectionEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	unbatched, err := parseOptionalBool(query.Unbatched)
	if err != nil {
		AbortWithError(c, newValidationError("unbatched", "invalid_unbatched", "invalid unbatched"))
		return
	}

	resp, err := s.collectionSvc.List(c.Request.Context(), who, domain.ListRequest{
		SpeciesID:     strings.TrimSpace(query.SpeciesID),
		CooperativeID: strings.TrimSpace(query.CooperativeID),
		CollectorID:   strings.TrimSpace(query.CollectorID),
		Unbatched:     unbatched != nil && *unbatched,
		PageSize:      query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

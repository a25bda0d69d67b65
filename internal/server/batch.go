package server

import (
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type listBatchesQuery struct {
	PageToken   string `form:"page_token"`
	PageSize    int    `form:"page_size"`
	Status      string `form:"status"`
	SpeciesID   string `form:"species_id"`
	RecallFlag  string `form:"recall_flag"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
}

func (s *Server) CreateBatch(c *gin.Context) {
	handleCreate(s.batchSvc.CreateBatch)(c)
}

func (s *Server) GetBatch(c *gin.Context) {
	handleGet(s.batchSvc.Get)(c)
}

func (s *Server) ListBatches(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var query listBatchesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	recallFlag, err := parseOptionalBool(query.RecallFlag)
	if err != nil {
		AbortWithError(c, newValidationError("recall_flag", "invalid_recall_flag", "invalid recall_flag"))
		return
	}
	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.batchSvc.List(c.Request.Context(), who, domain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status:      strings.ToUpper(strings.TrimSpace(query.Status)),
		SpeciesID:   strings.TrimSpace(query.SpeciesID),
		RecallFlag:  recallFlag,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) UpdateBatchStatus(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var req domain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.batchSvc.UpdateStatus(c.Request.Context(), who, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) ListProcessingSteps(c *gin.Context) {
	handleGet(s.batchSvc.ListProcessingSteps)(c)
}

func (s *Server) AddProcessingStep(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var req domain.AddStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.batchSvc.AddProcessingStep(c.Request.Context(), who, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeCreated(c, resp)
}

func (s *Server) RecallBatch(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	var req domain.RecallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.batchSvc.SetRecallFlag(c.Request.Context(), who, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) ListQualityTests(c *gin.Context) {
	handleGet(s.qualitySvc.ListByBatch)(c)
}

func (s *Server) ListBatchProducts(c *gin.Context) {
	handleGet(s.productSvc.ListByBatch)(c)
}

func (s *Server) ListCustody(c *gin.Context) {
	handleGet(s.custodySvc.ListByBatch)(c)
}

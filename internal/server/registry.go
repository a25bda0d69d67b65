package server

import (
	"github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/gin-gonic/gin"
)

type listRegistryQuery struct {
	Name     string `form:"name"`
	PageSize int    `form:"page_size"`
}

func (s *Server) bindRegistryList(c *gin.Context) (domain.ListRequest, bool) {
	var query listRegistryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return domain.ListRequest{}, false
	}
	return domain.ListRequest{Name: query.Name, PageSize: query.PageSize}, true
}

func (s *Server) CreateSpecies(c *gin.Context) {
	handleCreate(s.registrySvc.CreateSpecies)(c)
}

func (s *Server) GetSpecies(c *gin.Context) {
	handleGet(s.registrySvc.GetSpecies)(c)
}

func (s *Server) ListSpecies(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := s.bindRegistryList(c)
	if !ok {
		return
	}

	resp, err := s.registrySvc.ListSpecies(c.Request.Context(), who, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) CreateCooperative(c *gin.Context) {
	handleCreate(s.registrySvc.CreateCooperative)(c)
}

func (s *Server) GetCooperative(c *gin.Context) {
	handleGet(s.registrySvc.GetCooperative)(c)
}

func (s *Server) ListCooperatives(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := s.bindRegistryList(c)
	if !ok {
		return
	}

	resp, err := s.registrySvc.ListCooperatives(c.Request.Context(), who, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) CreateCollector(c *gin.Context) {
	handleCreate(s.registrySvc.CreateCollector)(c)
}

func (s *Server) GetCollector(c *gin.Context) {
	handleGet(s.registrySvc.GetCollector)(c)
}

func (s *Server) ListCollectors(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := s.bindRegistryList(c)
	if !ok {
		return
	}

	resp, err := s.registrySvc.ListCollectors(c.Request.Context(), who, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) CreateFacility(c *gin.Context) {
	handleCreate(s.registrySvc.CreateFacility)(c)
}

func (s *Server) GetFacility(c *gin.Context) {
	handleGet(s.registrySvc.GetFacility)(c)
}

func (s *Server) ListFacilities(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := s.bindRegistryList(c)
	if !ok {
		return
	}

	resp, err := s.registrySvc.ListFacilities(c.Request.Context(), who, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) CreateLab(c *gin.Context) {
	handleCreate(s.registrySvc.CreateLab)(c)
}

func (s *Server) GetLab(c *gin.Context) {
	handleGet(s.registrySvc.GetLab)(c)
}

func (s *Server) ListLabs(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := s.bindRegistryList(c)
	if !ok {
		return
	}

	resp, err := s.registrySvc.ListLabs(c.Request.Context(), who, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

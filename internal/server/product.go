package server

import "github.com/gin-gonic/gin"

func (s *Server) CreateProduct(c *gin.Context) {
	handleCreate(s.productSvc.Create)(c)
}

func (s *Server) GetProduct(c *gin.Context) {
	handleGet(s.productSvc.Get)(c)
}

func (s *Server) RecordCustody(c *gin.Context) {
	handleCreate(s.custodySvc.Record)(c)
}

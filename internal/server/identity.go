package server

import (
	"github.com/ayurtrace/ayurtrace/internal/identity/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.identitySvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeCreated(c, resp)
}

func (s *Server) RequestOTP(c *gin.Context) {
	var req domain.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.identitySvc.RequestOTP(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) VerifyOTP(c *gin.Context) {
	var req domain.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.identitySvc.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

func (s *Server) Me(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}

	resp, err := s.identitySvc.Me(c.Request.Context(), who)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

package server

import (
	"net/http"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/blob"
	"github.com/ayurtrace/ayurtrace/internal/provenance/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetProvenance(c *gin.Context) {
	handleGet(s.provenanceSvc.Get)(c)
}

func (s *Server) PublishProvenance(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}

	resp, err := s.provenanceSvc.Publish(c.Request.Context(), who, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

// TraceByQR serves the consumer scan. A signed-in caller is recorded on
// the scan, everyone else stays anonymous.
func (s *Server) TraceByQR(c *gin.Context) {
	meta := domain.ScanMeta{
		Location:  optionalString(c.Query("location")),
		IPAddress: optionalString(c.ClientIP()),
		UserAgent: optionalString(c.Request.UserAgent()),
	}
	if who, ok := actor.FromContext(c.Request.Context()); ok {
		id := who.ID.Int64()
		meta.AccountID = &id
	}

	resp, err := s.provenanceSvc.TraceByQR(c.Request.Context(), strings.TrimSpace(c.Param("code")), meta)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeOK(c, resp)
}

// GetBlob streams a published document from the blob store.
func (s *Server) GetBlob(c *gin.Context) {
	key, err := blob.CleanKey(c.Param("key"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	info, body, err := s.blobs.Get(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, body, nil)
}

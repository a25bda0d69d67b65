package server

import (
	"context"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/gin-gonic/gin"
)

type createFunc[Req any, Resp any] func(ctx context.Context, who actor.Actor, req Req) (Resp, error)

type getFunc[Resp any] func(ctx context.Context, who actor.Actor, id string) (Resp, error)

// handleCreate binds a JSON body and answers 201 with the created record.
func handleCreate[Req any, Resp any](fn createFunc[Req, Resp]) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := currentActor(c)
		if !ok {
			return
		}
		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}

		resp, err := fn(c.Request.Context(), who, req)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		writeCreated(c, resp)
	}
}

// handleGet answers with the record named by the :id path parameter.
func handleGet[Resp any](fn getFunc[Resp]) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := currentActor(c)
		if !ok {
			return
		}

		resp, err := fn(c.Request.Context(), who, strings.TrimSpace(c.Param("id")))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		writeOK(c, resp)
	}
}

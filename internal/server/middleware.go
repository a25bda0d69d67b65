package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	obscontext "github.com/ayurtrace/ayurtrace/internal/observability/context"
	"github.com/gin-gonic/gin"
)

// AuthRequired resolves the bearer token into the request actor.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		who, err := s.authn.Authenticate(c.Request.Context(), header)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		s.attachActor(c, who)
		c.Next()
	}
}

// OptionalAuth attaches the actor when a valid token is present and
// otherwise lets the request through anonymously.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header != "" {
			if who, err := s.authn.Authenticate(c.Request.Context(), header); err == nil {
				s.attachActor(c, who)
			}
		}
		c.Next()
	}
}

func (s *Server) attachActor(c *gin.Context, who actor.Actor) {
	ctx := actor.WithActor(c.Request.Context(), who)
	ctx = obscontext.WithActor(ctx, string(who.Role), who.IDString())
	c.Request = c.Request.WithContext(ctx)
}

// TraceRateLimit caps public lookups per client address.
func (s *Server) TraceRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := s.traceLimiter.Allow(c.Request.Context(), c.ClientIP())
		if res.Allowed {
			c.Next()
			return
		}
		if res.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
		}
		AbortWithError(c, ErrRateLimited)
	}
}

// currentActor returns the authenticated actor, or aborts with 401.
func currentActor(c *gin.Context) (actor.Actor, bool) {
	who, ok := actor.FromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return actor.Actor{}, false
	}
	return who, true
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func writeOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, data)
}

func writeCreated(c *gin.Context, data any) {
	respond(c, http.StatusCreated, data)
}

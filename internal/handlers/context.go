package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	iauth "github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/internal/middleware"
	"github.com/clivefinesse/jobtracker/internal/services"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentCaller derives the caller identity placed in the context by the auth
// middleware. The second return is false when the request is unauthenticated.
func currentCaller(c *gin.Context) (services.Caller, bool) {
	v, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		return services.Caller{}, false
	}

	claims, ok := v.(*iauth.Claims)
	if !ok || claims.UserID == "" {
		return services.Caller{}, false
	}

	return services.Caller{
		UserID:  claims.UserID,
		IsStaff: claims.IsStaff,
	}, true
}

package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/pkg/errors"
	"github.com/clivefinesse/jobtracker/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// Auth rejects requests without a valid bearer access token and threads the
// caller's claims into the gin context.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(jwt, c.GetHeader("Authorization"))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)

		c.Next()
	}
}

func bearerClaims(jwt *iauth.JWTService, header string) (*iauth.Claims, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, fmt.Errorf("malformed authorization header")
	}
	return jwt.ValidateAccessToken(strings.TrimSpace(token))
}

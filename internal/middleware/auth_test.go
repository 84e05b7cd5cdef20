package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/internal/models"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *iauth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", Auth(jwtSvc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(CtxUserIDKey)})
	})
	return r, jwtSvc
}

func doRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthAcceptsValidAccessToken(t *testing.T) {
	r, jwtSvc := newAuthRouter(t)

	pair, err := jwtSvc.GeneratePair(&models.User{
		ID:       "11111111-1111-1111-1111-111111111111",
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)

	rec := doRequest(r, "Bearer "+pair.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "11111111-1111-1111-1111-111111111111")
}

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	r, _ := newAuthRouter(t)

	require.Equal(t, http.StatusUnauthorized, doRequest(r, "").Code)
	require.Equal(t, http.StatusUnauthorized, doRequest(r, "Basic abc").Code)
	require.Equal(t, http.StatusUnauthorized, doRequest(r, "Bearer").Code)
	require.Equal(t, http.StatusUnauthorized, doRequest(r, "Bearer not-a-token").Code)
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	r, jwtSvc := newAuthRouter(t)

	pair, err := jwtSvc.GeneratePair(&models.User{ID: "11111111-1111-1111-1111-111111111111"})
	require.NoError(t, err)

	rec := doRequest(r, "Bearer "+pair.Refresh)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func setupRouter(v *Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", v.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"account": AccountID(c)})
	})
	return r
}

func request(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_AcceptsValidToken(t *testing.T) {
	r := setupRouter(NewVerifier(secret, "rental-manager", zap.NewNop()))

	token, err := IssueToken(secret, "rental-manager", "user-1", time.Hour)
	require.NoError(t, err)

	w := request(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account":"user-1"}`, w.Body.String())
}

func TestMiddleware_Rejects(t *testing.T) {
	v := NewVerifier(secret, "rental-manager", zap.NewNop())
	r := setupRouter(v)

	expired, err := IssueToken(secret, "rental-manager", "user-1", -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := IssueToken("other", "rental-manager", "user-1", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := IssueToken(secret, "someone-else", "user-1", time.Hour)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "rental-manager"}).SignedString([]byte(secret))
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "user-1", Issuer: "rental-manager"}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
		{"expired", "Bearer " + expired},
		{"wrong secret", "Bearer " + wrongSecret},
		{"wrong issuer", "Bearer " + wrongIssuer},
		{"no subject", "Bearer " + noSubject},
		{"other algorithm", "Bearer " + hs512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"not authenticated"}`, w.Body.String())
		})
	}
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, err := IssueToken("", "rental-manager", "user-1", time.Hour)
	assert.Error(t, err)
}

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const accountKey = "account_id"

var ErrMissingToken = errors.New("missing bearer token")

// Verifier validates HS256 bearer tokens issued by the session service.
// The token subject is the account id every query is scoped to.
type Verifier struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

func NewVerifier(secret, issuer string, logger *zap.Logger) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, logger: logger.Named("auth")}
}

// Verify parses a raw token and returns its account id
func (v *Verifier) Verify(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return sub, nil
}

// Middleware rejects requests without a valid bearer token and stores the account id
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var account string
			account, err = v.Verify(tokenStr)
			if err == nil {
				c.Set(accountKey, account)
				c.Next()
				return
			}
		}

		v.logger.Debug("Rejected request", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", jwt.ErrTokenMalformed
	}
	return strings.TrimSpace(parts[1]), nil
}

// AccountID returns the authenticated account, or "" when the request has none
func AccountID(c *gin.Context) string {
	return c.GetString(accountKey)
}

// SetAccountID marks a request as authenticated; used by trusted internal callers
func SetAccountID(c *gin.Context, account string) {
	c.Set(accountKey, account)
}

// IssueToken signs a token for account, valid for ttl. Used by the CLI for local
// development; production tokens come from the session service.
func IssueToken(secret, issuer, account string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   account,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

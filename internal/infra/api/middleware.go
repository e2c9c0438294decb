// internal/infra/api/middleware.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const ctxMotherID = "motherID"

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the payload of the bearer tokens issued at login.
type TokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and returns the mother id it was issued for.
func ParseToken(tokenString string, secret []byte) (uuid.UUID, *TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	motherID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: userId is not a valid id", ErrInvalidToken)
	}
	return motherID, claims, nil
}

// AuthMiddleware rejects requests without a bearer token (401) or with an invalid one (403).
func AuthMiddleware(secret []byte, logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		motherID, _, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			logger.WithError(err).Debug("JWT verification failed")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ctxMotherID, motherID)
		c.Next()
	}
}

// RequestLogger logs one line per request through logrus. Authenticated requests carry mother_id.
func RequestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if motherID := motherIDFrom(c); motherID != uuid.Nil {
			entry = entry.WithField("mother_id", motherID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("Request failed")
			return
		}
		entry.Debug("Request handled")
	}
}

func motherIDFrom(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxMotherID)
	motherID, _ := id.(uuid.UUID)
	return motherID
}

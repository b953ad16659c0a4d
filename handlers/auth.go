package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/fadhlanhapp/egov-portal/config"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	contextUserID = "user_id"
	contextRole   = "role"

	RoleCitizen  = "citizen"
	RoleAdmin    = "admin"
	RoleAssessor = "assessor"
)

// Claims is the bearer token payload
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for a user
func GenerateToken(secret string, userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "egov-portal",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a signed token
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID > 0 {
		return claims, nil
	}
	return nil, errors.New("invalid token claims")
}

// AuthMiddleware requires a bearer token; with DemoUserID set, requests without one act as that citizen
func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && cfg.DemoUserID > 0 {
			c.Set(contextUserID, cfg.DemoUserID)
			c.Set(contextRole, RoleCitizen)
			c.Next()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			utils.HandleError(c, utils.NewUnauthorizedError("Missing bearer token"))
			return
		}

		claims, err := ParseToken(cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.HandleError(c, utils.NewUnauthorizedError("Invalid or expired token"))
			return
		}
		c.Set(contextUserID, claims.UserID)
		c.Set(contextRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets only the listed roles through
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(contextRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		utils.HandleError(c, utils.NewForbiddenError("You are not allowed to access this resource"))
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(contextUserID)
}

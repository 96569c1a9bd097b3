package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/itinerum/tripbreaker-backend/pkg/response"
)

// Roles carried in tokens
const (
	RoleAdmin       = "admin"
	RoleResearcher  = "researcher"
	RoleParticipant = "participant"
)

const (
	surveyIDKey = "survey_id"
	roleKey     = "role"
	subjectKey  = "subject"
)

// Claims are the JWT claims of a dashboard session
type Claims struct {
	SurveyID int64  `json:"survey_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for a survey member
func IssueToken(secret string, surveyID int64, role, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SurveyID: surveyID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a signed token and returns its claims
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.SurveyID <= 0 {
		return nil, errors.New("token has no survey")
	}
	return claims, nil
}

// Auth middleware requires a valid Bearer token and stores its claims on the context
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		c.Set(surveyIDKey, claims.SurveyID)
		c.Set(roleKey, claims.Role)
		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// RequireRoles middleware rejects tokens whose role is not listed
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(roleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
	}
}

// SurveyID returns the survey of the authenticated request
func SurveyID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(surveyIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Subject returns the subject of the authenticated request
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"forestval/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the "role" claim
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

// Context keys set by RequireRole
const (
	CtxSubject = "subject"
	CtxRole    = "role"
)

var errMissingRole = errors.New("role not found in token")

// Claims is the subset of token claims the service relies on.
type Claims struct {
	Subject string
	Role    string
}

// ParseToken validates an HMAC-signed JWT and extracts its subject and role.
func ParseToken(secret []byte, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Claims{}, errMissingRole
	}
	sub, _ := claims.GetSubject()

	return Claims{Subject: sub, Role: role}, nil
}

// bearerToken reads the token from the access_token cookie, falling back to
// the Authorization header.
func bearerToken(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireRole validates the JWT and checks that its role is one of allowedRoles.
func RequireRole(secret []byte, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		claims, err := ParseToken(secret, tokenString)
		if errors.Is(err, errMissingRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if claims.Role == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(CtxSubject, claims.Subject)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

// OptionalSubject records the token subject when a valid token is present
// and lets anonymous requests through untouched.
func OptionalSubject(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, problem := bearerToken(c); problem == "" {
			if claims, err := ParseToken(secret, tokenString); err == nil {
				c.Set(CtxSubject, claims.Subject)
				c.Set(CtxRole, claims.Role)
			}
		}
		c.Next()
	}
}

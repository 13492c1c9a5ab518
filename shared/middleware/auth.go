package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/assetmarket/go-marketplace/shared/config"
	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// TenantHeader is the explicit tenant identifier an unauthenticated caller
// supplies. Authenticated callers are scoped by their own tenant membership
// from the token; the header never overrides it.
const TenantHeader = "X-Tenant-ID"

const (
	ctxUserKey = "user_info"

	claimsCacheTTL = time.Hour
)

// Claims is the JWT payload issued at login. The tenant membership rides in
// the token so request handling never needs a users-table lookup.
type Claims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	TenantID string          `json:"tenant_id"`
	Role     models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	return []byte(config.GetEnv("JWT_SECRET", "dev-only-secret"))
}

// GenerateToken issues a signed HS256 token for the user.
func GenerateToken(user *models.User, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		TenantID: user.TenantID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// RequireAuth validates the bearer token, stores the caller's identity on the
// gin context and scopes the request context to the caller's tenant.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid token")
			c.Abort()
			return
		}

		attachCaller(c, claims)
		c.Next()
	}
}

// OptionalAuth scopes the request like RequireAuth when a valid token is
// present but lets anonymous callers through untouched, so public endpoints
// can fall back to the tenant header.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if claims, err := parseToken(tokenString); err == nil {
				attachCaller(c, claims)
			}
		}
		c.Next()
	}
}

// RequireTenant guarantees the request carries a tenant scope before any
// handler runs: an authenticated caller's membership wins, an anonymous caller
// may name a tenant explicitly via the header, and a request with neither is
// refused before any store access.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := tenantscope.Current(c.Request.Context()); ok {
			c.Next()
			return
		}

		if header := strings.TrimSpace(c.GetHeader(TenantHeader)); header != "" {
			scopeRequest(c, header)
			c.Next()
			return
		}

		utils.BadRequestResponse(c, tenantscope.ErrTenantRequired.Error())
		c.Abort()
	}
}

// RequireRole refuses callers whose token carries a different role.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, ok := UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "Authentication required")
			c.Abort()
			return
		}
		if info.Role != role {
			utils.ForbiddenResponse(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin is shorthand for RequireRole(admin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// UserInfoFromContext returns the authenticated caller, if any.
func UserInfoFromContext(c *gin.Context) (*models.UserInfo, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	info, ok := v.(*models.UserInfo)
	return info, ok
}

func attachCaller(c *gin.Context, claims *Claims) {
	c.Set(ctxUserKey, &models.UserInfo{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
		TenantID: claims.TenantID,
	})
	if claims.TenantID != "" {
		scopeRequest(c, claims.TenantID)
	}
}

// scopeRequest rebinds the request to a tenant-scoped context. Everything
// below the handler reads the scope from the request context, so the scope
// cannot outlive the request.
func scopeRequest(c *gin.Context, tenantID string) {
	c.Request = c.Request.WithContext(tenantscope.With(c.Request.Context(), tenantID))
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

// parseToken verifies the signature and expiry, consulting the claims cache
// first so hot tokens skip the signature check.
func parseToken(tokenString string) (*Claims, error) {
	cacheKey := claimsCacheKey(tokenString)
	if utils.CacheAvailable() {
		if cached, err := utils.CacheGet(cacheKey); err == nil {
			var claims Claims
			if err := json.Unmarshal([]byte(cached), &claims); err == nil {
				if claims.ExpiresAt != nil && claims.ExpiresAt.After(time.Now()) {
					return &claims, nil
				}
			}
		}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if utils.CacheAvailable() {
		if data, err := json.Marshal(claims); err == nil {
			_ = utils.CacheSet(cacheKey, string(data), claimsCacheTTL)
		}
	}

	return claims, nil
}

func claimsCacheKey(tokenString string) string {
	hash := sha256.Sum256([]byte(tokenString))
	return "token:claims:" + hex.EncodeToString(hash[:])
}

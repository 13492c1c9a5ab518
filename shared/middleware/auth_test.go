package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testUser(tenant string, role models.UserRole) *models.User {
	return &models.User{
		ID:       uuid.New(),
		TenantID: tenant,
		Username: "alice",
		Email:    "alice@example.com",
		Role:     role,
	}
}

// scopeProbe records the tenant scope the handler observed.
func scopeProbe(observed *string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := tenantscope.Current(c.Request.Context()); ok {
			*observed = id
		}
		c.Status(http.StatusOK)
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	r := gin.New()
	r.GET("/", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthScopesTenantFromClaims(t *testing.T) {
	token, _, err := GenerateToken(testUser("acme", models.RoleAdmin), time.Hour)
	require.NoError(t, err)

	var observed string
	r := gin.New()
	r.GET("/", RequireAuth(), scopeProbe(&observed))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", observed)
}

func TestRequireTenantHeaderFallback(t *testing.T) {
	var observed string
	r := gin.New()
	r.GET("/", OptionalAuth(), RequireTenant(), scopeProbe(&observed))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "globex")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "globex", observed)
}

func TestRequireTenantRefusesUnscoped(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(), RequireTenant(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// An authenticated caller's own membership decides the scope; a header naming
// another tenant must not override it.
func TestClaimsWinOverHeader(t *testing.T) {
	token, _, err := GenerateToken(testUser("acme", models.RoleUser), time.Hour)
	require.NoError(t, err)

	var observed string
	r := gin.New()
	r.GET("/", OptionalAuth(), RequireTenant(), scopeProbe(&observed))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(TenantHeader, "globex")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", observed)
}

func TestRequireRole(t *testing.T) {
	adminToken, _, err := GenerateToken(testUser("acme", models.RoleAdmin), time.Hour)
	require.NoError(t, err)
	userToken, _, err := GenerateToken(testUser("acme", models.RoleUser), time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/", RequireAuth(), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for token, want := range map[string]int{
		adminToken: http.StatusOK,
		userToken:  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, _, err := GenerateToken(testUser("acme", models.RoleUser), -time.Minute)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

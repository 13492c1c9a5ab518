package main

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/assetmarket/go-marketplace/shared/middleware"
	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// LoginRequest represents the login request. The tenant comes from the
// X-Tenant-ID header, never from the body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents the member-creation request. Members are always
// created inside the calling admin's tenant.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty"`
}

// ChangePasswordRequest carries a password rotation for the calling user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func tokenTTL() time.Duration {
	if raw := os.Getenv("JWT_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return 24 * time.Hour
}

// handleLogin authenticates a member of the tenant named by the X-Tenant-ID
// header and issues a signed token carrying the tenant in its claims.
func handleLogin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		tenantID, err := tenantscope.Require(c.Request.Context())
		if err != nil {
			utils.BadRequestResponse(c, "Tenant is required to login")
			return
		}

		var user models.User
		if err := db.Where("tenant_id = ? AND username = ?", tenantID, req.Username).First(&user).Error; err != nil {
			// Same response for unknown user and wrong password.
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}

		var tenant models.Tenant
		if err := db.Where("slug = ?", tenantID).First(&tenant).Error; err != nil || !tenant.IsActive {
			utils.ForbiddenResponse(c, "Tenant is not active")
			return
		}

		token, expiresAt, err := middleware.GenerateToken(&user, tokenTTL())
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to issue token")
			return
		}

		go func() {
			now := time.Now()
			if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login_at", now).Error; err != nil {
				logrus.WithError(err).Warn("Failed to record last login")
			}
		}()

		utils.OKResponse(c, "Login successful", gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_at":   expiresAt,
			"user_info": models.UserInfo{
				UserID:   user.ID,
				Username: user.Username,
				Email:    user.Email,
				Role:     user.Role,
				TenantID: user.TenantID,
			},
		})
	}
}

// handleRegister lets a tenant admin create a member inside their own tenant.
func handleRegister(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		role := models.RoleUser
		if req.Role != "" {
			switch models.UserRole(req.Role) {
			case models.RoleAdmin, models.RoleUser:
				role = models.UserRole(req.Role)
			default:
				utils.BadRequestResponse(c, "Invalid role. Must be 'admin' or 'user'")
				return
			}
		}

		var existing models.User
		if err := db.Where("tenant_id = ? AND username = ?", caller.TenantID, req.Username).First(&existing).Error; err == nil {
			utils.BadRequestResponse(c, "Username is already taken in this tenant")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.InternalServerErrorResponse(c, "Failed to check username")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to hash password")
			return
		}

		user := models.User{
			ID:       uuid.New(),
			TenantID: caller.TenantID,
			Username: req.Username,
			Email:    req.Email,
			Password: string(hash),
			Role:     role,
		}

		if err := db.Create(&user).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create user")
			return
		}

		utils.CreatedResponse(c, "User registered successfully", user)
	}
}

// handleMe returns the identity the token carries, without a database read.
func handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}
		utils.OKResponse(c, "User retrieved successfully", caller)
	}
}

// handleChangePassword rotates the calling user's password.
func handleChangePassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var user models.User
		if err := db.Where("id = ?", caller.UserID).First(&user).Error; err != nil {
			utils.NotFoundResponse(c, "User not found")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			utils.UnauthorizedResponse(c, "Current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to hash password")
			return
		}

		if err := db.Model(&user).Update("password", string(hash)).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update password")
			return
		}

		utils.OKResponse(c, "Password changed successfully", nil)
	}
}

// handleListUsers returns the members of the caller's tenant (admin only).
func handleListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}

		var users []models.User
		if err := db.Where("tenant_id = ?", caller.TenantID).Order("created_at DESC").Find(&users).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch users")
			return
		}

		utils.OKResponse(c, "Users retrieved successfully", users)
	}
}

// handleDeleteUser removes a member of the caller's tenant (admin only).
func handleDeleteUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}

		userID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user ID")
			return
		}
		if userID == caller.UserID {
			utils.BadRequestResponse(c, "You cannot delete your own account")
			return
		}

		result := db.Where("id = ? AND tenant_id = ?", userID, caller.TenantID).Delete(&models.User{})
		if result.Error != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete user")
			return
		}
		if result.RowsAffected == 0 {
			utils.NotFoundResponse(c, "User not found")
			return
		}

		utils.OKResponse(c, "User deleted successfully", nil)
	}
}

package main

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/assetmarket/go-marketplace/shared/middleware"
	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// OnboardRequest creates a tenant together with its first admin account.
type OnboardRequest struct {
	Name          string `json:"name" binding:"required"`
	Slug          string `json:"slug" binding:"required"`
	AdminUsername string `json:"admin_username" binding:"required"`
	AdminEmail    string `json:"admin_email" binding:"required,email"`
	AdminPassword string `json:"admin_password" binding:"required,min=8"`
}

// UpdateTenantRequest represents the update tenant request.
type UpdateTenantRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// normalizeSlug lowercases and trims a submitted slug; validity is checked
// separately so the caller sees what was rejected.
func normalizeSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// handleOnboardTenant creates a tenant and its first admin in one
// transaction. A tenant without an admin would be unreachable, so neither row
// survives without the other.
func handleOnboardTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OnboardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		slug := normalizeSlug(req.Slug)
		if !slugPattern.MatchString(slug) {
			utils.BadRequestResponse(c, "Slug must be lowercase letters, digits and hyphens")
			return
		}

		var existing models.Tenant
		if err := db.Where("slug = ? OR name = ?", slug, req.Name).First(&existing).Error; err == nil {
			utils.BadRequestResponse(c, "A tenant with this slug or name already exists")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.InternalServerErrorResponse(c, "Failed to check tenant")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to hash password")
			return
		}

		tenant := models.Tenant{
			ID:       uuid.New(),
			Slug:     slug,
			Name:     req.Name,
			IsActive: true,
		}
		admin := models.User{
			ID:       uuid.New(),
			TenantID: slug,
			Username: req.AdminUsername,
			Email:    req.AdminEmail,
			Password: string(hash),
			Role:     models.RoleAdmin,
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&tenant).Error; err != nil {
				return err
			}
			return tx.Create(&admin).Error
		})
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to onboard tenant")
			return
		}

		utils.CreatedResponse(c, "Tenant onboarded successfully", gin.H{
			"tenant": tenant,
			"admin":  admin,
		})
	}
}

// handleGetTenant returns the calling admin's own tenant.
func handleGetTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}

		var tenant models.Tenant
		if err := db.Preload("Users").Where("slug = ?", caller.TenantID).First(&tenant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.NotFoundResponse(c, "Tenant not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch tenant")
			}
			return
		}

		utils.OKResponse(c, "Tenant retrieved successfully", tenant)
	}
}

// handleUpdateTenant renames or (de)activates the calling admin's tenant. The
// slug is the identity every scoped row carries and never changes.
func handleUpdateTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}

		var tenant models.Tenant
		if err := db.Where("slug = ?", caller.TenantID).First(&tenant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.NotFoundResponse(c, "Tenant not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch tenant")
			}
			return
		}

		var req UpdateTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Name != nil {
			var existing models.Tenant
			if err := db.Where("name = ? AND slug != ?", *req.Name, tenant.Slug).First(&existing).Error; err == nil {
				utils.BadRequestResponse(c, "A tenant with this name already exists")
				return
			}
			tenant.Name = *req.Name
		}
		if req.IsActive != nil {
			tenant.IsActive = *req.IsActive
		}

		if err := db.Save(&tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update tenant")
			return
		}

		utils.OKResponse(c, "Tenant updated successfully", tenant)
	}
}

// handleDeleteTenant soft-deletes a tenant that has no members left.
func handleDeleteTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.UserInfoFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User info not found")
			return
		}

		var tenant models.Tenant
		if err := db.Where("slug = ?", caller.TenantID).First(&tenant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.NotFoundResponse(c, "Tenant not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch tenant")
			}
			return
		}

		var userCount int64
		if err := db.Model(&models.User{}).Where("tenant_id = ? AND id != ?", tenant.Slug, caller.UserID).Count(&userCount).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to check tenant users")
			return
		}
		if userCount > 0 {
			utils.BadRequestResponse(c, "Cannot delete a tenant with other members; remove them first")
			return
		}

		if err := db.Delete(&tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete tenant")
			return
		}

		utils.OKResponse(c, "Tenant deleted successfully", nil)
	}
}

package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetmarket/go-marketplace/shared/middleware"
	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/store"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// ReviewRequest represents a submitted property review.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// ViewingRequestPayload schedules a property viewing.
type ViewingRequestPayload struct {
	RequestedAt time.Time `json:"requested_at" binding:"required"`
	Notes       string    `json:"notes"`
}

// ViewingDecision is an admin's answer to a viewing request.
type ViewingDecision struct {
	Status string `json:"status" binding:"required,oneof=APPROVED DECLINED"`
}

// MessageRequest is one entry posted to a property's inquiry thread.
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// requestIdentity pulls the caller and tenant every engagement handler needs.
func requestIdentity(c *gin.Context) (*models.UserInfo, string, bool) {
	caller, ok := middleware.UserInfoFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User info not found")
		return nil, "", false
	}
	tenantID, err := tenantscope.Require(c.Request.Context())
	if err != nil {
		utils.BadRequestResponse(c, "Tenant is required")
		return nil, "", false
	}
	return caller, tenantID, true
}

// propertyOr404 loads the property within the caller's tenant.
func propertyOr404(c *gin.Context, st *store.Store) (*models.Property, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid property ID")
		return nil, false
	}
	property, err := st.PropertyByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFoundResponse(c, "Property not found")
		} else {
			utils.InternalServerErrorResponse(c, "Failed to fetch property")
		}
		return nil, false
	}
	return property, true
}

// hasInteracted reports whether the user has favorited, requested a viewing
// of, or messaged about the property. Reviews are limited to users who have
// actually engaged with the listing.
func hasInteracted(db *gorm.DB, tenantID string, propertyID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(&models.Favorite{}).
		Where("tenant_id = ? AND property_id = ? AND user_id = ?", tenantID, propertyID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&models.ViewingRequest{}).
		Where("tenant_id = ? AND property_id = ? AND user_id = ?", tenantID, propertyID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&models.Message{}).
		Where("tenant_id = ? AND property_id = ? AND sender_id = ?", tenantID, propertyID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// handleCreateReview lets a user who engaged with a property leave one review.
func handleCreateReview(db *gorm.DB, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}
		property, ok := propertyOr404(c, st)
		if !ok {
			return
		}

		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Rating must be between 1 and 5")
			return
		}

		interacted, err := hasInteracted(db, tenantID, property.ID, caller.UserID)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to check engagement")
			return
		}
		if !interacted {
			utils.ForbiddenResponse(c, "Only users who engaged with this property can review it")
			return
		}

		var existing models.Review
		if err := db.Where("tenant_id = ? AND property_id = ? AND user_id = ?", tenantID, property.ID, caller.UserID).
			First(&existing).Error; err == nil {
			utils.BadRequestResponse(c, "You have already reviewed this property")
			return
		}

		review := models.Review{
			ID:         uuid.New(),
			TenantID:   tenantID,
			PropertyID: property.ID,
			UserID:     caller.UserID,
			Username:   caller.Username,
			Rating:     req.Rating,
			Comment:    req.Comment,
		}
		if err := db.Create(&review).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create review")
			return
		}

		utils.CreatedResponse(c, "Review created successfully", review)
	}
}

// handleListReviews returns a property's reviews with its average rating.
func handleListReviews(db *gorm.DB, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}
		property, ok := propertyOr404(c, st)
		if !ok {
			return
		}

		var reviews []models.Review
		if err := db.Where("tenant_id = ? AND property_id = ?", tenantID, property.ID).
			Order("created_at DESC").Find(&reviews).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch reviews")
			return
		}

		var average float64
		if len(reviews) > 0 {
			total := 0
			for _, r := range reviews {
				total += r.Rating
			}
			average = float64(total) / float64(len(reviews))
		}

		utils.OKResponse(c, "Reviews retrieved successfully", gin.H{
			"reviews":        reviews,
			"average_rating": average,
		})
	}
}

// handleDeleteReview removes the caller's review; admins may remove any.
func handleDeleteReview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}

		reviewID, err := uuid.Parse(c.Param("review_id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid review ID")
			return
		}

		query := db.Where("tenant_id = ? AND id = ?", tenantID, reviewID)
		if !caller.IsAdmin() {
			query = query.Where("user_id = ?", caller.UserID)
		}

		result := query.Delete(&models.Review{})
		if result.Error != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete review")
			return
		}
		if result.RowsAffected == 0 {
			utils.NotFoundResponse(c, "Review not found")
			return
		}

		utils.OKResponse(c, "Review deleted successfully", nil)
	}
}

// handleAddFavorite saves a property to the caller's favorites.
func handleAddFavorite(db *gorm.DB, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}
		property, ok := propertyOr404(c, st)
		if !ok {
			return
		}

		var existing models.Favorite
		if err := db.Where("tenant_id = ? AND property_id = ? AND user_id = ?", tenantID, property.ID, caller.UserID).
			First(&existing).Error; err == nil {
			utils.OKResponse(c, "Property is already in favorites", existing)
			return
		}

		favorite := models.Favorite{
			ID:         uuid.New(),
			TenantID:   tenantID,
			PropertyID: property.ID,
			UserID:     caller.UserID,
		}
		if err := db.Create(&favorite).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to add favorite")
			return
		}

		utils.CreatedResponse(c, "Property added to favorites", favorite)
	}
}

// handleRemoveFavorite removes a property from the caller's favorites.
func handleRemoveFavorite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}

		propertyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid property ID")
			return
		}

		result := db.Where("tenant_id = ? AND property_id = ? AND user_id = ?", tenantID, propertyID, caller.UserID).
			Delete(&models.Favorite{})
		if result.Error != nil {
			utils.InternalServerErrorResponse(c, "Failed to remove favorite")
			return
		}
		if result.RowsAffected == 0 {
			utils.NotFoundResponse(c, "Favorite not found")
			return
		}

		utils.OKResponse(c, "Property removed from favorites", nil)
	}
}

// handleListFavorites returns the caller's favorited properties.
func handleListFavorites(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}

		var favorites []models.Favorite
		if err := db.Where("tenant_id = ? AND user_id = ?", tenantID, caller.UserID).
			Order("created_at DESC").Find(&favorites).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch favorites")
			return
		}

		utils.OKResponse(c, "Favorites retrieved successfully", favorites)
	}
}

// handleCreateViewing schedules a viewing request for a property.
func handleCreateViewing(db *gorm.DB, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}
		property, ok := propertyOr404(c, st)
		if !ok {
			return
		}

		var req ViewingRequestPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if req.RequestedAt.Before(time.Now()) {
			utils.BadRequestResponse(c, "Requested viewing time must be in the future")
			return
		}

		viewing := models.ViewingRequest{
			ID:          uuid.New(),
			TenantID:    tenantID,
			PropertyID:  property.ID,
			UserID:      caller.UserID,
			RequestedAt: req.RequestedAt,
			Status:      models.ViewingPending,
			Notes:       req.Notes,
		}
		if err := db.Create(&viewing).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create viewing request")
			return
		}

		utils.CreatedResponse(c, "Viewing request created successfully", viewing)
	}
}

// handleListViewings returns the caller's viewing requests; admins see the
// whole tenant's.
func handleListViewings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}

		query := db.Where("tenant_id = ?", tenantID)
		if !caller.IsAdmin() {
			query = query.Where("user_id = ?", caller.UserID)
		}

		var viewings []models.ViewingRequest
		if err := query.Order("requested_at ASC").Find(&viewings).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch viewing requests")
			return
		}

		utils.OKResponse(c, "Viewing requests retrieved successfully", viewings)
	}
}

// handleDecideViewing lets an admin approve or decline a pending request.
func handleDecideViewing(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}

		viewingID, err := uuid.Parse(c.Param("viewing_id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid viewing request ID")
			return
		}

		var req ViewingDecision
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Status must be APPROVED or DECLINED")
			return
		}

		var viewing models.ViewingRequest
		if err := db.Where("tenant_id = ? AND id = ?", tenantID, viewingID).First(&viewing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.NotFoundResponse(c, "Viewing request not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch viewing request")
			}
			return
		}
		if viewing.Status != models.ViewingPending {
			utils.BadRequestResponse(c, "Viewing request has already been decided")
			return
		}

		viewing.Status = models.ViewingStatus(req.Status)
		if err := db.Save(&viewing).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update viewing request")
			return
		}

		utils.OKResponse(c, "Viewing request updated successfully", viewing)
	}
}

// handlePostMessage adds an entry to a property's inquiry thread.
func handlePostMessage(db *gorm.DB, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}
		property, ok := propertyOr404(c, st)
		if !ok {
			return
		}

		var req MessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Message content is required")
			return
		}

		message := models.Message{
			ID:         uuid.New(),
			TenantID:   tenantID,
			PropertyID: property.ID,
			SenderID:   caller.UserID,
			Sender:     caller.Username,
			Content:    req.Content,
		}
		if err := db.Create(&message).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to post message")
			return
		}

		utils.CreatedResponse(c, "Message posted successfully", message)
	}
}

// handleListMessages returns a property's inquiry thread. Regular users see
// only their own exchanges; admins see the whole thread.
func handleListMessages(db *gorm.DB, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, tenantID, ok := requestIdentity(c)
		if !ok {
			return
		}
		property, ok := propertyOr404(c, st)
		if !ok {
			return
		}

		query := db.Where("tenant_id = ? AND property_id = ?", tenantID, property.ID)
		if !caller.IsAdmin() {
			query = query.Where("sender_id = ?", caller.UserID)
		}

		var messages []models.Message
		if err := query.Order("created_at ASC").Find(&messages).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch messages")
			return
		}

		utils.OKResponse(c, "Messages retrieved successfully", messages)
	}
}

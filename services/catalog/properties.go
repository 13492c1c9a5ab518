package main

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/schema"
	"github.com/assetmarket/go-marketplace/shared/search"
	"github.com/assetmarket/go-marketplace/shared/store"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// PropertyRequest is the payload for creating or updating a property listing.
type PropertyRequest struct {
	CategoryID  uuid.UUID      `json:"category_id" binding:"required"`
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	Price       float64        `json:"price" binding:"required,gt=0"`
	Location    string         `json:"location" binding:"required"`
	Status      string         `json:"status"`
	Attributes  map[string]any `json:"attributes"`
}

// StatusRequest changes a listing's lifecycle status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// checkAttributes validates a submitted attribute bag against the category's
// schema. A category whose schema has not been configured accepts no listings
// at all, attributes or not; the schema must be defined first.
func checkAttributes(attrs map[string]any, category *models.Category) error {
	_, err := schema.Validate(attrs, category.AttributeSchema)
	return err
}

func parseStatus(raw string) (models.PropertyStatus, bool) {
	status := models.PropertyStatus(strings.ToUpper(raw))
	return status, status.Valid()
}

// handleCreateProperty creates a listing after validating its attributes
// against the category schema.
func handleCreateProperty(st *store.Store, producer *KafkaProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PropertyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		ctx := c.Request.Context()
		category, err := st.CategoryByID(ctx, req.CategoryID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Category not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch category")
			return
		}

		if err := checkAttributes(req.Attributes, category); err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		status := models.StatusAvailable
		if req.Status != "" {
			var ok bool
			if status, ok = parseStatus(req.Status); !ok {
				utils.BadRequestResponse(c, "Invalid property status")
				return
			}
		}

		property := models.Property{
			CategoryID:  req.CategoryID,
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			Location:    req.Location,
			Status:      status,
			Attributes:  req.Attributes,
		}

		if err := st.CreateProperty(ctx, &property); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create property")
			return
		}

		publishListingEvent(producer, &property, "property_created")
		utils.CreatedResponse(c, "Property created successfully", property)
	}
}

// handleGetProperty returns one listing with its category preloaded.
func handleGetProperty(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid property ID")
			return
		}

		property, err := st.PropertyByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch property")
			return
		}

		utils.OKResponse(c, "Property retrieved successfully", property)
	}
}

// handleUpdateProperty replaces a listing's content. Attributes are
// revalidated against the (possibly reassigned) category's current schema.
func handleUpdateProperty(st *store.Store, producer *KafkaProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid property ID")
			return
		}

		var req PropertyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		ctx := c.Request.Context()
		property, err := st.PropertyByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch property")
			return
		}

		category, err := st.CategoryByID(ctx, req.CategoryID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Category not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch category")
			return
		}

		if err := checkAttributes(req.Attributes, category); err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		if req.Status != "" {
			status, ok := parseStatus(req.Status)
			if !ok {
				utils.BadRequestResponse(c, "Invalid property status")
				return
			}
			property.Status = status
		}

		property.CategoryID = req.CategoryID
		property.Title = req.Title
		property.Description = req.Description
		property.Price = req.Price
		property.Location = req.Location
		property.Attributes = req.Attributes

		if err := st.UpdateProperty(ctx, property); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to update property")
			return
		}

		publishListingEvent(producer, property, "property_updated")
		utils.OKResponse(c, "Property updated successfully", property)
	}
}

// handleUpdateStatus moves a listing through its lifecycle (AVAILABLE,
// PENDING, SOLD) without touching the rest of the listing.
func handleUpdateStatus(st *store.Store, producer *KafkaProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid property ID")
			return
		}

		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		status, ok := parseStatus(req.Status)
		if !ok {
			utils.BadRequestResponse(c, "Invalid property status")
			return
		}

		ctx := c.Request.Context()
		property, err := st.PropertyByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch property")
			return
		}

		property.Status = status
		if err := st.UpdateProperty(ctx, property); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update property")
			return
		}

		eventType := "property_updated"
		if status == models.StatusSold {
			eventType = "property_sold"
		}
		publishListingEvent(producer, property, eventType)
		utils.OKResponse(c, "Property status updated successfully", property)
	}
}

// handleDeleteProperty removes a listing.
func handleDeleteProperty(st *store.Store, producer *KafkaProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid property ID")
			return
		}

		ctx := c.Request.Context()
		property, err := st.PropertyByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch property")
			return
		}

		if err := st.DeleteProperty(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to delete property")
			return
		}

		publishListingEvent(producer, property, "property_deleted")
		utils.OKResponse(c, "Property deleted successfully", nil)
	}
}

// handleSearchProperties runs a tenant-scoped listing search. Every query
// parameter is optional; attribute predicates arrive as attr[key]=value.
func handleSearchProperties(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		crit := search.Criteria{
			MinPrice:     c.Query("minPrice"),
			MaxPrice:     c.Query("maxPrice"),
			Location:     c.Query("location"),
			CategoryName: c.Query("category"),
			Status:       c.Query("status"),
			SortBy:       c.Query("sortBy"),
			SortDir:      c.Query("sortDir"),
			Attributes:   attributeParams(c),
		}
		if raw := c.Query("page"); raw != "" {
			if page, err := strconv.Atoi(raw); err == nil {
				crit.Page = page
			}
		}
		if raw := c.Query("size"); raw != "" {
			if size, err := strconv.Atoi(raw); err == nil {
				crit.Size = size
			}
		}

		ctx := c.Request.Context()
		spec, err := search.Build(ctx, crit, st)
		if err != nil {
			var filterErr *search.FilterError
			if errors.As(err, &filterErr) {
				utils.BadRequestResponse(c, filterErr.Error())
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to build search filter")
			return
		}

		properties, total, err := st.SearchProperties(ctx, spec)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Search failed")
			return
		}

		utils.OKResponse(c, "Properties retrieved successfully", utils.PagedData{
			Items:      properties,
			Page:       spec.Page,
			Size:       spec.Size,
			TotalItems: total,
		})
	}
}

// attributeParams collects attr[key]=value query parameters. Repeated keys
// keep the first value.
func attributeParams(c *gin.Context) map[string]string {
	var attrs map[string]string
	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, "attr[") || !strings.HasSuffix(key, "]") {
			continue
		}
		name := key[len("attr[") : len(key)-1]
		if name == "" || len(values) == 0 {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		if _, seen := attrs[name]; !seen {
			attrs[name] = values[0]
		}
	}
	return attrs
}

// handleUploadImage attaches an image to a listing via S3.
func handleUploadImage(st *store.Store, uploader *utils.S3Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uploader == nil {
			utils.ServiceUnavailableResponse(c, "Image storage is not configured")
			return
		}

		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid property ID")
			return
		}

		ctx := c.Request.Context()
		property, err := st.PropertyByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch property")
			return
		}

		header, err := c.FormFile("image")
		if err != nil {
			utils.BadRequestResponse(c, "Image file is required")
			return
		}
		file, err := header.Open()
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to read uploaded file")
			return
		}
		defer file.Close()

		url, err := uploader.Store(property.TenantID, header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to store image")
			return
		}

		property.ImageURLs = append(property.ImageURLs, url)
		if err := st.UpdateProperty(ctx, property); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update property")
			return
		}

		utils.OKResponse(c, "Image uploaded successfully", gin.H{"url": url})
	}
}

func publishListingEvent(producer *KafkaProducer, property *models.Property, eventType string) {
	if producer == nil {
		return
	}
	event := ListingEvent{
		ID:         uuid.New(),
		TenantID:   property.TenantID,
		PropertyID: property.ID,
		CategoryID: property.CategoryID,
		Title:      property.Title,
		Price:      property.Price,
		Status:     string(property.Status),
		EventType:  eventType,
		OccurredAt: time.Now(),
	}
	if err := producer.SendListingEvent(event); err != nil {
		// The listing write already succeeded; the dropped event is only logged.
		logrus.WithError(err).WithFields(logrus.Fields{
			"tenant_id":   property.TenantID,
			"property_id": property.ID,
			"event_type":  eventType,
		}).Warn("Dropping listing event")
	}
}

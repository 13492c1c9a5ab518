package main

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/schema"
	"github.com/assetmarket/go-marketplace/shared/store"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// CategoryRequest is the payload for creating or updating a category.
type CategoryRequest struct {
	Name            string        `json:"name" binding:"required"`
	Description     string        `json:"description"`
	AttributeSchema schema.Schema `json:"attribute_schema"`
}

// handleCreateCategory creates a listing category with its attribute schema.
func handleCreateCategory(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if err := req.AttributeSchema.Check(); err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		category := models.Category{
			Name:            req.Name,
			Description:     req.Description,
			AttributeSchema: req.AttributeSchema,
		}

		if err := st.CreateCategory(c.Request.Context(), &category); err != nil {
			if errors.Is(err, store.ErrDuplicateCategory) {
				utils.BadRequestResponse(c, "A category with this name already exists")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to create category")
			return
		}

		utils.CreatedResponse(c, "Category created successfully", category)
	}
}

// handleListCategories returns every category of the caller's tenant.
func handleListCategories(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := st.ListCategories(c.Request.Context())
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch categories")
			return
		}
		utils.OKResponse(c, "Categories retrieved successfully", categories)
	}
}

// handleGetCategory returns one category by ID.
func handleGetCategory(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid category ID")
			return
		}

		category, err := st.CategoryByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Category not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch category")
			return
		}

		utils.OKResponse(c, "Category retrieved successfully", category)
	}
}

// handleUpdateCategory updates a category's name, description or schema.
// Properties already stored keep their attribute bags; the new schema applies
// from their next write onward.
func handleUpdateCategory(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid category ID")
			return
		}

		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if err := req.AttributeSchema.Check(); err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		category, err := st.CategoryByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Category not found")
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to fetch category")
			return
		}

		category.Name = req.Name
		category.Description = req.Description
		category.AttributeSchema = req.AttributeSchema

		if err := st.UpdateCategory(c.Request.Context(), category); err != nil {
			switch {
			case errors.Is(err, store.ErrDuplicateCategory):
				utils.BadRequestResponse(c, "A category with this name already exists")
			case errors.Is(err, store.ErrNotFound):
				utils.NotFoundResponse(c, "Category not found")
			default:
				utils.InternalServerErrorResponse(c, "Failed to update category")
			}
			return
		}

		utils.OKResponse(c, "Category updated successfully", category)
	}
}

// handleDeleteCategory deletes a category that has no properties.
func handleDeleteCategory(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid category ID")
			return
		}

		if err := st.DeleteCategory(c.Request.Context(), id); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				utils.NotFoundResponse(c, "Category not found")
			case errors.Is(err, store.ErrCategoryInUse):
				utils.BadRequestResponse(c, "Category still has properties and cannot be deleted")
			default:
				utils.InternalServerErrorResponse(c, "Failed to delete category")
			}
			return
		}

		utils.OKResponse(c, "Category deleted successfully", nil)
	}
}

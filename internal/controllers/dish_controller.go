package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-cafe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DishController handles HTTP requests related to the dish catalog
type DishController interface {
	// ListDishes retrieves all dishes
	ListDishes(c *gin.Context)
	// GetDish retrieves a dish by its ID
	GetDish(c *gin.Context)
	// CreateDish creates a new dish
	CreateDish(c *gin.Context)
	// UpdateDish updates name and/or price of a dish
	UpdateDish(c *gin.Context)
	// DeleteDish deletes a dish by its ID
	DeleteDish(c *gin.Context)
	// PopularDishes ranks dishes by how many line items reference them
	PopularDishes(c *gin.Context)
}

type dishController struct {
	service services.DishService
}

// NewDishController creates a new instance of DishController
func NewDishController(service services.DishService) DishController {
	return &dishController{service: service}
}

// CreateDishRequest is the payload for creating a dish
type CreateDishRequest struct {
	Name  string           `json:"name" binding:"required"`
	Price *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"12.50"`
}

// UpdateDishRequest is the payload for a partial dish update
type UpdateDishRequest struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
}

// ListDishes godoc
// @Summary List dishes
// @Description Get the full menu ordered by name
// @Tags dishes
// @Produce json
// @Success 200 {array} models.Dish
// @Failure 500 {object} models.APIError
// @Router /api/v1/dishes [get]
func (c *dishController) ListDishes(ctx *gin.Context) {
	dishes, err := c.service.ListDishes(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dishes)
}

// GetDish godoc
// @Summary Get dish by ID
// @Tags dishes
// @Produce json
// @Param id path int true "Dish ID"
// @Success 200 {object} models.Dish
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/dishes/{id} [get]
func (c *dishController) GetDish(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	dish, err := c.service.GetDish(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dish)
}

// CreateDish godoc
// @Summary Create a new dish
// @Description Add a dish to the menu. Names are unique, prices are non-negative with at most two decimals.
// @Tags dishes
// @Accept json
// @Produce json
// @Param dish body CreateDishRequest true "Dish"
// @Success 201 {object} models.Dish
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Router /api/v1/dishes [post]
func (c *dishController) CreateDish(ctx *gin.Context) {
	var req CreateDishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request body")
		return
	}

	dish, err := c.service.CreateDish(ctx.Request.Context(), req.Name, *req.Price)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dish)
}

// UpdateDish godoc
// @Summary Update a dish
// @Description Change the name and/or price. Existing order items keep their recorded price.
// @Tags dishes
// @Accept json
// @Produce json
// @Param id path int true "Dish ID"
// @Param dish body UpdateDishRequest true "Fields to change"
// @Success 200 {object} models.Dish
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/dishes/{id} [put]
func (c *dishController) UpdateDish(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateDishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request body")
		return
	}

	dish, err := c.service.UpdateDish(ctx.Request.Context(), id, services.DishUpdate{
		Name:  req.Name,
		Price: req.Price,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dish)
}

// DeleteDish godoc
// @Summary Delete a dish
// @Description Dishes referenced by any order item cannot be deleted
// @Tags dishes
// @Param id path int true "Dish ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/v1/dishes/{id} [delete]
func (c *dishController) DeleteDish(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteDish(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PopularDishes godoc
// @Summary Most ordered dishes
// @Tags dishes
// @Produce json
// @Param limit query int false "Number of dishes (default 5)"
// @Success 200 {array} models.PopularDish
// @Failure 400 {object} models.APIError
// @Router /api/v1/dishes/popular [get]
func (c *dishController) PopularDishes(ctx *gin.Context) {
	limit := services.DefaultPopularLimit
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(ctx, "Invalid limit format")
			return
		}
		limit = parsed
	}

	dishes, err := c.service.PopularDishes(ctx.Request.Context(), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dishes)
}

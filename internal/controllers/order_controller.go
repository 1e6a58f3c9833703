package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/franciscosanchezn/gin-cafe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderController handles HTTP requests related to orders and their items
type OrderController interface {
	ListOrders(c *gin.Context)
	GetOrder(c *gin.Context)
	CreateOrder(c *gin.Context)
	UpdateOrder(c *gin.Context)
	DeleteOrder(c *gin.Context)
	SetStatus(c *gin.Context)
	RecalculateTotal(c *gin.Context)

	AddItems(c *gin.Context)
	UpdateItem(c *gin.Context)
	RemoveItem(c *gin.Context)

	Statistics(c *gin.Context)
	Revenue(c *gin.Context)
	ExportOrders(c *gin.Context)
	ReceiptQRCode(c *gin.Context)
}

type orderController struct {
	orders   services.OrderService
	receipts services.ReceiptService
	exports  services.ExportService
}

// NewOrderController creates a new instance of OrderController
func NewOrderController(orders services.OrderService, receipts services.ReceiptService, exports services.ExportService) OrderController {
	return &orderController{
		orders:   orders,
		receipts: receipts,
		exports:  exports,
	}
}

// CreateOrderRequest is the payload for creating an order
type CreateOrderRequest struct {
	TableNumber int                  `json:"table_number" example:"4"`
	Items       []services.ItemInput `json:"items"`
}

// UpdateOrderRequest is the payload for editing an unpaid order.
// Omitting items keeps the current ones.
type UpdateOrderRequest struct {
	TableNumber *int                 `json:"table_number" example:"4"`
	Items       []services.ItemInput `json:"items"`
}

// AddItemsRequest is the payload for adding line items to an order
type AddItemsRequest struct {
	Items []services.ItemInput `json:"items"`
}

// UpdateItemRequest is the payload for changing an item's quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity" example:"2"`
}

// SetStatusRequest is the payload for a status transition
type SetStatusRequest struct {
	Status string `json:"status" binding:"required" example:"ready"`
}

// SetStatusResponse confirms a status transition
type SetStatusResponse struct {
	Status    string             `json:"status" example:"success"`
	NewStatus models.OrderStatus `json:"new_status" example:"ready"`
}

// RevenueResponse carries the revenue of paid orders
type RevenueResponse struct {
	TotalRevenue decimal.Decimal `json:"total_revenue" swaggertype:"string" example:"1250.00"`
}

// ListOrders godoc
// @Summary List orders
// @Description List orders optionally filtered by table and status, sorted by status
// @Tags orders
// @Produce json
// @Param table_number query int false "Filter by table number"
// @Param status query string false "Filter by status (pending, ready, paid)"
// @Param sort_status query string false "Sort by status: asc or desc"
// @Success 200 {array} models.Order
// @Failure 400 {object} models.APIError
// @Router /api/v1/orders [get]
func (c *orderController) ListOrders(ctx *gin.Context) {
	filter, ok := parseOrderFilter(ctx)
	if !ok {
		return
	}

	orders, err := c.orders.ListOrders(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, orders)
}

// GetOrder godoc
// @Summary Get order by ID
// @Description Get an order with its items
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Order
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id} [get]
func (c *orderController) GetOrder(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	order, err := c.orders.GetOrder(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// CreateOrder godoc
// @Summary Create a new order
// @Description Create a pending order for a table with at least one item
// @Tags orders
// @Accept json
// @Produce json
// @Param order body CreateOrderRequest true "Order"
// @Success 201 {object} models.Order
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders [post]
func (c *orderController) CreateOrder(ctx *gin.Context) {
	var req CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request body")
		return
	}

	order, err := c.orders.CreateOrder(ctx.Request.Context(), req.TableNumber, req.Items)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, order)
}

// UpdateOrder godoc
// @Summary Update an order
// @Description Change the table number and/or replace the items of an unpaid order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param order body UpdateOrderRequest true "Fields to change"
// @Success 200 {object} models.Order
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id} [patch]
func (c *orderController) UpdateOrder(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request body")
		return
	}

	order, err := c.orders.UpdateOrder(ctx.Request.Context(), id, services.UpdateOrderInput{
		TableNumber: req.TableNumber,
		Items:       req.Items,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// DeleteOrder godoc
// @Summary Delete an order
// @Description Delete an unpaid order and its items
// @Tags orders
// @Param id path int true "Order ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id} [delete]
func (c *orderController) DeleteOrder(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.orders.DeleteOrder(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SetStatus godoc
// @Summary Change order status
// @Description Move an order along pending -> ready -> paid
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param status body SetStatusRequest true "Target status"
// @Success 200 {object} SetStatusResponse
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id}/status [post]
func (c *orderController) SetStatus(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request body")
		return
	}

	order, err := c.orders.SetStatus(ctx.Request.Context(), id, req.Status)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, SetStatusResponse{Status: "success", NewStatus: order.Status})
}

// RecalculateTotal godoc
// @Summary Recalculate order total
// @Description Rewrite the cached total from the order's current items
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id}/recalculate [post]
func (c *orderController) RecalculateTotal(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	order, err := c.orders.RecalculateTotal(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// AddItems godoc
// @Summary Add items to an order
// @Description Add one or more line items; either all are added or none
// @Tags order-items
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param items body AddItemsRequest true "Items"
// @Success 201 {array} models.OrderItem
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id}/items [post]
func (c *orderController) AddItems(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req AddItemsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request body")
		return
	}

	items, err := c.orders.AddItems(ctx.Request.Context(), id, req.Items)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, items)
}

// UpdateItem godoc
// @Summary Change item quantity
// @Description Set a new quantity; the item is repriced from the dish's current price
// @Tags order-items
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param itemId path int true "Item ID"
// @Param item body UpdateItemRequest true "Quantity"
// @Success 200 {object} models.OrderItem
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id}/items/{itemId} [patch]
func (c *orderController) UpdateItem(ctx *gin.Context) {
	orderID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(ctx, "itemId")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request body")
		return
	}

	item, err := c.orders.UpdateItem(ctx.Request.Context(), orderID, itemID, req.Quantity)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// RemoveItem godoc
// @Summary Remove an item
// @Tags order-items
// @Param id path int true "Order ID"
// @Param itemId path int true "Item ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id}/items/{itemId} [delete]
func (c *orderController) RemoveItem(ctx *gin.Context) {
	orderID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(ctx, "itemId")
	if !ok {
		return
	}

	if err := c.orders.RemoveItem(ctx.Request.Context(), orderID, itemID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Statistics godoc
// @Summary Order statistics
// @Description Order count, paid revenue and order count per status
// @Tags reports
// @Produce json
// @Success 200 {object} models.OrderStatistics
// @Router /api/v1/orders/statistics [get]
func (c *orderController) Statistics(ctx *gin.Context) {
	stats, err := c.orders.Statistics(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// Revenue godoc
// @Summary Revenue
// @Description Sum of totals of paid orders
// @Tags reports
// @Produce json
// @Success 200 {object} RevenueResponse
// @Router /api/v1/orders/revenue [get]
func (c *orderController) Revenue(ctx *gin.Context) {
	revenue, err := c.orders.Revenue(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, RevenueResponse{TotalRevenue: revenue})
}

// ExportOrders godoc
// @Summary Export orders
// @Description Download orders as an Excel workbook. Accepts the same filters as the order list.
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param table_number query int false "Filter by table number"
// @Param status query string false "Filter by status"
// @Param sort_status query string false "Sort by status: asc or desc"
// @Success 200 {file} file
// @Failure 400 {object} models.APIError
// @Router /api/v1/orders/export [get]
func (c *orderController) ExportOrders(ctx *gin.Context) {
	filter, ok := parseOrderFilter(ctx)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := c.exports.WriteOrders(ctx.Request.Context(), &buf, filter); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", "attachment; filename=orders.xlsx")
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ReceiptQRCode godoc
// @Summary Receipt QR code
// @Description PNG QR code linking to the order
// @Tags reports
// @Produce png
// @Param id path int true "Order ID"
// @Success 200 {file} file
// @Failure 404 {object} models.APIError
// @Router /api/v1/orders/{id}/qrcode [get]
func (c *orderController) ReceiptQRCode(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	png, err := c.receipts.OrderQRCode(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}

func parseOrderFilter(ctx *gin.Context) (services.OrderFilter, bool) {
	var filter services.OrderFilter

	if raw := ctx.Query("table_number"); raw != "" {
		table, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(ctx, "Invalid table_number format")
			return filter, false
		}
		filter.TableNumber = &table
	}

	if raw := ctx.Query("status"); raw != "" {
		status, ok := models.ParseOrderStatus(raw)
		if !ok {
			respondBadRequest(ctx, fmt.Sprintf("Unknown status %q", raw))
			return filter, false
		}
		filter.Status = status
	}

	switch strings.ToLower(ctx.DefaultQuery("sort_status", "asc")) {
	case "asc":
	case "desc":
		filter.SortDesc = true
	default:
		respondBadRequest(ctx, "sort_status must be asc or desc")
		return filter, false
	}
	return filter, true
}

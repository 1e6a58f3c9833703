package controllers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the dish and order endpoints on the given group
func RegisterRoutes(api *gin.RouterGroup, dishes DishController, orders OrderController) {
	dishRoutes := api.Group("/dishes")
	{
		dishRoutes.GET("", dishes.ListDishes)
		dishRoutes.POST("", dishes.CreateDish)
		dishRoutes.GET("/popular", dishes.PopularDishes)
		dishRoutes.GET("/:id", dishes.GetDish)
		dishRoutes.PUT("/:id", dishes.UpdateDish)
		dishRoutes.DELETE("/:id", dishes.DeleteDish)
	}

	orderRoutes := api.Group("/orders")
	{
		orderRoutes.GET("", orders.ListOrders)
		orderRoutes.POST("", orders.CreateOrder)
		orderRoutes.GET("/statistics", orders.Statistics)
		orderRoutes.GET("/revenue", orders.Revenue)
		orderRoutes.GET("/export", orders.ExportOrders)
		orderRoutes.GET("/:id", orders.GetOrder)
		orderRoutes.PATCH("/:id", orders.UpdateOrder)
		orderRoutes.DELETE("/:id", orders.DeleteOrder)
		orderRoutes.POST("/:id/status", orders.SetStatus)
		orderRoutes.POST("/:id/recalculate", orders.RecalculateTotal)
		orderRoutes.GET("/:id/qrcode", orders.ReceiptQRCode)
		orderRoutes.POST("/:id/items", orders.AddItems)
		orderRoutes.PATCH("/:id/items/:itemId", orders.UpdateItem)
		orderRoutes.DELETE("/:id/items/:itemId", orders.RemoveItem)
	}
}

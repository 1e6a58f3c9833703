package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/franciscosanchezn/gin-cafe-api/internal/database"
	"github.com/franciscosanchezn/gin-cafe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/franciscosanchezn/gin-cafe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.sqlite"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	dishService := services.NewDishService(db)
	orderService := services.NewOrderService(db)

	router := gin.New()
	router.Use(middleware.RequestID())
	RegisterRoutes(router.Group("/api/v1"),
		NewDishController(dishService),
		NewOrderController(
			orderService,
			services.NewReceiptService(orderService, "http://cafe.test"),
			services.NewExportService(orderService),
		),
	)
	return router
}

func performRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var apiErr models.APIError
	decode(t, w, &apiErr)
	return apiErr
}

func mustCreateDish(t *testing.T, router *gin.Engine, name, price string) models.Dish {
	t.Helper()
	w := performRequest(t, router, http.MethodPost, "/api/v1/dishes", gin.H{"name": name, "price": price})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dish models.Dish
	decode(t, w, &dish)
	return dish
}

func mustCreateOrder(t *testing.T, router *gin.Engine, table int, items ...gin.H) models.Order {
	t.Helper()
	w := performRequest(t, router, http.MethodPost, "/api/v1/orders", gin.H{"table_number": table, "items": items})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	decode(t, w, &order)
	return order
}

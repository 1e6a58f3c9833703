package services

import (
	"context"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
)

const (
	ordersSheetName = "Orders"
	exportTimeFmt   = "2006-01-02 15:04:05"
)

var orderExportHeaders = []string{"ID", "Table", "Status", "Total", "Items", "CreatedAt", "UpdatedAt"}

// ExportService writes order listings as spreadsheets
type ExportService interface {
	// WriteOrders writes an XLSX workbook of the orders matching filter
	WriteOrders(ctx context.Context, w io.Writer, filter OrderFilter) error
}

type exportService struct {
	orders OrderService
}

// NewExportService creates a new instance of ExportService
func NewExportService(orders OrderService) ExportService {
	return &exportService{orders: orders}
}

func (s *exportService) WriteOrders(ctx context.Context, w io.Writer, filter OrderFilter) error {
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(ordersSheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetString(h)
	}

	for _, order := range orders {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(order.ID))
		row.AddCell().SetInt(order.TableNumber)
		row.AddCell().SetString(string(order.Status))
		row.AddCell().SetString(order.TotalPrice.StringFixed(2))
		row.AddCell().SetInt(order.TotalItems)
		row.AddCell().SetString(order.CreatedAt.Format(exportTimeFmt))
		row.AddCell().SetString(order.UpdatedAt.Format(exportTimeFmt))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

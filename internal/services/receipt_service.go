package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const receiptQRSize = 256

// ReceiptService renders QR codes pointing guests at their order
type ReceiptService interface {
	// ReceiptURL is the public address of an order
	ReceiptURL(orderID uint) string
	// OrderQRCode returns a PNG QR code for an existing order
	OrderQRCode(ctx context.Context, orderID uint) ([]byte, error)
}

type receiptService struct {
	orders  OrderService
	baseURL string
}

// NewReceiptService creates a ReceiptService that links to baseURL
func NewReceiptService(orders OrderService, baseURL string) ReceiptService {
	return &receiptService{orders: orders, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *receiptService) ReceiptURL(orderID uint) string {
	return fmt.Sprintf("%s/api/v1/orders/%d", s.baseURL, orderID)
}

func (s *receiptService) OrderQRCode(ctx context.Context, orderID uint) ([]byte, error) {
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.ReceiptURL(orderID), qrcode.Medium, receiptQRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code for order %d: %w", orderID, err)
	}
	return png, nil
}

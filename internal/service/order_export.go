package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{
	"Order ID", "Created", "Status", "Username", "Email", "Payment", "Transaction",
	"Product", "Unit Price", "Quantity", "Line Total", "Order Total",
}

// ExportOrders builds a workbook with one row per order line.
func (s *OrderService) ExportOrders(ctx context.Context) (*xlsx.File, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		for _, item := range o.Items {
			row := sheet.AddRow()
			row.AddCell().SetValue(o.ID.String())
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(o.Username)
			row.AddCell().SetValue(o.UserEmail)
			row.AddCell().SetValue(o.PaymentMethod)
			row.AddCell().SetValue(o.TransactionID)
			row.AddCell().SetValue(item.Name)
			row.AddCell().SetValue(item.Price.StringFixed(2))
			row.AddCell().SetValue(item.Quantity)
			row.AddCell().SetValue(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2))
			row.AddCell().SetValue(o.TotalPrice.StringFixed(2))
		}
	}
	return file, nil
}

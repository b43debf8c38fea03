package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const reportsDir = "reports"

// ExportOrdersToExcel writes all orders into an .xlsx report and returns its
// path. Used by the operator /export command.
func (s *PostgresStorage) ExportOrdersToExcel(ctx context.Context) (string, error) {
	orders, err := s.GetAllOrders(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{
		"ID", "Order Number", "User ID", "Description", "Pages",
		"Print Type", "Color", "Paper", "File", "Cost",
		"Cancel Reason", "Status", "Created At",
	}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, o := range orders {
		values := []any{
			o.ID, o.OrderNumber, o.UserID, o.Description, o.Pages,
			o.PrintType, o.Color, o.Paper, o.FileName, o.Cost,
			o.CancelReason, string(o.Status),
			o.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "M1", style)
	f.SetActiveSheet(index)

	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	path := filepath.Join(reportsDir,
		fmt.Sprintf("orders_report_%s.xlsx", time.Now().Format("20060102_1504")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return path, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	apperrors "github.com/oopsinfosolutions/feed-sub001/pkg/errors"
)

var ErrExportGenerateFail = errors.New("generate spreadsheet failed")

// ExportService spreadsheet exports for back-office users.
// The workbook is returned as a buffer; the handler sets download headers.
type ExportService interface {
	ExportShipments(ctx context.Context, customerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var shipmentColumns = []struct {
	title string
	width float64
}{
	{"ID", 12},
	{"Material", 22},
	{"Detail", 30},
	{"Quantity", 10},
	{"Price / unit", 14},
	{"Total", 16},
	{"Destination", 20},
	{"Pickup", 20},
	{"Drop", 20},
	{"Customer", 10},
	{"Employee", 10},
	{"Dealer", 10},
	{"Status", 12},
	{"Created", 20},
}

// ExportShipments one sheet, one row per shipment. customerID narrows the
// export to one customer; empty exports everything.
func (s *exportService) ExportShipments(ctx context.Context, customerID string) (*bytes.Buffer, string, error) {
	shipments, err := s.repo.Shipment.List(ctx, repository.ShipmentFilter{CustomerID: customerID})
	if err != nil {
		s.logger.Error("list shipments for export failed", zap.Error(err))
		return nil, "", apperrors.Datastore("list shipments", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Shipments"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	for i, col := range shipmentColumns {
		name := colName(i)
		f.SetColWidth(sheetName, name, name, col.width)
		f.SetCellValue(sheetName, cell(name, 1), col.title)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(shipmentColumns)-1), 1), headerStyle)

	row := 2
	for _, sh := range shipments {
		price, _ := sh.PricePerUnit.Float64()
		total, _ := sh.TotalPrice.Float64()
		values := []interface{}{
			sh.ID,
			sh.MaterialName,
			sh.Detail,
			sh.Quantity,
			price,
			total,
			deref(sh.Destination),
			deref(sh.PickupLocation),
			deref(sh.DropLocation),
			deref(sh.CustomerID),
			deref(sh.EmployeeID),
			deref(sh.DealerID),
			sh.Status,
			sh.CreatedAt.Format("2006-01-02 15:04"),
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}
	if row > 2 {
		f.SetCellStyle(sheetName, cell("E", 2), cell("F", row-1), moneyStyle)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("shipments_%s.xlsx", time.Now().Format("20060102"))
	if customerID != "" {
		filename = fmt.Sprintf("shipments_%s_%s.xlsx", customerID, time.Now().Format("20060102"))
	}
	return buf, filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

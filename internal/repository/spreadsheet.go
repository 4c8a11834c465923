package repository

import (
	"errors"
	"fmt"
	"github.com/google/renameio/v2"
	"github.com/ivanpodgorny/bolexport/internal/entity"
	"github.com/xuri/excelize/v2"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	sheetName  = "orders"
	dateLayout = "2006-01-02"
)

var (
	spreadsheetHeaders = []string{
		"export_date",
		"order_id",
		"order_date_time",
		"order_item_id",
		"ean",
		"title",
		"quantity",
		"fulfilment_method",
	}
	columnWidths = []float64{12, 15, 20, 18, 15, 40, 10, 18}
)

// Spreadsheet дописывает позиции заказов в ежедневный файл Excel.
type Spreadsheet struct {
	dir    string
	logger *slog.Logger
}

func NewSpreadsheet(dir string, logger *slog.Logger) *Spreadsheet {
	return &Spreadsheet{
		dir:    dir,
		logger: logger,
	}
}

// Path возвращает путь к файлу выгрузки за дату date.
func (r *Spreadsheet) Path(date time.Time) string {
	return filepath.Join(r.dir, "orders_"+date.Format(dateLayout)+".xlsx")
}

// Append дописывает строки в файл выгрузки за дату date и возвращает путь к нему. Если файла
// нет, создает его со строкой заголовков, даже когда items пуст. Ранее записанные строки
// не изменяются. Файл заменяется атомарно.
func (r *Spreadsheet) Append(date time.Time, items []entity.OrderItem) (string, error) {
	path := r.Path(date)
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}

	f, sheet, err := r.open(path)
	if err != nil {
		return "", fmt.Errorf("open workbook %s: %w", path, err)
	}

	defer func(f *excelize.File) {
		_ = f.Close()
	}(f)

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", err
	}

	next := len(rows) + 1
	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return "", err
		}

		row := []any{
			item.ExportDate.Format(dateLayout),
			item.OrderID,
			item.OrderDateTime.Format(time.RFC3339Nano),
			item.OrderItemID,
			item.EAN,
			item.Title,
			item.Quantity,
			string(item.FulfilmentMethod),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", err
		}
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return "", err
	}

	defer func(pending *renameio.PendingFile) {
		_ = pending.Cleanup()
	}(pending)

	if err := f.Write(pending); err != nil {
		return "", fmt.Errorf("write workbook %s: %w", path, err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("replace workbook %s: %w", path, err)
	}

	r.logger.Info("файл выгрузки сохранен", slog.String("path", path), slog.Int("rows", len(items)))

	return path, nil
}

func (r *Spreadsheet) open(path string) (*excelize.File, string, error) {
	_, err := os.Stat(path)
	if err == nil {
		r.logger.Debug("открытие существующего файла выгрузки", slog.String("path", path))

		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, "", err
		}

		return f, f.GetSheetName(f.GetActiveSheetIndex()), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", err
	}

	r.logger.Debug("создание файла выгрузки", slog.String("path", path))

	f := excelize.NewFile()
	if err := r.writeHeader(f); err != nil {
		_ = f.Close()

		return nil, "", err
	}

	return f, sheetName, nil
}

func (r *Spreadsheet) writeHeader(f *excelize.File) error {
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	header := make([]any, len(spreadsheetHeaders))
	for i, h := range spreadsheetHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(spreadsheetHeaders))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last+"1", style); err != nil {
		return err
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}

	return nil
}

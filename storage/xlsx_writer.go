package storage

import (
	"fmt"
	"io"
	"sync"

	"github.com/xuri/excelize/v2"

	"veribuy/models"
)

const xlsxSheet = "Scans"

// XLSXWriter builds a spreadsheet of scan records. The workbook is written
// out on Close, either to a file path or to a stream.
type XLSXWriter struct {
	mu   sync.Mutex
	file *excelize.File
	path string
	out  io.Writer
	row  int
}

// NewXLSXWriter prepares a workbook saved to path on Close.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	return newXLSXWriter(path, nil)
}

// NewXLSXStreamWriter prepares a workbook written to w on Close.
func NewXLSXStreamWriter(w io.Writer) (*XLSXWriter, error) {
	return newXLSXWriter("", w)
}

func newXLSXWriter(path string, out io.Writer) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	x := &XLSXWriter{file: f, path: path, out: out, row: 1}
	if err := x.writeRow(exportHeader); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *XLSXWriter) writeRow(values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := x.file.SetSheetRow(xlsxSheet, cell, &row); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", x.row, err)
	}
	x.row++
	return nil
}

// Export appends one row per record.
func (x *XLSXWriter) Export(records []models.ScanRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, r := range records {
		if err := x.writeRow(exportRow(r)); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the workbook to its destination.
func (x *XLSXWriter) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	defer x.file.Close()

	if x.out != nil {
		if err := x.file.Write(x.out); err != nil {
			return fmt.Errorf("xlsx: write: %w", err)
		}
		return nil
	}
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}

// NewExporter returns a RecordExporter writing format ("csv" or "xlsx") to w.
func NewExporter(format string, w io.Writer) (RecordExporter, error) {
	switch format {
	case "", "csv":
		return NewCSVStreamWriter(w)
	case "xlsx":
		return NewXLSXStreamWriter(w)
	}
	return nil, fmt.Errorf("export: unknown format %q", format)
}

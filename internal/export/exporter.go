// Package export renders the completed document collection as an Excel
// workbook for download.
package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// ErrNothingToExport is returned when no completed document exists.
var ErrNothingToExport = errors.New("no completed documents to export")

// sheetNames maps each document type to its workbook sheet. Sheets appear in
// this fixed order regardless of upload order.
var sheetOrder = []entity.DocumentType{
	entity.DocumentTypeBankStatement,
	entity.DocumentTypeInvoice,
	entity.DocumentTypeReceipt,
	entity.DocumentTypeUnknown,
}

var sheetNames = map[entity.DocumentType]string{
	entity.DocumentTypeBankStatement: "Bank Statements",
	entity.DocumentTypeInvoice:       "Invoices",
	entity.DocumentTypeReceipt:       "Receipts",
	entity.DocumentTypeUnknown:       "Unclassified",
}

var headerRow = []interface{}{
	"File Name",
	"Document Date",
	"Issuer",
	"Document Number",
	"Total Amount",
	"Currency",
	"VAT Amount",
	"Net Amount",
	"Total (CHF)",
	"VAT (CHF)",
	"Net (CHF)",
	"Expense Category",
	"Uploaded At",
}

// Exporter builds Excel workbooks from document records.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates an exporter.
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes all completed records into a workbook, one sheet per document
// type, one row per record. Processing and errored records are skipped: only
// verified extraction results belong in the accounting export.
func (e *Exporter) Export(records []*entity.DocumentRecord) (*bytes.Buffer, error) {
	grouped := make(map[entity.DocumentType][]*entity.DocumentRecord)
	completed := 0
	for _, rec := range records {
		if rec.Status != entity.StatusCompleted {
			continue
		}
		grouped[rec.DocumentType] = append(grouped[rec.DocumentType], rec)
		completed++
	}
	if completed == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, docType := range sheetOrder {
		recs := grouped[docType]
		if len(recs) == 0 {
			continue
		}

		name := sheetNames[docType]
		if first {
			// Rename the default sheet instead of leaving an empty Sheet1.
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
			}
		}

		if err := e.fillSheet(f, name, recs); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	e.logger.Info("Export workbook built",
		zap.Int("documents", completed),
		zap.Int("sheets", len(grouped)))
	return buf, nil
}

func (e *Exporter) fillSheet(f *excelize.File, sheet string, recs []*entity.DocumentRecord) error {
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header on %s: %w", sheet, err)
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d on %s: %w", i+2, sheet, err)
		}
		row := recordRow(rec)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %s: %w", i+2, sheet, err)
		}
	}
	return nil
}

// recordRow flattens a record into cell values. Absent optional fields become
// empty cells, not zeros: a zero amount and an unknown amount must stay
// distinguishable in the export.
func recordRow(rec *entity.DocumentRecord) []interface{} {
	d := rec.Extracted
	row := []interface{}{rec.FileName}
	if d.DocumentDate != nil {
		row = append(row, d.DocumentDate.Format("2006-01-02"))
	} else {
		row = append(row, "")
	}
	row = append(row, strCell(d.Issuer), strCell(d.DocumentNumber))
	row = append(row, floatCell(d.TotalAmount), strCell(d.OriginalCurrency))
	row = append(row, floatCell(d.VATAmount), floatCell(d.NetAmount))
	row = append(row, floatCell(d.TotalAmountCHF), floatCell(d.VATAmountCHF), floatCell(d.NetAmountCHF))
	if d.ExpenseCategory != nil {
		row = append(row, string(*d.ExpenseCategory))
	} else {
		row = append(row, "")
	}
	row = append(row, rec.UploadedAt.Format("2006-01-02 15:04:05"))
	return row
}

func strCell(s *string) interface{} {
	if s == nil {
		return ""
	}
	return *s
}

func floatCell(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

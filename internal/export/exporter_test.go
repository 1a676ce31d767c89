package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/domain/entity"
)

func completedRecord(t *testing.T, id string, docType entity.DocumentType, data entity.ExtractedData) *entity.DocumentRecord {
	t.Helper()
	rec := entity.NewDocumentRecord(id, id+".pdf", "application/pdf",
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, rec.MarkCompleted(docType, data))
	return rec
}

func TestExportGroupsByDocumentType(t *testing.T) {
	e := NewExporter(zap.NewNop())

	issuer := "Swisscom"
	total := 85.50
	cur := "CHF"
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	records := []*entity.DocumentRecord{
		completedRecord(t, "inv1", entity.DocumentTypeInvoice, entity.ExtractedData{
			DocumentDate:     &date,
			Issuer:           &issuer,
			TotalAmount:      &total,
			OriginalCurrency: &cur,
			TotalAmountCHF:   &total,
		}),
		completedRecord(t, "rcpt1", entity.DocumentTypeReceipt, entity.ExtractedData{}),
		completedRecord(t, "inv2", entity.DocumentTypeInvoice, entity.ExtractedData{}),
	}

	buf, err := e.Export(records)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Invoices", "Receipts"}, f.GetSheetList())

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two invoices")
	assert.Equal(t, "File Name", rows[0][0])
	assert.Equal(t, "inv1.pdf", rows[1][0])
	assert.Equal(t, "2024-03-15", rows[1][1])
	assert.Equal(t, "Swisscom", rows[1][2])
	assert.Equal(t, "inv2.pdf", rows[2][0])

	rows, err = f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "rcpt1.pdf", rows[1][0])
}

func TestExportSkipsUnfinishedRecords(t *testing.T) {
	e := NewExporter(zap.NewNop())

	processing := entity.NewDocumentRecord("p1", "pending.pdf", "application/pdf", time.Now())
	errored := entity.NewDocumentRecord("e1", "broken.pdf", "application/pdf", time.Now())
	require.NoError(t, errored.MarkFailed("boom"))
	done := completedRecord(t, "d1", entity.DocumentTypeReceipt, entity.ExtractedData{})

	buf, err := e.Export([]*entity.DocumentRecord{processing, errored, done})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Receipts"}, f.GetSheetList())
	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	assert.Len(t, rows, 2, "only the completed record is exported")
}

func TestExportEmptyCollection(t *testing.T) {
	e := NewExporter(zap.NewNop())

	_, err := e.Export(nil)
	assert.ErrorIs(t, err, ErrNothingToExport)

	pending := entity.NewDocumentRecord("p1", "pending.pdf", "application/pdf", time.Now())
	_, err = e.Export([]*entity.DocumentRecord{pending})
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportAbsentFieldsStayEmpty(t *testing.T) {
	e := NewExporter(zap.NewNop())

	rec := completedRecord(t, "bare", entity.DocumentTypeUnknown, entity.ExtractedData{})
	buf, err := e.Export([]*entity.DocumentRecord{rec})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Unclassified")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Trailing empty cells may be trimmed; every present cell between file
	// name and upload timestamp must be empty.
	for i := 1; i < len(rows[1])-1; i++ {
		assert.Empty(t, rows[1][i])
	}
}

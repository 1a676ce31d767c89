// Package repository implements local persistence over SQLite.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// DocumentRepository implements port.DocumentRepository on SQLite. One row
// per document record; the record ID is the primary key and Save is an
// upsert so terminal status writes replace the placeholder row.
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts or replaces a document record.
func (r *DocumentRepository) Save(ctx context.Context, rec *entity.DocumentRecord) error {
	query := `
		INSERT INTO documents (
			id, file_name, file_type, document_type, status, error_message,
			document_date, issuer, document_number,
			total_amount, vat_amount, net_amount, original_currency,
			total_amount_chf, vat_amount_chf, net_amount_chf,
			expense_category, uploaded_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			document_type = excluded.document_type,
			status = excluded.status,
			error_message = excluded.error_message,
			document_date = excluded.document_date,
			issuer = excluded.issuer,
			document_number = excluded.document_number,
			total_amount = excluded.total_amount,
			vat_amount = excluded.vat_amount,
			net_amount = excluded.net_amount,
			original_currency = excluded.original_currency,
			total_amount_chf = excluded.total_amount_chf,
			vat_amount_chf = excluded.vat_amount_chf,
			net_amount_chf = excluded.net_amount_chf,
			expense_category = excluded.expense_category,
			updated_at = CURRENT_TIMESTAMP
	`

	d := rec.Extracted
	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.FileName,
		rec.FileType,
		rec.DocumentType.String(),
		rec.Status.String(),
		nullString(strOrNil(rec.ErrorMessage)),
		nullTime(d.DocumentDate),
		nullString(d.Issuer),
		nullString(d.DocumentNumber),
		nullFloat(d.TotalAmount),
		nullFloat(d.VATAmount),
		nullFloat(d.NetAmount),
		nullString(d.OriginalCurrency),
		nullFloat(d.TotalAmountCHF),
		nullFloat(d.VATAmountCHF),
		nullFloat(d.NetAmountCHF),
		nullCategory(d.ExpenseCategory),
		rec.UploadedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save document", zap.String("id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Delete removes a document record. Deleting an unknown ID succeeds.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete document", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteAll removes every document record.
func (r *DocumentRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		r.logger.Error("Failed to clear documents", zap.Error(err))
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

// List returns all document records, most recently uploaded first.
func (r *DocumentRepository) List(ctx context.Context) ([]*entity.DocumentRecord, error) {
	query := `
		SELECT id, file_name, file_type, document_type, status, error_message,
			document_date, issuer, document_number,
			total_amount, vat_amount, net_amount, original_currency,
			total_amount_chf, vat_amount_chf, net_amount_chf,
			expense_category, uploaded_at
		FROM documents
		ORDER BY uploaded_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var records []*entity.DocumentRecord
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document rows: %w", err)
	}
	return records, nil
}

func scanDocument(rows *sql.Rows) (*entity.DocumentRecord, error) {
	var (
		rec          entity.DocumentRecord
		docType      string
		status       string
		errMsg       sql.NullString
		docDate      sql.NullTime
		issuer       sql.NullString
		docNumber    sql.NullString
		total        sql.NullFloat64
		vat          sql.NullFloat64
		net          sql.NullFloat64
		currency     sql.NullString
		totalCHF     sql.NullFloat64
		vatCHF       sql.NullFloat64
		netCHF       sql.NullFloat64
		category     sql.NullString
	)

	if err := rows.Scan(
		&rec.ID, &rec.FileName, &rec.FileType, &docType, &status, &errMsg,
		&docDate, &issuer, &docNumber,
		&total, &vat, &net, &currency,
		&totalCHF, &vatCHF, &netCHF,
		&category, &rec.UploadedAt,
	); err != nil {
		return nil, err
	}

	rec.DocumentType = entity.DocumentType(docType)
	rec.Status = entity.DocumentStatus(status)
	if errMsg.Valid {
		rec.ErrorMessage = errMsg.String
	}

	d := &rec.Extracted
	if docDate.Valid {
		t := docDate.Time
		d.DocumentDate = &t
	}
	d.Issuer = fromNullString(issuer)
	d.DocumentNumber = fromNullString(docNumber)
	d.TotalAmount = fromNullFloat(total)
	d.VATAmount = fromNullFloat(vat)
	d.NetAmount = fromNullFloat(net)
	d.OriginalCurrency = fromNullString(currency)
	d.TotalAmountCHF = fromNullFloat(totalCHF)
	d.VATAmountCHF = fromNullFloat(vatCHF)
	d.NetAmountCHF = fromNullFloat(netCHF)
	if category.Valid {
		c := entity.ExpenseCategory(category.String)
		d.ExpenseCategory = &c
	}

	return &rec, nil
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullCategory(c *entity.ExpenseCategory) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

var _ port.DocumentRepository = (*DocumentRepository)(nil)

package entity

import "time"

// DocumentType classifies a scanned financial document.
type DocumentType string

const (
	DocumentTypeBankStatement DocumentType = "bank_statement"
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypeReceipt       DocumentType = "receipt"
	DocumentTypeUnknown       DocumentType = "unknown"
)

var validDocumentTypes = map[DocumentType]bool{
	DocumentTypeBankStatement: true,
	DocumentTypeInvoice:       true,
	DocumentTypeReceipt:       true,
	DocumentTypeUnknown:       true,
}

// IsValid returns true if the document type is one of the known variants.
func (t DocumentType) IsValid() bool {
	return validDocumentTypes[t]
}

// String returns the string representation of the document type.
func (t DocumentType) String() string {
	return string(t)
}

// DocumentStatus tracks a document record through its processing lifecycle.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
)

// Transitions only run forward: processing is the single entry state and
// completed/error are terminal.
var validStatusTransitions = map[DocumentStatus]map[DocumentStatus]bool{
	StatusProcessing: {
		StatusCompleted: true,
		StatusError:     true,
	},
}

// CanTransitionTo returns true if the status may move to next.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return validStatusTransitions[s][next]
}

// IsTerminal returns true if no further transitions are allowed.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// String returns the string representation of the status.
func (s DocumentStatus) String() string {
	return string(s)
}

// ExpenseCategory is the closed set of categories a document may be filed under.
type ExpenseCategory string

const (
	CategoryTravel               ExpenseCategory = "travel"
	CategoryMeals                ExpenseCategory = "meals"
	CategoryUtilities            ExpenseCategory = "utilities"
	CategorySoftware             ExpenseCategory = "software"
	CategoryProfessionalServices ExpenseCategory = "professional services"
	CategoryOfficeSupplies       ExpenseCategory = "office supplies"
	CategoryTelecommunications   ExpenseCategory = "telecommunications"
	CategoryInsurance            ExpenseCategory = "insurance"
	CategoryRent                 ExpenseCategory = "rent"
	CategoryOther                ExpenseCategory = "other"
)

var validCategories = map[ExpenseCategory]bool{
	CategoryTravel:               true,
	CategoryMeals:                true,
	CategoryUtilities:            true,
	CategorySoftware:             true,
	CategoryProfessionalServices: true,
	CategoryOfficeSupplies:       true,
	CategoryTelecommunications:   true,
	CategoryInsurance:            true,
	CategoryRent:                 true,
	CategoryOther:                true,
}

// IsValid returns true if the category belongs to the closed category set.
func (c ExpenseCategory) IsValid() bool {
	return validCategories[c]
}

// ExtractedData holds the structured fields pulled out of a document.
// Every field is independently optional: a nil pointer means the value could
// not be determined, which is distinct from a zero value.
type ExtractedData struct {
	DocumentDate     *time.Time       `json:"document_date,omitempty"`
	Issuer           *string          `json:"issuer,omitempty"`
	DocumentNumber   *string          `json:"document_number,omitempty"`
	TotalAmount      *float64         `json:"total_amount,omitempty"`
	VATAmount        *float64         `json:"vat_amount,omitempty"`
	NetAmount        *float64         `json:"net_amount,omitempty"`
	OriginalCurrency *string          `json:"original_currency,omitempty"`
	TotalAmountCHF   *float64         `json:"total_amount_chf,omitempty"`
	VATAmountCHF     *float64         `json:"vat_amount_chf,omitempty"`
	NetAmountCHF     *float64         `json:"net_amount_chf,omitempty"`
	ExpenseCategory  *ExpenseCategory `json:"expense_category,omitempty"`
}

// DocumentRecord is the per-file unit of state tracked through the pipeline.
// ID, FileName, FileType and UploadedAt are immutable after creation; the ID
// is the sole join key between the in-memory collection, local persistence
// and the remote mirror.
type DocumentRecord struct {
	ID           string         `json:"id"`
	FileName     string         `json:"file_name"`
	FileType     string         `json:"file_type"`
	DocumentType DocumentType   `json:"document_type"`
	Extracted    ExtractedData  `json:"extracted_data"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	UploadedAt   time.Time      `json:"uploaded_at"`
}

// NewDocumentRecord creates a placeholder record for a freshly uploaded file.
func NewDocumentRecord(id, fileName, fileType string, uploadedAt time.Time) *DocumentRecord {
	return &DocumentRecord{
		ID:           id,
		FileName:     fileName,
		FileType:     fileType,
		DocumentType: DocumentTypeUnknown,
		Status:       StatusProcessing,
		UploadedAt:   uploadedAt,
	}
}

// MarkCompleted transitions the record to completed with its extraction result.
func (d *DocumentRecord) MarkCompleted(docType DocumentType, data ExtractedData) error {
	if !d.Status.CanTransitionTo(StatusCompleted) {
		return &InvalidTransitionError{From: d.Status, To: StatusCompleted}
	}
	if !docType.IsValid() {
		docType = DocumentTypeUnknown
	}
	d.DocumentType = docType
	d.Extracted = data
	d.Status = StatusCompleted
	d.ErrorMessage = ""
	return nil
}

// MarkFailed transitions the record to error with a human-readable message.
func (d *DocumentRecord) MarkFailed(message string) error {
	if !d.Status.CanTransitionTo(StatusError) {
		return &InvalidTransitionError{From: d.Status, To: StatusError}
	}
	d.Status = StatusError
	d.ErrorMessage = message
	return nil
}

// Clone returns a deep copy of the record so callers cannot mutate shared state.
func (d *DocumentRecord) Clone() *DocumentRecord {
	cp := *d
	cp.Extracted = d.Extracted.clone()
	return &cp
}

func (e ExtractedData) clone() ExtractedData {
	cp := ExtractedData{}
	if e.DocumentDate != nil {
		v := *e.DocumentDate
		cp.DocumentDate = &v
	}
	cp.Issuer = cloneString(e.Issuer)
	cp.DocumentNumber = cloneString(e.DocumentNumber)
	cp.TotalAmount = cloneFloat(e.TotalAmount)
	cp.VATAmount = cloneFloat(e.VATAmount)
	cp.NetAmount = cloneFloat(e.NetAmount)
	cp.OriginalCurrency = cloneString(e.OriginalCurrency)
	cp.TotalAmountCHF = cloneFloat(e.TotalAmountCHF)
	cp.VATAmountCHF = cloneFloat(e.VATAmountCHF)
	cp.NetAmountCHF = cloneFloat(e.NetAmountCHF)
	if e.ExpenseCategory != nil {
		v := *e.ExpenseCategory
		cp.ExpenseCategory = &v
	}
	return cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

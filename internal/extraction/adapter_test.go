package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhuonder/belegscan/internal/domain/entity"
)

func TestParseResponseComplete(t *testing.T) {
	content := `{
		"documentType": "invoice",
		"extractedData": {
			"documentDate": "2024-03-15",
			"issuer": "Swisscom AG",
			"documentNumber": "INV-20240315",
			"totalAmount": 89.90,
			"originalCurrency": "chf",
			"vatAmount": 6.43,
			"netAmount": 83.47,
			"expenseCategory": "telecommunications"
		}
	}`

	result, err := parseResponse(content)
	require.NoError(t, err)

	assert.Equal(t, entity.DocumentTypeInvoice, result.DocumentType)
	require.NotNil(t, result.Data.DocumentDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *result.Data.DocumentDate)
	assert.Equal(t, "Swisscom AG", *result.Data.Issuer)
	assert.Equal(t, "INV-20240315", *result.Data.DocumentNumber)
	assert.Equal(t, 89.90, *result.Data.TotalAmount)
	assert.Equal(t, "CHF", *result.Data.OriginalCurrency, "currency must be upper-cased")
	assert.Equal(t, entity.CategoryTelecommunications, *result.Data.ExpenseCategory)
}

func TestParseResponseAllFieldsNull(t *testing.T) {
	content := `{
		"documentType": "unknown",
		"extractedData": {
			"documentDate": null,
			"issuer": null,
			"documentNumber": null,
			"totalAmount": null,
			"originalCurrency": null,
			"vatAmount": null,
			"netAmount": null,
			"expenseCategory": null
		}
	}`

	result, err := parseResponse(content)
	require.NoError(t, err)

	assert.Equal(t, entity.DocumentTypeUnknown, result.DocumentType)
	assert.Nil(t, result.Data.DocumentDate)
	assert.Nil(t, result.Data.Issuer)
	assert.Nil(t, result.Data.TotalAmount)
	assert.Nil(t, result.Data.ExpenseCategory)
}

func TestParseResponseNonJSON(t *testing.T) {
	_, err := parseResponse("I could not read the document, sorry!")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseResponseInventedDocumentType(t *testing.T) {
	content := `{"documentType": "contract", "extractedData": {}}`

	_, err := parseResponse(content)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseResponseDropsInvalidOptionalFields(t *testing.T) {
	content := `{
		"documentType": "receipt",
		"extractedData": {
			"documentDate": "15.03.2024",
			"issuer": "  ",
			"originalCurrency": "FRANCS",
			"expenseCategory": "groceries",
			"totalAmount": 12.50
		}
	}`

	result, err := parseResponse(content)
	require.NoError(t, err)

	assert.Nil(t, result.Data.DocumentDate, "non-ISO date must be dropped to null")
	assert.Nil(t, result.Data.Issuer, "blank issuer must be dropped to null")
	assert.Nil(t, result.Data.OriginalCurrency, "non-3-letter currency must be dropped")
	assert.Nil(t, result.Data.ExpenseCategory, "out-of-set category must be dropped")
	assert.Equal(t, 12.50, *result.Data.TotalAmount)
}

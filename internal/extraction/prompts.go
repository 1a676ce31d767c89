package extraction

import "fmt"

const systemPrompt = "You are an expert at reading scanned Swiss and European financial documents " +
	"(bank statements, invoices, receipts). You extract fields with perfect accuracy and never " +
	"invent values. Always respond with valid JSON."

// buildExtractionPrompt renders the instruction block for the vision call.
// The rules encoded here are part of the gateway contract: closed document
// type set, explicit nulls for missing fields, ISO dates, 3-letter currency
// codes and a fixed expense category set.
func buildExtractionPrompt(fileName, ocrText string) string {
	prompt := fmt.Sprintf(`Analyze this scanned financial document and extract its structured fields.

The original filename is %q. Use it only as weak context, never as the source of a field value.

CLASSIFICATION:
Classify the document as exactly one of: "bank_statement", "invoice", "receipt".
Never invent a fourth type. If genuinely unclassifiable, use "unknown".

EXTRACTION RULES:
- Never guess a missing field. If a value is not visible, use null - not an
  empty string, not a placeholder.
- documentDate: the document's issue date, normalized to ISO 8601 (YYYY-MM-DD).
- issuer: the name of the company or institution that issued the document.
- documentNumber: invoice/receipt/statement number if printed.
- totalAmount, vatAmount, netAmount: decimal numbers in the document's
  original currency, without currency symbols.
- originalCurrency: 3-letter ISO 4217 code. Detect from explicit codes or
  symbols (CHF, Fr., EUR, USD, GBP, JPY, ...).
- expenseCategory: exactly one of "travel", "meals", "utilities", "software",
  "professional services", "office supplies", "telecommunications",
  "insurance", "rent", "other" - or null if it cannot be determined.

Return a JSON object with this exact structure:
{
  "documentType": "bank_statement" | "invoice" | "receipt" | "unknown",
  "extractedData": {
    "documentDate": "YYYY-MM-DD" or null,
    "issuer": string or null,
    "documentNumber": string or null,
    "totalAmount": number or null,
    "originalCurrency": string or null,
    "vatAmount": number or null,
    "netAmount": number or null,
    "expenseCategory": string or null
  }
}`, fileName)

	if ocrText != "" {
		prompt += fmt.Sprintf(`

OCR PRE-PROCESSING:
A separate OCR pass produced the following text from the same document. Use it
as additional context; the document image remains authoritative:
---
%s
---`, ocrText)
	}

	return prompt
}

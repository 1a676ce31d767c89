package heuristic

import "github.com/fhuonder/belegscan/internal/domain/entity"

// VendorRule maps a known vendor-name substring to the fields it implies.
// Rules are data, not control flow, so the table can grow without touching
// the extraction logic.
type VendorRule struct {
	Substring string
	Issuer    string
	Type      entity.DocumentType
	Category  entity.ExpenseCategory
}

// vendorRules is matched case-insensitively against the whole filename, in
// order. A vendor match takes precedence over the keyword tables below: a
// file named "invoice_UBER_..." is still classified as a receipt because the
// vendor rule wins.
var vendorRules = []VendorRule{
	{"uber", "Uber", entity.DocumentTypeReceipt, entity.CategoryTravel},
	{"sbb", "SBB", entity.DocumentTypeReceipt, entity.CategoryTravel},
	{"swiss air", "Swiss International Air Lines", entity.DocumentTypeReceipt, entity.CategoryTravel},
	{"easyjet", "easyJet", entity.DocumentTypeReceipt, entity.CategoryTravel},
	{"booking", "Booking.com", entity.DocumentTypeInvoice, entity.CategoryTravel},
	{"airbnb", "Airbnb", entity.DocumentTypeReceipt, entity.CategoryTravel},
	{"migros", "Migros", entity.DocumentTypeReceipt, entity.CategoryMeals},
	{"coop", "Coop", entity.DocumentTypeReceipt, entity.CategoryMeals},
	{"mcdonald", "McDonald's", entity.DocumentTypeReceipt, entity.CategoryMeals},
	{"starbucks", "Starbucks", entity.DocumentTypeReceipt, entity.CategoryMeals},
	{"swisscom", "Swisscom", entity.DocumentTypeInvoice, entity.CategoryTelecommunications},
	{"sunrise", "Sunrise", entity.DocumentTypeInvoice, entity.CategoryTelecommunications},
	{"salt", "Salt Mobile", entity.DocumentTypeInvoice, entity.CategoryTelecommunications},
	{"microsoft", "Microsoft", entity.DocumentTypeInvoice, entity.CategorySoftware},
	{"adobe", "Adobe", entity.DocumentTypeInvoice, entity.CategorySoftware},
	{"github", "GitHub", entity.DocumentTypeInvoice, entity.CategorySoftware},
	{"aws", "Amazon Web Services", entity.DocumentTypeInvoice, entity.CategorySoftware},
	{"hetzner", "Hetzner", entity.DocumentTypeInvoice, entity.CategorySoftware},
	{"digitec", "Digitec", entity.DocumentTypeInvoice, entity.CategoryOfficeSupplies},
	{"galaxus", "Galaxus", entity.DocumentTypeInvoice, entity.CategoryOfficeSupplies},
	{"ikea", "IKEA", entity.DocumentTypeReceipt, entity.CategoryOfficeSupplies},
	{"axa", "AXA", entity.DocumentTypeInvoice, entity.CategoryInsurance},
	{"swica", "SWICA", entity.DocumentTypeInvoice, entity.CategoryInsurance},
	{"helsana", "Helsana", entity.DocumentTypeInvoice, entity.CategoryInsurance},
	{"ewz", "EWZ", entity.DocumentTypeInvoice, entity.CategoryUtilities},
	{"ubs", "UBS", entity.DocumentTypeBankStatement, entity.CategoryOther},
	{"postfinance", "PostFinance", entity.DocumentTypeBankStatement, entity.CategoryOther},
	{"zkb", "Zürcher Kantonalbank", entity.DocumentTypeBankStatement, entity.CategoryOther},
	{"raiffeisen", "Raiffeisen", entity.DocumentTypeBankStatement, entity.CategoryOther},
}

// typeKeywords hint at the document type when no vendor matched.
var typeKeywords = []struct {
	Keyword string
	Type    entity.DocumentType
}{
	{"statement", entity.DocumentTypeBankStatement},
	{"kontoauszug", entity.DocumentTypeBankStatement},
	{"auszug", entity.DocumentTypeBankStatement},
	{"invoice", entity.DocumentTypeInvoice},
	{"rechnung", entity.DocumentTypeInvoice},
	{"bill", entity.DocumentTypeInvoice},
	{"facture", entity.DocumentTypeInvoice},
	{"receipt", entity.DocumentTypeReceipt},
	{"quittung", entity.DocumentTypeReceipt},
	{"beleg", entity.DocumentTypeReceipt},
}

// categoryKeywords hint at the expense category when no vendor matched.
var categoryKeywords = []struct {
	Keyword  string
	Category entity.ExpenseCategory
}{
	{"restaurant", entity.CategoryMeals},
	{"meal", entity.CategoryMeals},
	{"lunch", entity.CategoryMeals},
	{"dinner", entity.CategoryMeals},
	{"hotel", entity.CategoryTravel},
	{"flight", entity.CategoryTravel},
	{"train", entity.CategoryTravel},
	{"taxi", entity.CategoryTravel},
	{"parking", entity.CategoryTravel},
	{"strom", entity.CategoryUtilities},
	{"electricity", entity.CategoryUtilities},
	{"wasser", entity.CategoryUtilities},
	{"software", entity.CategorySoftware},
	{"license", entity.CategorySoftware},
	{"lizenz", entity.CategorySoftware},
	{"consulting", entity.CategoryProfessionalServices},
	{"beratung", entity.CategoryProfessionalServices},
	{"treuhand", entity.CategoryProfessionalServices},
	{"office", entity.CategoryOfficeSupplies},
	{"telefon", entity.CategoryTelecommunications},
	{"internet", entity.CategoryTelecommunications},
	{"mobile", entity.CategoryTelecommunications},
	{"versicherung", entity.CategoryInsurance},
	{"insurance", entity.CategoryInsurance},
	{"miete", entity.CategoryRent},
	{"rent", entity.CategoryRent},
}

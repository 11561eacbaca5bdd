package fiscalxml

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Structural error codes carried in ValidationResult. They are stable
// identifiers consumed by API clients.
const (
	CodeInvalidXML      = "INVALID_XML"      // malformed markup
	CodeInvalidDocument = "INVALID_DOCUMENT" // no recognizable root element
	CodeMissingInfNFe   = "MISSING_INFNFE"   // root present but info block absent
	CodeValidationError = "VALIDATION_ERROR" // unexpected failure during validation
)

// ValidationIssue is one typed structural problem
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of structural validation. Failure is
// always data, never an error return.
type ValidationResult struct {
	IsValid        bool              `json:"is_valid"`
	DocumentKey    string            `json:"document_key,omitempty"`
	DocumentNumber string            `json:"document_number,omitempty"`
	IssueDate      *time.Time        `json:"issue_date,omitempty"`
	Errors         []ValidationIssue `json:"errors,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
}

func (r ValidationResult) addError(code, message string) ValidationResult {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationIssue{Code: code, Message: message})
	return r
}

// Validator performs structural validation of fiscal XML documents. It only
// checks shape, not business rules: totals are not cross-checked here.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a new Validator
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger.Named("fiscalxml.validator")}
}

// Validate inspects raw document bytes. It never returns an error: every
// failure mode is a typed issue inside the result.
func (v *Validator) Validate(data []byte) (result ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("validation panicked", zap.Any("panic", r))
			result = ValidationResult{}.addError(CodeValidationError, fmt.Sprintf("unexpected validation failure: %v", r))
		}
	}()

	if len(data) == 0 {
		return ValidationResult{}.addError(CodeInvalidXML, "document is empty")
	}

	doc, failure := parseDocument(data)
	if failure != nil {
		return ValidationResult{}.addError(failure.Code, failure.Message)
	}

	result = ValidationResult{
		IsValid:        true,
		DocumentKey:    doc.AccessKey,
		DocumentNumber: doc.Number,
	}

	if issued, ok := parseIssueDate(doc.IssuedRaw); ok {
		result.IssueDate = &issued
	} else {
		result.Warnings = append(result.Warnings, "issue date is absent or unparsable")
	}

	if len(doc.AccessKey) != 44 {
		result = result.addError(CodeMissingInfNFe, fmt.Sprintf("document key must have 44 digits, got %d", len(doc.AccessKey)))
	}
	if doc.IssuerName == "" {
		result.Warnings = append(result.Warnings, "issuer name is absent")
	}
	if doc.Type.HasItems() && len(doc.Items) == 0 {
		result.Warnings = append(result.Warnings, "merchandise document carries no line items")
	}

	return result
}

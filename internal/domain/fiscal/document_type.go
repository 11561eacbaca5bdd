package fiscal

// DocumentType identifies the legal subtype of an electronic fiscal document
type DocumentType string

const (
	// DocumentTypeNFe is an electronic invoice (model 55), typically a purchase entry
	DocumentTypeNFe DocumentType = "nfe"
	// DocumentTypeNFCe is an electronic consumer invoice (model 65), a sale
	DocumentTypeNFCe DocumentType = "nfce"
	// DocumentTypeCTe is an electronic transport waybill
	DocumentTypeCTe DocumentType = "cte"
	// DocumentTypeMDFe is an electronic freight manifest
	DocumentTypeMDFe DocumentType = "mdfe"
)

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// IsValid returns true if the document type is supported
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeNFe, DocumentTypeNFCe, DocumentTypeCTe, DocumentTypeMDFe:
		return true
	}
	return false
}

// IsEntry returns true for document types whose economic effect is an entry:
// stock increases and a payable is owed to the issuer.
func (t DocumentType) IsEntry() bool {
	return t == DocumentTypeNFe
}

// HasItems returns true for merchandise document types that carry line items.
// Transport waybills and manifests describe logistics, not merchandise.
func (t DocumentType) HasItems() bool {
	return t == DocumentTypeNFe || t == DocumentTypeNFCe
}

// SourceType identifies how a document reached the import boundary
type SourceType string

const (
	SourceTypeFile SourceType = "file"
	SourceTypeURL  SourceType = "url"
)

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	return s == SourceTypeFile || s == SourceTypeURL
}

package fiscalxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fiscal/backend/internal/domain/fiscal"
)

// parsedDocument is the subtype-independent projection of one parsed XML
// document, before numeric and date coercion.
type parsedDocument struct {
	Type           fiscal.DocumentType
	AccessKey      string
	Number         string
	IssuedRaw      string
	IssuerName     string
	IssuerDocument string
	TotalRaw       string
	Items          []xmlDet
}

// parseFailure carries a typed structural error out of parsing
type parseFailure struct {
	Code    string
	Message string
}

// NFe / NFCe shapes. The two models share one schema; <mod> 65 marks the
// consumer variant.

type xmlNFeProc struct {
	NFe xmlNFe `xml:"NFe"`
}

type xmlNFe struct {
	InfNFe *xmlInfNFe `xml:"infNFe"`
}

type xmlInfNFe struct {
	ID  string `xml:"Id,attr"`
	Ide struct {
		Model        string `xml:"mod"`
		Number       string `xml:"nNF"`
		Issued       string `xml:"dhEmi"`
		IssuedLegacy string `xml:"dEmi"`
	} `xml:"ide"`
	Emit  xmlEmit  `xml:"emit"`
	Items []xmlDet `xml:"det"`
	Total struct {
		ICMSTot struct {
			DocumentValue string `xml:"vNF"`
		} `xml:"ICMSTot"`
	} `xml:"total"`
}

type xmlEmit struct {
	CNPJ string `xml:"CNPJ"`
	CPF  string `xml:"CPF"`
	Name string `xml:"xNome"`
}

type xmlDet struct {
	Prod struct {
		Code        string `xml:"cProd"`
		Barcode     string `xml:"cEAN"`
		Description string `xml:"xProd"`
		NCM         string `xml:"NCM"`
		CFOP        string `xml:"CFOP"`
		Unit        string `xml:"uCom"`
		Quantity    string `xml:"qCom"`
		UnitValue   string `xml:"vUnCom"`
		Total       string `xml:"vProd"`
	} `xml:"prod"`
	Tax struct {
		ICMS struct {
			Inner string `xml:",innerxml"`
		} `xml:"ICMS"`
	} `xml:"imposto"`
}

// CTe shapes

type xmlCTeProc struct {
	CTe xmlCTe `xml:"CTe"`
}

type xmlCTe struct {
	InfCte *xmlInfCte `xml:"infCte"`
}

type xmlInfCte struct {
	ID  string `xml:"Id,attr"`
	Ide struct {
		Number string `xml:"nCT"`
		Issued string `xml:"dhEmi"`
	} `xml:"ide"`
	Emit   xmlEmit `xml:"emit"`
	VPrest struct {
		Total string `xml:"vTPrest"`
	} `xml:"vPrest"`
}

// MDFe shapes

type xmlMDFeProc struct {
	MDFe xmlMDFe `xml:"MDFe"`
}

type xmlMDFe struct {
	InfMDFe *xmlInfMDFe `xml:"infMDFe"`
}

type xmlInfMDFe struct {
	ID  string `xml:"Id,attr"`
	Ide struct {
		Number string `xml:"nMDF"`
		Issued string `xml:"dhEmi"`
	} `xml:"ide"`
	Emit xmlEmit `xml:"emit"`
	Tot  struct {
		CargoValue string `xml:"vCarga"`
	} `xml:"tot"`
}

// rootElement returns the local name of the document's root element
func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// parseDocument identifies the subtype from the root element and unmarshals
// the matching shape. Both bare and protocol-wrapped (<nfeProc> etc.) forms
// are accepted.
func parseDocument(data []byte) (*parsedDocument, *parseFailure) {
	root, err := rootElement(data)
	if err != nil {
		if err == io.EOF {
			return nil, &parseFailure{Code: CodeInvalidXML, Message: "document contains no XML elements"}
		}
		return nil, &parseFailure{Code: CodeInvalidXML, Message: fmt.Sprintf("malformed XML: %v", err)}
	}

	switch root {
	case "nfeProc":
		var proc xmlNFeProc
		if err := xml.Unmarshal(data, &proc); err != nil {
			return nil, &parseFailure{Code: CodeInvalidXML, Message: fmt.Sprintf("malformed XML: %v", err)}
		}
		return fromInfNFe(proc.NFe.InfNFe)
	case "NFe":
		var doc xmlNFe
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, &parseFailure{Code: CodeInvalidXML, Message: fmt.Sprintf("malformed XML: %v", err)}
		}
		return fromInfNFe(doc.InfNFe)
	case "cteProc":
		var proc xmlCTeProc
		if err := xml.Unmarshal(data, &proc); err != nil {
			return nil, &parseFailure{Code: CodeInvalidXML, Message: fmt.Sprintf("malformed XML: %v", err)}
		}
		return fromInfCte(proc.CTe.InfCte)
	case "CTe":
		var doc xmlCTe
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, &parseFailure{Code: CodeInvalidXML, Message: fmt.Sprintf("malformed XML: %v", err)}
		}
		return fromInfCte(doc.InfCte)
	case "mdfeProc":
		var proc xmlMDFeProc
		if err := xml.Unmarshal(data, &proc); err != nil {
			return nil, &parseFailure{Code: CodeInvalidXML, Message: fmt.Sprintf("malformed XML: %v", err)}
		}
		return fromInfMDFe(proc.MDFe.InfMDFe)
	case "MDFe":
		var doc xmlMDFe
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, &parseFailure{Code: CodeInvalidXML, Message: fmt.Sprintf("malformed XML: %v", err)}
		}
		return fromInfMDFe(doc.InfMDFe)
	}

	return nil, &parseFailure{Code: CodeInvalidDocument, Message: fmt.Sprintf("unrecognized root element <%s>", root)}
}

func fromInfNFe(inf *xmlInfNFe) (*parsedDocument, *parseFailure) {
	if inf == nil {
		return nil, &parseFailure{Code: CodeMissingInfNFe, Message: "mandatory infNFe block is absent"}
	}

	docType := fiscal.DocumentTypeNFe
	if inf.Ide.Model == "65" {
		docType = fiscal.DocumentTypeNFCe
	}

	issued := inf.Ide.Issued
	if issued == "" {
		issued = inf.Ide.IssuedLegacy
	}

	return &parsedDocument{
		Type:           docType,
		AccessKey:      extractAccessKey(inf.ID),
		Number:         inf.Ide.Number,
		IssuedRaw:      issued,
		IssuerName:     inf.Emit.Name,
		IssuerDocument: issuerDocument(inf.Emit),
		TotalRaw:       inf.Total.ICMSTot.DocumentValue,
		Items:          inf.Items,
	}, nil
}

func fromInfCte(inf *xmlInfCte) (*parsedDocument, *parseFailure) {
	if inf == nil {
		return nil, &parseFailure{Code: CodeMissingInfNFe, Message: "mandatory infCte block is absent"}
	}

	return &parsedDocument{
		Type:           fiscal.DocumentTypeCTe,
		AccessKey:      extractAccessKey(inf.ID),
		Number:         inf.Ide.Number,
		IssuedRaw:      inf.Ide.Issued,
		IssuerName:     inf.Emit.Name,
		IssuerDocument: issuerDocument(inf.Emit),
		TotalRaw:       inf.VPrest.Total,
	}, nil
}

func fromInfMDFe(inf *xmlInfMDFe) (*parsedDocument, *parseFailure) {
	if inf == nil {
		return nil, &parseFailure{Code: CodeMissingInfNFe, Message: "mandatory infMDFe block is absent"}
	}

	return &parsedDocument{
		Type:           fiscal.DocumentTypeMDFe,
		AccessKey:      extractAccessKey(inf.ID),
		Number:         inf.Ide.Number,
		IssuedRaw:      inf.Ide.Issued,
		IssuerName:     inf.Emit.Name,
		IssuerDocument: issuerDocument(inf.Emit),
		TotalRaw:       inf.Tot.CargoValue,
	}, nil
}

func issuerDocument(emit xmlEmit) string {
	if emit.CNPJ != "" {
		return emit.CNPJ
	}
	return emit.CPF
}

// extractAccessKey strips the subtype prefix from an Id attribute, leaving
// the 44-digit legal key ("NFe3520..." -> "3520...").
func extractAccessKey(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// findTaxCode scans an ICMS group's inner XML for the CST or CSOSN element.
// The group nests one of many regime-specific variants, so the code is
// located by name rather than by a fixed path.
func findTaxCode(inner string) string {
	dec := xml.NewDecoder(strings.NewReader(inner))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			if current == "CST" || current == "CSOSN" {
				code := strings.TrimSpace(string(t))
				if code != "" {
					return code
				}
			}
		case xml.EndElement:
			current = ""
		}
	}
}

// parseIssueDate accepts both timezone-stamped and legacy date-only forms
func parseIssueDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

package fiscalxml

import (
	"testing"

	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const nfeKey = "35200714200166000187550010000000046550000046"

const sampleNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc versao="4.00">
  <NFe>
    <infNFe Id="NFe` + nfeKey + `" versao="4.00">
      <ide>
        <mod>55</mod>
        <nNF>4655</nNF>
        <dhEmi>2026-03-10T14:00:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>14200166000187</CNPJ>
        <xNome>Distribuidora Alfa LTDA</xNome>
      </emit>
      <det nItem="1">
        <prod>
          <cProd>SKU-001</cProd>
          <cEAN>7891000100103</cEAN>
          <xProd>Agua Mineral 500ml</xProd>
          <NCM>22011000</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>10.0000</qCom>
          <vUnCom>2.5000</vUnCom>
          <vProd>25.00</vProd>
        </prod>
        <imposto>
          <ICMS>
            <ICMS00>
              <orig>0</orig>
              <CST>00</CST>
            </ICMS00>
          </ICMS>
        </imposto>
      </det>
      <det nItem="2">
        <prod>
          <cProd>SKU-002</cProd>
          <xProd>Refrigerante Cola 2L</xProd>
          <NCM>22021000</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>5.0000</qCom>
          <vUnCom>7.0000</vUnCom>
          <vProd>35.00</vProd>
        </prod>
        <imposto>
          <ICMS>
            <ICMSSN102>
              <orig>0</orig>
              <CSOSN>102</CSOSN>
            </ICMSSN102>
          </ICMS>
        </imposto>
      </det>
      <total>
        <ICMSTot>
          <vNF>60.00</vNF>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
</nfeProc>`

const cteKey = "35200714200166000187570010000000015570000015"

const sampleCTe = `<?xml version="1.0" encoding="UTF-8"?>
<cteProc versao="3.00">
  <CTe>
    <infCte Id="CTe` + cteKey + `" versao="3.00">
      <ide>
        <nCT>15</nCT>
        <dhEmi>2026-03-11T09:30:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>14200166000187</CNPJ>
        <xNome>Transportes Beta SA</xNome>
      </emit>
      <vPrest>
        <vTPrest>350.00</vTPrest>
      </vPrest>
    </infCte>
  </CTe>
</cteProc>`

func newValidator() *Validator {
	return NewValidator(zap.NewNop())
}

func TestValidatorValidate(t *testing.T) {
	v := newValidator()

	t.Run("accepts well-formed invoice", func(t *testing.T) {
		result := v.Validate([]byte(sampleNFe))

		assert.True(t, result.IsValid)
		assert.Equal(t, nfeKey, result.DocumentKey)
		assert.Equal(t, "4655", result.DocumentNumber)
		require.NotNil(t, result.IssueDate)
		assert.Empty(t, result.Errors)
	})

	t.Run("accepts transport waybill", func(t *testing.T) {
		result := v.Validate([]byte(sampleCTe))

		assert.True(t, result.IsValid)
		assert.Equal(t, cteKey, result.DocumentKey)
	})

	t.Run("flags malformed markup as INVALID_XML", func(t *testing.T) {
		result := v.Validate([]byte("<nfeProc><NFe><infNFe>"))

		assert.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, CodeInvalidXML, result.Errors[0].Code)
	})

	t.Run("flags empty input as INVALID_XML", func(t *testing.T) {
		result := v.Validate(nil)

		assert.False(t, result.IsValid)
		assert.Equal(t, CodeInvalidXML, result.Errors[0].Code)
	})

	t.Run("flags unknown root as INVALID_DOCUMENT", func(t *testing.T) {
		result := v.Validate([]byte("<order><id>1</id></order>"))

		assert.False(t, result.IsValid)
		assert.Equal(t, CodeInvalidDocument, result.Errors[0].Code)
	})

	t.Run("flags absent info block as MISSING_INFNFE", func(t *testing.T) {
		result := v.Validate([]byte("<nfeProc><NFe></NFe></nfeProc>"))

		assert.False(t, result.IsValid)
		assert.Equal(t, CodeMissingInfNFe, result.Errors[0].Code)
	})

	t.Run("flags short document key", func(t *testing.T) {
		result := v.Validate([]byte(`<NFe><infNFe Id="NFe123"><ide><nNF>1</nNF></ide></infNFe></NFe>`))

		assert.False(t, result.IsValid)
		assert.Equal(t, CodeMissingInfNFe, result.Errors[0].Code)
	})

	t.Run("warns on missing issue date without failing", func(t *testing.T) {
		result := v.Validate([]byte(`<NFe><infNFe Id="NFe` + nfeKey + `"><ide><nNF>1</nNF></ide><emit><xNome>X</xNome></emit></infNFe></NFe>`))

		assert.True(t, result.IsValid)
		assert.NotEmpty(t, result.Warnings)
	})
}

func TestNormalizerNormalize(t *testing.T) {
	n := NewNormalizer()

	t.Run("normalizes invoice with items", func(t *testing.T) {
		envelope, items, err := n.Normalize([]byte(sampleNFe))

		require.NoError(t, err)
		assert.Equal(t, fiscal.DocumentTypeNFe, envelope.Type)
		assert.Equal(t, nfeKey, envelope.AccessKey)
		assert.Equal(t, "4655", envelope.Number)
		assert.Equal(t, "Distribuidora Alfa LTDA", envelope.IssuerName)
		assert.Equal(t, "14200166000187", envelope.IssuerDocument)
		assert.True(t, envelope.TotalValue.Equal(decimal.NewFromFloat(60.00)))

		require.Len(t, items, 2)
		assert.Equal(t, "SKU-001", items[0].ProductCode)
		assert.Equal(t, "Agua Mineral 500ml", items[0].Description)
		assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(10)))
		assert.True(t, items[0].UnitValue.Equal(decimal.NewFromFloat(2.5)))
		assert.Equal(t, "22011000", items[0].NCM)
		assert.Equal(t, "5102", items[0].CFOP)
		assert.Equal(t, "00", items[0].TaxCode)
		assert.Equal(t, "102", items[1].TaxCode) // CSOSN variant
	})

	t.Run("classifies model 65 as consumer invoice", func(t *testing.T) {
		nfce := `<NFe><infNFe Id="NFe` + nfeKey + `"><ide><mod>65</mod><nNF>9</nNF><dhEmi>2026-03-10T14:00:00-03:00</dhEmi></ide><emit><xNome>Loja</xNome></emit></infNFe></NFe>`

		envelope, _, err := n.Normalize([]byte(nfce))

		require.NoError(t, err)
		assert.Equal(t, fiscal.DocumentTypeNFCe, envelope.Type)
	})

	t.Run("yields no items for logistics subtypes", func(t *testing.T) {
		envelope, items, err := n.Normalize([]byte(sampleCTe))

		require.NoError(t, err)
		assert.Equal(t, fiscal.DocumentTypeCTe, envelope.Type)
		assert.Empty(t, items)
		assert.True(t, envelope.TotalValue.Equal(decimal.NewFromFloat(350.00)))
	})

	t.Run("falls back to zero on unparsable numerics", func(t *testing.T) {
		raw := `<NFe><infNFe Id="NFe` + nfeKey + `"><ide><nNF>1</nNF><dhEmi>2026-03-10T14:00:00-03:00</dhEmi></ide><emit><xNome>X</xNome></emit><det><prod><cProd>A</cProd><xProd>Item</xProd><qCom>abc</qCom><vUnCom></vUnCom><vProd>10.00</vProd></prod></det><total><ICMSTot><vNF>not-a-number</vNF></ICMSTot></total></infNFe></NFe>`

		envelope, items, err := n.Normalize([]byte(raw))

		require.NoError(t, err)
		assert.True(t, envelope.TotalValue.IsZero())
		require.Len(t, items, 1)
		assert.True(t, items[0].Quantity.IsZero())
		assert.True(t, items[0].UnitValue.IsZero())
		assert.True(t, items[0].TotalValue.Equal(decimal.NewFromFloat(10.00)))
	})

	t.Run("is deterministic over the same bytes", func(t *testing.T) {
		env1, items1, err1 := n.Normalize([]byte(sampleNFe))
		env2, items2, err2 := n.Normalize([]byte(sampleNFe))

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, env1, env2)
		assert.Equal(t, items1, items2)
	})

	t.Run("fails on malformed input", func(t *testing.T) {
		_, _, err := n.Normalize([]byte("<broken"))

		require.Error(t, err)
	})
}

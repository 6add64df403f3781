package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	form, err := Decode(map[string]any{
		"website":           "https://example.com",
		"organization_name": "Example",
		"trixo": map[string]any{
			"primary_national_jurisdiction": "US",
			"conducts_customer_kyc":         "true",
			"kyc_threshold":                 "250",
		},
		"testnet": map[string]any{
			"endpoint":  "testnet.example.com:443",
			"dns_names": []any{"a.example.com"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", form.Website)
	assert.True(t, form.Trixo.ConductsCustomerKYC)
	assert.Equal(t, float64(250), form.Trixo.KYCThreshold)
	assert.Equal(t, []string{"a.example.com"}, form.Testnet.DNSNames)

	// Untouched sections keep their defaults
	assert.Equal(t, NameTypeLegal, form.Entity.Name.NameIdentifiers[0].LegalPersonNameIdentifierType)
	assert.NotNil(t, form.Mainnet)
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	_, err := Decode(map[string]any{"webiste": "https://example.com"})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Decode(map[string]any{"contacts": map[string]any{"legal": map[string]any{"fax": "1"}}})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestMerge_MergesObjectsAndReplacesLists(t *testing.T) {
	form := filledForm()
	err := form.Merge(map[string]any{
		"entity": map[string]any{
			"customer_number": "C-1",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "C-1", form.Entity.CustomerNumber)
	require.Len(t, form.Entity.Name.NameIdentifiers, 1, "nested objects are merged")
	assert.Equal(t, "Example VASP LLC", form.Entity.Name.NameIdentifiers[0].LegalPersonName)
	assert.NotNil(t, form.Entity.NationalIdentification)
	assert.Equal(t, "Example VASP", form.OrganizationName, "other top-level keys are kept")

	form.Contacts.Technical = &Contact{Name: "Alice"}
	require.NoError(t, form.Merge(map[string]any{
		"contacts": map[string]any{"technical": map[string]any{"email": "a@b.co"}},
	}))
	assert.Equal(t, "Alice", form.Contacts.Technical.Name)
	assert.Equal(t, "a@b.co", form.Contacts.Technical.Email)
	assert.Equal(t, "Lee Gal", form.Contacts.Legal.Name)

	require.NoError(t, form.Merge(map[string]any{
		"entity": map[string]any{
			"name": map[string]any{"name_identifiers": []any{}},
		},
	}))
	assert.Empty(t, form.Entity.Name.NameIdentifiers, "lists are replaced")
	assert.Equal(t, "C-1", form.Entity.CustomerNumber)
}

func TestMerge_FailureLeavesFormUnchanged(t *testing.T) {
	form := filledForm()
	before := form.Clone()

	err := form.Merge(map[string]any{"website": "x", "bogus": true})
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, before, form)
}

func TestSetPath(t *testing.T) {
	form := NewForm()

	require.NoError(t, form.SetPath("organization_name", "Acme"))
	require.NoError(t, form.SetPath("contacts.legal.email", "legal@acme.io"))
	require.NoError(t, form.SetPath("entity.geographic_addresses.0.town_name", "Berlin"))
	require.NoError(t, form.SetPath("entity.geographic_addresses.0.address_line.0", "Main St 1"))
	require.NoError(t, form.SetPath("trixo.must_comply_travel_rule", "true"))

	assert.Equal(t, "Acme", form.OrganizationName)
	assert.Equal(t, "legal@acme.io", form.Contacts.Legal.Email)
	require.Len(t, form.Entity.GeographicAddresses, 1)
	assert.Equal(t, "Berlin", form.Entity.GeographicAddresses[0].TownName)
	assert.Equal(t, AddressTypeBusiness, form.Entity.GeographicAddresses[0].AddressType)
	assert.Equal(t, []string{"Main St 1"}, form.Entity.GeographicAddresses[0].AddressLine)
	assert.True(t, form.Trixo.MustComplyTravelRule)
	assert.Equal(t, "no", form.Trixo.FinancialTransfersPermitted)

	assert.ErrorIs(t, form.SetPath("nickname", "x"), ErrInvalidPayload)
	assert.ErrorIs(t, form.SetPath("website.host", "x"), ErrInvalidPayload)
	assert.ErrorIs(t, form.SetPath("trixo.conducts_customer_kyc", "maybe"), ErrInvalidPayload)
}

package registration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/domain"
)

func filledForm() *RegistrationForm {
	form := NewForm()
	form.Website = "https://example.com"
	form.OrganizationName = "Example VASP"
	form.EstablishedOn = "2019-04-01"
	form.Entity.Name.NameIdentifiers[0].LegalPersonName = "Example VASP LLC"
	form.Entity.CountryOfRegistration = "US"
	form.Contacts.Legal = &Contact{Name: "Lee Gal", Email: "legal@example.com"}
	form.Trixo.PrimaryNationalJurisdiction = "US"
	form.Testnet.Endpoint = "testnet.example.com:443"
	form.State.Current = 3
	return form
}

func TestNewForm_Defaults(t *testing.T) {
	form := NewForm()

	require.Len(t, form.Entity.Name.NameIdentifiers, 1)
	assert.Equal(t, NameTypeLegal, form.Entity.Name.NameIdentifiers[0].LegalPersonNameIdentifierType)
	require.Len(t, form.Entity.GeographicAddresses, 1)
	assert.Equal(t, AddressTypeBusiness, form.Entity.GeographicAddresses[0].AddressType)
	assert.Equal(t, NationalIdentifierLEI, form.Entity.NationalIdentification.NationalIdentifierType)

	assert.NotNil(t, form.Contacts.Technical)
	assert.NotNil(t, form.Contacts.Administrative)
	assert.NotNil(t, form.Contacts.Legal)
	assert.NotNil(t, form.Contacts.Billing)

	assert.Equal(t, "no", form.Trixo.FinancialTransfersPermitted)
	assert.Equal(t, "no", form.Trixo.HasRequiredRegulatoryProgram)
	assert.Equal(t, float64(10), form.Trixo.KYCThreshold)
	assert.Equal(t, []string{"FATF Recommendation 16"}, form.Trixo.ApplicableRegulations)
	assert.Equal(t, float64(3000), form.Trixo.ComplianceThreshold)

	require.NotNil(t, form.State)
	assert.Equal(t, int32(1), form.State.Current)
}

func TestNormalize_FillsNilSubObjects(t *testing.T) {
	form := (&RegistrationForm{}).Normalize()

	assert.NotNil(t, form.VASPCategories)
	assert.NotNil(t, form.Entity.Name.NameIdentifiers)
	assert.NotNil(t, form.Entity.NationalIdentification)
	assert.NotNil(t, form.Contacts.Billing)
	assert.NotNil(t, form.Trixo.OtherJurisdictions)
	assert.NotNil(t, form.Testnet.DNSNames)
	assert.NotNil(t, form.Mainnet)
	assert.NotNil(t, form.State)

	data, err := json.Marshal(form)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
}

func TestClone_IsDeep(t *testing.T) {
	form := filledForm()
	cp := form.Clone()

	cp.Entity.Name.NameIdentifiers[0].LegalPersonName = "Other"
	cp.Contacts.Legal.Email = "other@example.com"
	cp.Testnet.DNSNames = append(cp.Testnet.DNSNames, "x.example.com")
	cp.State.Current = 1

	assert.Equal(t, "Example VASP LLC", form.Entity.Name.NameIdentifiers[0].LegalPersonName)
	assert.Equal(t, "legal@example.com", form.Contacts.Legal.Email)
	assert.Empty(t, form.Testnet.DNSNames)
	assert.Equal(t, int32(3), form.State.Current)
}

func TestReset_SectionLeavesSiblingsAlone(t *testing.T) {
	sections := []domain.Section{
		domain.SectionBasicDetails,
		domain.SectionLegalPerson,
		domain.SectionContacts,
		domain.SectionTRISA,
		domain.SectionTRIXO,
	}

	for _, section := range sections {
		t.Run(section.String(), func(t *testing.T) {
			form := filledForm()
			original := form.Clone()
			require.NoError(t, form.Reset(section))

			resetView, err := form.MarshalStep(section)
			require.NoError(t, err)
			defaultView, err := NewForm().MarshalStep(section)
			require.NoError(t, err)
			delete(resetView, FieldState)
			delete(defaultView, FieldState)
			assert.Equal(t, defaultView, resetView, "section must be back to defaults")

			for _, other := range sections {
				if other == section {
					continue
				}
				got, err := form.MarshalStep(other)
				require.NoError(t, err)
				want, err := original.MarshalStep(other)
				require.NoError(t, err)
				assert.Equal(t, want, got, "section %s must be untouched", other)
			}
			assert.Equal(t, int32(3), form.State.Current, "progress state survives a section reset")
		})
	}
}

func TestReset_All(t *testing.T) {
	form := filledForm()
	require.NoError(t, form.Reset(domain.SectionAll))
	assert.Equal(t, NewForm(), form)
	assert.Equal(t, int32(1), form.State.Current)

	assert.ErrorIs(t, form.Reset("payments"), domain.ErrUnknownSection)
}

func TestUpdate_CopiesOnlySection(t *testing.T) {
	form := NewForm()
	other := filledForm()

	require.NoError(t, form.Update(other, domain.SectionContacts))
	assert.Equal(t, "legal@example.com", form.Contacts.Legal.Email)
	assert.Empty(t, form.Website)
	assert.Equal(t, int32(1), form.State.Current)

	other.Contacts.Legal.Email = "changed@example.com"
	assert.Equal(t, "legal@example.com", form.Contacts.Legal.Email, "update must not alias the source")

	require.NoError(t, form.Update(other, domain.SectionAll))
	assert.Equal(t, "https://example.com", form.Website)
	assert.Equal(t, int32(3), form.State.Current)
}

func TestTruncate(t *testing.T) {
	form := filledForm()

	trisa, err := form.Truncate(domain.SectionTRISA)
	require.NoError(t, err)
	assert.Equal(t, "testnet.example.com:443", trisa.Testnet.Endpoint)
	assert.Empty(t, trisa.Website)
	assert.Nil(t, trisa.Entity)
	require.NotNil(t, trisa.State)
	assert.Equal(t, int32(3), trisa.State.Current)

	_, err = form.Truncate("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownSection)
}

func TestMarshalStep(t *testing.T) {
	form := filledForm()

	view, err := form.MarshalStep(domain.SectionBasicDetails)
	require.NoError(t, err)
	assert.Len(t, view, 6)
	assert.Equal(t, "Example VASP", view[FieldOrganizationName])
	assert.Contains(t, view, FieldState)
	assert.NotContains(t, view, FieldEntity)

	view, err = form.MarshalStep(domain.SectionTRISA)
	require.NoError(t, err)
	assert.Len(t, view, 3)

	all, err := form.MarshalStep(domain.SectionAll)
	require.NoError(t, err)
	assert.Len(t, all, 11)
}

// Package registration holds the typed TRISA registration document edited by the
// stepper, along with the section-scoped reset, update and view operations the
// wizard performs on it.
package registration

import (
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

// RegistrationForm is the document the wizard fills in. Every sub-object is always
// present once the form has been built with NewForm or normalized.
type RegistrationForm struct {
	Website          string   `json:"website"`
	BusinessCategory string   `json:"business_category"`
	VASPCategories   []string `json:"vasp_categories"`
	EstablishedOn    string   `json:"established_on"`
	OrganizationName string   `json:"organization_name"`

	Entity   *LegalPerson        `json:"entity"`
	Contacts *Contacts           `json:"contacts"`
	Trixo    *TRIXOQuestionnaire `json:"trixo"`
	Testnet  *NetworkDetails     `json:"testnet"`
	Mainnet  *NetworkDetails     `json:"mainnet"`

	State *domain.FormState `json:"state"`
}

// LegalPerson is the IVMS101 description of the registering entity.
type LegalPerson struct {
	Name                   *LegalPersonName        `json:"name"`
	GeographicAddresses    []*Address              `json:"geographic_addresses"`
	CustomerNumber         string                  `json:"customer_number"`
	NationalIdentification *NationalIdentification `json:"national_identification"`
	CountryOfRegistration  string                  `json:"country_of_registration"`
}

type LegalPersonName struct {
	NameIdentifiers         []*NameIdentifier `json:"name_identifiers"`
	LocalNameIdentifiers    []*NameIdentifier `json:"local_name_identifiers"`
	PhoneticNameIdentifiers []*NameIdentifier `json:"phonetic_name_identifiers"`
}

type NameIdentifier struct {
	LegalPersonName               string `json:"legal_person_name"`
	LegalPersonNameIdentifierType string `json:"legal_person_name_identifier_type"`
}

// IsZero is true when neither the name nor its type has been filled in.
func (n *NameIdentifier) IsZero() bool {
	return n == nil || (strings.TrimSpace(n.LegalPersonName) == "" && strings.TrimSpace(n.LegalPersonNameIdentifierType) == "")
}

type Address struct {
	AddressType        string   `json:"address_type"`
	AddressLine        []string `json:"address_line"`
	StreetName         string   `json:"street_name"`
	BuildingNumber     string   `json:"building_number"`
	BuildingName       string   `json:"building_name"`
	PostCode           string   `json:"post_code"`
	TownName           string   `json:"town_name"`
	CountrySubDivision string   `json:"country_sub_division"`
	Country            string   `json:"country"`
}

type NationalIdentification struct {
	NationalIdentifier     string `json:"national_identifier"`
	NationalIdentifierType string `json:"national_identifier_type"`
	CountryOfIssue         string `json:"country_of_issue"`
	RegistrationAuthority  string `json:"registration_authority"`
}

type Contacts struct {
	Technical      *Contact `json:"technical"`
	Administrative *Contact `json:"administrative"`
	Legal          *Contact `json:"legal"`
	Billing        *Contact `json:"billing"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// IsZero is true for a contact with no field filled in.
func (c *Contact) IsZero() bool {
	return c == nil || (strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.Phone) == "")
}

// TRIXOQuestionnaire captures the regulatory posture of the VASP.
type TRIXOQuestionnaire struct {
	PrimaryNationalJurisdiction  string          `json:"primary_national_jurisdiction"`
	PrimaryRegulator             string          `json:"primary_regulator"`
	OtherJurisdictions           []*Jurisdiction `json:"other_jurisdictions"`
	FinancialTransfersPermitted  string          `json:"financial_transfers_permitted"`
	HasRequiredRegulatoryProgram string          `json:"has_required_regulatory_program"`
	ConductsCustomerKYC          bool            `json:"conducts_customer_kyc"`
	KYCThreshold                 float64         `json:"kyc_threshold"`
	KYCThresholdCurrency         string          `json:"kyc_threshold_currency"`
	MustComplyTravelRule         bool            `json:"must_comply_travel_rule"`
	ApplicableRegulations        []string        `json:"applicable_regulations"`
	ComplianceThreshold          float64         `json:"compliance_threshold"`
	ComplianceThresholdCurrency  string          `json:"compliance_threshold_currency"`
	MustSafeguardPII             bool            `json:"must_safeguard_pii"`
	SafeguardsPII                bool            `json:"safeguards_pii"`
}

type Jurisdiction struct {
	Country       string `json:"country"`
	RegulatorName string `json:"regulator_name"`
	LicenseNumber string `json:"license_number"`
}

// NetworkDetails describes the TRISA endpoint on one network.
type NetworkDetails struct {
	Endpoint   string   `json:"endpoint"`
	CommonName string   `json:"common_name"`
	DNSNames   []string `json:"dns_names"`
}

// IsZero is true when nothing has been configured for the network.
func (n *NetworkDetails) IsZero() bool {
	return n == nil || (strings.TrimSpace(n.Endpoint) == "" && strings.TrimSpace(n.CommonName) == "" && len(n.DNSNames) == 0)
}

// NewForm returns a form populated with the defaults the wizard starts from.
func NewForm() *RegistrationForm {
	form := &RegistrationForm{BusinessCategory: BusinessEntity}
	form.Entity = newLegalPerson()
	form.Contacts = newContacts()
	form.Trixo = newTRIXO()
	form.Testnet = &NetworkDetails{DNSNames: []string{}}
	form.Mainnet = &NetworkDetails{DNSNames: []string{}}
	form.State = newFormState()
	form.VASPCategories = []string{}
	return form
}

func newLegalPerson() *LegalPerson {
	return &LegalPerson{
		Name: &LegalPersonName{
			NameIdentifiers: []*NameIdentifier{
				{LegalPersonNameIdentifierType: NameTypeLegal},
			},
			LocalNameIdentifiers:    []*NameIdentifier{},
			PhoneticNameIdentifiers: []*NameIdentifier{},
		},
		GeographicAddresses: []*Address{
			{AddressType: AddressTypeBusiness, AddressLine: []string{}},
		},
		NationalIdentification: &NationalIdentification{
			NationalIdentifierType: NationalIdentifierLEI,
		},
	}
}

func newContacts() *Contacts {
	return &Contacts{
		Technical:      &Contact{},
		Administrative: &Contact{},
		Legal:          &Contact{},
		Billing:        &Contact{},
	}
}

func newTRIXO() *TRIXOQuestionnaire {
	return &TRIXOQuestionnaire{
		OtherJurisdictions:           []*Jurisdiction{},
		FinancialTransfersPermitted:  "no",
		HasRequiredRegulatoryProgram: "no",
		KYCThreshold:                 10,
		KYCThresholdCurrency:         "USD",
		ApplicableRegulations:        []string{"FATF Recommendation 16"},
		ComplianceThreshold:          3000,
		ComplianceThresholdCurrency:  "USD",
	}
}

func newFormState() *domain.FormState {
	return domain.ToFormState(domain.NewStepperState())
}

// Normalize replaces every nil sub-object or slice with an empty one so that the
// document is always fully shaped. It returns the receiver for chaining.
func (r *RegistrationForm) Normalize() *RegistrationForm {
	if r.VASPCategories == nil {
		r.VASPCategories = []string{}
	}

	if r.Entity == nil {
		r.Entity = &LegalPerson{}
	}
	if r.Entity.Name == nil {
		r.Entity.Name = &LegalPersonName{}
	}
	if r.Entity.Name.NameIdentifiers == nil {
		r.Entity.Name.NameIdentifiers = []*NameIdentifier{}
	}
	if r.Entity.Name.LocalNameIdentifiers == nil {
		r.Entity.Name.LocalNameIdentifiers = []*NameIdentifier{}
	}
	if r.Entity.Name.PhoneticNameIdentifiers == nil {
		r.Entity.Name.PhoneticNameIdentifiers = []*NameIdentifier{}
	}
	r.Entity.Name.NameIdentifiers = compactNames(r.Entity.Name.NameIdentifiers)
	r.Entity.Name.LocalNameIdentifiers = compactNames(r.Entity.Name.LocalNameIdentifiers)
	r.Entity.Name.PhoneticNameIdentifiers = compactNames(r.Entity.Name.PhoneticNameIdentifiers)

	if r.Entity.GeographicAddresses == nil {
		r.Entity.GeographicAddresses = []*Address{}
	}
	addrs := r.Entity.GeographicAddresses[:0]
	for _, addr := range r.Entity.GeographicAddresses {
		if addr == nil {
			continue
		}
		if addr.AddressLine == nil {
			addr.AddressLine = []string{}
		}
		addrs = append(addrs, addr)
	}
	r.Entity.GeographicAddresses = addrs

	if r.Entity.NationalIdentification == nil {
		r.Entity.NationalIdentification = &NationalIdentification{}
	}

	if r.Contacts == nil {
		r.Contacts = &Contacts{}
	}
	for _, c := range []**Contact{&r.Contacts.Technical, &r.Contacts.Administrative, &r.Contacts.Legal, &r.Contacts.Billing} {
		if *c == nil {
			*c = &Contact{}
		}
	}

	if r.Trixo == nil {
		r.Trixo = &TRIXOQuestionnaire{}
	}
	if r.Trixo.OtherJurisdictions == nil {
		r.Trixo.OtherJurisdictions = []*Jurisdiction{}
	}
	jurisdictions := r.Trixo.OtherJurisdictions[:0]
	for _, j := range r.Trixo.OtherJurisdictions {
		if j != nil {
			jurisdictions = append(jurisdictions, j)
		}
	}
	r.Trixo.OtherJurisdictions = jurisdictions
	if r.Trixo.ApplicableRegulations == nil {
		r.Trixo.ApplicableRegulations = []string{}
	}

	for _, n := range []**NetworkDetails{&r.Testnet, &r.Mainnet} {
		if *n == nil {
			*n = &NetworkDetails{}
		}
		if (*n).DNSNames == nil {
			(*n).DNSNames = []string{}
		}
	}

	if r.State == nil {
		r.State = newFormState()
	}
	if r.State.Steps == nil {
		r.State.Steps = []*domain.FormStep{}
	}
	return r
}

func compactNames(names []*NameIdentifier) []*NameIdentifier {
	out := names[:0]
	for _, n := range names {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Clone returns a deep copy of the form.
func (r *RegistrationForm) Clone() *RegistrationForm {
	if r == nil {
		return nil
	}
	out := *r
	out.VASPCategories = cloneStrings(r.VASPCategories)
	out.Entity = r.Entity.clone()
	out.Contacts = r.Contacts.clone()
	out.Trixo = r.Trixo.clone()
	out.Testnet = r.Testnet.clone()
	out.Mainnet = r.Mainnet.clone()
	out.State = cloneFormState(r.State)
	return &out
}

func (p *LegalPerson) clone() *LegalPerson {
	if p == nil {
		return nil
	}
	out := *p
	if p.Name != nil {
		out.Name = &LegalPersonName{
			NameIdentifiers:         cloneNames(p.Name.NameIdentifiers),
			LocalNameIdentifiers:    cloneNames(p.Name.LocalNameIdentifiers),
			PhoneticNameIdentifiers: cloneNames(p.Name.PhoneticNameIdentifiers),
		}
	}
	if p.GeographicAddresses != nil {
		out.GeographicAddresses = make([]*Address, 0, len(p.GeographicAddresses))
		for _, addr := range p.GeographicAddresses {
			if addr == nil {
				out.GeographicAddresses = append(out.GeographicAddresses, nil)
				continue
			}
			cp := *addr
			cp.AddressLine = cloneStrings(addr.AddressLine)
			out.GeographicAddresses = append(out.GeographicAddresses, &cp)
		}
	}
	if p.NationalIdentification != nil {
		id := *p.NationalIdentification
		out.NationalIdentification = &id
	}
	return &out
}

func (c *Contacts) clone() *Contacts {
	if c == nil {
		return nil
	}
	return &Contacts{
		Technical:      c.Technical.clone(),
		Administrative: c.Administrative.clone(),
		Legal:          c.Legal.clone(),
		Billing:        c.Billing.clone(),
	}
}

func (c *Contact) clone() *Contact {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func (t *TRIXOQuestionnaire) clone() *TRIXOQuestionnaire {
	if t == nil {
		return nil
	}
	out := *t
	if t.OtherJurisdictions != nil {
		out.OtherJurisdictions = make([]*Jurisdiction, 0, len(t.OtherJurisdictions))
		for _, j := range t.OtherJurisdictions {
			if j == nil {
				out.OtherJurisdictions = append(out.OtherJurisdictions, nil)
				continue
			}
			cp := *j
			out.OtherJurisdictions = append(out.OtherJurisdictions, &cp)
		}
	}
	out.ApplicableRegulations = cloneStrings(t.ApplicableRegulations)
	return &out
}

func (n *NetworkDetails) clone() *NetworkDetails {
	if n == nil {
		return nil
	}
	out := *n
	out.DNSNames = cloneStrings(n.DNSNames)
	return &out
}

func cloneNames(in []*NameIdentifier) []*NameIdentifier {
	if in == nil {
		return nil
	}
	out := make([]*NameIdentifier, 0, len(in))
	for _, n := range in {
		if n == nil {
			out = append(out, nil)
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func cloneFormState(fs *domain.FormState) *domain.FormState {
	if fs == nil {
		return nil
	}
	out := *fs
	if fs.Steps != nil {
		out.Steps = make([]*domain.FormStep, 0, len(fs.Steps))
		for _, step := range fs.Steps {
			if step == nil {
				continue
			}
			cp := *step
			out.Steps = append(out.Steps, &cp)
		}
	}
	return &out
}

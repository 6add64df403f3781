package validation

import (
	"slices"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/aretw0/stepper/pkg/registration"
)

const (
	maxLegalNameLength      = 100
	maxCustomerNumberLength = 50
	maxLEILength            = 35
	maxAddressLines         = 7
	minContactNameLength    = 2
	dateLayout              = "2006-01-02"
)

// now is replaced in tests.
var now = time.Now

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validBasicDetails(form *registration.RegistrationForm) ValidationErrors {
	c := &collector{}

	if blank(form.OrganizationName) {
		c.add(registration.FieldOrganizationName, CodeRequired)
	}

	if website := strings.TrimSpace(form.Website); website == "" {
		c.add(registration.FieldWebsite, CodeRequired)
	} else if !validWebsite(website) {
		c.add(registration.FieldWebsite, CodeInvalidURL)
	}

	if established := strings.TrimSpace(form.EstablishedOn); established == "" {
		c.add(registration.FieldEstablishedOn, CodeRequired)
	} else if date, err := time.Parse(dateLayout, established); err != nil {
		c.add(registration.FieldEstablishedOn, CodeInvalidDate)
	} else if date.After(now()) {
		c.add(registration.FieldEstablishedOn, CodeFutureDate)
	}

	if category := strings.TrimSpace(form.BusinessCategory); category != "" && !slices.Contains(registration.BusinessCategories, category) {
		c.add(registration.FieldBusinessCategory, CodeUnknownValue, category)
	}

	for i, category := range form.VASPCategories {
		if blank(category) {
			c.addAt(registration.FieldVASPCategories, i, CodeRequired)
		}
	}
	return c.errs
}

func validLegalPerson(form *registration.RegistrationForm) ValidationErrors {
	c := &collector{}
	entity := form.Entity
	if entity == nil {
		c.add(registration.FieldEntity, CodeRequired)
		return c.errs
	}

	if entity.Name == nil {
		c.add(registration.FieldEntityName, CodeRequired)
	} else {
		checkNames(c, registration.FieldEntityNameIdentifiers, entity.Name.NameIdentifiers)
		checkNames(c, registration.FieldEntityLocalNameIdentifiers, entity.Name.LocalNameIdentifiers)
		checkNames(c, registration.FieldEntityPhoneticNameIdentifiers, entity.Name.PhoneticNameIdentifiers)

		hasLegalName := slices.ContainsFunc(entity.Name.NameIdentifiers, func(n *registration.NameIdentifier) bool {
			return n != nil && !blank(n.LegalPersonName) && strings.TrimSpace(n.LegalPersonNameIdentifierType) == registration.NameTypeLegal
		})
		if !hasLegalName {
			c.add(registration.FieldEntityNameIdentifiers, CodeNoLegalName)
		}
	}

	if len(entity.GeographicAddresses) == 0 {
		c.add(registration.FieldEntityGeographicAddresses, CodeNoAddress)
	}
	for i, addr := range entity.GeographicAddresses {
		if addr == nil {
			c.addAt(registration.FieldEntityGeographicAddresses, i, CodeRequired)
			continue
		}
		checkAddress(c, i, addr)
	}

	if number := strings.TrimSpace(entity.CustomerNumber); len(number) > maxCustomerNumberLength {
		c.add(registration.FieldEntityCustomerNumber, CodeTooLong, maxCustomerNumberLength)
	}

	checkNationalIdentification(c, entity.NationalIdentification)

	if country := strings.TrimSpace(entity.CountryOfRegistration); country == "" {
		c.add(registration.FieldEntityCountryOfRegistration, CodeRequired)
	} else if !validCountry(country) {
		c.add(registration.FieldEntityCountryOfRegistration, CodeInvalidCountry)
	}
	return c.errs
}

// checkNames applies the conditional pair rule: a name requires a type and a type
// requires a name. Entries with neither are ignored.
func checkNames(c *collector, field string, names []*registration.NameIdentifier) {
	for i, name := range names {
		if name.IsZero() {
			continue
		}

		legalName := strings.TrimSpace(name.LegalPersonName)
		nameType := strings.TrimSpace(name.LegalPersonNameIdentifierType)

		switch {
		case legalName == "":
			c.addAt(field+".legal_person_name", i, CodeRequired)
		case len(legalName) > maxLegalNameLength:
			c.addAt(field+".legal_person_name", i, CodeTooLong, maxLegalNameLength)
		}

		switch {
		case nameType == "":
			c.addAt(field+".legal_person_name_identifier_type", i, CodeRequired)
		case !slices.Contains(registration.NameTypes, nameType):
			c.addAt(field+".legal_person_name_identifier_type", i, CodeUnknownValue, nameType)
		}
	}
}

func checkAddress(c *collector, i int, addr *registration.Address) {
	switch addressType := strings.TrimSpace(addr.AddressType); {
	case addressType == "":
		c.addAt(registration.FieldEntityGeographicAddressType, i, CodeRequired)
	case !slices.Contains(registration.AddressTypes, addressType):
		c.addAt(registration.FieldEntityGeographicAddressType, i, CodeUnknownValue, addressType)
	}

	if len(addr.AddressLine) > maxAddressLines {
		c.addAt(registration.FieldEntityGeographicAddressLines, i, CodeTooManyLines, maxAddressLines)
	}

	hasLines := slices.ContainsFunc(addr.AddressLine, func(line string) bool { return !blank(line) })
	hasStreet := !blank(addr.StreetName) && (!blank(addr.BuildingNumber) || !blank(addr.BuildingName))
	if !hasLines && !hasStreet {
		c.addAt(registration.FieldEntityGeographicAddressLines, i, CodeAddressIncomplete)
	}

	if blank(addr.TownName) {
		c.addAt(registration.FieldEntityGeographicAddressTown, i, CodeRequired)
	}

	if country := strings.TrimSpace(addr.Country); country == "" {
		c.addAt(registration.FieldEntityGeographicAddressCountry, i, CodeRequired)
	} else if !validCountry(country) {
		c.addAt(registration.FieldEntityGeographicAddressCountry, i, CodeInvalidCountry)
	}
}

func checkNationalIdentification(c *collector, id *registration.NationalIdentification) {
	if id == nil {
		c.add(registration.FieldEntityNationalIdentification, CodeRequired)
		return
	}

	idType := strings.TrimSpace(id.NationalIdentifierType)
	identifier := strings.TrimSpace(id.NationalIdentifier)

	if identifier == "" {
		c.add(registration.FieldEntityNationalIdentificationID, CodeRequired)
	} else if idType == registration.NationalIdentifierLEI && len(identifier) > maxLEILength {
		c.add(registration.FieldEntityNationalIdentificationID, CodeTooLong, maxLEILength)
	}

	if idType == "" {
		c.add(registration.FieldEntityNationalIdentificationType, CodeRequired)
	} else if !slices.Contains(registration.NationalIdentifierTypes, idType) {
		c.add(registration.FieldEntityNationalIdentificationType, CodeUnknownValue, idType)
	}

	if !blank(id.CountryOfIssue) {
		c.add(registration.FieldEntityNationalIdentificationCountry, CodeCountryOfIssue)
	}

	authority := strings.TrimSpace(id.RegistrationAuthority)
	if idType == registration.NationalIdentifierLEI {
		if authority != "" {
			c.add(registration.FieldEntityNationalIdentificationRA, CodeRANotAllowed)
		}
	} else if authority == "" {
		c.add(registration.FieldEntityNationalIdentificationRA, CodeRequired)
	}
}

func validContacts(form *registration.RegistrationForm) ValidationErrors {
	c := &collector{}
	contacts := form.Contacts
	if contacts == nil {
		c.add(registration.FieldContacts, CodeRequired)
		return c.errs
	}

	checkContact(c, registration.FieldContactsTechnical, contacts.Technical, true)
	checkContact(c, registration.FieldContactsLegal, contacts.Legal, true)
	checkContact(c, registration.FieldContactsAdministrative, contacts.Administrative, false)
	checkContact(c, registration.FieldContactsBilling, contacts.Billing, false)
	return c.errs
}

// checkContact validates required contacts always and optional ones only once any of
// their fields has been filled in.
func checkContact(c *collector, field string, contact *registration.Contact, required bool) {
	if !required && contact.IsZero() {
		return
	}
	if contact == nil {
		contact = &registration.Contact{}
	}

	if name := strings.TrimSpace(contact.Name); name == "" {
		c.add(field+".name", CodeRequired)
	} else if len([]rune(name)) < minContactNameLength {
		c.add(field+".name", CodeTooShort, minContactNameLength)
	}

	if email := strings.TrimSpace(contact.Email); email == "" {
		c.add(field+".email", CodeRequired)
	} else if !govalidator.IsEmail(email) {
		c.add(field+".email", CodeInvalidEmail)
	}
}

func validTRISA(form *registration.RegistrationForm) ValidationErrors {
	c := &collector{}

	if form.Testnet.IsZero() && form.Mainnet.IsZero() {
		c.add(registration.FieldTestNet, CodeNoNetwork)
		c.add(registration.FieldMainNet, CodeNoNetwork)
		return c.errs
	}

	if !form.Testnet.IsZero() {
		checkNetwork(c, registration.FieldTestNet, form.Testnet)
	}

	if !form.Mainnet.IsZero() {
		checkNetwork(c, registration.FieldMainNet, form.Mainnet)

		var testnet string
		if form.Testnet != nil {
			testnet = strings.TrimSpace(form.Testnet.Endpoint)
		}
		mainnet := strings.TrimSpace(form.Mainnet.Endpoint)
		if mainnet != "" && strings.EqualFold(mainnet, testnet) {
			c.add(registration.FieldMainNetEndpoint, CodeDuplicateEndpoint)
		}
	}
	return c.errs
}

func checkNetwork(c *collector, field string, details *registration.NetworkDetails) {
	var host string
	if endpoint := strings.TrimSpace(details.Endpoint); endpoint == "" {
		c.add(field+".endpoint", CodeRequired)
	} else if h, ok := splitEndpoint(endpoint); !ok {
		c.add(field+".endpoint", CodeInvalidEndpoint)
	} else {
		host = h
	}

	if commonName := strings.TrimSpace(details.CommonName); commonName == "" {
		c.add(field+".common_name", CodeRequired)
	} else if !validHostname(commonName) {
		c.add(field+".common_name", CodeInvalidHostname)
	} else if host != "" && !govalidator.IsIP(host) && !strings.EqualFold(host, commonName) {
		c.add(field+".common_name", CodeCommonNameMismatch)
	}

	for i, name := range details.DNSNames {
		name = strings.TrimSpace(name)
		if name == "" {
			c.addAt(field+".dns_names", i, CodeRequired)
		} else if !validHostname(name) {
			c.addAt(field+".dns_names", i, CodeInvalidHostname)
		}
	}
}

// validCountry accepts ISO 3166 alpha-2 codes in either case.
func validCountry(code string) bool {
	return govalidator.IsISO3166Alpha2(strings.ToUpper(code))
}

// validWebsite accepts absolute http(s) URLs only; govalidator alone also accepts
// bare domains.
func validWebsite(website string) bool {
	lower := strings.ToLower(website)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	return govalidator.IsURL(website)
}

// splitEndpoint parses host:port. The port has no leading zero.
func splitEndpoint(endpoint string) (string, bool) {
	i := strings.LastIndex(endpoint, ":")
	if i <= 0 {
		return "", false
	}
	host, port := endpoint[:i], endpoint[i+1:]
	if port == "" || port[0] == '0' || !govalidator.IsPort(port) {
		return "", false
	}
	if !govalidator.IsIP(host) && !govalidator.IsDNSName(host) {
		return "", false
	}
	return host, true
}

// validHostname accepts DNS names with an optional leading wildcard label.
func validHostname(name string) bool {
	return len(name) <= 253 && govalidator.IsDNSName(strings.TrimPrefix(name, "*."))
}

func validTRIXO(form *registration.RegistrationForm) ValidationErrors {
	c := &collector{}
	trixo := form.Trixo
	if trixo == nil {
		c.add(registration.FieldTRIXO, CodeRequired)
		return c.errs
	}

	if jurisdiction := strings.TrimSpace(trixo.PrimaryNationalJurisdiction); jurisdiction == "" {
		c.add(registration.FieldTRIXOPrimaryNationalJurisdiction, CodeRequired)
	} else if !validCountry(jurisdiction) {
		c.add(registration.FieldTRIXOPrimaryNationalJurisdiction, CodeInvalidCountry)
	}

	if blank(trixo.PrimaryRegulator) {
		c.add(registration.FieldTRIXOPrimaryRegulator, CodeRequired)
	}

	switch permitted := strings.ToLower(strings.TrimSpace(trixo.FinancialTransfersPermitted)); permitted {
	case "":
		c.add(registration.FieldTRIXOFinancialTransfersPermitted, CodeRequired)
	case "yes", "no", "partially":
	default:
		c.add(registration.FieldTRIXOFinancialTransfersPermitted, CodeYesNoPartially)
	}

	for i, juris := range trixo.OtherJurisdictions {
		if juris == nil {
			continue
		}
		if country := strings.TrimSpace(juris.Country); country == "" {
			c.addAt(registration.FieldTRIXOOtherJurisdictionsCountry, i, CodeRequired)
		} else if !validCountry(country) {
			c.addAt(registration.FieldTRIXOOtherJurisdictionsCountry, i, CodeInvalidCountry)
		}
		if blank(juris.RegulatorName) {
			c.addAt(registration.FieldTRIXOOtherJurisdictionsRegulatorName, i, CodeRequired)
		}
	}

	switch program := strings.ToLower(strings.TrimSpace(trixo.HasRequiredRegulatoryProgram)); program {
	case "":
		c.add(registration.FieldTRIXOHasRequiredRegulatoryProgram, CodeRequired)
	case "yes", "no":
	default:
		c.add(registration.FieldTRIXOHasRequiredRegulatoryProgram, CodeYesNo)
	}

	if trixo.ConductsCustomerKYC {
		if trixo.KYCThreshold < 0 {
			c.add(registration.FieldTRIXOKYCThreshold, CodeNegative)
		}
		if blank(trixo.KYCThresholdCurrency) {
			c.add(registration.FieldTRIXOKYCThresholdCurrency, CodeRequired)
		}
	}

	if trixo.MustComplyTravelRule {
		for i, reg := range trixo.ApplicableRegulations {
			if blank(reg) {
				c.addAt(registration.FieldTRIXOApplicableRegulations, i, CodeRequired)
			}
		}
		if trixo.ComplianceThreshold < 0 {
			c.add(registration.FieldTRIXOComplianceThreshold, CodeNegative)
		}
		if blank(trixo.ComplianceThresholdCurrency) {
			c.add(registration.FieldTRIXOComplianceThresholdCurrency, CodeRequired)
		}
	}
	return c.errs
}

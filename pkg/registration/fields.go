package registration

// Field paths used in validation errors and in section-scoped views. They follow the
// JSON names of the registration document.
const (
	// Basic details
	FieldWebsite          = "website"
	FieldBusinessCategory = "business_category"
	FieldVASPCategories   = "vasp_categories"
	FieldEstablishedOn    = "established_on"
	FieldOrganizationName = "organization_name"

	// Legal person
	FieldEntity                              = "entity"
	FieldEntityName                          = "entity.name"
	FieldEntityNameIdentifiers               = "entity.name.name_identifiers"
	FieldEntityLocalNameIdentifiers          = "entity.name.local_name_identifiers"
	FieldEntityPhoneticNameIdentifiers       = "entity.name.phonetic_name_identifiers"
	FieldEntityGeographicAddresses           = "entity.geographic_addresses"
	FieldEntityGeographicAddressType         = "entity.geographic_addresses.address_type"
	FieldEntityGeographicAddressLines        = "entity.geographic_addresses.address_line"
	FieldEntityGeographicAddressTown         = "entity.geographic_addresses.town_name"
	FieldEntityGeographicAddressCountry      = "entity.geographic_addresses.country"
	FieldEntityCustomerNumber                = "entity.customer_number"
	FieldEntityNationalIdentification        = "entity.national_identification"
	FieldEntityNationalIdentificationID      = "entity.national_identification.national_identifier"
	FieldEntityNationalIdentificationType    = "entity.national_identification.national_identifier_type"
	FieldEntityNationalIdentificationCountry = "entity.national_identification.country_of_issue"
	FieldEntityNationalIdentificationRA      = "entity.national_identification.registration_authority"
	FieldEntityCountryOfRegistration         = "entity.country_of_registration"

	// Contacts
	FieldContacts               = "contacts"
	FieldContactsTechnical      = "contacts.technical"
	FieldContactsAdministrative = "contacts.administrative"
	FieldContactsLegal          = "contacts.legal"
	FieldContactsBilling        = "contacts.billing"

	// TRIXO questionnaire
	FieldTRIXO                                = "trixo"
	FieldTRIXOPrimaryNationalJurisdiction     = "trixo.primary_national_jurisdiction"
	FieldTRIXOPrimaryRegulator                = "trixo.primary_regulator"
	FieldTRIXOFinancialTransfersPermitted     = "trixo.financial_transfers_permitted"
	FieldTRIXOOtherJurisdictionsCountry       = "trixo.other_jurisdictions.country"
	FieldTRIXOOtherJurisdictionsRegulatorName = "trixo.other_jurisdictions.regulator_name"
	FieldTRIXOHasRequiredRegulatoryProgram    = "trixo.has_required_regulatory_program"
	FieldTRIXOKYCThreshold                    = "trixo.kyc_threshold"
	FieldTRIXOKYCThresholdCurrency            = "trixo.kyc_threshold_currency"
	FieldTRIXOApplicableRegulations           = "trixo.applicable_regulations"
	FieldTRIXOComplianceThreshold             = "trixo.compliance_threshold"
	FieldTRIXOComplianceThresholdCurrency     = "trixo.compliance_threshold_currency"

	// TRISA network details
	FieldTestNet           = "testnet"
	FieldTestNetEndpoint   = "testnet.endpoint"
	FieldTestNetCommonName = "testnet.common_name"
	FieldTestNetDNSNames   = "testnet.dns_names"
	FieldMainNet           = "mainnet"
	FieldMainNetEndpoint   = "mainnet.endpoint"
	FieldMainNetCommonName = "mainnet.common_name"
	FieldMainNetDNSNames   = "mainnet.dns_names"

	FieldState = "state"
)

// IVMS101 legal person name type codes.
const (
	NameTypeLegal   = "LEGL"
	NameTypeShort   = "SHRT"
	NameTypeTrading = "TRAD"
)

// IVMS101 address type codes.
const (
	AddressTypeBusiness    = "BIZZ"
	AddressTypeResidential = "HOME"
	AddressTypeGeographic  = "GEOG"
)

// IVMS101 national identifier type codes accepted for legal persons.
const (
	NationalIdentifierLEI   = "LEIX"
	NationalIdentifierRAID  = "RAID"
	NationalIdentifierMISC  = "MISC"
	NationalIdentifierTaxID = "TXID"
)

// Business categories of the registering organization.
const (
	BusinessPrivateOrganization = "PRIVATE_ORGANIZATION"
	BusinessGovernmentEntity    = "GOVERNMENT_ENTITY"
	BusinessEntity              = "BUSINESS_ENTITY"
	BusinessNonCommercialEntity = "NON_COMMERCIAL_ENTITY"
)

var (
	NameTypes               = []string{NameTypeLegal, NameTypeShort, NameTypeTrading}
	AddressTypes            = []string{AddressTypeBusiness, AddressTypeResidential, AddressTypeGeographic}
	NationalIdentifierTypes = []string{NationalIdentifierLEI, NationalIdentifierRAID, NationalIdentifierMISC, NationalIdentifierTaxID}
	BusinessCategories      = []string{BusinessPrivateOrganization, BusinessGovernmentEntity, BusinessEntity, BusinessNonCommercialEntity}
)

package validation

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the locales validation messages are translated to. English is the
// fallback for everything else.
var Supported = []language.Tag{language.English, language.German, language.French}

var messages = map[language.Tag]map[Code]string{
	language.English: {
		CodeRequired:           "This field is required",
		CodeInvalidURL:         "Must be a valid http or https URL",
		CodeInvalidDate:        "Must be a date formatted as YYYY-MM-DD",
		CodeFutureDate:         "Date cannot be in the future",
		CodeUnknownValue:       "Unknown value %q",
		CodeTooLong:            "Must be at most %d characters",
		CodeTooShort:           "Must be at least %d characters",
		CodeNoLegalName:        "At least one legal name (LEGL) is required",
		CodeNoAddress:          "At least one geographic address is required",
		CodeAddressIncomplete:  "Provide address lines or a street name with a building number or name",
		CodeTooManyLines:       "At most %d address lines are allowed",
		CodeInvalidCountry:     "Must be a 2-letter ISO country code",
		CodeRANotAllowed:       "Registration authority must be empty when the identifier is an LEI",
		CodeCountryOfIssue:     "Country of issue only applies to natural persons",
		CodeInvalidEmail:       "Must be a valid email address",
		CodeNoNetwork:          "Configure a TestNet or a MainNet endpoint",
		CodeInvalidEndpoint:    "Endpoint must be host:port with a numeric port",
		CodeCommonNameMismatch: "Common name must match the endpoint host",
		CodeInvalidHostname:    "Must be a valid host name",
		CodeDuplicateEndpoint:  "MainNet and TestNet endpoints must differ",
		CodeYesNo:              "Must be yes or no",
		CodeYesNoPartially:     "Must be yes, no or partially",
		CodeNegative:           "Must be zero or greater",
	},
	language.German: {
		CodeRequired:           "Dieses Feld ist erforderlich",
		CodeInvalidURL:         "Muss eine gültige http- oder https-URL sein",
		CodeInvalidDate:        "Muss ein Datum im Format JJJJ-MM-TT sein",
		CodeFutureDate:         "Das Datum darf nicht in der Zukunft liegen",
		CodeUnknownValue:       "Unbekannter Wert %q",
		CodeTooLong:            "Darf höchstens %d Zeichen lang sein",
		CodeTooShort:           "Muss mindestens %d Zeichen lang sein",
		CodeNoLegalName:        "Mindestens ein rechtlicher Name (LEGL) ist erforderlich",
		CodeNoAddress:          "Mindestens eine geografische Adresse ist erforderlich",
		CodeAddressIncomplete:  "Adresszeilen oder Straße mit Hausnummer oder Gebäudename angeben",
		CodeTooManyLines:       "Höchstens %d Adresszeilen sind erlaubt",
		CodeInvalidCountry:     "Muss ein zweistelliger ISO-Ländercode sein",
		CodeRANotAllowed:       "Die Registrierungsbehörde muss bei einer LEI leer sein",
		CodeCountryOfIssue:     "Das Ausstellungsland gilt nur für natürliche Personen",
		CodeInvalidEmail:       "Muss eine gültige E-Mail-Adresse sein",
		CodeNoNetwork:          "Einen TestNet- oder MainNet-Endpunkt konfigurieren",
		CodeInvalidEndpoint:    "Der Endpunkt muss host:port mit numerischem Port sein",
		CodeCommonNameMismatch: "Der Common Name muss dem Host des Endpunkts entsprechen",
		CodeInvalidHostname:    "Muss ein gültiger Hostname sein",
		CodeDuplicateEndpoint:  "MainNet- und TestNet-Endpunkt müssen sich unterscheiden",
		CodeYesNo:              "Muss ja oder nein sein",
		CodeYesNoPartially:     "Muss ja, nein oder teilweise sein",
		CodeNegative:           "Muss null oder größer sein",
	},
	language.French: {
		CodeRequired:           "Ce champ est obligatoire",
		CodeInvalidURL:         "Doit être une URL http ou https valide",
		CodeInvalidDate:        "Doit être une date au format AAAA-MM-JJ",
		CodeFutureDate:         "La date ne peut pas être dans le futur",
		CodeUnknownValue:       "Valeur inconnue %q",
		CodeTooLong:            "Doit contenir au plus %d caractères",
		CodeTooShort:           "Doit contenir au moins %d caractères",
		CodeNoLegalName:        "Au moins un nom légal (LEGL) est requis",
		CodeNoAddress:          "Au moins une adresse géographique est requise",
		CodeAddressIncomplete:  "Indiquez des lignes d'adresse ou une rue avec un numéro ou un nom de bâtiment",
		CodeTooManyLines:       "Au plus %d lignes d'adresse sont autorisées",
		CodeInvalidCountry:     "Doit être un code pays ISO à 2 lettres",
		CodeRANotAllowed:       "L'autorité d'enregistrement doit être vide pour un LEI",
		CodeCountryOfIssue:     "Le pays d'émission ne s'applique qu'aux personnes physiques",
		CodeInvalidEmail:       "Doit être une adresse e-mail valide",
		CodeNoNetwork:          "Configurez un point de terminaison TestNet ou MainNet",
		CodeInvalidEndpoint:    "Le point de terminaison doit être hôte:port avec un port numérique",
		CodeCommonNameMismatch: "Le nom commun doit correspondre à l'hôte du point de terminaison",
		CodeInvalidHostname:    "Doit être un nom d'hôte valide",
		CodeDuplicateEndpoint:  "Les points de terminaison MainNet et TestNet doivent être différents",
		CodeYesNo:              "Doit être oui ou non",
		CodeYesNoPartially:     "Doit être oui, non ou partiellement",
		CodeNegative:           "Doit être supérieur ou égal à zéro",
	},
}

var (
	cat     catalog.Catalog
	matcher = language.NewMatcher(Supported)
)

func init() {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range messages {
		for code, msg := range msgs {
			if err := builder.SetString(tag, string(code), msg); err != nil {
				panic(err)
			}
		}
	}
	cat = builder
}

// Localizer renders validation messages in one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewLocalizer picks the best supported language for the given preferences, which
// may be BCP 47 tags or Accept-Language header values.
func NewLocalizer(langs ...string) *Localizer {
	tag, _ := language.MatchStrings(matcher, langs...)
	base, _ := tag.Base()
	tag = language.Make(base.String())
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// DefaultLocalizer renders English messages.
var DefaultLocalizer = NewLocalizer("en")

// Tag is the language messages are rendered in.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Message renders the error's code in the localizer's language.
func (l *Localizer) Message(err *ValidationError) string {
	return l.printer.Sprintf(string(err.Code), err.Args...)
}

// Localize returns a copy of the errors with messages rendered in the localizer's
// language.
func (l *Localizer) Localize(errs ValidationErrors) ValidationErrors {
	if errs == nil {
		return nil
	}
	out := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		cp := *err
		cp.Message = l.Message(err)
		out = append(out, &cp)
	}
	return out
}

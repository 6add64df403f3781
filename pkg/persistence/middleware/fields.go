package middleware

import "github.com/aretw0/stepper/pkg/registration"

// personalFields returns pointers to the values identifying people or the entity
// in the form: contact details and national identifiers.
func personalFields(form *registration.RegistrationForm) []*string {
	var out []*string
	if form.Contacts != nil {
		for _, c := range []*registration.Contact{
			form.Contacts.Technical,
			form.Contacts.Administrative,
			form.Contacts.Legal,
			form.Contacts.Billing,
		} {
			if c != nil {
				out = append(out, &c.Name, &c.Email, &c.Phone)
			}
		}
	}
	if form.Entity != nil {
		out = append(out, &form.Entity.CustomerNumber)
		if id := form.Entity.NationalIdentification; id != nil {
			out = append(out, &id.NationalIdentifier)
		}
	}
	return out
}

package registration

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
)

// Reset restores only the subtree owned by the section to its defaults, leaving the
// rest of the document untouched. SectionAll (or none) resets the whole document,
// progress state included.
func (r *RegistrationForm) Reset(section domain.Section) error {
	defaults := NewForm()
	switch section {
	case domain.SectionNone, domain.SectionAll:
		*r = *defaults
		return nil
	case domain.SectionBasicDetails, domain.SectionLegalPerson, domain.SectionContacts,
		domain.SectionTRISA, domain.SectionTRIXO:
		r.copySection(defaults, section)
		return nil
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
	}
}

// Update copies the section from another form (PUT semantics: the whole subtree is
// replaced). For SectionAll every section and the progress state are copied.
func (r *RegistrationForm) Update(o *RegistrationForm, section domain.Section) error {
	if o == nil {
		return nil
	}
	src := o.Clone().Normalize()

	switch section {
	case domain.SectionNone, domain.SectionAll:
		*r = *src
		return nil
	case domain.SectionBasicDetails, domain.SectionLegalPerson, domain.SectionContacts,
		domain.SectionTRISA, domain.SectionTRIXO:
		r.copySection(src, section)
		return nil
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
	}
}

func (r *RegistrationForm) copySection(src *RegistrationForm, section domain.Section) {
	switch section {
	case domain.SectionBasicDetails:
		r.Website = src.Website
		r.BusinessCategory = src.BusinessCategory
		r.VASPCategories = src.VASPCategories
		r.EstablishedOn = src.EstablishedOn
		r.OrganizationName = src.OrganizationName
	case domain.SectionLegalPerson:
		r.Entity = src.Entity
	case domain.SectionContacts:
		r.Contacts = src.Contacts
	case domain.SectionTRIXO:
		r.Trixo = src.Trixo
	case domain.SectionTRISA:
		r.Testnet = src.Testnet
		r.Mainnet = src.Mainnet
	}
}

// Truncate returns a copy of the form holding only the section's data and the progress
// state. For SectionAll a full copy is returned.
func (r *RegistrationForm) Truncate(section domain.Section) (*RegistrationForm, error) {
	switch section {
	case domain.SectionNone, domain.SectionAll:
		return r.Clone(), nil
	case domain.SectionBasicDetails, domain.SectionLegalPerson, domain.SectionContacts,
		domain.SectionTRISA, domain.SectionTRIXO:
		out := &RegistrationForm{State: cloneFormState(r.State)}
		out.copySection(r.Clone(), section)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
	}
}

// SectionFields lists the top-level document keys owned by a section.
func SectionFields(section domain.Section) ([]string, error) {
	switch section {
	case domain.SectionBasicDetails:
		return []string{FieldWebsite, FieldBusinessCategory, FieldVASPCategories, FieldEstablishedOn, FieldOrganizationName}, nil
	case domain.SectionLegalPerson:
		return []string{FieldEntity}, nil
	case domain.SectionContacts:
		return []string{FieldContacts}, nil
	case domain.SectionTRIXO:
		return []string{FieldTRIXO}, nil
	case domain.SectionTRISA:
		return []string{FieldTestNet, FieldMainNet}, nil
	case domain.SectionNone, domain.SectionAll:
		return []string{
			FieldWebsite, FieldBusinessCategory, FieldVASPCategories, FieldEstablishedOn, FieldOrganizationName,
			FieldEntity, FieldContacts, FieldTRIXO, FieldTestNet, FieldMainNet,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
	}
}

// MarshalStep returns a generic view of the document that keeps only the keys of the
// section plus the progress state.
func (r *RegistrationForm) MarshalStep(section domain.Section) (map[string]any, error) {
	keep, err := SectionFields(section)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	var intermediate map[string]any
	if err := json.Unmarshal(data, &intermediate); err != nil {
		return nil, err
	}

	toKeep := map[string]struct{}{FieldState: {}}
	for _, key := range keep {
		toKeep[key] = struct{}{}
	}
	for key := range intermediate {
		if _, ok := toKeep[key]; !ok {
			delete(intermediate, key)
		}
	}
	return intermediate, nil
}

// MarshalStepJSON is MarshalStep encoded as JSON.
func (r *RegistrationForm) MarshalStepJSON(section domain.Section) ([]byte, error) {
	view, err := r.MarshalStep(section)
	if err != nil {
		return nil, err
	}
	return json.Marshal(view)
}

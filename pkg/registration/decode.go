package registration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrInvalidPayload is returned when a loosely-typed payload cannot be decoded into
// the registration document (unknown keys, incompatible types).
var ErrInvalidPayload = errors.New("invalid registration payload")

// Decode builds a form from a loosely-typed payload (a decoded JSON body or HTML form
// values) on top of the defaults returned by NewForm.
func Decode(values map[string]any) (*RegistrationForm, error) {
	form := NewForm()
	if err := form.Merge(values); err != nil {
		return nil, err
	}
	return form, nil
}

// Merge decodes the payload onto the form. Nested objects are merged field by
// field, so keys missing from the payload keep their value, while lists are
// replaced as a whole. On error the form is left unchanged.
func (r *RegistrationForm) Merge(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}

	next := r.Clone()
	if next == nil {
		next = NewForm()
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           next,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	*r = *next.Normalize()
	return nil
}

// SetPath assigns a single value addressed by a dotted path, e.g.
// "entity.geographic_addresses.0.town_name" or "contacts.legal.email". Numeric
// segments index into lists, growing them as needed.
func (r *RegistrationForm) SetPath(path string, value any) error {
	segments := strings.Split(strings.TrimSpace(path), ".")
	if len(segments) == 0 || segments[0] == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPayload)
	}

	view, err := r.MarshalStep("")
	if err != nil {
		return err
	}

	root := segments[0]
	current, ok := view[root]
	if !ok {
		return fmt.Errorf("%w: unknown field %q", ErrInvalidPayload, root)
	}

	updated, err := setIn(current, segments[1:], value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, path, err)
	}
	return r.Merge(map[string]any{root: updated})
}

func setIn(node any, path []string, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}

	key := path[0]
	if idx, err := strconv.Atoi(key); err == nil {
		if idx < 0 {
			return nil, fmt.Errorf("negative index %d", idx)
		}
		list, _ := node.([]any)
		if node != nil && list == nil {
			return nil, fmt.Errorf("%q is not a list", key)
		}
		for len(list) <= idx {
			list = append(list, nil)
		}
		child, err := setIn(list[idx], path[1:], value)
		if err != nil {
			return nil, err
		}
		list[idx] = child
		return list, nil
	}

	obj, _ := node.(map[string]any)
	if node != nil && obj == nil {
		return nil, fmt.Errorf("cannot set %q on a scalar", key)
	}
	if obj == nil {
		obj = make(map[string]any)
	}
	child, err := setIn(obj[key], path[1:], value)
	if err != nil {
		return nil, err
	}
	obj[key] = child
	return obj, nil
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

func TestMessagesCoverEveryCode(t *testing.T) {
	english := messages[language.English]
	for tag, msgs := range messages {
		assert.Len(t, msgs, len(english), "catalog %s is incomplete", tag)
		for code := range english {
			assert.Contains(t, msgs, code, "catalog %s misses %s", tag, code)
		}
	}
}

func TestNewLocalizer(t *testing.T) {
	tests := []struct {
		prefs []string
		want  language.Tag
	}{
		{nil, language.English},
		{[]string{"de-CH"}, language.German},
		{[]string{"fr-FR,fr;q=0.9,en;q=0.8"}, language.French},
		{[]string{"ja"}, language.English},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want.String(), NewLocalizer(tt.prefs...).Tag().String(), "prefs %v", tt.prefs)
	}
}

func TestLocalize(t *testing.T) {
	schema, err := GetSchema(domain.StepBasicDetails)
	require.NoError(t, err)

	form := registration.NewForm()
	verrs, ok := AsValidationErrors(schema.Validate(form))
	require.True(t, ok)

	first := verrs[0]
	assert.Equal(t, registration.FieldOrganizationName, first.Field)
	assert.Equal(t, "This field is required", first.Message)

	german := NewLocalizer("de").Localize(verrs)
	assert.Equal(t, "Dieses Feld ist erforderlich", german[0].Message)
	assert.Equal(t, "This field is required", verrs[0].Message, "localizing returns a copy")

	tooLong := &ValidationError{Code: CodeTooLong, Args: []any{50}}
	assert.Equal(t, "Doit contenir au plus 50 caractères", NewLocalizer("fr").Message(tooLong))
}

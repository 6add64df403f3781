package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/persistence/middleware"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func personalForm() *registration.RegistrationForm {
	form := registration.NewForm()
	form.OrganizationName = "Acme VASP"
	form.Contacts.Technical.Name = "Ada Lovelace"
	form.Contacts.Technical.Email = "ada@acme.example"
	form.Contacts.Technical.Phone = "+44 20 7946 0000"
	form.Entity.NationalIdentification.NationalIdentifier = "5493001KJTIIGC8Y1R12"
	return form
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunStepperCacheContract(t, mw(memory.NewCache()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewCache()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	ctx := context.Background()
	form := personalForm()
	require.NoError(t, secure.SaveForm(ctx, "s1", form))

	// The caller's form is untouched.
	assert.Equal(t, "ada@acme.example", form.Contacts.Technical.Email)

	stored, err := underlying.LoadForm(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Contacts.Technical.Email, "enc:v1:"))
	assert.True(t, strings.HasPrefix(stored.Entity.NationalIdentification.NationalIdentifier, "enc:v1:"))
	assert.Equal(t, "Acme VASP", stored.OrganizationName)
	assert.Empty(t, stored.Contacts.Billing.Email, "empty values stay empty")

	loaded, err := secure.LoadForm(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, form, loaded)
}

func TestEncryptionMiddleware_PlaintextPassesThrough(t *testing.T) {
	underlying := memory.NewCache()
	ctx := context.Background()
	require.NoError(t, underlying.SaveForm(ctx, "s1", personalForm()))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	loaded, err := secure.LoadForm(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ada@acme.example", loaded.Contacts.Technical.Email)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewCache()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	ctx := context.Background()
	require.NoError(t, secureOld.SaveForm(ctx, "s1", personalForm()))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.LoadForm(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", loaded.Contacts.Technical.Name)

	require.NoError(t, secureNew.SaveForm(ctx, "s1", loaded))
	_, err = secureOld.LoadForm(ctx, "s1")
	assert.Error(t, err, "old key alone cannot read values sealed with the new key")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

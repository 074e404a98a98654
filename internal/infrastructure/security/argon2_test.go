package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashAndVerify(t *testing.T) {
	hasher := NewArgon2Hasher(Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})

	encoded, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := hasher.Verify("s3cret-password", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2HashesAreSalted(t *testing.T) {
	hasher := NewArgon2Hasher(Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	a, err := hasher.Hash("same-password")
	require.NoError(t, err)
	b, err := hasher.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArgon2VerifyMalformedHash(t *testing.T) {
	hasher := NewArgon2Hasher(DefaultArgon2Params())

	for _, encoded := range []string{"", "plaintext", "$argon2id$v=19$garbage", "$bcrypt$v=19$m=1,t=1,p=1$AAAA$AAAA"} {
		ok, err := hasher.Verify("anything", encoded)
		assert.ErrorIs(t, err, ErrMalformedHash, "hash %q", encoded)
		assert.False(t, ok)
	}
}

func TestCodeGenerator(t *testing.T) {
	gen := NewCodeGenerator()

	code, err := gen.Generate(64, "alphanumeric")
	require.NoError(t, err)
	assert.Len(t, code, 64)

	sms, err := gen.Generate(5, "digits")
	require.NoError(t, err)
	require.Len(t, sms, 5)
	for _, r := range sms {
		assert.True(t, r >= '0' && r <= '9', "digit code contains %q", r)
	}

	_, err = gen.Generate(0, "digits")
	assert.Error(t, err)
}

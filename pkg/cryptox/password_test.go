package cryptox_test

import (
	"path/filepath"
	"testing"

	"github.com/q360hq/q360/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Use a throwaway pepper so tests never touch a real pepper file.
	cryptox.SetPepperPath(filepath.Join("testdata", "pepper"))
	m.Run()
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := cryptox.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$v=19$")

	require.NoError(t, cryptox.VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, cryptox.VerifyPassword("wrong password", hash), cryptox.ErrPasswordMismatch)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	require.Error(t, cryptox.VerifyPassword("pw", "not-a-phc-hash"))
	require.Error(t, cryptox.VerifyPassword("pw", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	h1, err := cryptox.HashPassword("pw")
	require.NoError(t, err)
	h2, err := cryptox.HashPassword("pw")
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

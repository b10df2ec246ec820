package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func clearAuthEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvMSToken, "")
	t.Setenv(EnvSessionID, "")
	t.Setenv(EnvUserAgent, "")
}

func TestManagerStoreRetrieveDelete(t *testing.T) {
	clearAuthEnv(t)
	store := NewMockStore()
	m := NewManagerWithStores(store, NewEnvironmentStore())

	account := &Account{Name: "research", MSToken: "ms_token_value_123456", UserAgent: "TestAgent/1.0"}
	require.NoError(t, m.Store(account))
	assert.False(t, account.LastModified.IsZero())

	got, err := m.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, "ms_token_value_123456", got.MSToken)
	assert.Equal(t, "TestAgent/1.0", got.UserAgent)

	accounts, err := m.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, m.Delete("research"))
	assert.Equal(t, 0, store.Count())

	_, err = m.Retrieve("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = m.Delete("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreValidation(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())

	assert.Error(t, m.Store(&Account{MSToken: "x"}))
	assert.Error(t, m.Store(&Account{Name: "empty"}))
	assert.NoError(t, m.Store(&Account{Name: "logged-in", SessionID: "abc"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	m := NewManagerWithStores(broken, working)

	require.NoError(t, m.Store(&Account{Name: "a", MSToken: "t"}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())

	working.StoreError = errors.New("disk full")
	err := m.Store(&Account{Name: "b", MSToken: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestManagerListNewestFirst(t *testing.T) {
	clearAuthEnv(t)
	a, b := NewMockStore(), NewMockStore()
	now := time.Now()
	require.NoError(t, a.Store(&Account{Name: "old", MSToken: "1", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, a.Store(&Account{Name: "shared", MSToken: "stale", LastModified: now.Add(-2 * time.Hour)}))
	require.NoError(t, b.Store(&Account{Name: "shared", MSToken: "fresh", LastModified: now}))

	m := NewManagerWithStores(a, b)
	accounts, err := m.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "shared", accounts[0].Name)
	assert.Equal(t, "fresh", accounts[0].MSToken)
	assert.Equal(t, "old", accounts[1].Name)

	def, err := m.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "shared", def.Name)
}

func TestResolvePrefersEnvironment(t *testing.T) {
	clearAuthEnv(t)
	store := NewMockStore()
	require.NoError(t, store.Store(&Account{Name: "saved", MSToken: "saved-token", LastModified: time.Now()}))
	m := NewManagerWithStores(store, NewEnvironmentStore())

	acc, err := m.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "saved", acc.Name)

	t.Setenv(EnvMSToken, "env-token")
	acc, err = m.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, EnvAccountName, acc.Name)
	assert.Equal(t, "env-token", acc.MSToken)

	acc, err = m.Resolve("saved")
	require.NoError(t, err)
	assert.Equal(t, "saved-token", acc.MSToken)
}

func TestRetrieveDefaultWithoutAccounts(t *testing.T) {
	clearAuthEnv(t)
	m := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())
	_, err := m.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(EnvPassphrase, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".passphrase"))

	_, err = store.Retrieve("nobody")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Name: "one", MSToken: "secret_ms_token_one"}))
	require.NoError(t, store.Store(&Account{Name: "two", SessionID: "secret_session_two"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret_ms_token_one")
	assert.NotContains(t, string(raw), "secret_session_two")

	// a second store over the same file reuses the saved passphrase
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Retrieve("one")
	require.NoError(t, err)
	assert.Equal(t, "secret_ms_token_one", got.MSToken)

	accounts, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
	assert.True(t, reopened.Exists("two"))

	require.NoError(t, reopened.Delete("one"))
	require.NoError(t, reopened.Delete("two"))
	assert.NoFileExists(t, path)
	assert.ErrorIs(t, reopened.Delete("two"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(EnvPassphrase, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "one", MSToken: "t"}))

	t.Setenv(EnvPassphrase, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("one")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

func TestEnvironmentStore(t *testing.T) {
	clearAuthEnv(t)
	store := NewEnvironmentStore()

	assert.False(t, store.Exists(""))
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	t.Setenv(EnvMSToken, "token")
	t.Setenv(EnvUserAgent, "UA/1")
	acc, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, EnvAccountName, acc.Name)
	assert.Equal(t, "token", acc.MSToken)
	assert.Equal(t, "UA/1", acc.UserAgent)

	assert.ErrorIs(t, store.Store(acc), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(EnvAccountName), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "a", MSToken: "ta"}))
	require.NoError(t, store.Store(&Account{Name: "b", MSToken: "tb"}))
	assert.True(t, store.Exists("a"))

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, store.Delete("a"))
	assert.False(t, store.Exists("a"))
	assert.ErrorIs(t, store.Delete("a"), ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "b", accounts[0].Name)
}

func TestSanitizeAccount(t *testing.T) {
	acc := &Account{Name: "n", MSToken: "abcdefghijklmnop", SessionID: "short"}
	s := SanitizeAccount(acc)
	assert.Equal(t, "n", s.Name)
	assert.Equal(t, "abcd...mnop", s.MSToken)
	assert.Equal(t, "********", s.SessionID)
	assert.Equal(t, "", SanitizeAccount(&Account{}).SessionID)
	assert.Nil(t, SanitizeAccount(nil))
}

func TestWriteCookieGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteCookieGuide(&buf)
	assert.Contains(t, buf.String(), "msToken")
	assert.Contains(t, buf.String(), "sessionid")
}

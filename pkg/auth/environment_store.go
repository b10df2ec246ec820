package auth

import (
	"os"
	"time"
)

const (
	EnvMSToken   = "TAGHARVEST_MS_TOKEN"
	EnvSessionID = "TAGHARVEST_SESSION_ID"
	EnvUserAgent = "TAGHARVEST_USER_AGENT"

	// EnvAccountName is the name reported for environment credentials
	EnvAccountName = "env"
)

// EnvironmentStore reads a single read-only account from the environment
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account; any name matches
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	msToken := os.Getenv(EnvMSToken)
	sessionID := os.Getenv(EnvSessionID)
	if msToken == "" && sessionID == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = EnvAccountName
	}
	return &Account{
		Name:         name,
		MSToken:      msToken,
		SessionID:    sessionID,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvMSToken) != "" || os.Getenv(EnvSessionID) != ""
}

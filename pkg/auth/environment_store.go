package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads a token from FOLLOWSYNC_TOKEN or TOKEN. It is
// read-only and serves whichever username is asked for.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

func envToken() string {
	if t := os.Getenv("FOLLOWSYNC_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("TOKEN")
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token for username
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	token := envToken()
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	if username == "" {
		username = os.Getenv("FOLLOWSYNC_USERNAME")
	}
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	if username == "" {
		username = "default"
	}

	return &Account{
		Username:     username,
		Token:        token,
		LastModified: time.Time{},
	}, nil
}

// List returns a single account if a token is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token exists
func (e *EnvironmentStore) Exists(string) bool {
	return envToken() != ""
}

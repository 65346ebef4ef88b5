package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	vaultVersion     = 2
	vaultSaltSize    = 32
	vaultKeySize     = 32
	vaultIterations  = 100000
	passphraseEnvVar = "FOLLOWSYNC_PASSPHRASE"
	keyFileName      = "credentials.key"
)

// EncryptedFileStore keeps one AES-GCM sealed token per GitHub username in
// a JSON vault file. Usernames stay readable; each token is sealed with its
// username as additional data, so an entry copied under another name fails
// to open. The key is derived with PBKDF2-SHA256 from FOLLOWSYNC_PASSPHRASE,
// or from a random key file created next to the vault.
type EncryptedFileStore struct {
	path       string
	passphrase []byte

	mu sync.Mutex
}

type vaultFile struct {
	Version int                    `json:"version"`
	Salt    string                 `json:"salt"`
	Tokens  map[string]sealedToken `json:"tokens"`
}

type sealedToken struct {
	Sealed    string    `json:"sealed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEncryptedFileStore opens the vault at path. The file itself is created
// by the first Store.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := vaultPassphrase(filepath.Join(filepath.Dir(path), keyFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Name() string { return "encrypted_file" }

// Store seals account's token under its username
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	if err := ValidateToken(account.Token); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return err
	}
	if vault.Salt == "" {
		salt := make([]byte, vaultSaltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		vault.Salt = base64.StdEncoding.EncodeToString(salt)
	}

	aead, err := e.gcm(vault.Salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	updated := account.LastModified
	if updated.IsZero() {
		updated = time.Now()
	}
	vault.Tokens[account.Username] = sealedToken{
		Sealed:    base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, []byte(account.Token), []byte(account.Username))),
		UpdatedAt: updated.UTC(),
	}
	return e.write(vault)
}

// Retrieve opens the token sealed for username
func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return nil, err
	}
	entry, ok := vault.Tokens[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return e.open(vault.Salt, username, entry)
}

// List opens every token in the vault, sorted by username
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return nil, err
	}

	usernames := make([]string, 0, len(vault.Tokens))
	for u := range vault.Tokens {
		usernames = append(usernames, u)
	}
	sort.Strings(usernames)

	accounts := make([]*Account, 0, len(usernames))
	for _, u := range usernames {
		account, err := e.open(vault.Salt, u, vault.Tokens[u])
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Delete drops username's entry. The vault file is removed with its last entry.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return err
	}
	if _, ok := vault.Tokens[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(vault.Tokens, username)

	if len(vault.Tokens) == 0 {
		return os.Remove(e.path)
	}
	return e.write(vault)
}

// Exists reports whether a token is sealed for username, without opening it
func (e *EncryptedFileStore) Exists(username string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return false
	}
	_, ok := vault.Tokens[username]
	return ok
}

// read loads the vault; a missing file is an empty vault
func (e *EncryptedFileStore) read() (*vaultFile, error) {
	content, err := os.ReadFile(e.path)
	if errors.Is(err, os.ErrNotExist) {
		return &vaultFile{Version: vaultVersion, Tokens: map[string]sealedToken{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	var vault vaultFile
	if err := json.Unmarshal(content, &vault); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}
	if vault.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported vault version %d", vault.Version)
	}
	if vault.Tokens == nil {
		vault.Tokens = map[string]sealedToken{}
	}
	return &vault, nil
}

// write replaces the vault atomically
func (e *EncryptedFileStore) write(vault *vaultFile) error {
	content, err := json.MarshalIndent(vault, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode vault: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	return nil
}

func (e *EncryptedFileStore) gcm(encodedSalt string) (cipher.AEAD, error) {
	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	block, err := aes.NewCipher(pbkdf2.Key(e.passphrase, salt, vaultIterations, vaultKeySize, sha256.New))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// open decrypts entry and checks that it still holds a usable token
func (e *EncryptedFileStore) open(salt, username string, entry sealedToken) (*Account, error) {
	aead, err := e.gcm(salt)
	if err != nil {
		return nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(entry.Sealed)
	if err != nil || len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("corrupt token entry for %s", username)
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	token, err := aead.Open(nil, nonce, ciphertext, []byte(username))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token for %s: %w", username, err)
	}
	if err := ValidateToken(string(token)); err != nil {
		return nil, fmt.Errorf("stored token for %s: %w", username, err)
	}

	return &Account{Username: username, Token: string(token), LastModified: entry.UpdatedAt}, nil
}

// vaultPassphrase returns FOLLOWSYNC_PASSPHRASE, or the contents of keyFile,
// creating it with random bytes on first use
func vaultPassphrase(keyFile string) ([]byte, error) {
	if pass := os.Getenv(passphraseEnvVar); pass != "" {
		return []byte(pass), nil
	}

	if content, err := os.ReadFile(keyFile); err == nil && len(content) > 0 {
		return content, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	key := []byte(base64.RawURLEncoding.EncodeToString(raw))
	if err := os.WriteFile(keyFile, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to save key file: %w", err)
	}
	return key, nil
}

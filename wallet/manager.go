// Package wallet keeps hopper's signing keys in an encrypted vault and
// derives EVM accounts from them.
package wallet

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/crypto"
)

const (
	// SessionDuration is how long an unlock lasts.
	SessionDuration = 30 * time.Minute

	vaultFile   = "wallet.vault"
	sessionFile = "session.json"
)

var (
	ErrLocked          = errors.New("wallet is locked. Run 'hopper unlock' first")
	ErrNoWallet        = errors.New("no wallet found. Run 'hopper init' to create a new wallet")
	ErrWalletExists    = errors.New("wallet already exists")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrNoMnemonic      = errors.New("wallet was imported from a private key and has no recovery phrase")
	ErrAccountIndex    = errors.New("an imported private key has a single account")
)

// SessionData is the unlocked secret cached between invocations.
type SessionData struct {
	Token      string        `json:"token"`
	Secret     crypto.Secret `json:"secret"`
	Expiration time.Time     `json:"expiration"`
}

// Manager handles vault storage, sessions and key derivation.
type Manager struct {
	vaultPath   string
	sessionPath string
	vault       *crypto.Vault
	secret      crypto.Secret
	mu          sync.Mutex
	unlocked    bool
	now         func() time.Time
}

// NewManager keeps its files under dataDir.
func NewManager(dataDir string) *Manager {
	return &Manager{
		vaultPath:   filepath.Join(dataDir, vaultFile),
		sessionPath: filepath.Join(dataDir, sessionFile),
		now:         time.Now,
	}
}

func generateSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

func (m *Manager) createSession() error {
	token, err := generateSessionToken()
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}

	data, err := json.Marshal(SessionData{
		Token:      token,
		Secret:     m.secret,
		Expiration: m.now().Add(SessionDuration),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(m.sessionPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// loadSession restores an unexpired session. Corrupt or stale files are removed.
func (m *Manager) loadSession() bool {
	data, err := os.ReadFile(m.sessionPath)
	if err != nil {
		return false
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil || session.Secret.Empty() {
		os.Remove(m.sessionPath)
		return false
	}
	if m.now().After(session.Expiration) {
		os.Remove(m.sessionPath)
		return false
	}

	m.secret = session.Secret
	m.unlocked = true
	return true
}

// Initialize creates a wallet from a fresh 24 word mnemonic and returns it.
func (m *Manager) Initialize(password string) (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	if err := m.store(crypto.Secret{Mnemonic: mnemonic}, password); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// ImportFromMnemonic creates the wallet from an existing BIP39 phrase.
func (m *Manager) ImportFromMnemonic(mnemonic, password string) error {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return m.store(crypto.Secret{Mnemonic: mnemonic}, password)
}

// ImportPrivateKey creates a single-account wallet from a hex key.
func (m *Manager) ImportPrivateKey(privateKey, password string) error {
	key, err := ethereum.ParsePrivateKey(privateKey)
	if err != nil {
		return err
	}
	return m.store(crypto.Secret{PrivateKey: hex.EncodeToString(ethcrypto.FromECDSA(key))}, password)
}

func (m *Manager) store(secret crypto.Secret, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.VaultExists() {
		return ErrWalletExists
	}

	vault, err := crypto.NewVault(secret, password)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.vaultPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := m.saveVault(vault); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}

	m.vault = vault
	m.secret = secret
	m.unlocked = true

	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Unlock decrypts the vault and starts a session.
func (m *Manager) Unlock(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadSession() {
		return nil
	}

	if m.vault == nil {
		vault, err := m.loadVault()
		if err != nil {
			return err
		}
		m.vault = vault
	}

	secret, err := m.vault.Decrypt(password)
	if err != nil {
		return fmt.Errorf("failed to decrypt vault: %w", err)
	}

	m.secret = secret
	m.unlocked = true

	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Lock clears the secret from memory and ends the session.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unlocked = false
	m.secret = crypto.Secret{}
	os.Remove(m.sessionPath)
}

func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlockedLocked()
}

func (m *Manager) unlockedLocked() bool {
	if m.unlocked && !m.secret.Empty() {
		return true
	}
	return m.loadSession()
}

// Mnemonic returns the recovery phrase of an unlocked wallet.
func (m *Manager) Mnemonic() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.unlockedLocked() {
		return "", ErrLocked
	}
	if m.secret.Mnemonic == "" {
		return "", ErrNoMnemonic
	}
	return m.secret.Mnemonic, nil
}

// PrivateKey returns the key of account index (m/44'/60'/0'/0/index).
func (m *Manager) PrivateKey(index uint32) (*ecdsa.PrivateKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.unlockedLocked() {
		return nil, ErrLocked
	}

	if m.secret.Mnemonic == "" {
		if index != 0 {
			return nil, ErrAccountIndex
		}
		return ethereum.ParsePrivateKey(m.secret.PrivateKey)
	}

	seed := bip39.NewSeed(m.secret.Mnemonic, "")
	key, err := deriveEthereumKey(seed, DerivationPath(index))
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func (m *Manager) Address(index uint32) (common.Address, error) {
	key, err := m.PrivateKey(index)
	if err != nil {
		return common.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey), nil
}

func (m *Manager) saveVault(vault *crypto.Vault) error {
	data, err := json.Marshal(vault)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	if err := os.WriteFile(m.vaultPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return nil
}

func (m *Manager) loadVault() (*crypto.Vault, error) {
	data, err := os.ReadFile(m.vaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoWallet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}

	var vault crypto.Vault
	if err := json.Unmarshal(data, &vault); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault: %w", err)
	}
	return &vault, nil
}

func (m *Manager) VaultExists() bool {
	_, err := os.Stat(m.vaultPath)
	return err == nil
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	vaultVersion = 2
)

var (
	ErrWrongPassword = errors.New("wrong password or corrupted vault")
	ErrEmptySecret   = errors.New("vault needs a mnemonic or a private key")
)

// Vault is the encrypted form of a Secret as stored on disk.
type Vault struct {
	Version int    `json:"version"`
	N       int    `json:"n"`
	R       int    `json:"r"`
	P       int    `json:"p"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

// Secret is what a vault protects: either a BIP39 mnemonic or a raw hex
// private key imported from another wallet.
type Secret struct {
	Mnemonic   string `json:"mnemonic,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
}

func (s Secret) Empty() bool {
	return s.Mnemonic == "" && s.PrivateKey == ""
}

// NewVault encrypts secret with a key derived from password.
func NewVault(secret Secret, password string) (*Vault, error) {
	if secret.Empty() {
		return nil, ErrEmptySecret
	}

	// Generate random salt
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	v := &Vault{Version: vaultVersion, N: ScryptN, R: ScryptR, P: ScryptP, Salt: salt}
	key, err := v.deriveKey(password)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	data, err := json.Marshal(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault data: %w", err)
	}
	defer clearBytes(data)

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	v.Nonce = make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, v.Nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	v.Data = aesGCM.Seal(nil, v.Nonce, data, nil)
	return v, nil
}

// Decrypt opens the vault. A wrong password yields ErrWrongPassword.
func (v *Vault) Decrypt(password string) (Secret, error) {
	key, err := v.deriveKey(password)
	if err != nil {
		return Secret{}, err
	}
	defer clearBytes(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return Secret{}, err
	}
	plaintext, err := aesGCM.Open(nil, v.Nonce, v.Data, nil)
	if err != nil {
		return Secret{}, ErrWrongPassword
	}
	defer clearBytes(plaintext)

	var secret Secret
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return Secret{}, fmt.Errorf("failed to deserialize vault data: %w", err)
	}
	return secret, nil
}

func (v *Vault) ValidatePassword(password string) bool {
	_, err := v.Decrypt(password)
	return err == nil
}

// older vaults carry no parameters and used the defaults
func (v *Vault) deriveKey(password string) ([]byte, error) {
	n, r, p := v.N, v.R, v.P
	if n == 0 {
		n, r, p = ScryptN, ScryptR, ScryptP
	}
	key, err := scrypt.Key([]byte(password), v.Salt, n, r, p, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

package wallet

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

const hardenedOffset = 0x80000000

var errInvalidChild = errors.New("derived key is invalid for secp256k1")

// HDKey is a BIP32 extended private key.
type HDKey struct {
	PrivateKey  []byte
	PublicKey   []byte // compressed
	ChainCode   []byte
	Depth       uint8
	ChildNum    uint32
	Fingerprint uint32
}

// DerivationPath returns the BIP44 path of the index-th EVM account.
func DerivationPath(index uint32) accounts.DerivationPath {
	path := make(accounts.DerivationPath, len(accounts.DefaultBaseDerivationPath))
	copy(path, accounts.DefaultBaseDerivationPath)
	path[len(path)-1] = index
	return path
}

// deriveEthereumKey walks path from the master key of seed.
func deriveEthereumKey(seed []byte, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	masterKey, err := newMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	key := masterKey
	for _, childNum := range path {
		key, err = key.child(childNum)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", childNum, err)
		}
	}

	privateKey, err := crypto.ToECDSA(key.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to ECDSA key: %w", err)
	}
	return privateKey, nil
}

func newMasterKey(seed []byte) (*HDKey, error) {
	hash := hmacSHA512([]byte("Bitcoin seed"), seed)
	if !isValidPrivateKey(hash[:32]) {
		return nil, errInvalidChild
	}

	return &HDKey{
		PrivateKey: hash[:32],
		PublicKey:  compressedPublicKey(hash[:32]),
		ChainCode:  hash[32:],
	}, nil
}

func (k *HDKey) child(childNum uint32) (*HDKey, error) {
	data := make([]byte, 0, 37)
	if isHardened(childNum) {
		data = append(data, 0x00)
		data = append(data, k.PrivateKey...)
	} else {
		data = append(data, k.PublicKey...)
	}
	data = binary.BigEndian.AppendUint32(data, childNum)

	hash := hmacSHA512(k.ChainCode, data)
	il, ir := hash[:32], hash[32:]

	n := btcec.S256().N
	ilInt := new(big.Int).SetBytes(il)
	if ilInt.Cmp(n) >= 0 {
		return nil, errInvalidChild
	}
	keyInt := ilInt.Add(ilInt, new(big.Int).SetBytes(k.PrivateKey))
	keyInt.Mod(keyInt, n)
	if keyInt.Sign() == 0 {
		return nil, errInvalidChild
	}

	privateKey := keyInt.FillBytes(make([]byte, 32))
	return &HDKey{
		PrivateKey:  privateKey,
		PublicKey:   compressedPublicKey(privateKey),
		ChainCode:   ir,
		Depth:       k.Depth + 1,
		ChildNum:    childNum,
		Fingerprint: fingerprint(k.PublicKey),
	}, nil
}

func compressedPublicKey(privateKey []byte) []byte {
	_, pub := btcec.PrivKeyFromBytes(privateKey)
	return pub.SerializeCompressed()
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func isValidPrivateKey(privateKey []byte) bool {
	if len(privateKey) != 32 {
		return false
	}
	keyInt := new(big.Int).SetBytes(privateKey)
	return keyInt.Sign() > 0 && keyInt.Cmp(btcec.S256().N) < 0
}

func isHardened(childNum uint32) bool {
	return childNum >= hardenedOffset
}

// first four bytes of HASH160(parent pubkey)
func fingerprint(publicKey []byte) uint32 {
	return binary.BigEndian.Uint32(btcutil.Hash160(publicKey)[:4])
}

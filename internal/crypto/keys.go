package crypto

import (
	"errors"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrSign indicates invalid key or signature material on the signing path.
var ErrSign = errors.New("signing failed")

const signatureLen = 65 // r(32) || s(32) || v(1)

// KeyPair is a freshly generated secp256k1 signing identity. PrivateKey is
// the raw 32-byte scalar; Address is the EIP-55 checksummed 0x address
// derived from the public key.
type KeyPair struct {
	PrivateKey []byte
	Address    string
}

// GenerateKeyPair produces a new secp256k1 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &KeyPair{
		PrivateKey: ethcrypto.FromECDSA(priv),
		Address:    ethcrypto.PubkeyToAddress(priv.PublicKey).Hex(),
	}, nil
}

// personalHash computes the EIP-191 prefixed message digest, the same
// construction browser wallets use, so signatures recover interchangeably.
func personalHash(message []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return ethcrypto.Keccak256([]byte(prefix), message)
}

// Sign signs message with the raw private key. Returns a 65-byte
// r||s||v signature with v in {27,28}.
func Sign(privateKey, message []byte) ([]byte, error) {
	key, err := ethcrypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad private key: %v", ErrSign, err)
	}
	sig, err := ethcrypto.Sign(personalHash(message), key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSign, err)
	}
	sig[64] += 27
	return sig, nil
}

// RecoverAddress recovers the signer's 0x address from a message/signature
// pair. Accepts recovery ids in both {0,1} and {27,28} form.
func RecoverAddress(message, signature []byte) (string, error) {
	if len(signature) != signatureLen {
		return "", fmt.Errorf("%w: signature must be %d bytes, got %d", ErrSign, signatureLen, len(signature))
	}
	sig := make([]byte, signatureLen)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(personalHash(message), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSign, err)
	}
	return ethcrypto.PubkeyToAddress(*pub).Hex(), nil
}

// IsSignatureValid reports whether signature over message was produced by
// the key behind address. Address comparison is case-insensitive.
func IsSignatureValid(address string, signature, message []byte) bool {
	got, err := RecoverAddress(message, signature)
	if err != nil {
		return false
	}
	return strings.EqualFold(got, address)
}

// AddressFromPrivateKey derives the 0x address for a raw private key.
func AddressFromPrivateKey(privateKey []byte) (string, error) {
	key, err := ethcrypto.ToECDSA(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: bad private key: %v", ErrSign, err)
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

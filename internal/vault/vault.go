// Package vault seals small secrets (OAuth tokens, API keys) under a
// passphrase before they touch disk.
package vault

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Envelope layout: [version:1][salt:32][nonce:24][ciphertext].
// Each sealed blob carries its own salt, so the same passphrase never
// reuses a derived key across blobs.
const (
	envelopeVersion = 1
	saltSize        = 32
)

// Argon2id parameters, matching the identity-grade settings.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	keySize      = 32
)

// Vault seals and opens secrets with a passphrase. The zero value is
// sealed; call Unlock before use.
type Vault struct {
	passphrase []byte
	unlocked   bool
}

// New creates a locked vault
func New() *Vault {
	return &Vault{}
}

// Unlock arms the vault with a passphrase. No key material is derived
// here; derivation happens per blob against its own salt.
func (v *Vault) Unlock(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase is empty")
	}
	v.passphrase = []byte(passphrase)
	v.unlocked = true
	return nil
}

// Lock wipes the passphrase from memory.
func (v *Vault) Lock() {
	for i := range v.passphrase {
		v.passphrase[i] = 0
	}
	v.passphrase = nil
	v.unlocked = false
}

// Unlocked reports whether the vault can seal and open.
func (v *Vault) Unlocked() bool {
	return v.unlocked
}

// Seal encrypts plaintext into a self-contained envelope.
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	if !v.unlocked {
		return nil, core.ErrVaultSealed
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey(v.passphrase, salt, argonTime, argonMemory, argonThreads, keySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := make([]byte, 0, 1+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	blob = append(blob, envelopeVersion)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, blob[:1+saltSize+len(nonce)])

	return blob, nil
}

// Open decrypts an envelope produced by Seal.
func (v *Vault) Open(blob []byte) ([]byte, error) {
	if !v.unlocked {
		return nil, core.ErrVaultSealed
	}

	nonceSize := chacha20poly1305.NonceSizeX
	headerSize := 1 + saltSize + nonceSize
	if len(blob) < headerSize+chacha20poly1305.Overhead {
		return nil, core.ErrCiphertextTooShort
	}
	if blob[0] != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", blob[0])
	}

	salt := blob[1 : 1+saltSize]
	nonce := blob[1+saltSize : headerSize]
	ciphertext := blob[headerSize:]

	key := argon2.IDKey(v.passphrase, salt, argonTime, argonMemory, argonThreads, keySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, blob[:headerSize])
	if err != nil {
		return nil, core.ErrWrongPassphrase
	}

	return plaintext, nil
}

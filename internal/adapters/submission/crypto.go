package submission

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/okian/graphboard/pkg/atomicfile"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Sealed files are nonce || ciphertext || tag.
const nonceSize = 12

// Decrypted describes a plaintext submission written next to its source.
type Decrypted struct {
	Team    string
	CSVPath string
}

// LoadKey decodes a base64 AES-256 key into guarded memory. The caller owns
// the buffer and must Destroy it.
func LoadKey(encoded string) (*memguard.LockedBuffer, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMissingKey
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if len(raw) != KeySize {
		memguard.WipeBytes(raw)
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(raw))
	}
	// NewBufferFromBytes wipes raw.
	return memguard.NewBufferFromBytes(raw), nil
}

// Seal encrypts plaintext with AES-256-GCM under a fresh random nonce.
func Seal(key *memguard.LockedBuffer, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any tampering or a wrong key yields ErrDecrypt.
func Open(key *memguard.LockedBuffer, sealed []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < nonceSize+aead.Overhead() {
		return nil, fmt.Errorf("%w: payload too short", ErrDecrypt)
	}
	plain, err := aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return plain, nil
}

func newAEAD(key *memguard.LockedBuffer) (cipher.AEAD, error) {
	if key == nil || key.Size() != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return aead, nil
}

// Decrypt opens the single pending submission with the key from the
// configured environment variable and writes <team>.csv beside it.
func (g *Gatekeeper) Decrypt(_ context.Context) (Decrypted, error) {
	path, err := g.FindSingle()
	if err != nil {
		return Decrypted{}, err
	}

	key, err := LoadKey(g.getenv(g.keyEnv))
	if err != nil {
		return Decrypted{}, fmt.Errorf("%s: %w", g.keyEnv, err)
	}
	defer key.Destroy()

	sealed, err := os.ReadFile(path)
	if err != nil {
		return Decrypted{}, fmt.Errorf("read %s: %w", path, err)
	}
	plain, err := Open(key, sealed)
	if err != nil {
		return Decrypted{}, err
	}

	team := TeamName(path)
	out := filepath.Join(g.dir, team+".csv")
	if err := atomicfile.WriteFile(out, plain, 0o600); err != nil {
		return Decrypted{}, fmt.Errorf("write %s: %w", out, err)
	}
	return Decrypted{Team: team, CSVPath: out}, nil
}

// EncryptFile seals the plaintext at src into dst with the key from the
// configured environment variable.
func (g *Gatekeeper) EncryptFile(src, dst string) error {
	key, err := LoadKey(g.getenv(g.keyEnv))
	if err != nil {
		return fmt.Errorf("%s: %w", g.keyEnv, err)
	}
	defer key.Destroy()

	plain, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	sealed, err := Seal(key, plain)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(dst, sealed, 0o644)
}

// NewKey returns a random base64-encoded key suitable for LoadKey.
func NewKey() (string, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	defer memguard.WipeBytes(raw)
	return base64.StdEncoding.EncodeToString(raw), nil
}

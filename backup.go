package books

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters of encrypted backups.
const (
	backupIterations = 100000
	backupKeyLen     = 32
	backupSaltLen    = 16
	backupIVLen      = 12
)

// byteList is a byte slice encoded as a JSON array of numbers.
type byteList []byte

func (b byteList) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, x := range b {
		ints[i] = int(x)
	}
	return json.Marshal(ints)
}

func (b *byteList) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	res := make([]byte, len(ints))
	for i, x := range ints {
		if x < 0 || x > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, x)
		}
		res[i] = byte(x)
	}
	*b = res
	return nil
}

// backupPayload is the decoded backup token.
type backupPayload struct {
	Version int      `json:"version"`
	Salt    byteList `json:"salt"`
	IV      byteList `json:"iv"`
	Cipher  byteList `json:"cipher"`
}

// backupContent is the plaintext of a backup.
type backupContent struct {
	ExportedAt time.Time                    `json:"exportedAt"`
	Data       map[string][]json.RawMessage `json:"data"`
	Settings   *Settings                    `json:"settings,omitempty"`
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, backupIterations, backupKeyLen, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Backup exports the books and encrypts them with passphrase. The token is
// plain base64 text.
func (e *Engine) Backup(ctx context.Context, passphrase string) (string, error) {
	if passphrase == "" {
		return "", invalid("passphrase", "is required")
	}
	s, err := e.ExportSnapshot(ctx)
	if err != nil {
		return "", err
	}
	return EncryptSnapshot(s, passphrase)
}

// EncryptSnapshot seals s with a key derived from passphrase.
func EncryptSnapshot(s Snapshot, passphrase string) (string, error) {
	plain, err := json.Marshal(backupContent{ExportedAt: s.ExportedAt, Data: s.Data, Settings: s.Settings})
	if err != nil {
		return "", fmt.Errorf("could not encode backup: %w", err)
	}
	p := backupPayload{
		Version: s.Version,
		Salt:    make([]byte, backupSaltLen),
		IV:      make([]byte, backupIVLen),
	}
	if _, err := rand.Read(p.Salt); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	if _, err := rand.Read(p.IV); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	gcm, err := newGCM(deriveKey(passphrase, p.Salt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	p.Cipher = gcm.Seal(nil, p.IV, plain, nil)
	token, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("could not encode backup: %w", err)
	}
	return base64.StdEncoding.EncodeToString(token), nil
}

// DecryptSnapshot opens a backup token. A wrong passphrase or a damaged
// token is an ErrCrypto.
func DecryptSnapshot(token, passphrase string) (Snapshot, error) {
	if passphrase == "" || strings.TrimSpace(token) == "" {
		return Snapshot{}, invalid("backup", "passphrase and backup data are required")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: backup is not base64: %w", ErrCrypto, err)
	}
	var p backupPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Snapshot{}, fmt.Errorf("%w: unreadable backup: %w", ErrCrypto, err)
	}
	if len(p.IV) != backupIVLen {
		return Snapshot{}, fmt.Errorf("%w: invalid iv length %d", ErrCrypto, len(p.IV))
	}
	gcm, err := newGCM(deriveKey(passphrase, p.Salt))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	plain, err := gcm.Open(nil, p.IV, p.Cipher, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: wrong passphrase or damaged backup", ErrCrypto)
	}
	var c backupContent
	if err := json.Unmarshal(plain, &c); err != nil {
		return Snapshot{}, fmt.Errorf("%w: unreadable backup content: %w", ErrCrypto, err)
	}
	version := p.Version
	if version == 0 {
		version = legacySchemaVersion
	}
	return Snapshot{Version: version, ExportedAt: c.ExportedAt, Data: c.Data, Settings: c.Settings}, nil
}

// Restore decrypts a backup token and imports it. Nothing is written when
// the token cannot be opened.
func (e *Engine) Restore(ctx context.Context, passphrase, token string) error {
	start := time.Now()
	s, err := DecryptSnapshot(token, passphrase)
	if err != nil {
		e.metrics.observe("restore", start, err)
		return err
	}
	return e.ImportSnapshot(ctx, s)
}

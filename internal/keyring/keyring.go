// Package keyring stores wallet secret keys outside of the transaction pipeline.
// The file implementation keeps an encrypted JSON envelope: Argon2id derives the
// key, XChaCha20-Poly1305 seals the payload, writes are atomic.
package keyring

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/rovshanmuradov/solana-wallet/internal/wallet"
)

var (
	// ErrInvalidPassphraseOrCorrupt is returned when decryption fails.
	ErrInvalidPassphraseOrCorrupt = errors.New("invalid passphrase or corrupted keyring")
	// ErrNotFound is returned by Load for an unknown index.
	ErrNotFound = errors.New("key not found")
)

// Identity is the public side of a stored key.
type Identity struct {
	Index     int       `json:"index"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
}

// Keyring is the secret store used by the wallet. Secrets are base58 private keys.
type Keyring interface {
	Save(secret string) (Identity, error)
	Load(index int) (string, error)
	List() ([]Identity, error)
	Clear() error
}

// KDFParams describes the on-disk envelope and KDF settings.
type KDFParams struct {
	Version int `json:"version"`

	ArgonTime    uint32 `json:"argon_time"`
	ArgonMemory  uint32 `json:"argon_memory_kib"`
	ArgonThreads uint8  `json:"argon_threads"`
	ArgonKeyLen  uint32 `json:"argon_key_len"`

	SaltB64  string `json:"salt_b64"`
	NonceB64 string `json:"nonce_b64"`
	CTB64    string `json:"ct_b64"`
}

// DefaultKDF are the parameters used for new keyring files.
var DefaultKDF = KDFParams{
	Version:      1,
	ArgonTime:    2,
	ArgonMemory:  64 * 1024,
	ArgonThreads: 1,
	ArgonKeyLen:  32,
}

type storedKey struct {
	Secret    string    `json:"secret"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
}

type payload struct {
	Keys []storedKey `json:"keys"`
}

// FileKeyring is a passphrase-protected keyring file.
type FileKeyring struct {
	path       string
	passphrase []byte
	kdf        KDFParams
	logger     *zap.Logger
	mu         sync.Mutex
}

// Option customizes a FileKeyring.
type Option func(*FileKeyring)

// WithKDF overrides the KDF cost parameters for newly written files.
func WithKDF(params KDFParams) Option {
	return func(k *FileKeyring) {
		k.kdf = params
	}
}

// NewFileKeyring opens (lazily) the keyring at path.
func NewFileKeyring(path string, passphrase []byte, logger *zap.Logger, opts ...Option) *FileKeyring {
	k := &FileKeyring{
		path:       path,
		passphrase: append([]byte(nil), passphrase...),
		kdf:        DefaultKDF,
		logger:     logger.Named("keyring"),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Save validates and appends a base58 secret key. Saving a key that is
// already present returns its existing identity.
func (k *FileKeyring) Save(secret string) (Identity, error) {
	w, err := wallet.NewWallet(secret)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid secret: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	p, err := k.read()
	if err != nil {
		return Identity{}, err
	}
	pub := w.PublicKey.String()
	for i, sk := range p.Keys {
		if sk.PublicKey == pub {
			return Identity{Index: i, PublicKey: pub, CreatedAt: sk.CreatedAt}, nil
		}
	}

	entry := storedKey{Secret: secret, PublicKey: pub, CreatedAt: time.Now().UTC()}
	p.Keys = append(p.Keys, entry)
	if err := k.write(p); err != nil {
		return Identity{}, err
	}
	k.logger.Info("Key saved", zap.String("public_key", pub), zap.Int("index", len(p.Keys)-1))
	return Identity{Index: len(p.Keys) - 1, PublicKey: pub, CreatedAt: entry.CreatedAt}, nil
}

// Load returns the secret stored at index.
func (k *FileKeyring) Load(index int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	p, err := k.read()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(p.Keys) {
		return "", fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return p.Keys[index].Secret, nil
}

// List returns the public identities of all stored keys.
func (k *FileKeyring) List() ([]Identity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	p, err := k.read()
	if err != nil {
		return nil, err
	}
	out := make([]Identity, 0, len(p.Keys))
	for i, sk := range p.Keys {
		out = append(out, Identity{Index: i, PublicKey: sk.PublicKey, CreatedAt: sk.CreatedAt})
	}
	return out, nil
}

// Clear removes the keyring file.
func (k *FileKeyring) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := os.Remove(k.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove keyring: %w", err)
	}
	k.logger.Info("Keyring cleared")
	return nil
}

func (k *FileKeyring) read() (payload, error) {
	b, err := os.ReadFile(k.path)
	if errors.Is(err, os.ErrNotExist) {
		return payload{}, nil
	}
	if err != nil {
		return payload{}, fmt.Errorf("read keyring: %w", err)
	}

	var env KDFParams
	if err := json.Unmarshal(b, &env); err != nil {
		return payload{}, fmt.Errorf("unmarshal keyring envelope: %w", err)
	}
	if env.Version != 1 {
		return payload{}, fmt.Errorf("unsupported keyring version: %d", env.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(env.SaltB64)
	if err != nil {
		return payload{}, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
	if err != nil {
		return payload{}, fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(env.CTB64)
	if err != nil {
		return payload{}, fmt.Errorf("decode ciphertext: %w", err)
	}

	key := argon2.IDKey(k.passphrase, salt, env.ArgonTime, env.ArgonMemory, env.ArgonThreads, env.ArgonKeyLen)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return payload{}, fmt.Errorf("aead: %w", err)
	}
	plain, err := aead.Open(nil, nonce, ct, []byte(filepath.Base(k.path)))
	if err != nil {
		return payload{}, ErrInvalidPassphraseOrCorrupt
	}

	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return payload{}, fmt.Errorf("unmarshal keyring: %w", err)
	}
	return p, nil
}

func (k *FileKeyring) write(p payload) error {
	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(k.path), err)
	}
	plain, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal keyring: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("rand salt: %w", err)
	}
	key := argon2.IDKey(k.passphrase, salt, k.kdf.ArgonTime, k.kdf.ArgonMemory, k.kdf.ArgonThreads, k.kdf.ArgonKeyLen)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("aead: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("rand nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce, plain, []byte(filepath.Base(k.path)))

	env := k.kdf
	env.Version = 1
	env.SaltB64 = base64.StdEncoding.EncodeToString(salt)
	env.NonceB64 = base64.StdEncoding.EncodeToString(nonce)
	env.CTB64 = base64.StdEncoding.EncodeToString(ct)

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return atomicWriteFile(k.path, b, 0o600)
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

var _ Keyring = (*FileKeyring)(nil)

package tokenstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	keyFileSuffix = ".key"
	hkdfSalt      = "zurura-token-store"
	hkdfInfo      = "entry-key-v1"
)

// FileStore keeps all entries in one JSON document on disk. Each value is
// sealed with XChaCha20-Poly1305; the entry key is bound as additional data so
// entries cannot be swapped between keys.
type FileStore struct {
	path   string
	aead   cipher.AEAD
	logger *slog.Logger
	mu     sync.Mutex
}

type FileOption func(*FileStore)

func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// NewFileStore opens the store at path. With an empty secret a random key is
// generated once and kept next to the store in a 0600 file.
func NewFileStore(path string, secret string, opts ...FileOption) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("token store path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create token store directory: %w", err)
	}

	material := []byte(secret)
	if strings.TrimSpace(secret) == "" {
		var err error
		material, err = loadOrCreateKeyFile(path + keyFileSuffix)
		if err != nil {
			return nil, err
		}
	}

	key, err := deriveKey(material)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init token store cipher: %w", err)
	}

	store := &FileStore{path: path, aead: aead, logger: slog.Default()}
	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Set(_ context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}

	sealed, err := s.seal(key, data)
	if err != nil {
		logWriteFailure(s.logger, "file", "set", key, err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	doc[key] = sealed
	if err := s.saveLocked(doc); err != nil {
		logWriteFailure(s.logger, "file", "set", key, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string, dst any) bool {
	s.mu.Lock()
	sealed, ok := s.loadLocked()[key]
	s.mu.Unlock()
	if !ok {
		return false
	}

	data, err := s.open(key, sealed)
	if err != nil {
		s.logger.Debug("token store entry unreadable", "key", key, "error", err)
		return false
	}
	return decode(data, dst)
}

func (s *FileStore) Remove(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	if _, ok := doc[key]; !ok {
		return
	}
	delete(doc, key)
	if err := s.saveLocked(doc); err != nil {
		logWriteFailure(s.logger, "file", "remove", key, err)
	}
}

func (s *FileStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logWriteFailure(s.logger, "file", "clear", "*", err)
	}
}

func (s *FileStore) seal(key string, plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(key))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *FileStore) open(key string, encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(sealed) < s.aead.NonceSize() {
		return nil, errors.New("sealed entry too short")
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, ciphertext, []byte(key))
}

// loadLocked treats a missing or unreadable document as empty.
func (s *FileStore) loadLocked() map[string]string {
	doc := map[string]string{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("token store unreadable", "path", s.path, "error", err)
		}
		return doc
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return doc
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("token store corrupt, starting empty", "path", s.path, "error", err)
		return map[string]string{}
	}

	return doc
}

func (s *FileStore) saveLocked(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, s.path)
}

func deriveKey(material []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, material, []byte(hkdfSalt), []byte(hkdfInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive token store key: %w", err)
	}
	return key, nil
}

func loadOrCreateKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		decoded, decodeErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if decodeErr == nil && len(decoded) >= chacha20poly1305.KeySize {
			return decoded, nil
		}
		return nil, fmt.Errorf("token store key file %s is invalid", path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read token store key: %w", err)
	}

	material := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("generate token store key: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(material)
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write token store key: %w", err)
	}

	return material, nil
}

// Package storage holds file attachments for clinical reports. It defines
// the Store contract the domain services depend on, an in-memory
// implementation suitable for development and tests, and an Echo handler
// that serves files addressed by signed, time-boxed URLs. A bucket-backed
// implementation (GCS/S3) satisfies the same interface in deployment.
package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName  = errors.New("file name is required")
	ErrInvalidSignature = errors.New("invalid url signature")
	ErrLinkExpired      = errors.New("signed url has expired")
)

// MaxFileSize is the maximum allowed attachment size in bytes (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// Store is the contract for attachment storage backends.
type Store interface {
	// Upload persists content under a path scoped by destination and name,
	// returning the storage path recorded on the report.
	Upload(ctx context.Context, content io.Reader, destination, name string) (string, error)

	// SignedDownloadURL returns a time-boxed URL that downloads the file as
	// an attachment named displayName.format.
	SignedDownloadURL(ctx context.Context, path, displayName, format string, ttl time.Duration) (string, error)

	// SignedOpenURL returns a time-boxed URL that serves the file inline.
	SignedOpenURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

type storedFile struct {
	data      []byte
	hash      string
	createdAt time.Time
}

// InMemoryStore is a thread-safe Store for development and tests. Signed
// URLs carry an HMAC over path and expiry so they can be verified without
// state beyond the signing secret.
type InMemoryStore struct {
	mu      sync.RWMutex
	files   map[string]*storedFile
	baseURL string
	secret  []byte
	now     func() time.Time
}

// NewInMemoryStore returns a ready-to-use InMemoryStore. baseURL is the
// external prefix under which the file handler is mounted.
func NewInMemoryStore(baseURL, secret string) *InMemoryStore {
	return &InMemoryStore{
		files:   make(map[string]*storedFile),
		baseURL: baseURL,
		secret:  []byte(secret),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Upload(_ context.Context, content io.Reader, destination, name string) (string, error) {
	if name == "" {
		return "", ErrMissingFileName
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return "", ErrFileTooLarge
	}

	h := sha256.Sum256(data)
	now := s.now()
	path := fmt.Sprintf("%s/%d-%s", destination, now.UnixMilli(), name)

	s.mu.Lock()
	s.files[path] = &storedFile{
		data:      data,
		hash:      hex.EncodeToString(h[:]),
		createdAt: now,
	}
	s.mu.Unlock()

	return path, nil
}

func (s *InMemoryStore) SignedDownloadURL(_ context.Context, path, displayName, format string, ttl time.Duration) (string, error) {
	if err := s.exists(path); err != nil {
		return "", err
	}
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(path, expires))
	q.Set("filename", fmt.Sprintf("%s.%s", displayName, format))
	return fmt.Sprintf("%s/files/%s?%s", s.baseURL, path, q.Encode()), nil
}

func (s *InMemoryStore) SignedOpenURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	if err := s.exists(path); err != nil {
		return "", err
	}
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(path, expires))
	return fmt.Sprintf("%s/files/%s?%s", s.baseURL, path, q.Encode()), nil
}

// Open verifies a signed request for path and returns the file content.
func (s *InMemoryStore) Open(path, sig string, expires int64) ([]byte, error) {
	if !hmac.Equal([]byte(sig), []byte(s.sign(path, expires))) {
		return nil, ErrInvalidSignature
	}
	if s.now().Unix() > expires {
		return nil, ErrLinkExpired
	}

	s.mu.RLock()
	f, ok := s.files[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrFileNotFound
	}
	return f.data, nil
}

func (s *InMemoryStore) exists(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.files[path]; !ok {
		return ErrFileNotFound
	}
	return nil
}

func (s *InMemoryStore) sign(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

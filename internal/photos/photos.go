// Package photos stores uploaded images and hands back opaque references.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	storage "github.com/supabase-community/storage-go"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

// MaxSize caps a single upload.
const MaxSize = 10 << 20

var allowed = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/gif":  true,
}

// Store keeps photo bytes and returns a retrievable reference.
type Store interface {
	Put(ctx context.Context, ownerID string, data []byte) (string, error)
}

// Sniff checks that data is an accepted image and returns its content type
// and file extension.
func Sniff(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", apperr.Validation("photo is empty")
	}
	if len(data) > MaxSize {
		return "", "", apperr.Validation("photo is larger than %d MB", MaxSize>>20)
	}
	m := mimetype.Detect(data)
	ct := strings.SplitN(m.String(), ";", 2)[0]
	if !allowed[ct] {
		return "", "", apperr.Validation("unsupported photo type %s", ct)
	}
	return ct, m.Extension(), nil
}

func objectPath(ownerID, ext string) string {
	return fmt.Sprintf("users/%s/%s%s", ownerID, uuid.New().String(), ext)
}

// SupabaseStore uploads into a Supabase storage bucket and returns public
// URLs.
type SupabaseStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewSupabaseStore(supabaseURL, serviceKey, bucket string) *SupabaseStore {
	baseURL := strings.TrimRight(supabaseURL, "/")
	return &SupabaseStore{
		client:  storage.NewClient(baseURL+"/storage/v1", serviceKey, nil),
		bucket:  bucket,
		baseURL: baseURL,
	}
}

// PublicURL is where an uploaded object can be fetched.
func (s *SupabaseStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path)
}

func (s *SupabaseStore) Put(ctx context.Context, ownerID string, data []byte) (string, error) {
	contentType, ext, err := Sniff(data)
	if err != nil {
		return "", err
	}
	path := objectPath(ownerID, ext)

	// The storage client is not context aware; give up waiting when ctx
	// ends and let the upload finish on its own.
	done := make(chan error, 1)
	go func() {
		upsert := false
		_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
			ContentType: &contentType,
			Upsert:      &upsert,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", apperr.Collaborator(apperr.Photos, apperr.ReasonUnavailable, errors.Wrap(err, "upload"))
		}
	case <-ctx.Done():
		return "", apperr.Collaborator(apperr.Photos, apperr.ReasonUnavailable, ctx.Err())
	}
	log.Debugf("Stored photo %s (%s, %d bytes)", path, contentType, len(data))
	return s.PublicURL(path), nil
}

// MemoryStore keeps photos in process. References use the memory:// scheme.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, ownerID string, data []byte) (string, error) {
	_, ext, err := Sniff(data)
	if err != nil {
		return "", err
	}
	ref := "memory://photos/" + objectPath(ownerID, ext)
	m.mu.Lock()
	m.objects[ref] = append([]byte(nil), data...)
	m.mu.Unlock()
	return ref, nil
}

// Get returns the bytes behind a reference.
func (m *MemoryStore) Get(ref string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[ref]
	return b, ok
}

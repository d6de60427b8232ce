// Package resume validates uploaded resumes, recompresses PDFs and stores
// them, recording the resulting URL on the owning user.
package resume

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultMaxSize is the largest accepted upload.
const DefaultMaxSize = 2 << 20

// KeyPrefix is the storage directory holding every resume file.
const KeyPrefix = "resumes/"

var (
	// ErrMissingUser is returned when no user id is supplied.
	ErrMissingUser = errors.New("user id is required")
	// ErrEmptyFile is returned for zero-length uploads.
	ErrEmptyFile = errors.New("file is empty")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrUnsupportedType is returned for files that are not documents.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoResume is returned when removing a resume that was never set.
	ErrNoResume = errors.New("no resume on record")
	// ErrUserNotFound is returned by Records for an unknown user id.
	ErrUserNotFound = errors.New("user not found")
)

// allowedTypes maps accepted MIME types to stored file extensions.
var allowedTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// UpstreamError wraps a failure of a storage or record collaborator.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("resume %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Blobs stores resume files.
type Blobs interface {
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	// Key returns the storage key of a URL produced by URL, or false.
	Key(url string) (string, bool)
}

// Records reads and writes the resume URL of a user.
type Records interface {
	ResumeURL(ctx context.Context, userID string) (string, error)
	SetResumeURL(ctx context.Context, userID, url string) error
}

// Compressor shrinks a PDF document.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Upload is a single resume submission.
type Upload struct {
	UserID   string
	Filename string
	Data     []byte
}

// Service runs the upload pipeline.
type Service struct {
	blobs      Blobs
	records    Records
	compressor Compressor
	maxSize    int64
}

// NewService creates a service. compressor may be nil to store PDFs as
// uploaded; maxSize <= 0 selects DefaultMaxSize.
func NewService(blobs Blobs, records Records, compressor Compressor, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Service{
		blobs:      blobs,
		records:    records,
		compressor: compressor,
		maxSize:    maxSize,
	}
}

// MaxSize returns the upload size limit in bytes.
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Validate checks the upload and returns its MIME type.
func (s *Service) Validate(u Upload) (string, error) {
	if strings.TrimSpace(u.UserID) == "" {
		return "", ErrMissingUser
	}
	if len(u.Data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(u.Data)) > s.maxSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(u.Data), s.maxSize)
	}

	mtype := mimetype.Detect(u.Data)
	for m := mtype; m != nil; m = m.Parent() {
		if _, ok := allowedTypes[m.String()]; ok {
			return m.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
}

// Upload stores the resume and records its URL on the user. Any previous
// resume file is removed.
func (s *Service) Upload(ctx context.Context, u Upload) (string, error) {
	mime, err := s.Validate(u)
	if err != nil {
		return "", err
	}

	data := u.Data
	if mime == "application/pdf" && s.compressor != nil {
		data = s.compress(data)
	}

	previous, err := s.records.ResumeURL(ctx, u.UserID)
	if err != nil {
		return "", upstream("lookup", err)
	}

	key := KeyPrefix + path.Join(u.UserID, uuid.NewString()+allowedTypes[mime])
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return "", &UpstreamError{Op: "store", Err: err}
	}

	url := s.blobs.URL(key)
	if err := s.records.SetResumeURL(ctx, u.UserID, url); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			log.Printf("Error removing orphaned resume %s: %v", key, delErr)
		}
		return "", upstream("update", err)
	}

	s.deletePrevious(ctx, previous)
	log.Printf("Stored resume for user %s (%d bytes)", u.UserID, len(data))
	return url, nil
}

// Remove clears the user's resume URL and deletes the stored file.
func (s *Service) Remove(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUser
	}

	current, err := s.records.ResumeURL(ctx, userID)
	if err != nil {
		return upstream("lookup", err)
	}
	if current == "" {
		return ErrNoResume
	}

	if err := s.records.SetResumeURL(ctx, userID, ""); err != nil {
		return upstream("update", err)
	}
	s.deletePrevious(ctx, current)
	return nil
}

// ValidKey reports whether key names a file under KeyPrefix.
func ValidKey(key string) bool {
	if !strings.HasPrefix(key, KeyPrefix) || len(key) == len(KeyPrefix) {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// upstream wraps a record failure unless it is an unknown user.
func upstream(op string, err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// compress keeps the smaller of the original and compressed PDF
func (s *Service) compress(data []byte) []byte {
	out, err := s.compressor.Compress(data)
	if err != nil {
		log.Printf("Warning: PDF compression failed, storing original: %v", err)
		return data
	}
	if len(out) == 0 || len(out) >= len(data) {
		return data
	}
	return out
}

func (s *Service) deletePrevious(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key, ok := s.blobs.Key(url)
	if !ok {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		log.Printf("Error removing previous resume %s: %v", key, err)
	}
}

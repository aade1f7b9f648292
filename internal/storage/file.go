package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"paper_trading/internal/models"
)

// DefaultStateFile is where the record lives when no path is configured.
const DefaultStateFile = "user_state.json"

// FileStore keeps the user record in a JSON file on disk.
type FileStore struct {
	path string
	mu   sync.Mutex // serializes read-modify-write within this process
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultStateFile
	}
	return &FileStore{path: path}
}

// Path is the location of the state file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) GetUser(ctx context.Context) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) SaveUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(u)
}

func (s *FileStore) UpdateUser(ctx context.Context, up models.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.load()
	if err != nil {
		return err
	}
	return s.save(u.Merge(up))
}

// load reads the record from disk, creating a template on first use.
func (s *FileStore) load() (models.User, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		log.Println("State file missing, generating template...")
		u := DefaultUser()
		if err := s.save(u); err != nil {
			return u, err
		}
		return u, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return models.User{}, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return models.User{}, err
	}

	var u models.User
	if err := json.Unmarshal(b, &u); err != nil {
		return models.User{}, fmt.Errorf("decode %s: %w", s.path, err)
	}

	if Migrate(&u) {
		log.Printf("INFO: User record migrated to version %s. Saving...", u.Version)
		if err := s.save(u); err != nil {
			return u, err
		}
	}

	return u, nil
}

// save writes the record using an atomic write pattern:
// temp file, fsync, rename over the destination.
func (s *FileStore) save(u models.User) error {
	u.Version = SchemaVersion
	if u.Portfolio == nil {
		u.Portfolio = []models.Position{}
	}

	b, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal user record: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile := s.path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp state file: %w", err)
	}

	// Close before renaming (required on Windows).
	f.Close()

	if err := os.Rename(tmpFile, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

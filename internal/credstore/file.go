package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// fileNames keeps the on-disk names used by earlier devrunner releases so
// existing sessions survive an upgrade.
var fileNames = map[Record]string{
	RecordAccessToken:  "__a_t__.json",
	RecordRefreshToken: "__r_t__.json",
	RecordIdentity:     "__e__.json",
}

// recordFile is the JSON document stored in each record file.
type recordFile struct {
	Token string `json:"token"`
}

// FileStore keeps each record in its own file under a private directory.
// Writes use temp file + rename so a concurrent reader never sees a partial record.
type FileStore struct {
	dir string
}

// Compile-time check to ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// DefaultDir returns ~/.devrunner.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".devrunner"), nil
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// with 0700 permissions on first Put.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the record files.
func (f *FileStore) Dir() string {
	return f.dir
}

// Path returns the file backing record.
func (f *FileStore) Path(record Record) string {
	return filepath.Join(f.dir, fileNames[record])
}

// Get reads a record. Missing, empty or corrupt files read as unset.
func (f *FileStore) Get(ctx context.Context, record Record) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := checkRecord("read", record); err != nil {
		return "", false, err
	}

	path := f.Path(record)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, storageErr("read", record, err)
	}

	var rf recordFile
	if err := json.Unmarshal(data, &rf); err != nil {
		slog.DebugContext(ctx, "ignoring unreadable credential record", "record", record, "path", path, "error", err)
		return "", false, nil
	}
	if rf.Token == "" {
		return "", false, nil
	}
	return rf.Token, true, nil
}

// Put atomically saves the record with 0600 permissions (owner read/write only).
func (f *FileStore) Put(ctx context.Context, record Record, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkRecord("write", record); err != nil {
		return err
	}

	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return storageErr("write", record, err)
	}

	data, err := json.Marshal(recordFile{Token: value})
	if err != nil {
		return storageErr("write", record, err)
	}

	// Temp file in the same directory so the rename stays on one filesystem
	tempFile, err := os.CreateTemp(f.dir, "*.tmp")
	if err != nil {
		return storageErr("write", record, err)
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths; after a successful rename this is a no-op
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(data); err != nil {
		return storageErr("write", record, err)
	}
	if err := tempFile.Sync(); err != nil {
		return storageErr("write", record, err)
	}
	if err := tempFile.Close(); err != nil {
		return storageErr("write", record, err)
	}

	// On Windows this only clears the read-only bit; the file lives in the user profile
	if err := os.Chmod(tempName, 0600); err != nil {
		return storageErr("write", record, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tempName, f.Path(record)); err != nil {
		return storageErr("write", record, err)
	}

	return nil
}

// Delete removes the record file if present.
func (f *FileStore) Delete(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkRecord("delete", record); err != nil {
		return err
	}

	if err := os.Remove(f.Path(record)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageErr("delete", record, err)
	}
	return nil
}

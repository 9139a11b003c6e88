// Package storage abstracts the external artifact store holding
// payment screenshots and event banners.  The core only ever deletes
// artifacts, and only best-effort: a failed deletion is logged and
// never fails the surrounding transition (rejecting an order, deleting
// an event).
package storage

import (
    "context"
    "log"
    "os"
    "path"
    "path/filepath"
    "strings"
)

// ArtifactStore deletes a stored artifact referenced by its public URL.
type ArtifactStore interface {
    Delete(ctx context.Context, url string) error
}

// FileStore is an ArtifactStore backed by a local directory, used in
// development and as the default when no object store is configured.
// Artifacts are addressed by the final path segment of their URL.
type FileStore struct {
    Dir string
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore { return &FileStore{Dir: dir} }

// Delete removes the file the URL points at.  A missing file is not
// an error: deletion is idempotent.
func (s *FileStore) Delete(_ context.Context, url string) error {
    name := fileNameFromURL(url)
    if name == "" {
        return nil
    }
    err := os.Remove(filepath.Join(s.Dir, name))
    if err != nil && !os.IsNotExist(err) {
        return err
    }
    return nil
}

// NoopStore ignores all deletions.  Used when artifact cleanup is
// handled entirely by the external storage system.
type NoopStore struct{}

// Delete implements ArtifactStore.
func (NoopStore) Delete(context.Context, string) error { return nil }

// BestEffortDelete removes each artifact, logging failures instead of
// returning them.  Callers invoke it after the database transition has
// committed; cleanup problems must never surface as the operation's
// failure.
func BestEffortDelete(ctx context.Context, store ArtifactStore, urls ...string) {
    if store == nil {
        return
    }
    for _, u := range urls {
        if u == "" {
            continue
        }
        if err := store.Delete(ctx, u); err != nil {
            log.Printf("artifact-store: delete %q failed: %v", u, err)
        }
    }
}

// fileNameFromURL extracts the final path segment of an artifact URL,
// dropping any query string.  Returns "" for URLs with no usable name.
func fileNameFromURL(url string) string {
    if i := strings.IndexByte(url, '?'); i >= 0 {
        url = url[:i]
    }
    name := path.Base(url)
    if name == "." || name == "/" || name == "" {
        return ""
    }
    return name
}

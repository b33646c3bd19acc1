package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace allocates the scratch directories bundles are unpacked into.
type Workspace struct {
	root string
}

// New returns a workspace rooted at root, or at DefaultRoot when root is empty.
func New(root string) *Workspace {
	if root == "" {
		root = DefaultRoot()
	}
	return &Workspace{root: root}
}

// DefaultRoot returns ~/.rsbconv/work, falling back to the current directory
// when no home directory is available.
func DefaultRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".rsbconv", "work")
	}
	return filepath.Join(homeDir, ".rsbconv", "work")
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// DirFor returns the work directory for a source bundle. Bundles with the
// same base name in different directories get distinct directories.
func (w *Workspace) DirFor(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	base := strings.ReplaceAll(filepath.Base(source), " ", "_")
	return filepath.Join(w.root, fmt.Sprintf("%s-%016x", base, HashPath(abs)))
}

// Prepare returns an empty work directory for source. Anything left there by
// an earlier failed conversion is removed first.
func (w *Workspace) Prepare(source string) (string, error) {
	dir := w.DirFor(source)
	if FileExists(dir) {
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("removing stale work directory: %w", err)
		}
	}
	if err := EnsureDir(w.root); err != nil {
		return "", fmt.Errorf("creating workspace root: %w", err)
	}
	return dir, nil
}

// EnsureDir creates a directory and all parent directories
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// HashPath computes the FNV-1a hash of the lowercased path.
func HashPath(path string) uint64 {
	const (
		fnvBasis = uint64(0xcbf29ce484222325)
		fnvPrime = uint64(0x100000001b3)
	)

	hash := fnvBasis
	for _, b := range []byte(strings.ToLower(path)) {
		hash ^= uint64(b)
		hash *= fnvPrime
	}
	return hash
}

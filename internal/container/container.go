// Package container stores a directory tree as a zstd compressed tar stream.
// It is the payload format shared by the reference bundle and packet codecs.
package container

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DataDog/zstd"
)

// DefaultCompressionLevel is used when no level is given.
const DefaultCompressionLevel = zstd.BestSpeed

// WriterOption configures Write.
type WriterOption func(*writer)

type writer struct {
	level int
	files []string
}

// WithCompressionLevel sets the zstd level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *writer) {
		w.level = level
	}
}

// WithFiles restricts the archive to the given slash separated paths relative
// to the root. Without it the whole tree is stored.
func WithFiles(files ...string) WriterOption {
	return func(w *writer) {
		w.files = append(w.files, files...)
	}
}

// Write archives root into dst.
func Write(dst io.Writer, root string, opts ...WriterOption) error {
	w := &writer{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(w)
	}

	files := w.files
	if files == nil {
		var err error
		files, err = listFiles(root)
		if err != nil {
			return fmt.Errorf("list %s: %w", root, err)
		}
	}

	zw := zstd.NewWriterLevel(dst, w.level)
	tw := tar.NewWriter(zw)

	for _, name := range files {
		if err := addFile(tw, root, name); err != nil {
			zw.Close()
			return err
		}
	}

	if err := tw.Close(); err != nil {
		zw.Close()
		return fmt.Errorf("close tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}
	return nil
}

// Read extracts an archive produced by Write into dest.
func Read(src io.Reader, dest string) error {
	zr := zstd.NewReader(src)
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			if err := extractFile(tr, target); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		default:
			return fmt.Errorf("unsupported tar entry %s (type %c)", hdr.Name, hdr.Typeflag)
		}
	}
}

func addFile(tw *tar.Writer, root, name string) error {
	fullPath := filepath.Join(root, filepath.FromSlash(name))
	info, err := os.Stat(fullPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", name)
	}

	header := &tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     info.Size(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", name, err)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func extractFile(r io.Reader, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// listFiles returns every regular file below root as sorted slash paths.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func safeJoin(dest, name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "\\") {
		return "", fmt.Errorf("invalid entry name %q", name)
	}
	return filepath.Join(dest, filepath.FromSlash(clean[1:])), nil
}

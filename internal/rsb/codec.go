package rsb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jchantrell/rsbconv/internal/container"
	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/utils"
)

// ErrUnsupportedSetting is returned for settings the reference codec cannot honour,
// such as unpacking the packages section.
var ErrUnsupportedSetting = errors.New("unsupported bundle setting")

// PackagesSetting describes the encrypted packages section of a full bundle.
type PackagesSetting struct {
	RtonCount uint32
	JSONCount uint32
	Key       string
	IV        string
}

// Setting controls how a bundle is unpacked and packed.
type Setting struct {
	// TextureFormatCategory selects the platform the bundle is read or
	// written as.
	TextureFormatCategory uint32
	OnlyHighResolution    bool
	UnpackPackages        bool
	PackagesSetting       PackagesSetting
}

// SettingFor returns the setting used to read or write a bundle for p.
func SettingFor(p platform.Platform) Setting {
	return Setting{
		TextureFormatCategory: p.TextureFormatCategory(),
		OnlyHighResolution:    true,
		UnpackPackages:        false,
	}
}

// Codec is the reference bundle codec.
type Codec struct {
	level int
}

// NewCodec returns a codec using the default compression level.
func NewCodec() *Codec {
	return &Codec{level: container.DefaultCompressionLevel}
}

// Unpack extracts the bundle at src into dest. The bundle must have been
// built for the platform named by the setting.
func (c *Codec) Unpack(src, dest string, setting Setting) error {
	if setting.UnpackPackages {
		return fmt.Errorf("%w: unpacking packages", ErrUnsupportedSetting)
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := ReadHeader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if h.TextureFormatCategory != setting.TextureFormatCategory {
		return fmt.Errorf("%w: %s has texture format category %d, expected %d",
			ErrPlatformMismatch, src, h.TextureFormatCategory, setting.TextureFormatCategory)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}
	if err := container.Read(io.LimitReader(f, int64(h.PayloadLength)), dest); err != nil {
		return fmt.Errorf("unpacking %s: %w", src, err)
	}
	return nil
}

// Pack builds a bundle at out from the unpacked directory dir. Only the
// manifest and the packets it lists are stored.
func (c *Codec) Pack(dir, out string, setting Setting) error {
	if setting.UnpackPackages {
		return fmt.Errorf("%w: packing packages", ErrUnsupportedSetting)
	}

	m, err := LoadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return err
	}

	files := make([]string, 0, len(m.Packet)+1)
	files = append(files, ManifestFile)
	for _, name := range m.Packet {
		files = append(files, PacketPath(name))
	}

	var payload bytes.Buffer
	if err := container.Write(&payload, dir, container.WithFiles(files...), container.WithCompressionLevel(c.level)); err != nil {
		return fmt.Errorf("packing %s: %w", dir, err)
	}

	h := &Header{
		Magic:                 Magic,
		Version:               Version,
		TextureFormatCategory: setting.TextureFormatCategory,
		PacketCount:           uint32(len(m.Packet)),
		PayloadLength:         uint64(payload.Len()),
	}
	headerBytes, err := h.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(out, append(headerBytes, payload.Bytes()...), 0644); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	return nil
}

// ReadInfo returns the header of the bundle at path.
func ReadInfo(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadHeader(f)
}

// OutputPath names the bundle produced by converting source for target.
func OutputPath(source string, target platform.Platform) string {
	return utils.ExceptExtension(source) + target.BundleSuffix()
}

// IsBundleFile reports whether path has a bundle extension.
func IsBundleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obb", ".rsb":
		return true
	default:
		return false
	}
}

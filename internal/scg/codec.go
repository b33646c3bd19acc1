package scg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jchantrell/rsbconv/internal/container"
	"github.com/jchantrell/rsbconv/internal/platform"
)

// MetadataFile is the name of the metadata document inside a package directory.
const MetadataFile = "data.json"

// Setting mirrors the options a full group codec accepts. The reference
// container has no animation or texture payloads, so both fields are carried
// for interface compatibility only.
type Setting struct {
	DecodeMethod        int
	AnimationSplitLabel bool
}

// Codec is the reference packet codec.
type Codec struct {
	level int
}

// NewCodec returns a codec using the default compression level.
func NewCodec() *Codec {
	return &Codec{level: container.DefaultCompressionLevel}
}

// IsComposite reads the composite bit of the packet header.
func (c *Codec) IsComposite(path string) (bool, error) {
	h, err := ReadHeaderFile(path)
	if err != nil {
		return false, err
	}
	return h.IsComposite(), nil
}

// Decode extracts the packet at src into the package directory dest.
func (c *Codec) Decode(src, dest string, setting Setting) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := ReadHeader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating package directory: %w", err)
	}

	payload := io.LimitReader(f, int64(h.PayloadLength))
	if err := container.Read(payload, dest); err != nil {
		return fmt.Errorf("decoding %s: %w", src, err)
	}
	return nil
}

// Encode builds a packet at dest from the package directory dir. The
// composite bit and format flag are taken from the package metadata.
func (c *Codec) Encode(dir, dest string, setting Setting) error {
	summary, err := readSummary(filepath.Join(dir, MetadataFile))
	if err != nil {
		return err
	}

	target, err := platform.FromTextureFormatCategory(summary.TextureFormatCategory)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidGroup, dir, err)
	}

	var payload bytes.Buffer
	if err := container.Write(&payload, dir, container.WithCompressionLevel(c.level)); err != nil {
		return fmt.Errorf("encoding %s: %w", dir, err)
	}

	h := &Header{
		Magic:         Magic,
		Version:       Version,
		FormatFlag:    target.ContainerFlag(),
		PayloadLength: uint64(payload.Len()),
	}
	if summary.Composite {
		h.Composite = 1
	}

	buf := make([]byte, HeaderSize, HeaderSize+payload.Len())
	h.EncodeTo(buf)
	buf = append(buf, payload.Bytes()...)

	// dest may be the packet the directory was decoded from
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, buf, 0644); err != nil {
		return fmt.Errorf("writing packet: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing packet: %w", err)
	}
	return nil
}

type summary struct {
	Composite             bool   `json:"composite"`
	TextureFormatCategory uint32 `json:"texture_format_category"`
}

func readSummary(path string) (*summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading package metadata: %w", err)
	}
	var s summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGroup, path, err)
	}
	return &s, nil
}

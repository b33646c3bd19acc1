package scg

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestHeader(t *testing.T) {
	t.Run("EncodeDecode", func(t *testing.T) {
		original := Header{
			Magic:         Magic,
			Version:       Version,
			Composite:     1,
			FormatFlag:    4,
			PayloadLength: 1234,
		}

		buf := make([]byte, HeaderSize)
		original.EncodeTo(buf)

		if got := binary.LittleEndian.Uint32(buf[FormatFlagOffset:]); got != 4 {
			t.Errorf("flag at offset %d: got %d, want 4", FormatFlagOffset, got)
		}

		var decoded Header
		decoded.DecodeFrom(buf)
		if decoded != original {
			t.Errorf("mismatch: got %+v, want %+v", decoded, original)
		}
		if err := decoded.Validate(); err != nil {
			t.Errorf("validate: %v", err)
		}
	})

	t.Run("InvalidMagic", func(t *testing.T) {
		h := Header{Version: Version}
		if err := h.Validate(); !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("expected ErrInvalidMagic, got %v", err)
		}
	})

	t.Run("Short", func(t *testing.T) {
		if _, err := ReadHeader(strings.NewReader("SCGP")); err == nil {
			t.Error("expected error for short header")
		}
	})
}

func TestCodec(t *testing.T) {
	codec := NewCodec()

	testCases := []struct {
		name      string
		metadata  string
		composite bool
		flag      uint32
	}{
		{
			name:      "composite ios",
			metadata:  `{"composite": true, "texture_format_category": 1, "category": {"format": 3}}`,
			composite: true,
			flag:      4,
		},
		{
			name:      "simple android",
			metadata:  `{"composite": false, "texture_format_category": 0, "category": null}`,
			composite: false,
			flag:      2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			pkg := filepath.Join(dir, "Packet.scg.package")
			writeFile(t, filepath.Join(pkg, MetadataFile), tc.metadata)
			writeFile(t, filepath.Join(pkg, "resource", "images", "a.ptx"), "texture")

			packet := filepath.Join(dir, "Packet.scg")
			if err := codec.Encode(pkg, packet, Setting{}); err != nil {
				t.Fatalf("encode: %v", err)
			}

			composite, err := codec.IsComposite(packet)
			if err != nil {
				t.Fatalf("is composite: %v", err)
			}
			if composite != tc.composite {
				t.Errorf("composite: got %v, want %v", composite, tc.composite)
			}

			h, err := ReadHeaderFile(packet)
			if err != nil {
				t.Fatalf("read header: %v", err)
			}
			if h.FormatFlag != tc.flag {
				t.Errorf("format flag: got %d, want %d", h.FormatFlag, tc.flag)
			}

			out := filepath.Join(dir, "decoded")
			if err := codec.Decode(packet, out, Setting{}); err != nil {
				t.Fatalf("decode: %v", err)
			}
			data, err := os.ReadFile(filepath.Join(out, "resource", "images", "a.ptx"))
			if err != nil {
				t.Fatalf("read resource: %v", err)
			}
			if string(data) != "texture" {
				t.Errorf("resource: got %q", data)
			}
		})
	}

	t.Run("EncodeOverSource", func(t *testing.T) {
		dir := t.TempDir()
		pkg := filepath.Join(dir, "P.scg.package")
		writeFile(t, filepath.Join(pkg, MetadataFile), `{"texture_format_category": 0}`)
		packet := filepath.Join(dir, "P.scg")
		writeFile(t, packet, "old contents")

		if err := codec.Encode(pkg, packet, Setting{}); err != nil {
			t.Fatalf("encode: %v", err)
		}
		if _, err := ReadHeaderFile(packet); err != nil {
			t.Errorf("packet not replaced: %v", err)
		}
		if _, err := os.Stat(packet + ".tmp"); !os.IsNotExist(err) {
			t.Errorf("temporary file left behind: %v", err)
		}
	})

	t.Run("NotAPacket", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.scg")
		writeFile(t, path, strings.Repeat("x", 64))
		if _, err := codec.IsComposite(path); !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("expected ErrInvalidMagic, got %v", err)
		}
	})
}

func TestGroupInfo(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), MetadataFile)
		writeFile(t, path, `{
			"version": 4,
			"texture_format_category": 0,
			"composite": false,
			"category": null,
			"subgroup": {
				"StreamingWave": {
					"category": {"common_type": false, "locale": null, "compression": 3},
					"resource": {
						"RESFILE_B": {"type": "File", "path": "streamingwaves/b.wem"},
						"RESFILE_A": {"type": "File", "path": "streamingwaves/a.wem"}
					}
				}
			}
		}`)

		info, err := LoadGroupInfo(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		name, sub, err := info.Single()
		if err != nil {
			t.Fatalf("single: %v", err)
		}
		if name != "StreamingWave" {
			t.Errorf("name: got %q", name)
		}
		if sub.Category.Compression != 3 {
			t.Errorf("compression: got %d", sub.Category.Compression)
		}
		ids := sub.ResourceIDs()
		if len(ids) != 2 || ids[0] != "RESFILE_A" || ids[1] != "RESFILE_B" {
			t.Errorf("ids: got %v", ids)
		}
	})

	invalid := map[string]string{
		"NoSubgroup":  `{"subgroup": {}}`,
		"TwoSubgroup": `{"subgroup": {"A": {"category": {}, "resource": {}}, "B": {"category": {}, "resource": {}}}}`,
		"NoCategory":  `{"subgroup": {"A": {"category": null, "resource": {}}}}`,
		"NotFile":     `{"subgroup": {"A": {"category": {}, "resource": {"R": {"type": "Image", "path": "x"}}}}}`,
		"NoPath":      `{"subgroup": {"A": {"category": {}, "resource": {"R": {"type": "File", "path": ""}}}}}`,
		"ParentDir":   `{"subgroup": {"A": {"category": {}, "resource": {"R": {"type": "File", "path": "../../Vehicles.scg"}}}}}`,
		"Absolute":    `{"subgroup": {"A": {"category": {}, "resource": {"R": {"type": "File", "path": "/etc/passwd"}}}}}`,
		"Backslashes": `{"subgroup": {"A": {"category": {}, "resource": {"R": {"type": "File", "path": "..\\..\\x.wem"}}}}}`,
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), MetadataFile)
			writeFile(t, path, doc)
			if _, err := LoadGroupInfo(path); !errors.Is(err, ErrInvalidGroup) {
				t.Errorf("expected ErrInvalidGroup, got %v", err)
			}
		})
	}
}

func TestCompositeInfo(t *testing.T) {
	t.Run("RewriteKeepsUnknownKeys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), MetadataFile)
		writeFile(t, path, `{"version": 4, "composite": true, "texture_format_category": 0, "category": {"format": 147, "resolution": 1536}, "subgroup": {"X": {}}}`)

		info, err := LoadCompositeInfo(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		info.SetTextureFormatCategory(1)
		if err := info.ResetCategoryFormat(); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if err := info.Save(path); err != nil {
			t.Fatalf("save: %v", err)
		}

		back, err := LoadCompositeInfo(path)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		category, err := back.TextureFormatCategory()
		if err != nil || category != 1 {
			t.Errorf("texture_format_category: got %d, %v", category, err)
		}
		format, ok, err := back.CategoryFormat()
		if err != nil || !ok || format != 0 {
			t.Errorf("category.format: got %d, %v, %v", format, ok, err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		for _, want := range []string{`"resolution": 1536`, `"subgroup"`, `"version": 4`} {
			if !strings.Contains(string(data), want) {
				t.Errorf("missing %s in:\n%s", want, data)
			}
		}
	})

	t.Run("NullCategory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), MetadataFile)
		writeFile(t, path, `{"composite": true, "category": null}`)

		info, err := LoadCompositeInfo(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if info.HasCategory() {
			t.Error("null category reported as present")
		}
		if err := info.ResetCategoryFormat(); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if info.HasCategory() {
			t.Error("reset must not create a category")
		}
	})
}

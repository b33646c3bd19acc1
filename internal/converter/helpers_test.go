package converter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/rsb"
	"github.com/jchantrell/rsbconv/internal/scg"
	"github.com/jchantrell/rsbconv/internal/session"
)

// packetFixture describes a packet to build into a test bundle.
type packetFixture struct {
	name      string
	metadata  any
	resources map[string]string // slash path below resource/ -> content
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// buildBundle packs the packets into a bundle for source and returns its path.
func buildBundle(t *testing.T, source platform.Platform, fileName string, packets ...packetFixture) string {
	t.Helper()
	root := t.TempDir()
	bundleDir := filepath.Join(root, "build")

	names := make([]string, 0, len(packets))
	for _, p := range packets {
		names = append(names, p.name)

		pkg := filepath.Join(root, "packages", p.name)
		writeFile(t, filepath.Join(pkg, scg.MetadataFile), mustJSON(t, p.metadata))
		for rel, content := range p.resources {
			writeFile(t, filepath.Join(pkg, "resource", filepath.FromSlash(rel)), []byte(content))
		}

		packet := filepath.Join(bundleDir, "packet", p.name+".scg")
		if err := os.MkdirAll(filepath.Dir(packet), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := scg.NewCodec().Encode(pkg, packet, scg.Setting{}); err != nil {
			t.Fatalf("encode %s: %v", p.name, err)
		}
	}

	manifest := map[string]any{"version": 4, "packet": names, "ptx_info_size": 16}
	writeFile(t, filepath.Join(bundleDir, rsb.ManifestFile), mustJSON(t, manifest))

	out := filepath.Join(root, fileName)
	if err := rsb.NewCodec().Pack(bundleDir, out, rsb.SettingFor(source)); err != nil {
		t.Fatalf("pack: %v", err)
	}
	return out
}

func plainPacket(name string, source platform.Platform) packetFixture {
	return packetFixture{
		name: name,
		metadata: map[string]any{
			"version":                 4,
			"composite":               false,
			"texture_format_category": source.TextureFormatCategory(),
			"category":                nil,
			"subgroup":                map[string]any{},
		},
		resources: map[string]string{"data/" + name + ".rton": "rton"},
	}
}

func compositePacket(name string, source platform.Platform, category any) packetFixture {
	return packetFixture{
		name: name,
		metadata: map[string]any{
			"version":                 4,
			"composite":               true,
			"texture_format_category": source.TextureFormatCategory(),
			"category":                category,
			"subgroup":                map[string]any{name + "_1536": map[string]any{}},
		},
		resources: map[string]string{"images/" + name + ".ptx": "ptx"},
	}
}

// audioPacket builds a streaming audio packet laid out the way source ships it.
func audioPacket(name string, source platform.Platform, compression uint32, files ...string) packetFixture {
	info := &scg.GroupInfo{
		Version:               4,
		TextureFormatCategory: source.TextureFormatCategory(),
		Subgroup: map[string]scg.Subgroup{
			name: {
				Category: &scg.SubgroupCategory{Compression: compression},
				Resource: map[string]scg.Resource{},
			},
		},
	}
	resources := map[string]string{}
	for _, f := range files {
		rel := ResourcePath(f, source)
		info.Subgroup[name].Resource[ResourceID(f, source)] = scg.Resource{Type: scg.ResourceTypeFile, Path: rel}
		resources[rel] = "wem:" + f
	}
	return packetFixture{name: name, metadata: info, resources: resources}
}

// unpackBundle unpacks a converted bundle for target.
func unpackBundle(t *testing.T, path string, target platform.Platform) (string, *rsb.Manifest) {
	t.Helper()
	dir := t.TempDir()
	if err := rsb.NewCodec().Unpack(path, dir, rsb.SettingFor(target)); err != nil {
		t.Fatalf("unpack %s: %v", path, err)
	}
	m, err := rsb.LoadManifest(filepath.Join(dir, rsb.ManifestFile))
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	return dir, m
}

// decodePacket decodes a packet from an unpacked bundle.
func decodePacket(t *testing.T, bundleDir, name string) string {
	t.Helper()
	dest := filepath.Join(t.TempDir(), name+".scg.package")
	if err := scg.NewCodec().Decode(packetFile(bundleDir, name), dest, scg.Setting{}); err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	return dest
}

func headerBytes(t *testing.T, bundleDir, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(packetFile(bundleDir, name))
	if err != nil {
		t.Fatalf("read packet %s: %v", name, err)
	}
	return data[scg.FormatFlagOffset : scg.FormatFlagOffset+4]
}

func baseNames(paths map[string]scg.Resource) []string {
	var names []string
	for _, r := range paths {
		names = append(names, path.Base(r.Path))
	}
	sort.Strings(names)
	return names
}

func newConverter() *Converter {
	return New(rsb.NewCodec(), scg.NewCodec())
}

// testSession logs into buf and advances its clock one second per reading.
func testSession(buf *bytes.Buffer) *session.Session {
	t := time.Unix(0, 0)
	clock := func() time.Time {
		t = t.Add(time.Second)
		return t
	}
	return session.New(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), session.WithClock(clock))
}

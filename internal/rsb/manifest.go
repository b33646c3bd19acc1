package rsb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jchantrell/rsbconv/internal/utils"
)

// ManifestFile is the name of the manifest inside an unpacked bundle.
const ManifestFile = "data.json"

// PacketDir holds the packet files of an unpacked bundle.
const PacketDir = "packet"

// PacketExtension is the file extension of a packet.
const PacketExtension = ".scg"

// Manifest is the top level data.json of an unpacked bundle. Packet is the
// ordered packet list; any other keys are kept as they were read.
type Manifest struct {
	Version uint32
	Packet  []string

	extra map[string]json.RawMessage
}

// LoadManifest reads the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{}
	if err := utils.ReadJSON(path, m); err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	return m, nil
}

// SaveManifest writes the manifest to path with sorted keys.
func SaveManifest(path string, m *Manifest) error {
	if err := utils.WriteJSON(path, m); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("manifest is not an object")
	}

	raw, ok := fields["packet"]
	if !ok {
		return fmt.Errorf("manifest has no packet list")
	}
	if err := json.Unmarshal(raw, &m.Packet); err != nil {
		return fmt.Errorf("packet list: %w", err)
	}
	delete(fields, "packet")

	if raw, ok := fields["version"]; ok {
		if err := json.Unmarshal(raw, &m.Version); err != nil {
			return fmt.Errorf("version: %w", err)
		}
		delete(fields, "version")
	}

	m.extra = fields
	return nil
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(m.extra)+2)
	for k, v := range m.extra {
		fields[k] = v
	}
	packets := m.Packet
	if packets == nil {
		packets = []string{}
	}
	fields["packet"] = packets
	fields["version"] = m.Version
	return json.Marshal(fields)
}

// IndexOf returns the position of the named packet, or -1. Packet names are
// compared case-insensitively, as packet files are on most devices.
func (m *Manifest) IndexOf(name string) int {
	for i, p := range m.Packet {
		if strings.EqualFold(p, name) {
			return i
		}
	}
	return -1
}

// PacketPath returns the slash separated path of a packet file relative to
// the bundle directory.
func PacketPath(name string) string {
	return PacketDir + "/" + name + PacketExtension
}

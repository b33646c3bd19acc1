// Package platform describes the two targets a resource stream bundle can be
// built for and the per-platform values the converter writes.
package platform

import (
	"fmt"
	"strings"
)

// Platform identifies a bundle target.
type Platform int

const (
	Android Platform = iota
	IOS
)

// Canonical names of the streaming audio packet on each platform.
const (
	AndroidAudioGroup = "StreamingWave"
	IOSAudioGroup     = "Global_Data"
)

// Parse accepts "ios" or "android" in any case.
func Parse(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ios":
		return IOS, nil
	case "android":
		return Android, nil
	default:
		return 0, fmt.Errorf("unknown platform %q: expected ios or android", s)
	}
}

func (p Platform) String() string {
	if p == IOS {
		return "ios"
	}
	return "android"
}

// Opposite returns the platform a bundle targeting p is converted from.
func (p Platform) Opposite() Platform {
	if p == IOS {
		return Android
	}
	return IOS
}

// TextureFormatCategory is the value stored in bundle and packet metadata.
func (p Platform) TextureFormatCategory() uint32 {
	if p == IOS {
		return 1
	}
	return 0
}

// ContainerFlag is the value stored in a packet header at the format flag offset.
func (p Platform) ContainerFlag() uint32 {
	if p == IOS {
		return 4
	}
	return 2
}

// AudioGroup returns the canonical streaming audio packet name.
func (p Platform) AudioGroup() string {
	if p == IOS {
		return IOSAudioGroup
	}
	return AndroidAudioGroup
}

// BundleSuffix is appended to the source name, minus its extension, to name
// the converted bundle.
func (p Platform) BundleSuffix() string {
	if p == IOS {
		return ".main.rsb"
	}
	return ".main.obb"
}

// FromTextureFormatCategory maps a stored category back to its platform.
func FromTextureFormatCategory(category uint32) (Platform, error) {
	switch category {
	case 0:
		return Android, nil
	case 1:
		return IOS, nil
	default:
		return 0, fmt.Errorf("unknown texture format category %d", category)
	}
}

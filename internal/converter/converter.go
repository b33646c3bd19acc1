// Package converter rewrites a resource stream bundle built for one platform
// into the equivalent bundle for the other one, packet by packet.
package converter

import (
	"path/filepath"
	"time"

	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/rsb"
	"github.com/jchantrell/rsbconv/internal/scg"
)

// BundleCodec unpacks a bundle to a directory and packs it back.
type BundleCodec interface {
	Unpack(src, dest string, setting rsb.Setting) error
	Pack(dir, out string, setting rsb.Setting) error
}

// GroupCodec decodes a packet to a package directory and encodes it back.
type GroupCodec interface {
	IsComposite(path string) (bool, error)
	Decode(src, dest string, setting scg.Setting) error
	Encode(dir, dest string, setting scg.Setting) error
}

// Converter drives one bundle conversion at a time. It holds no per-run
// state, so one value may serve concurrent conversions in separate work
// directories.
type Converter struct {
	bundles BundleCodec
	groups  GroupCodec
	setting scg.Setting

	onlyHighResolution bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithGroupSetting sets the options passed to every group decode and encode.
func WithGroupSetting(setting scg.Setting) Option {
	return func(c *Converter) {
		c.setting = setting
	}
}

// WithOnlyHighResolution controls whether bundles are read and written with
// their high resolution textures only. It defaults to true.
func WithOnlyHighResolution(only bool) Option {
	return func(c *Converter) {
		c.onlyHighResolution = only
	}
}

// New returns a converter using the given codecs.
func New(bundles BundleCodec, groups GroupCodec, opts ...Option) *Converter {
	c := &Converter{
		bundles: bundles,
		groups:  groups,

		onlyHighResolution: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PacketResult records what happened to one packet.
type PacketResult struct {
	Name    string
	Renamed string // new name, set only by the audio restructure
	Action  Action
}

// Result summarises a finished conversion.
type Result struct {
	Source   string
	Output   string
	Target   platform.Platform
	Before   []string // packet list as unpacked
	After    []string // packet list as packed
	Packets  []PacketResult
	Duration time.Duration
}

// packetFile is the on-disk location of a packet inside a work directory.
func packetFile(workDir, name string) string {
	return filepath.Join(workDir, filepath.FromSlash(rsb.PacketPath(name)))
}

// packageDir is where a packet is decoded to.
func packageDir(workDir, name string) string {
	return packetFile(workDir, name) + ".package"
}

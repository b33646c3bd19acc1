package converter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/scg"
	"github.com/jchantrell/rsbconv/internal/session"
)

// reencodeComposite retags a composite packet for target in place.
func (c *Converter) reencodeComposite(sess *session.Session, workDir, name string, target platform.Platform) error {
	packet := packetFile(workDir, name)
	pkg := packageDir(workDir, name)

	if err := c.groups.Decode(packet, pkg, c.setting); err != nil {
		return fmt.Errorf("decoding packet: %w", err)
	}

	metadataPath := filepath.Join(pkg, scg.MetadataFile)
	info, err := scg.LoadCompositeInfo(metadataPath)
	if err != nil {
		return err
	}
	info.SetTextureFormatCategory(target.TextureFormatCategory())
	format, hasFormat, err := info.CategoryFormat()
	if err != nil {
		return err
	}
	if err := info.ResetCategoryFormat(); err != nil {
		return err
	}
	if hasFormat {
		sess.Logger.Debug("Reset category format", "packet", name, "format", format)
	}
	if err := info.Save(metadataPath); err != nil {
		return err
	}

	if err := c.groups.Encode(pkg, packet, c.setting); err != nil {
		return fmt.Errorf("encoding packet: %w", err)
	}
	if err := os.RemoveAll(pkg); err != nil {
		return fmt.Errorf("removing package directory: %w", err)
	}
	return nil
}

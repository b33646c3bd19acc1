package converter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/rsb"
	"github.com/jchantrell/rsbconv/internal/session"
)

// Convert unpacks source into workDir, converts every packet for target and
// packs the result next to source (see rsb.OutputPath). The work directory is
// removed on success. On failure it is left as it was for inspection and no
// output bundle is written.
func (c *Converter) Convert(sess *session.Session, source, workDir string, target platform.Platform) (*Result, error) {
	sess.Start()
	logger := sess.Logger.With("target", target.String())

	logger.Info("Unpacking bundle", "source", source, "work_dir", workDir)
	if err := c.bundles.Unpack(source, workDir, c.bundleSetting(target.Opposite())); err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", source, err)
	}

	manifestPath := filepath.Join(workDir, rsb.ManifestFile)
	manifest, err := rsb.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Source: source,
		Output: rsb.OutputPath(source, target),
		Target: target,
		Before: append([]string(nil), manifest.Packet...),
	}

	audioProcessed := 0
	for i, name := range manifest.Packet {
		composite, err := c.groups.IsComposite(packetFile(workDir, name))
		if err != nil {
			return nil, fmt.Errorf("checking packet %s: %w", name, err)
		}

		action := Classify(name, composite, target)
		logger.Debug("Processing packet", "packet", name, "action", action.String())
		packet := PacketResult{Name: name, Action: action}

		switch action {
		case ActionReencode:
			err = c.reencodeComposite(sess, workDir, name, target)
		case ActionRestructureAudio:
			if j := manifest.IndexOf(target.AudioGroup()); j >= 0 {
				return nil, fmt.Errorf("converting packet %s: packet list already contains %s", name, manifest.Packet[j])
			}
			var renamed string
			renamed, err = c.restructureAudio(sess, workDir, name, target)
			if err == nil {
				manifest.Packet[i] = renamed
				packet.Renamed = renamed
				audioProcessed++
			}
		default:
			err = PatchFormatFlag(packetFile(workDir, name), target.ContainerFlag())
		}
		if err != nil {
			return nil, fmt.Errorf("converting packet %s: %w", name, err)
		}

		result.Packets = append(result.Packets, packet)
	}

	if audioProcessed != 1 {
		return nil, &IntegrityError{
			Target:   target,
			Expected: target.Opposite().AudioGroup(),
			Found:    audioProcessed,
		}
	}

	if err := rsb.SaveManifest(manifestPath, manifest); err != nil {
		return nil, err
	}
	result.After = append([]string(nil), manifest.Packet...)

	logger.Info("Packing bundle", "output", result.Output, "packets", len(manifest.Packet))
	if err := c.bundles.Pack(workDir, result.Output, c.bundleSetting(target)); err != nil {
		return nil, fmt.Errorf("packing %s: %w", result.Output, err)
	}

	if err := os.RemoveAll(workDir); err != nil {
		return nil, fmt.Errorf("removing work directory: %w", err)
	}

	result.Duration = sess.Stop()
	logger.Info("Converted bundle", "output", result.Output, "duration", result.Duration)
	return result, nil
}

func (c *Converter) bundleSetting(p platform.Platform) rsb.Setting {
	s := rsb.SettingFor(p)
	s.OnlyHighResolution = c.onlyHighResolution
	return s
}

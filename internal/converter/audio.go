package converter

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/scg"
	"github.com/jchantrell/rsbconv/internal/session"
	"github.com/jchantrell/rsbconv/internal/utils"
)

const (
	streamingWaveDir    = "streamingwaves"
	streamingWavePrefix = "RESFILE_STREAMINGWAVES_"
	streamingWaveExt    = ".wem"
	resourceDir         = "resource"
)

// ResourceID names a streaming audio resource in the target's audio group.
func ResourceID(fileName string, target platform.Platform) string {
	if target == platform.IOS {
		return streamingWavePrefix + strings.ToUpper(platform.IOSAudioGroup) + "_" + fileName
	}
	return streamingWavePrefix + fileName
}

// ResourcePath is the slash separated path of a relocated audio file,
// relative to the package's resource directory.
func ResourcePath(fileName string, target platform.Platform) string {
	return path.Join(resourceFolder(target), fileName+streamingWaveExt)
}

// iOS nests the audio files one level deeper, under the group name.
func resourceFolder(target platform.Platform) string {
	if target == platform.IOS {
		return path.Join(streamingWaveDir, platform.IOSAudioGroup)
	}
	return streamingWaveDir
}

// restructureAudio rebuilds the source platform's streaming audio packet as
// the target's canonical audio group and returns the new packet name.
func (c *Converter) restructureAudio(sess *session.Session, workDir, name string, target platform.Platform) (string, error) {
	newName := target.AudioGroup()
	srcPkg := packageDir(workDir, name)
	newPkg := packageDir(workDir, newName)

	if err := c.groups.Decode(packetFile(workDir, name), srcPkg, c.setting); err != nil {
		return "", fmt.Errorf("decoding packet: %w", err)
	}

	source, err := scg.LoadGroupInfo(filepath.Join(srcPkg, scg.MetadataFile))
	if err != nil {
		return "", err
	}
	subgroupName, subgroup, err := source.Single()
	if err != nil {
		return "", err
	}

	rebuilt := &scg.GroupInfo{
		Version:               source.Version,
		TextureFormatCategory: target.TextureFormatCategory(),
		Composite:             false,
		Category:              nil,
		Subgroup: map[string]scg.Subgroup{
			newName: {
				Category: &scg.SubgroupCategory{
					CommonType:  false,
					Locale:      nil,
					Compression: subgroup.Category.Compression,
				},
				Resource: make(map[string]scg.Resource, len(subgroup.Resource)),
			},
		},
	}
	resources := rebuilt.Subgroup[newName].Resource

	if err := os.MkdirAll(filepath.Join(newPkg, resourceDir, filepath.FromSlash(resourceFolder(target))), 0755); err != nil {
		return "", fmt.Errorf("creating resource directory: %w", err)
	}

	for _, id := range subgroup.ResourceIDs() {
		res := subgroup.Resource[id]
		fileName := utils.BaseWithoutExtension(res.Path)
		newID := ResourceID(fileName, target)
		if _, ok := resources[newID]; ok {
			return "", fmt.Errorf("%w: resources in %s collide on %s", scg.ErrInvalidGroup, subgroupName, newID)
		}

		newPath := ResourcePath(fileName, target)
		resources[newID] = scg.Resource{Type: scg.ResourceTypeFile, Path: newPath}

		from := filepath.Join(srcPkg, resourceDir, filepath.FromSlash(res.SlashPath()))
		to := filepath.Join(newPkg, resourceDir, filepath.FromSlash(newPath))
		if err := utils.MoveFile(from, to); err != nil {
			return "", fmt.Errorf("moving resource %s: %w", id, err)
		}
		sess.Logger.Debug("Relocated resource", "from", id, "to", newID)
	}

	if err := rebuilt.Save(filepath.Join(newPkg, scg.MetadataFile)); err != nil {
		return "", err
	}
	if err := c.groups.Encode(newPkg, packetFile(workDir, newName), c.setting); err != nil {
		return "", fmt.Errorf("encoding packet %s: %w", newName, err)
	}

	for _, dir := range []string{srcPkg, newPkg} {
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("removing package directory: %w", err)
		}
	}

	sess.Logger.Info("Restructured streaming wave",
		"from", name,
		"to", newName,
		"subgroup", subgroupName,
		"resources", len(resources))
	return newName, nil
}

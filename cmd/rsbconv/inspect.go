package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/rsb"
	"github.com/jchantrell/rsbconv/internal/scg"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <bundle>",
	Short: "List the packets of a bundle",
	Long: `Inspect unpacks a bundle into a temporary directory and prints its platform
and every packet with its composite bit and container format flag.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]

		header, err := rsb.ReadInfo(source)
		if err != nil {
			return fmt.Errorf("reading bundle header: %w", err)
		}
		p, err := platform.FromTextureFormatCategory(header.TextureFormatCategory)
		if err != nil {
			return fmt.Errorf("reading bundle header: %w", err)
		}

		dir, err := os.MkdirTemp("", "rsbconv-inspect-")
		if err != nil {
			return fmt.Errorf("creating temporary directory: %w", err)
		}
		defer os.RemoveAll(dir)

		slog.Debug("Unpacking bundle", "source", source, "dir", dir)
		if err := rsb.NewCodec().Unpack(source, dir, rsb.SettingFor(p)); err != nil {
			return fmt.Errorf("unpacking bundle: %w", err)
		}

		manifest, err := rsb.LoadManifest(filepath.Join(dir, rsb.ManifestFile))
		if err != nil {
			return fmt.Errorf("loading manifest: %w", err)
		}

		fmt.Printf("Bundle: %s\n", source)
		fmt.Printf("Platform: %s (texture format category %d)\n", p, header.TextureFormatCategory)
		fmt.Printf("Packets: %d\n", len(manifest.Packet))
		for _, name := range manifest.Packet {
			h, err := scg.ReadHeaderFile(filepath.Join(dir, filepath.FromSlash(rsb.PacketPath(name))))
			if err != nil {
				fmt.Printf("  %-32s error: %v\n", name, err)
				continue
			}
			kind := "plain"
			if h.IsComposite() {
				kind = "composite"
			}
			if strings.EqualFold(name, p.AudioGroup()) {
				kind = "streaming wave"
			}
			fmt.Printf("  %-32s %-14s flag=%d\n", name, kind, h.FormatFlag)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

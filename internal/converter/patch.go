package converter

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/jchantrell/rsbconv/internal/scg"
)

// PatchFormatFlag writes flag as a little-endian uint32 at the packet
// header's format flag offset, leaving every other byte untouched.
func PatchFormatFlag(path string, flag uint32) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if info.Size() < scg.FormatFlagOffset+4 {
		f.Close()
		return fmt.Errorf("%s is too short for a packet header (%d bytes)", path, info.Size())
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], flag)
	if _, err := f.WriteAt(buf[:], scg.FormatFlagOffset); err != nil {
		f.Close()
		return fmt.Errorf("writing format flag: %w", err)
	}
	return f.Close()
}

package converter

import (
	"fmt"
	"strings"

	"github.com/jchantrell/rsbconv/internal/platform"
)

// Action is the conversion path chosen for a packet.
type Action int

const (
	// ActionPatchFlag rewrites the container format flag in the header.
	ActionPatchFlag Action = iota
	// ActionReencode decodes a composite packet, retags it and encodes it.
	ActionReencode
	// ActionRestructureAudio rebuilds the streaming audio packet under the
	// target platform's name and layout.
	ActionRestructureAudio
)

func (a Action) String() string {
	switch a {
	case ActionPatchFlag:
		return "patch_flag"
	case ActionReencode:
		return "reencode"
	case ActionRestructureAudio:
		return "restructure_audio"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Classify picks the path for a packet. Composite packets are always
// re-encoded. Otherwise only the audio packet named for the source platform
// is restructured; a packet carrying the target's own audio name is treated
// like any other plain packet.
func Classify(name string, composite bool, target platform.Platform) Action {
	if composite {
		return ActionReencode
	}
	if strings.EqualFold(name, target.Opposite().AudioGroup()) {
		return ActionRestructureAudio
	}
	return ActionPatchFlag
}

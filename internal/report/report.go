// Package report renders human readable summaries of bundle conversions.
package report

import (
	"fmt"
	"sort"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/jchantrell/rsbconv/internal/converter"
)

// DefaultContext is the number of unchanged packets shown around a change.
const DefaultContext = 3

// PacketDiff renders a unified diff of the manifest packet list before and
// after a conversion. It returns an empty string when nothing was renamed.
func PacketDiff(fromName, toName string, before, after []string, context int) (string, error) {
	if context <= 0 {
		context = DefaultContext
	}

	u := difflib.UnifiedDiff{
		A:        lines(before),
		B:        lines(after),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("diffing packet lists: %w", err)
	}
	return s, nil
}

// ResultDiff is PacketDiff for a finished conversion.
func ResultDiff(r *converter.Result) (string, error) {
	return PacketDiff(r.Source, r.Output, r.Before, r.After, DefaultContext)
}

// ActionCounts tallies the packets of a conversion by action.
func ActionCounts(packets []converter.PacketResult) map[converter.Action]int {
	counts := make(map[converter.Action]int)
	for _, p := range packets {
		counts[p.Action]++
	}
	return counts
}

// Summary is a one line description of a conversion, e.g.
// "3 packets: 1 restructure_audio, 1 reencode, 1 patch_flag".
func Summary(r *converter.Result) string {
	counts := ActionCounts(r.Packets)

	actions := make([]converter.Action, 0, len(counts))
	for a := range counts {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] > actions[j] })

	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, fmt.Sprintf("%d %s", counts[a], a))
	}
	return fmt.Sprintf("%d packets: %s", len(r.Packets), strings.Join(parts, ", "))
}

func lines(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "\n"
	}
	return out
}

package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress represents a progress bar using mpb. The bar is created on the
// first update, once the total is known.
type Progress struct {
	mu          sync.Mutex
	output      io.Writer
	container   *mpb.Progress
	bar         *mpb.Bar
	enabled     bool
	description atomic.Value
}

var descLength = 24

// NewProgress creates a progress bar on stderr. It stays disabled unless
// stderr is a terminal.
func NewProgress(enabled bool) *Progress {
	return &Progress{
		output:  os.Stderr,
		enabled: enabled && isTerminal(),
	}
}

// Enabled reports whether updates are drawn.
func (p *Progress) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetEnabled allows manually enabling/disabling the progress bar
func (p *Progress) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enabled = enabled
	if !enabled && p.container != nil {
		p.container.Shutdown()
		p.container = nil
		p.bar = nil
	}
}

// Update sets the bar to current of total with a short description. It has
// the signature of a session progress callback.
func (p *Progress) Update(current, total int, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}
	if p.bar == nil {
		p.start(total)
	}

	p.description.Store(description)
	p.bar.SetCurrent(int64(current))
}

func (p *Progress) start(total int) {
	// Add space before progress bar
	fmt.Fprintln(p.output)

	p.container = mpb.New(
		mpb.WithOutput(p.output),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				desc, _ := p.description.Load().(string)
				if len(desc) > descLength {
					return desc[:descLength-2] + ".."
				}
				return desc
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
}

// Finish completes the progress bar and shuts down the container. A bar
// left short of its total, for example after a failed batch, is aborted in
// place.
func (p *Progress) Finish() {
	p.mu.Lock()
	container, bar := p.container, p.bar
	p.container, p.bar = nil, nil
	p.mu.Unlock()

	if container == nil {
		return
	}
	if !bar.Completed() {
		bar.Abort(false)
	}
	container.Wait()

	// Add space after progress bar
	fmt.Fprintln(p.output)
}

// isTerminal checks if stderr is a terminal (TTY)
func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

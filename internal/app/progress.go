package app

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// defaultTermWidth is used when the terminal width can't be determined (not
// a TTY, e.g. when output is piped).
const defaultTermWidth = 80

// progressBar renders a single-line, continuously-redrawn progress readout
// sized to the actual terminal width, the way an interactive CLI backup tool
// shows live throughput.
type progressBar struct {
	mu     sync.Mutex
	label  string
	out    *os.File
	active bool
}

func newProgressBar(label string, out *os.File) *progressBar {
	return &progressBar{label: label, out: out}
}

func (p *progressBar) width() int {
	if p.out == nil {
		return defaultTermWidth
	}
	w, _, err := term.GetSize(int(p.out.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// Update redraws the bar in place. done/total are bytes; bps is the current
// average throughput; etaSeconds is -1 when unknown.
func (p *progressBar) Update(done, total int64, bps float64, etaSeconds int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	width := p.width()

	var pct float64
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}

	eta := "--:--"
	if etaSeconds >= 0 {
		eta = fmt.Sprintf("%02d:%02d", etaSeconds/60, etaSeconds%60)
	}

	line := fmt.Sprintf("%s: %5.1f%%  %s/%s  %s/s  eta %s",
		p.label, pct, formatBytes(done), formatBytes(total), formatBytes(int64(bps)), eta)
	if len(line) > width && width > 3 {
		line = line[:width-3] + "..."
	}

	fmt.Fprintf(p.out, "\r%-*s", width, line)
	p.active = true
}

// Done clears the line and prints a final summary.
func (p *progressBar) Done(ok bool, summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", p.width()))
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	fmt.Fprintf(p.out, "%s: %s (%s)\n", p.label, status, summary)
	p.active = false
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

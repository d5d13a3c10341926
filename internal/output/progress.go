package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w is a file attached to a terminal. Buffers
// and pipes are not.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar shows how many packages of an update-all run are done.
// Example: [=========>          ] 2/5 tool
type ProgressBar struct {
	mu      sync.Mutex
	total   int
	current int
	label   string
	width   int
	writer  io.Writer
}

// NewProgress creates a progress bar for total steps writing to stderr.
func NewProgress(total int) *ProgressBar {
	return &ProgressBar{
		total:  total,
		width:  30,
		writer: os.Stderr,
	}
}

// SetWriter sets the output writer.
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Step marks the start of the next step and labels it.
func (p *ProgressBar) Step(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.total {
		p.current++
	}
	p.label = label
	p.render()
}

// Finish clears the bar from a terminal. Nothing is written otherwise.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if writerIsTTY(p.writer) {
		fmt.Fprint(p.writer, "\r\033[K")
	}
}

// render must be called with p.mu held. Non-terminal writers get one line
// per step instead of an animated bar.
func (p *ProgressBar) render() {
	if !writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "(%d/%d) %s\n", p.current, p.total, p.label)
		return
	}
	fmt.Fprintf(p.writer, "\r\033[K%s %d/%d %s", p.bar(), p.current, p.total, p.label)
}

func (p *ProgressBar) bar() string {
	filled := 0
	if p.total > 0 {
		filled = p.current * p.width / p.total
	}
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			b.WriteByte('=')
		case i == filled-1:
			b.WriteByte('>')
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// Spinner animates while a clone or fetch is running.
type Spinner struct {
	mu      sync.Mutex
	message string
	running bool
	writer  io.Writer
	done    chan struct{}
}

var spinnerFrames = []string{"|", "/", "-", "\\"}

// NewSpinner creates a spinner writing to stderr. Call Start to show it.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		writer:  os.Stderr,
		done:    make(chan struct{}),
	}
}

// SetWriter sets the output writer.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start shows the spinner. On a non-terminal writer the message is printed
// once and nothing is animated.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-ticker.C:
				s.mu.Lock()
				if s.running {
					fmt.Fprintf(s.writer, "\r%s  %s", spinnerFrames[i%len(spinnerFrames)], s.message)
				}
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop stops the animation and clears its line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)
	if writerIsTTY(s.writer) {
		fmt.Fprint(s.writer, "\r\033[K")
	}
}

// StopWithMessage stops the spinner and prints message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}

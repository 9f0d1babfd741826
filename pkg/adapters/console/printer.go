package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer turns reply markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewMarkdownRenderer returns a glamour renderer adapting to the terminal background.
func NewMarkdownRenderer() (Renderer, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// Printer is a domain.Sender writing replies to a terminal.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	renderer Renderer
	output   *termenv.Output
}

// PrinterOption configures the Printer.
type PrinterOption func(*Printer)

// WithRenderer overrides the renderer chosen by NewPrinter. Nil prints raw text.
func WithRenderer(r Renderer) PrinterOption {
	return func(p *Printer) {
		p.renderer = r
	}
}

// NewPrinter creates a Printer on w, or stdout when w is nil. Replies are
// rendered as markdown only when w is a terminal.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	if w == nil {
		w = os.Stdout
	}
	p := &Printer{w: w, output: termenv.NewOutput(w)}
	if IsTerminal(w) {
		if r, err := NewMarkdownRenderer(); err == nil {
			p.renderer = r
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Send prints one reply.
func (p *Printer) Send(ctx context.Context, conversationID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := text
	if p.renderer != nil {
		if rendered, err := p.renderer(text); err == nil {
			out = rendered
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintln(p.w, strings.TrimSpace(out))
	return err
}

// Prompt prints the input marker.
func (p *Printer) Prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, p.output.String("> ").Faint())
}

// Banner prints the bot name and a usage hint.
func (p *Printer) Banner(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	title := p.output.String(" " + name + " ").Bold().Foreground(p.output.Color("#a78bfa"))
	hint := p.output.String(fmt.Sprintf("type a message, %s<data> to press a button, Ctrl+D to quit", CallbackPrefix)).Faint()
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, title)
	fmt.Fprintln(p.w, hint)
	fmt.Fprintln(p.w)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

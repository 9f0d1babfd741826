package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
)

const (
	// DefaultConversationID is the conversation all console input belongs to.
	DefaultConversationID = "console"
	// CallbackPrefix marks a line as a button press.
	CallbackPrefix = "!"
)

// Source reads updates from a line-oriented reader.
type Source struct {
	reader         io.Reader
	conversationID string
	maxInput       int
	prompt         func()
	logger         *slog.Logger
}

// SourceOption configures the Source.
type SourceOption func(*Source)

// WithConversationID sets the conversation the updates belong to.
func WithConversationID(id string) SourceOption {
	return func(s *Source) {
		if id != "" {
			s.conversationID = id
		}
	}
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) SourceOption {
	return func(s *Source) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// WithPrompt registers a function called before every read.
func WithPrompt(prompt func()) SourceOption {
	return func(s *Source) {
		s.prompt = prompt
	}
}

// WithSourceLogger sets a logger for rejected input.
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source reading r, or stdin when r is nil.
func NewSource(r io.Reader, opts ...SourceOption) *Source {
	if r == nil {
		r = os.Stdin
	}
	s := &Source{
		reader:         r,
		conversationID: DefaultConversationID,
		maxInput:       DefaultMaxInputSize,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Updates implements ports.UpdateSource. The channel is closed at EOF or when
// ctx is done. Blank lines and lines failing Sanitize are skipped.
func (s *Source) Updates(ctx context.Context) (<-chan domain.Update, error) {
	out := make(chan domain.Update)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(s.reader)
		if s.maxInput >= bufio.MaxScanTokenSize {
			scanner.Buffer(make([]byte, 0, 4096), s.maxInput+1)
		}

		var seq int
		for {
			if s.prompt != nil {
				s.prompt()
			}
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					s.logger.Warn("console read failed", "err", err)
				}
				return
			}
			line, err := Sanitize(strings.TrimSpace(scanner.Text()), s.maxInput)
			if err != nil {
				s.logger.Warn("input rejected", "err", err)
				continue
			}
			if line == "" {
				continue
			}
			seq++
			select {
			case out <- s.toUpdate(seq, line):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Source) toUpdate(seq int, line string) domain.Update {
	u := domain.Update{
		ID:             strconv.Itoa(seq),
		Kind:           domain.UpdateMessage,
		ConversationID: s.conversationID,
		Text:           line,
	}
	if data, ok := strings.CutPrefix(line, CallbackPrefix); ok && data != "" {
		u.Kind = domain.UpdateCallback
		u.Text = ""
		u.Callback = &domain.CallbackQuery{ID: u.ID, Data: strings.TrimSpace(data)}
	}
	return u
}

package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/middleware"
	"github.com/aretw0/botflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(conversationID, text string) *domain.Context {
	return domain.NewContext(context.Background(), nil, domain.Update{ConversationID: conversationID, Text: text})
}

// tracer records entry and exit around next.
type tracer struct {
	name string
	log  *[]string
}

func (s *tracer) Invoke(c *domain.Context, next middleware.Next) error {
	*s.log = append(*s.log, s.name+">")
	err := next(c)
	*s.log = append(*s.log, "<"+s.name)
	return err
}

func TestPipeline_Order(t *testing.T) {
	var log []string
	p := middleware.NewPipeline(&tracer{"a", &log}, &tracer{"b", &log})
	p.Add(&tracer{"c", &log})

	require.NoError(t, p.Invoke(newContext("c1", "")))
	assert.Equal(t, []string{"a>", "b>", "c>", "<c", "<b", "<a"}, log)
	assert.Equal(t, 3, p.Len())
}

func TestPipeline_Empty(t *testing.T) {
	assert.NoError(t, middleware.NewPipeline().Invoke(newContext("c1", "")))
}

func TestPipeline_ShortCircuit(t *testing.T) {
	var log []string
	stop := middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
		log = append(log, "stop")
		return nil
	})
	p := middleware.NewPipeline(&tracer{"a", &log}, stop, &tracer{"b", &log})

	require.NoError(t, p.Invoke(newContext("c1", "")))
	assert.Equal(t, []string{"a>", "stop", "<a"}, log)
}

func TestPipeline_ErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("boom")
	var log []string
	fail := middleware.StageFunc(func(*domain.Context, middleware.Next) error { return boom })
	p := middleware.NewPipeline(&tracer{"a", &log}, fail)

	err := p.Invoke(newContext("c1", ""))
	assert.Same(t, boom, err)
	assert.Equal(t, []string{"a>", "<a"}, log)
}

func TestPipeline_RewritesVisibleDownstream(t *testing.T) {
	var seen string
	p := middleware.NewPipeline(
		middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
			c.Text = strings.ToUpper(c.Text)
			return next(c)
		}),
		middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
			seen = c.Text
			return next(c)
		}),
	)
	require.NoError(t, p.Invoke(newContext("c1", "hi")))
	assert.Equal(t, "HI", seen)
}

func TestPipeline_Remove(t *testing.T) {
	var log []string
	a, b := &tracer{"a", &log}, &tracer{"b", &log}
	fn := middleware.StageFunc(func(c *domain.Context, next middleware.Next) error { return next(c) })
	p := middleware.NewPipeline(a, fn, b)

	assert.True(t, p.Remove(a))
	assert.False(t, p.Remove(a))
	assert.False(t, p.Remove(fn), "function stages are not comparable")
	assert.Equal(t, 2, p.Len())

	require.NoError(t, p.Invoke(newContext("c1", "")))
	assert.Equal(t, []string{"b>", "<b"}, log)
}

// wrapped is comparable by type but holds whatever Stage it was given.
type wrapped struct {
	inner middleware.Stage
}

func (w wrapped) Invoke(c *domain.Context, next middleware.Next) error {
	return w.inner.Invoke(c, next)
}

func TestPipeline_RemoveUncomparableValue(t *testing.T) {
	fn := middleware.StageFunc(func(c *domain.Context, next middleware.Next) error { return next(c) })
	stage := wrapped{inner: fn}
	p := middleware.NewPipeline(stage)

	assert.NotPanics(t, func() {
		assert.False(t, p.Remove(wrapped{inner: fn}))
	})
	assert.Equal(t, 1, p.Len())

	var log []string
	tr := &tracer{"a", &log}
	p.Add(wrapped{inner: tr})
	assert.True(t, p.Remove(wrapped{inner: tr}), "comparable values held in the field still match")
	assert.Equal(t, 1, p.Len())
}

func TestRecover(t *testing.T) {
	p := middleware.NewPipeline(middleware.Recover(), middleware.StageFunc(func(*domain.Context, middleware.Next) error {
		panic("kaboom")
	}))

	err := p.Invoke(newContext("c1", ""))
	var perr *middleware.PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "kaboom", perr.Value)
	assert.NotEmpty(t, perr.Stack)
}

func TestRecover_ErrorValue(t *testing.T) {
	boom := errors.New("boom")
	p := middleware.NewPipeline(middleware.Recover(), middleware.StageFunc(func(*domain.Context, middleware.Next) error {
		panic(boom)
	}))
	assert.ErrorIs(t, p.Invoke(newContext("c1", "")), boom)
}

func TestAllowConversations(t *testing.T) {
	var reached []string
	p := middleware.NewPipeline(
		middleware.AllowConversations("admin"),
		middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
			reached = append(reached, c.ConversationID)
			return next(c)
		}),
	)
	require.NoError(t, p.Invoke(newContext("admin", "")))
	require.NoError(t, p.Invoke(newContext("stranger", "")))
	assert.Equal(t, []string{"admin"}, reached)
}

func TestFilter_PredicateError(t *testing.T) {
	boom := errors.New("lookup failed")
	p := middleware.NewPipeline(middleware.Filter(func(*domain.Context) (bool, error) { return false, boom }))
	assert.ErrorIs(t, p.Invoke(newContext("c1", "")), boom)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo)
	boom := errors.New("boom")

	p := middleware.NewPipeline(middleware.Logging(logger), middleware.StageFunc(func(c *domain.Context, _ middleware.Next) error {
		if c.Text == "fail" {
			return boom
		}
		return nil
	}))

	require.NoError(t, p.Invoke(newContext("c1", "ok")))
	assert.ErrorIs(t, p.Invoke(newContext("c1", "fail")), boom)

	out := buf.String()
	assert.Contains(t, out, "dispatch completed")
	assert.Contains(t, out, "dispatch failed")
	assert.Contains(t, out, "conversation_id=c1")
}

func TestTimeout(t *testing.T) {
	p := middleware.NewPipeline(middleware.Timeout(10*time.Millisecond), middleware.StageFunc(func(c *domain.Context, _ middleware.Next) error {
		<-c.Context().Done()
		return c.Context().Err()
	}))
	assert.ErrorIs(t, p.Invoke(newContext("c1", "")), context.DeadlineExceeded)
}

func TestTimeout_RewritesVisibleUpstream(t *testing.T) {
	var afterNext string
	var ctxErr error
	outer := middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
		err := next(c)
		afterNext = c.Text
		ctxErr = c.Context().Err()
		return err
	})
	body := middleware.StageFunc(func(c *domain.Context, _ middleware.Next) error {
		_, hasDeadline := c.Context().Deadline()
		assert.True(t, hasDeadline)
		c.Text = "redirected"
		return nil
	})
	p := middleware.NewPipeline(outer, middleware.Timeout(time.Second), body)

	c := newContext("c1", "orig")
	require.NoError(t, p.Invoke(c))
	assert.Equal(t, "redirected", afterNext)
	assert.NoError(t, ctxErr, "the outer stage gets its own context back")
	_, hasDeadline := c.Context().Deadline()
	assert.False(t, hasDeadline)
}

func TestSerialize(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	p := middleware.NewPipeline(middleware.Serialize(mgr), middleware.StageFunc(func(c *domain.Context, _ middleware.Next) error {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Invoke(newContext("same", "")))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, mgr.Active())
}

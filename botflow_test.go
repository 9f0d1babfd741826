package botflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/middleware"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/aretw0/botflow/pkg/router"
	"github.com/aretw0/botflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// chanSource serves a fixed list of updates.
type chanSource []domain.Update

func (s chanSource) Updates(ctx context.Context) (<-chan domain.Update, error) {
	ch := make(chan domain.Update)
	go func() {
		defer close(ch)
		for _, u := range s {
			select {
			case ch <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// recorder is a thread-safe Sender and ErrorReporter.
type recorder struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    []error
}

func newRecorder() *recorder {
	return &recorder{replies: make(map[string][]string)}
}

func (r *recorder) Send(_ context.Context, conversationID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[conversationID] = append(r.replies[conversationID], text)
	return nil
}

func (r *recorder) Report(_ context.Context, _ domain.Update, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

var echoHost = router.HostFunc(func(b *router.Binder) {
	b.Selector("any", func(*domain.Context) (bool, error) { return true, nil })
	b.State(nil, "main")
	b.Action("echo", func(c *domain.Context) error {
		if c.Text == "fail" {
			return errBoom
		}
		return c.Reply("echo: " + c.Text)
	}).When("any").In("main")
})

func newBot(t *testing.T, rec *recorder, opts ...botflow.Option) *botflow.Bot {
	t.Helper()
	r, err := router.New(memory.NewStore(), "main")
	require.NoError(t, err)
	require.NoError(t, r.Register(echoHost))

	opts = append([]botflow.Option{botflow.WithSender(rec), botflow.WithErrorReporter(rec)}, opts...)
	bot, err := botflow.New(middleware.NewPipeline(r.Stage()), opts...)
	require.NoError(t, err)
	return bot
}

func TestNew_RequiresPipeline(t *testing.T) {
	_, err := botflow.New(nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBot_Dispatch(t *testing.T) {
	rec := newRecorder()
	bot := newBot(t, rec)
	ctx := context.Background()

	require.NoError(t, bot.Dispatch(ctx, domain.Update{ID: "1", ConversationID: "c1", Text: "hi"}))
	assert.Equal(t, []string{"echo: hi"}, rec.replies["c1"])

	err := bot.Dispatch(ctx, domain.Update{ID: "2", ConversationID: "c1", Text: "fail"})
	assert.ErrorIs(t, err, errBoom)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], errBoom)
}

func TestBot_DispatchCallbackUsesMessageText(t *testing.T) {
	rec := newRecorder()
	bot := newBot(t, rec)

	require.NoError(t, bot.Dispatch(context.Background(), domain.Update{
		ID:             "1",
		Kind:           domain.UpdateCallback,
		ConversationID: "c1",
		Callback:       &domain.CallbackQuery{ID: "cb", Data: "yes", MessageText: "Proceed?"},
	}))
	assert.Equal(t, []string{"echo: Proceed?"}, rec.replies["c1"])
}

func TestBot_DispatchBuildError(t *testing.T) {
	rec := newRecorder()
	bot := newBot(t, rec)

	err := bot.Dispatch(context.Background(), domain.Update{ID: "1", Text: "no conversation"})
	require.Error(t, err)
	assert.Len(t, rec.errs, 1)
}

func TestBot_DispatchVia(t *testing.T) {
	rec, other := newRecorder(), newRecorder()
	bot := newBot(t, rec)

	require.NoError(t, bot.DispatchVia(context.Background(), other, domain.Update{ID: "1", ConversationID: "c1", Text: "hi"}))
	assert.Empty(t, rec.replies)
	assert.Equal(t, []string{"echo: hi"}, other.replies["c1"])
}

func TestBot_CustomContextBuilder(t *testing.T) {
	rec := newRecorder()
	builder := ports.ContextBuilderFunc(func(ctx context.Context, sender domain.Sender, u domain.Update) (*domain.Context, error) {
		c, err := ports.DefaultBuilder{}.Build(ctx, sender, u)
		if err != nil {
			return nil, err
		}
		c.Text = "[" + c.Text + "]"
		return c, nil
	})
	bot := newBot(t, rec, botflow.WithContextBuilder(builder))

	require.NoError(t, bot.Dispatch(context.Background(), domain.Update{ID: "1", ConversationID: "c1", Text: "hi"}))
	assert.Equal(t, []string{"echo: [hi]"}, rec.replies["c1"])
}

func TestBot_Run(t *testing.T) {
	rec := newRecorder()
	bot := newBot(t, rec, botflow.WithConcurrency(4))

	source := chanSource{
		{ID: "1", ConversationID: "a", Text: "one"},
		{ID: "2", ConversationID: "b", Text: "two"},
		{ID: "3", ConversationID: "c", Text: "fail"},
		{ID: "4", ConversationID: "d", Text: "four"},
	}
	require.NoError(t, bot.Run(context.Background(), source))

	assert.Equal(t, []string{"echo: one"}, rec.replies["a"])
	assert.Equal(t, []string{"echo: two"}, rec.replies["b"])
	assert.Equal(t, []string{"echo: four"}, rec.replies["d"])
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], errBoom)
}

// blockingSource never produces anything.
type blockingSource struct{}

func (blockingSource) Updates(ctx context.Context) (<-chan domain.Update, error) {
	return make(chan domain.Update), nil
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	bot := newBot(t, newRecorder())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx, blockingSource{}) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestBot_RunSerializedConversation(t *testing.T) {
	store := memory.NewStore()
	r, err := router.New(store, "main")
	require.NoError(t, err)

	counter := 0
	require.NoError(t, r.Register(router.HostFunc(func(b *router.Binder) {
		b.Selector("any", func(*domain.Context) (bool, error) { return true, nil })
		b.State(nil, "main")
		b.Action("count", func(c *domain.Context) error {
			n := counter
			time.Sleep(time.Millisecond)
			counter = n + 1
			return nil
		}).When("any").In("main")
	})))

	bot, err := botflow.New(
		middleware.NewPipeline(middleware.Serialize(session.NewManager(store)), r.Stage()),
		botflow.WithConcurrency(8),
	)
	require.NoError(t, err)

	var source chanSource
	for i := 0; i < 20; i++ {
		source = append(source, domain.Update{ID: "u", ConversationID: "same"})
	}
	require.NoError(t, bot.Run(context.Background(), source))
	assert.Equal(t, 20, counter)
}

package flows_test

import (
	"context"
	"testing"

	"github.com/aretw0/botflow/internal/flows"
	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chat drives the demo for one conversation and collects replies.
type chat struct {
	t       *testing.T
	r       *router.Router
	store   *memory.Store
	id      string
	replies []string
}

func newChat(t *testing.T, demo *flows.Demo) *chat {
	t.Helper()
	store := memory.NewStore()
	r, err := router.New(store, flows.StateMain)
	require.NoError(t, err)
	require.NoError(t, r.Register(demo))
	return &chat{t: t, r: r, store: store, id: "c1"}
}

func (c *chat) Send(_ context.Context, _ string, text string) error {
	c.replies = append(c.replies, text)
	return nil
}

func (c *chat) say(text string) string {
	return c.dispatch(domain.Update{ID: text, Kind: domain.UpdateMessage, ConversationID: c.id, Text: text})
}

func (c *chat) press(data, messageText string) string {
	return c.dispatch(domain.Update{
		ID:             data,
		Kind:           domain.UpdateCallback,
		ConversationID: c.id,
		Callback:       &domain.CallbackQuery{ID: data, Data: data, MessageText: messageText},
	})
}

func (c *chat) dispatch(u domain.Update) string {
	c.t.Helper()
	ctx := domain.NewContext(context.Background(), c, u)
	if u.Kind == domain.UpdateCallback {
		ctx.Text = u.Callback.MessageText
	}
	before := len(c.replies)
	require.NoError(c.t, c.r.Handle(ctx))
	if len(c.replies) == before {
		return ""
	}
	return c.replies[len(c.replies)-1]
}

func (c *chat) state() string {
	c.t.Helper()
	st, err := c.store.GetState(context.Background(), c.id)
	if err != nil {
		return ""
	}
	return st
}

func TestDemo_Welcome(t *testing.T) {
	c := newChat(t, flows.NewDemo())
	assert.Contains(t, c.say("/start"), "Welcome to botflow")
	assert.Equal(t, flows.StateMain, c.state())
	assert.Contains(t, c.say("what?"), "Try `/help`")
}

func TestDemo_EchoMode(t *testing.T) {
	c := newChat(t, flows.NewDemo())

	assert.Contains(t, c.say("/echo"), "Echo mode on")
	assert.Equal(t, flows.StateEcho, c.state())
	assert.Equal(t, "hello there", c.say("hello there"))
	assert.Contains(t, c.say("/help"), "/cancel")
	assert.Contains(t, c.say("/cancel"), "main menu")
	assert.Equal(t, "", c.state())
}

func TestDemo_NameCapture(t *testing.T) {
	demo := flows.NewDemo()
	c := newChat(t, demo)

	assert.Equal(t, "What's your name?", c.say("/name"))
	assert.Contains(t, c.say("/start"), "Please type your name")
	assert.Equal(t, "Nice to meet you, **Ada Lovelace**!", c.say("  Ada   Lovelace "))

	name, ok := demo.Name("c1")
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", name)
	assert.Contains(t, c.say("/start"), "Hi Ada Lovelace!")
}

func TestDemo_CallbackButtons(t *testing.T) {
	c := newChat(t, flows.NewDemo())

	assert.Contains(t, c.press("menu:echo", "Pick one"), "Echo mode on")
	assert.Equal(t, flows.StateEcho, c.state())
	c.say("/cancel")

	assert.Equal(t, "What's your name?", c.press("menu:name", "Pick one"))
	assert.Equal(t, flows.StateAskName, c.state())
}

func TestDemo_CountContinuesToRealAction(t *testing.T) {
	demo := flows.NewDemo()
	c := newChat(t, demo)

	c.say("/start")
	c.say("/echo")
	c.say("hi")
	assert.Equal(t, 3, demo.Count("c1"))
	assert.Len(t, c.replies, 3, "the counting action must not prevent the real reply")
}

func TestDemo_RouteTable(t *testing.T) {
	r, err := router.New(memory.NewStore(), flows.StateMain)
	require.NoError(t, err)
	require.NoError(t, r.Register(flows.NewDemo()))

	routes := r.Describe()
	require.Len(t, routes, 3)
	for _, route := range routes {
		require.NotEmpty(t, route.Actions)
		assert.Equal(t, "count", route.Actions[0].Name)
		assert.True(t, route.Actions[0].ContinueOnMatch)
	}
}

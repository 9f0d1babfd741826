package fsm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/fsm"
	"github.com/aretw0/botflow/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(conversationID, text string) *domain.Context {
	return domain.NewContext(context.Background(), nil, domain.Update{ConversationID: conversationID, Text: text})
}

// failingStore returns err from every read.
type failingStore struct {
	*memory.Store
	err error
}

func (f failingStore) GetState(ctx context.Context, conversationID string) (string, error) {
	return "", f.err
}

func mustState(t *testing.T, name string, entry fsm.EntryFunc) *fsm.State {
	t.Helper()
	s, err := fsm.NewState(name, entry)
	require.NoError(t, err)
	return s
}

func alwaysAction(t *testing.T, name string, log *[]string) *rules.Action {
	t.Helper()
	sel, err := rules.NewSelector("always-"+name, func(*domain.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	a, err := rules.NewAction(name, 0, false, func(*domain.Context) error {
		*log = append(*log, name)
		return nil
	})
	require.NoError(t, err)
	a.AddSelector(sel)
	return a
}

func TestNew_Validation(t *testing.T) {
	_, err := fsm.New(nil, "main")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = fsm.New(memory.NewStore(), "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestMachine_DuplicateState(t *testing.T) {
	m, err := fsm.New(memory.NewStore(), "main")
	require.NoError(t, err)

	require.NoError(t, m.Add(mustState(t, "main", nil)))
	err = m.Add(mustState(t, "main", nil))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, []string{"main"}, m.Names())
}

func TestMachine_NewConversationStartsInBase(t *testing.T) {
	store := memory.NewStore()
	m, err := fsm.New(store, "main")
	require.NoError(t, err)

	var ran []string
	require.NoError(t, m.Add(mustState(t, "main", func(c *domain.Context, rs *rules.RuleSet) error {
		ran = append(ran, "main:"+c.State.Current())
		return nil
	})))
	require.NoError(t, m.Add(mustState(t, "other", func(c *domain.Context, rs *rules.RuleSet) error {
		ran = append(ran, "other")
		return nil
	})))

	require.NoError(t, m.Handle(newContext("chat-1", "hi")))

	assert.Equal(t, []string{"main:main"}, ran)
	stored, err := store.GetState(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "main", stored)
}

func TestMachine_UnknownBaseState(t *testing.T) {
	store := memory.NewStore()
	m, err := fsm.New(store, "main")
	require.NoError(t, err)
	require.NoError(t, m.Add(mustState(t, "other", nil)))

	err = m.Handle(newContext("chat-1", "hi"))
	assert.ErrorIs(t, err, domain.ErrUnknownBaseState)

	_, err = store.GetState(context.Background(), "chat-1")
	assert.ErrorIs(t, err, domain.ErrStateNotFound, "base state must not be persisted when it is unknown")
}

func TestMachine_StaleStoredState(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetState(context.Background(), "chat-1", "renamed_away"))

	m, err := fsm.New(store, "main")
	require.NoError(t, err)

	var ran []string
	main := mustState(t, "main", func(c *domain.Context, rs *rules.RuleSet) error {
		ran = append(ran, "main")
		return rs.Handle(c)
	})
	main.AddAction(alwaysAction(t, "act", &ran))
	require.NoError(t, m.Add(main))

	err = m.Handle(newContext("chat-1", "hi"))

	var unknown *domain.UnknownStateError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "renamed_away", unknown.State)
	assert.ErrorIs(t, err, domain.ErrUnknownState)
	assert.Empty(t, ran)
}

func TestMachine_EntryBodyControlsRuleEvaluation(t *testing.T) {
	m, err := fsm.New(memory.NewStore(), "main")
	require.NoError(t, err)

	var log []string
	main := mustState(t, "main", func(c *domain.Context, rs *rules.RuleSet) error {
		log = append(log, "entry")
		if c.Text == "skip" {
			return nil
		}
		return rs.Handle(c)
	})
	main.AddAction(alwaysAction(t, "act", &log))
	require.NoError(t, m.Add(main))

	require.NoError(t, m.Handle(newContext("1", "skip")))
	assert.Equal(t, []string{"entry"}, log)

	log = nil
	require.NoError(t, m.Handle(newContext("1", "go")))
	assert.Equal(t, []string{"entry", "act"}, log)
}

func TestMachine_NoEntryBodyRunsRules(t *testing.T) {
	m, err := fsm.New(memory.NewStore(), "main")
	require.NoError(t, err)

	var log []string
	main := mustState(t, "main", nil)
	main.AddAction(alwaysAction(t, "act", &log))
	require.NoError(t, m.Add(main))

	require.NoError(t, m.Handle(newContext("1", "")))
	assert.Equal(t, []string{"act"}, log)
	assert.NotNil(t, main.FindAction("act"))
	assert.Nil(t, main.FindAction("missing"))
}

func TestMachine_BodiesMoveConversation(t *testing.T) {
	store := memory.NewStore()
	m, err := fsm.New(store, "main")
	require.NoError(t, err)

	var log []string
	require.NoError(t, m.Add(mustState(t, "main", func(c *domain.Context, rs *rules.RuleSet) error {
		log = append(log, "main")
		return c.State.Set(c.Context(), "ask_name")
	})))
	require.NoError(t, m.Add(mustState(t, "ask_name", func(c *domain.Context, rs *rules.RuleSet) error {
		log = append(log, "ask_name:"+c.Text)
		return c.State.Clear(c.Context())
	})))

	require.NoError(t, m.Handle(newContext("1", "/start")))
	require.NoError(t, m.Handle(newContext("1", "Ada")))
	require.NoError(t, m.Handle(newContext("1", "again")))

	assert.Equal(t, []string{"main", "ask_name:Ada", "main"}, log)

	current, ok, err := m.Current(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ask_name", current)
}

func TestMachine_SetUnknownState(t *testing.T) {
	store := memory.NewStore()
	m, err := fsm.New(store, "main")
	require.NoError(t, err)
	require.NoError(t, m.Add(mustState(t, "main", func(c *domain.Context, rs *rules.RuleSet) error {
		return c.State.Set(c.Context(), "nowhere")
	})))

	err = m.Handle(newContext("1", ""))
	assert.ErrorIs(t, err, domain.ErrUnknownState)

	stored, err := store.GetState(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "main", stored)
}

func TestMachine_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("redis down")
	m, err := fsm.New(failingStore{Store: memory.NewStore(), err: boom}, "main")
	require.NoError(t, err)
	require.NoError(t, m.Add(mustState(t, "main", nil)))

	err = m.Handle(newContext("1", ""))
	assert.ErrorIs(t, err, boom)
}

func TestMachine_RemoveState(t *testing.T) {
	store := memory.NewStore()
	m, err := fsm.New(store, "main")
	require.NoError(t, err)
	require.NoError(t, m.Add(mustState(t, "main", nil)))
	require.NoError(t, m.Add(mustState(t, "echo", nil)))
	require.NoError(t, store.SetState(context.Background(), "1", "echo"))

	assert.True(t, m.Remove("echo"))
	assert.False(t, m.Remove("echo"))

	assert.ErrorIs(t, m.Handle(newContext("1", "")), domain.ErrUnknownState)
}

func TestMachine_StateEnterHook(t *testing.T) {
	var events []*domain.StateEvent
	m, err := fsm.New(memory.NewStore(), "main", fsm.WithHooks(domain.DispatchHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) { events = append(events, e) },
	}))
	require.NoError(t, err)
	require.NoError(t, m.Add(mustState(t, "main", nil)))

	require.NoError(t, m.Handle(newContext("1", "")))
	require.NoError(t, m.Handle(newContext("1", "")))

	require.Len(t, events, 2)
	assert.True(t, events[0].Initial)
	assert.False(t, events[1].Initial)
	assert.Equal(t, "main", events[1].State)
}

// Package flows contains the demo conversation served by the botflow CLI.
package flows

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/router"
	"github.com/aretw0/botflow/pkg/rules"
)

// State names of the demo.
const (
	StateMain    = domain.DefaultBaseState
	StateEcho    = "echo"
	StateAskName = "ask_name"
)

const (
	welcomeText = "## Welcome to botflow\n\n" +
		"* `/echo` repeats everything you say\n" +
		"* `/name` lets me learn your name\n" +
		"* `/help` shows this menu again"
	unknownText = "I didn't get that. Try `/help`."
)

// Demo is a small menu-driven conversation: a main menu, an echo mode and a
// name prompt. It counts messages per conversation.
type Demo struct {
	mu     sync.Mutex
	counts map[string]int
	names  map[string]string
}

// NewDemo creates the demo host.
func NewDemo() *Demo {
	return &Demo{
		counts: make(map[string]int),
		names:  make(map[string]string),
	}
}

// Bind declares the demo's routes.
func (d *Demo) Bind(b *router.Binder) {
	b.Selector("any", func(*domain.Context) (bool, error) { return true, nil }).
		Selector("isStart", command("/start")).
		Selector("isHelp", command("/help")).
		Selector("isEcho", command("/echo")).
		Selector("isName", command("/name")).
		Selector("isCancel", command("/cancel")).
		Selector("isEchoButton", callback("menu:echo")).
		Selector("isNameButton", callback("menu:name")).
		Selector("isText", isPlainText)

	b.State(nil, StateMain, StateEcho)
	b.State(d.askNameEntry, StateAskName)

	b.Action("count", d.count).When("any").In(StateMain, StateEcho, StateAskName).Order(0).Continue()

	b.Action("welcome", d.welcome).When("isStart", "isHelp").In(StateMain).Order(10)
	b.Action("enterEcho", d.enterEcho).When("isEcho", "isEchoButton").In(StateMain).Order(10)
	b.Action("enterAskName", d.enterAskName).When("isName", "isNameButton").In(StateMain).Order(10)
	b.Action("unknown", reply(unknownText)).When("any").In(StateMain).Order(100)

	b.Action("cancel", d.cancel).When("isCancel").In(StateEcho, StateAskName).Order(10)
	b.Action("echo", d.echo).When("isText").In(StateEcho).Order(20)
	b.Action("echoHint", reply("Send `/cancel` to leave echo mode.")).When("any").In(StateEcho).Order(100)
	b.Action("rememberName", d.rememberName).When("isText").In(StateAskName).Order(20)
	b.Action("askAgain", reply("Please type your name, or `/cancel`.")).When("any").In(StateAskName).Order(100)
}

// Count returns how many events a conversation has sent.
func (d *Demo) Count(conversationID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[conversationID]
}

// Name returns the name a conversation told the demo, if any.
func (d *Demo) Name(conversationID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.names[conversationID]
	return name, ok
}

func (d *Demo) count(c *domain.Context) error {
	d.mu.Lock()
	d.counts[c.ConversationID]++
	d.mu.Unlock()
	return nil
}

func (d *Demo) welcome(c *domain.Context) error {
	text := welcomeText
	if name, ok := d.Name(c.ConversationID); ok {
		text = fmt.Sprintf("Hi %s!\n\n%s", name, welcomeText)
	}
	return c.Reply(text)
}

func (d *Demo) enterEcho(c *domain.Context) error {
	if err := c.State.Set(c.Context(), StateEcho); err != nil {
		return err
	}
	return c.Reply("Echo mode on. Send `/cancel` to leave.")
}

func (d *Demo) enterAskName(c *domain.Context) error {
	if err := c.State.Set(c.Context(), StateAskName); err != nil {
		return err
	}
	return c.Reply("What's your name?")
}

func (d *Demo) cancel(c *domain.Context) error {
	if err := c.State.Clear(c.Context()); err != nil {
		return err
	}
	return c.Reply("Back to the main menu.")
}

func (d *Demo) echo(c *domain.Context) error {
	return c.Reply(c.Text)
}

// askNameEntry normalises whitespace before the name prompt's rules run.
func (d *Demo) askNameEntry(c *domain.Context, rs *rules.RuleSet) error {
	c.Text = strings.Join(strings.Fields(c.Text), " ")
	return rs.Handle(c)
}

func (d *Demo) rememberName(c *domain.Context) error {
	d.mu.Lock()
	d.names[c.ConversationID] = c.Text
	d.mu.Unlock()

	if err := c.State.Clear(c.Context()); err != nil {
		return err
	}
	return c.Reply(fmt.Sprintf("Nice to meet you, **%s**!", c.Text))
}

func command(name string) rules.Predicate {
	return func(c *domain.Context) (bool, error) {
		if c.IsCallback() {
			return false, nil
		}
		fields := strings.Fields(c.Text)
		return len(fields) > 0 && fields[0] == name, nil
	}
}

func callback(data string) rules.Predicate {
	return func(c *domain.Context) (bool, error) {
		return c.IsCallback() && c.CallbackData() == data, nil
	}
}

func isPlainText(c *domain.Context) (bool, error) {
	text := strings.TrimSpace(c.Text)
	return !c.IsCallback() && text != "" && !strings.HasPrefix(text, "/"), nil
}

func reply(text string) rules.Body {
	return func(c *domain.Context) error {
		return c.Reply(text)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/botflow/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), errOut.String())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Contains(t, execute(t, "", "version"), "botflow version")
}

func TestRoutes_JSON(t *testing.T) {
	out := execute(t, "", "routes", "--json", "--store", "memory")

	var table []router.StateRoute
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	require.NotEmpty(t, table)

	var names []string
	for _, st := range table {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"ask_name", "echo", "main"}, names)
}

func TestChat(t *testing.T) {
	out := execute(t, "/echo\nhello there\n/cancel\n", "chat", "--store", "memory", "--log-level", "error")

	assert.Contains(t, out, "Echo mode on")
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "Back to the main menu.")
	assert.Less(t, strings.Index(out, "Echo mode on"), strings.Index(out, "hello there"))
}

func TestRoutes_Mermaid(t *testing.T) {
	out := execute(t, "", "routes", "--json=false", "--mermaid", "--conversation", "nobody", "--store", "memory")
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "class state_main current;")
}

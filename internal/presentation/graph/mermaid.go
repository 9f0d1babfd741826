package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/botflow/pkg/router"
)

// Overlay contains conversation data to visualize on the graph.
type Overlay struct {
	CurrentState string
}

// GenerateMermaid produces a Mermaid flowchart from a route table. Every state is a
// subgraph whose actions are chained in evaluation order:
// - Base state: ((Circle)) header
// - State with an entry body: [[Subroutine]] header
// - Other states: [Rectangle] header
// Edges into an action are labelled with its selectors; actions that continue on
// match are linked to the next one with a dotted edge.
func GenerateMermaid(routes []router.StateRoute, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, st := range routes {
		stateID := sanitizeMermaidID("state_" + st.Name)

		opener, closer := "[", "]"
		switch {
		case st.Base:
			opener, closer = "((", "))"
		case st.HasEntry:
			opener, closer = "[[", "]]"
		}

		fmt.Fprintf(&sb, "    subgraph %s_group[\"%s\"]\n", stateID, escape(st.Name))
		fmt.Fprintf(&sb, "        %s%s\"%s\"%s\n", stateID, opener, escape(st.Name), closer)

		prev, prevContinues := stateID, false
		for _, a := range st.Actions {
			actionID := sanitizeMermaidID(stateID + "_" + a.Name)
			fmt.Fprintf(&sb, "        %s[\"%s <br/> order %d\"]\n", actionID, escape(a.Name), a.Order)

			label := escape(strings.Join(a.Selectors, " | "))
			arrow := fmt.Sprintf("-- \"%s\" -->", label)
			if prevContinues {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
			fmt.Fprintf(&sb, "        %s %s %s\n", prev, arrow, actionID)

			if a.ContinueOnMatch {
				prev, prevContinues = actionID, true
			} else {
				prev, prevContinues = stateID, false
			}
		}
		sb.WriteString("    end\n")
	}

	if overlay != nil && overlay.CurrentState != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID("state_"+overlay.CurrentState))
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", ":", "_")
	return r.Replace(id)
}

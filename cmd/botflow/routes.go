package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/botflow/internal/presentation/graph"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table of the demo bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildDemo(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer rt.Close(cmd.Context())

		table := rt.Router.Describe()
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			var overlay *graph.Overlay
			if id, _ := cmd.Flags().GetString("conversation"); id != "" {
				current, err := rt.Sessions.Current(cmd.Context(), id)
				switch {
				case errors.Is(err, domain.ErrStateNotFound):
					current = rt.Config.BaseState
				case err != nil:
					return err
				}
				overlay = &graph.Overlay{CurrentState: current}
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(table, overlay))
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(table)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATE\tACTION\tORDER\tCONTINUE\tSELECTORS")
		for _, st := range table {
			name := st.Name
			if st.Base {
				name += " (base)"
			}
			if st.HasEntry {
				name += " [entry]"
			}
			if len(st.Actions) == 0 {
				fmt.Fprintf(w, "%s\t-\t\t\t\n", name)
			}
			for _, a := range st.Actions {
				fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%s\n", name, a.Name, a.Order, a.ContinueOnMatch, strings.Join(a.Selectors, ", "))
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().Bool("json", false, "Print the table as JSON")
	routesCmd.Flags().Bool("mermaid", false, "Print the table as a Mermaid flowchart")
	routesCmd.Flags().String("conversation", "", "Highlight the current state of a conversation (with --mermaid)")
}

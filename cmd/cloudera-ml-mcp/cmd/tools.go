package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func toolsCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools [query]",
		Short: "List the available tools, optionally filtered by a search query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(false)
			if err != nil {
				return err
			}
			defer a.close()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			summaries := a.handler.ToolSummaries(query)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, summaries)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tDESCRIPTION")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Category, s.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func callCmd(opts *options) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Invoke one tool and print its result envelope",
		Example: `  cloudera-ml-mcp call list_projects
  cloudera-ml-mcp call get_project_id '{"project_name":"churn"}'
  cloudera-ml-mcp call list_jobs --project 1a2b-3c4d`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(false)
			if err != nil {
				return err
			}
			defer a.close()

			raw := json.RawMessage("{}")
			if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
				raw = json.RawMessage(args[1])
			}
			h := a.handler
			if project != "" {
				h = h.WithConfig(a.cfg.WithProject(project))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.callTimeout())
			defer cancel()

			env := h.CallJSON(ctx, args[0], raw)
			if err := writeJSON(cmd.OutOrStdout(), env); err != nil {
				return err
			}
			if !env.Success {
				return fmt.Errorf("%s failed: %s", args[0], env.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Default project_id for this call")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

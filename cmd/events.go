package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/paperplan/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect LLM request/response events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{
			Limit:   limit,
			Purpose: purpose,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-5s  %-8s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Calls", "Cost", "OK")
		fmt.Println(strings.Repeat("─", 108))

		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			model := e.Model
			if len(model) > 28 {
				model = model[:28]
			}
			fmt.Printf("%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-5d  $%-7.4f  %s\n",
				e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Purpose, model,
				e.InputTokens, e.OutputTokens, e.ToolCalls, e.CostUSD, ok)
		}
		return nil
	},
}

func init() {
	eventsListCmd.Flags().Int("limit", 20, "Maximum number of events to show")
	eventsListCmd.Flags().String("purpose", "", "Filter by purpose label")
	eventsCmd.AddCommand(eventsListCmd)
}

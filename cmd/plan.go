package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/paperplan/internal/calendar"
	"github.com/abhisek/paperplan/internal/llm"
	"github.com/abhisek/paperplan/internal/planner"
	"github.com/abhisek/paperplan/internal/schedule"
	"github.com/abhisek/paperplan/internal/store"
	"github.com/abhisek/paperplan/internal/syllabus"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a study plan and add it to the calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		log, err := newLogger(verbose)
		if err != nil {
			return err
		}
		defer log.Sync()

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()

		cfg := llm.ConfigFromEnv()
		if p, _ := cmd.Flags().GetString("provider"); p != "" {
			cfg.Provider = p
		}
		if err := cfg.Validate(); err != nil {
			if discovered, ok := llm.DiscoverConfig(); ok {
				cfg = discovered
			} else {
				return err
			}
		}

		provider, err := llm.NewProvider(ctx, cfg, s.EventRepo(), log)
		if err != nil {
			return err
		}

		chaptersPath, _ := cmd.Flags().GetString("chapters")
		chapters, err := syllabus.LoadFile(chaptersPath)
		if err != nil {
			return err
		}

		daysFlag, _ := cmd.Flags().GetString("days")
		weekdays, err := schedule.ParseWeekdays(daysFlag)
		if err != nil {
			return err
		}

		req := planner.PlanRequest{
			Chapters: chapters,
			Weekdays: weekdays,
		}
		req.UserID, _ = cmd.Flags().GetString("user")
		req.SubjectID, _ = cmd.Flags().GetString("subject")
		req.GradeID, _ = cmd.Flags().GetString("grade")
		req.SubjectName, _ = cmd.Flags().GetString("subject-name")
		req.GradeName, _ = cmd.Flags().GetString("grade-name")
		req.StartDate, _ = cmd.Flags().GetString("from")
		req.EndDate, _ = cmd.Flags().GetString("to")
		req.PreferredStart, _ = cmd.Flags().GetString("start")
		req.PreferredEnd, _ = cmd.Flags().GetString("end")
		req.SessionMinutes, _ = cmd.Flags().GetInt("duration")
		if req.SubjectName == "" {
			req.SubjectName = req.SubjectID
		}
		if req.GradeName == "" {
			req.GradeName = req.GradeID
		}

		orch := planner.New(calendar.NewSQLStore(s.DB()), provider, log)
		result, err := orch.GeneratePlan(ctx, req)
		if result != nil {
			fmt.Printf("Tokens: %d in / %d out, cost $%.4f\n",
				result.Totals.InputTokens, result.Totals.OutputTokens, result.Totals.CostUSD)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Scheduled %d of %d sessions.\n", len(result.Sessions), result.Expected)
		for _, sess := range result.Sessions {
			fmt.Printf("  %s  %s-%s  %s\n", sess.Date, sess.StartTime, sess.EndTime, sess.Title)
		}
		if result.Partial {
			fmt.Println("\nWarning: the plan is incomplete.")
			for _, miss := range result.Unscheduled {
				fmt.Printf("  unscheduled: %s\n", miss)
			}
		}
		if result.FinalReasoning != "" {
			fmt.Printf("\n%s\n", result.FinalReasoning)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().String("user", "", "Student user ID")
	planCmd.Flags().String("subject", "", "Subject ID")
	planCmd.Flags().String("grade", "", "Grade ID")
	planCmd.Flags().String("subject-name", "", "Subject display name")
	planCmd.Flags().String("grade-name", "", "Grade display name")
	planCmd.Flags().String("chapters", "", "Path to chapters JSON file")
	planCmd.Flags().String("from", "", "Plan start date (2006-01-02)")
	planCmd.Flags().String("to", "", "Plan end date (2006-01-02)")
	planCmd.Flags().String("days", "", "Allowed weekdays, e.g. Mon,Wed,Fri (default: all)")
	planCmd.Flags().String("start", "09:00", "Daily window start (15:04)")
	planCmd.Flags().String("end", "18:00", "Daily window end (15:04)")
	planCmd.Flags().Int("duration", 60, "Session duration in minutes")
	planCmd.Flags().String("provider", "", "LLM provider (anthropic|gemini|openai|openrouter)")
	planCmd.Flags().Bool("verbose", false, "Verbose logging")

	planCmd.MarkFlagRequired("user")
	planCmd.MarkFlagRequired("subject")
	planCmd.MarkFlagRequired("grade")
	planCmd.MarkFlagRequired("chapters")
	planCmd.MarkFlagRequired("from")
	planCmd.MarkFlagRequired("to")
}

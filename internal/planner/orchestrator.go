// Package planner orchestrates study-plan generation: it builds the
// task context, drives the agent loop, and persists the accepted
// sessions.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/paperplan/internal/agent"
	"github.com/abhisek/paperplan/internal/calendar"
	"github.com/abhisek/paperplan/internal/llm"
	"github.com/abhisek/paperplan/internal/schedule"
	"github.com/abhisek/paperplan/internal/syllabus"
)

// PlanRequest describes one study-plan generation run.
type PlanRequest struct {
	UserID    string
	SubjectID string
	GradeID   string

	// SubjectName/GradeName are human-readable labels for the task
	// prompt and session titles.
	SubjectName string
	GradeName   string

	Chapters []syllabus.Chapter

	// StartDate/EndDate bound the plan, ISO dates, inclusive.
	StartDate string
	EndDate   string

	// Weekdays restricts session days. Empty means every day.
	Weekdays []time.Weekday

	// PreferredStart/PreferredEnd bound the daily time window, "15:04".
	PreferredStart string
	PreferredEnd   string

	// SessionMinutes is the fixed session duration.
	SessionMinutes int

	// MaxIterations overrides the agent loop budget when positive.
	MaxIterations int

	preferredStart schedule.TimeOfDay
	preferredEnd   schedule.TimeOfDay
}

func (r *PlanRequest) validate() error {
	if r.UserID == "" || r.SubjectID == "" || r.GradeID == "" {
		return fmt.Errorf("user, subject and grade are required")
	}
	if err := syllabus.Validate(r.Chapters); err != nil {
		return err
	}
	from, err := schedule.ParseDate(r.StartDate)
	if err != nil {
		return err
	}
	to, err := schedule.ParseDate(r.EndDate)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("end date %s precedes start date %s", r.EndDate, r.StartDate)
	}
	if r.preferredStart, err = schedule.ParseTimeOfDay(r.PreferredStart); err != nil {
		return err
	}
	if r.preferredEnd, err = schedule.ParseTimeOfDay(r.PreferredEnd); err != nil {
		return err
	}
	if r.preferredEnd <= r.preferredStart {
		return fmt.Errorf("time window %s-%s is empty", r.PreferredStart, r.PreferredEnd)
	}
	if r.SessionMinutes <= 0 {
		return fmt.Errorf("session duration must be positive")
	}
	if r.SessionMinutes > int(r.preferredEnd-r.preferredStart) {
		return fmt.Errorf("session duration %dm exceeds the %s-%s window",
			r.SessionMinutes, r.PreferredStart, r.PreferredEnd)
	}
	return nil
}

// PlanResult is the caller-visible outcome of one run.
type PlanResult struct {
	// Sessions are the accepted sessions, scheduling order preserved.
	Sessions []schedule.PlannedSession

	// Expected is the session total the syllabus called for.
	Expected int

	// Partial is set when fewer sessions than expected were scheduled
	// or the loop stopped on a budget.
	Partial bool

	// Unscheduled lists chapter sessions that could not be placed.
	Unscheduled []string

	// FinalReasoning is the model's closing text.
	FinalReasoning string

	Totals agent.Totals
}

// Orchestrator wires the scheduling tools to an agent loop and persists
// accepted sessions.
type Orchestrator struct {
	store    calendar.Store
	provider llm.Provider
	log      *zap.Logger
}

// New creates an Orchestrator.
func New(store calendar.Store, provider llm.Provider, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{store: store, provider: provider, log: log}
}

// GeneratePlan runs one planning session end to end: seed the agent
// with the task context, let it survey and submit plans, then re-check
// the accepted sessions against the live calendar and persist them.
func (o *Orchestrator) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid plan request: %w", err)
	}

	checker := schedule.NewConflictChecker(o.store, o.log)
	overview := &overviewTool{surveyor: schedule.NewSurveyor(o.store), req: req}
	plan := &planTool{
		validator: schedule.NewBulkValidator(o.store),
		repairer:  schedule.NewSlotRepairer(checker, o.log),
		req:       req,
	}

	loop := agent.New(agent.Config{
		Provider:      o.provider,
		Tools:         []agent.Tool{overview, plan},
		System:        systemPrompt,
		MaxIterations: req.MaxIterations,
		Log:           o.log,
	})

	ctx = llm.WithPurpose(ctx, "study-plan")
	loopResult, err := loop.Run(ctx, taskPrompt(req))

	result := &PlanResult{
		Expected: syllabus.TotalSessions(req.Chapters),
	}
	if loopResult != nil {
		result.Totals = loopResult.Totals
		result.FinalReasoning = loopResult.FinalText
		result.Partial = loopResult.Incomplete
	}
	if err != nil {
		return result, fmt.Errorf("agent loop: %w", err)
	}

	result.Sessions = plan.accepted
	result.Unscheduled = missingSessions(req.Chapters, plan.accepted)
	if len(result.Sessions) < result.Expected {
		result.Partial = true
		o.log.Warn("plan is partial",
			zap.Int("expected", result.Expected),
			zap.Int("scheduled", len(result.Sessions)))
	}

	if len(result.Sessions) > 0 {
		if err := o.persist(ctx, req, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// persist re-validates against the live calendar immediately before
// writing, narrowing the window a concurrent plan could race through,
// then inserts the accepted sessions as events.
func (o *Orchestrator) persist(ctx context.Context, req PlanRequest, result *PlanResult) error {
	validator := schedule.NewBulkValidator(o.store)
	recheck, err := validator.Validate(ctx, req.UserID, result.Sessions, req.SubjectID, req.GradeID)
	if err != nil {
		return fmt.Errorf("pre-persist validation: %w", err)
	}
	if len(recheck.Conflicts) > 0 {
		result.Sessions = recheck.Valid
		result.Partial = true
		o.log.Warn("sessions lost to a concurrent calendar change",
			zap.Int("dropped", len(recheck.Conflicts)))
	}

	events := make([]calendar.Event, len(result.Sessions))
	for i, s := range result.Sessions {
		events[i] = calendar.Event{
			UserID:    req.UserID,
			SubjectID: req.SubjectID,
			GradeID:   req.GradeID,
			Date:      s.Date,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Title:     s.Title,
		}
	}
	if err := o.store.InsertEvents(ctx, events); err != nil {
		return fmt.Errorf("persist sessions: %w", err)
	}
	return nil
}

// missingSessions labels the chapter sessions absent from the accepted list.
func missingSessions(chapters []syllabus.Chapter, accepted []schedule.PlannedSession) []string {
	have := make(map[[2]int]bool, len(accepted))
	for _, s := range accepted {
		have[[2]int{s.ChapterNumber, s.SessionNumber}] = true
	}

	var missing []string
	for _, c := range chapters {
		for n := 1; n <= c.Sessions; n++ {
			if !have[[2]int{c.Number, n}] {
				missing = append(missing, fmt.Sprintf("chapter %d (%s), session %d/%d", c.Number, c.Title, n, c.Sessions))
			}
		}
	}
	return missing
}

const systemPrompt = `You are a study-plan scheduler for exam preparation. ` +
	`You place study sessions on a student's calendar without conflicts. ` +
	`Use get_calendar_overview to find low-conflict dates, then call ` +
	`submit_complete_plan with every session. The tool validates the plan, ` +
	`moves conflicting sessions to free slots automatically, and returns the ` +
	`accepted sessions. Revise and resubmit if the result is unsatisfactory. ` +
	`When you are done, reply without calling any tool and summarize the plan.`

// taskPrompt renders the planning context for the first user message.
func taskPrompt(req PlanRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan study sessions for %s (%s).\n\n", req.SubjectName, req.GradeName)
	fmt.Fprintf(&b, "Date range: %s to %s\n", req.StartDate, req.EndDate)
	fmt.Fprintf(&b, "Allowed days: %s\n", weekdayNames(req.Weekdays))
	fmt.Fprintf(&b, "Daily time window: %s-%s\n", req.PreferredStart, req.PreferredEnd)
	fmt.Fprintf(&b, "Session duration: %d minutes\n\n", req.SessionMinutes)

	fmt.Fprintf(&b, "Chapters to cover, in order (%d sessions total):\n", syllabus.TotalSessions(req.Chapters))
	for _, c := range req.Chapters {
		fmt.Fprintf(&b, "- Chapter %d: %s, %d session(s)", c.Number, c.Title, c.Sessions)
		if len(c.Topics) > 0 {
			fmt.Fprintf(&b, " [topics: %s]", strings.Join(c.Topics, "; "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nSchedule chapters in non-decreasing chapter order. ")
	b.WriteString("Number each chapter's sessions from 1. ")
	b.WriteString("Every session must start at or after the window start and end at or before the window end.")

	return b.String()
}

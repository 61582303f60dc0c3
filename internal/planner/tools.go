package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/paperplan/internal/llm"
	"github.com/abhisek/paperplan/internal/schedule"
)

// maxReportedConflicts caps how many unresolved conflicts are echoed
// back to the model per submission.
const maxReportedConflicts = 5

// overviewTool wraps the calendar surveyor as `get_calendar_overview`.
// Optional and informational: the model may call it to bias date choice
// toward low-density days.
type overviewTool struct {
	surveyor *schedule.Surveyor
	req      PlanRequest
}

func (t *overviewTool) Decl() llm.ToolDecl {
	return llm.ToolDecl{
		Name: "get_calendar_overview",
		Description: "Summarize the student's existing calendar between the plan's start and end dates. " +
			"Returns busy periods sorted least-busy-first, restricted to the preferred weekdays. " +
			"Use this to pick low-conflict dates before submitting a plan.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of busy periods to return.",
				},
			},
		},
	}
}

func (t *overviewTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Limit int `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
	}

	periods, err := t.surveyor.Survey(ctx, t.req.UserID, t.req.StartDate, t.req.EndDate, t.req.Weekdays)
	if err != nil {
		return nil, err
	}
	if in.Limit > 0 && len(periods) > in.Limit {
		periods = periods[:in.Limit]
	}

	from, _ := schedule.ParseDate(t.req.StartDate)
	to, _ := schedule.ParseDate(t.req.EndDate)
	totalDays := int(to.Sub(from).Hours()/24) + 1

	return map[string]any{
		"busy_periods":        periods,
		"total_days_in_range": totalDays,
	}, nil
}

// planTool wraps bulk validation plus slot repair as
// `submit_complete_plan`, the only side-effecting tool. The model may
// call it again to revise; each successful call replaces the accepted
// output wholesale.
type planTool struct {
	validator *schedule.BulkValidator
	repairer  *schedule.SlotRepairer
	req       PlanRequest

	// accepted is the authoritative session list after the latest
	// successful submission.
	accepted []schedule.PlannedSession
}

func (t *planTool) Decl() llm.ToolDecl {
	sessionSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date":           map[string]any{"type": "string", "description": "ISO date, e.g. 2026-09-07."},
			"start_time":     map[string]any{"type": "string", "description": "Local start time, e.g. 09:00."},
			"end_time":       map[string]any{"type": "string", "description": "Local end time, e.g. 10:00."},
			"title":          map[string]any{"type": "string"},
			"chapter_number": map[string]any{"type": "integer"},
			"session_number": map[string]any{"type": "integer"},
			"topics": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"date", "start_time", "end_time", "title", "chapter_number", "session_number"},
	}

	return llm.ToolDecl{
		Name: "submit_complete_plan",
		Description: "Submit the full proposed session list for validation against the student's calendar. " +
			"Conflicting sessions are automatically moved to alternative slots where possible. " +
			"Returns the final accepted sessions. May be called again to revise the plan.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sessions": map[string]any{
					"type":  "array",
					"items": sessionSchema,
				},
			},
			"required": []any{"sessions"},
		},
	}
}

func (t *planTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Sessions []schedule.PlannedSession `json:"sessions"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	if len(in.Sessions) == 0 {
		return nil, fmt.Errorf("sessions must not be empty")
	}

	result, err := t.validator.Validate(ctx, t.req.UserID, in.Sessions, t.req.SubjectID, t.req.GradeID)
	if err != nil {
		return nil, err
	}

	valid, conflicts := dropBatchOverlaps(in.Sessions, result)

	repaired, unresolved, err := t.repairer.Repair(ctx, t.repairRequest(), conflicts, in.Sessions, valid)
	if err != nil {
		return nil, err
	}

	final := append(append([]schedule.PlannedSession{}, valid...), repaired...)
	t.accepted = final

	reported := unresolved
	if len(reported) > maxReportedConflicts {
		reported = reported[:maxReportedConflicts]
	}
	if reported == nil {
		reported = []schedule.ConflictRecord{}
	}

	return map[string]any{
		"success": true,
		"validation_result": map[string]any{
			"total_planned":      len(in.Sessions),
			"valid_count":        len(valid),
			"conflict_count":     len(conflicts),
			"alternatives_found": len(repaired),
		},
		"final_sessions": final,
		"conflicts":      reported,
	}, nil
}

// dropBatchOverlaps demotes sessions that overlap an earlier session in
// the same submission. Bulk validation only compares the batch against
// stored events, so two proposed sessions could otherwise share a slot
// and both get accepted. The first session keeps its slot; later
// overlapping ones become conflicts routed into repair.
func dropBatchOverlaps(sessions []schedule.PlannedSession, result *schedule.BulkResult) ([]schedule.PlannedSession, []schedule.ConflictRecord) {
	conflicted := make(map[int]bool, len(result.Conflicts))
	for _, c := range result.Conflicts {
		conflicted[c.SessionIndex] = true
	}

	valid := make([]schedule.PlannedSession, 0, len(result.Valid))
	conflicts := result.Conflicts
	for i, s := range sessions {
		if conflicted[i] {
			continue
		}
		earlier := firstOverlapping(valid, s)
		if earlier == nil {
			valid = append(valid, s)
			continue
		}
		conflicts = append(conflicts, schedule.ConflictRecord{
			SessionIndex: i,
			Date:         s.Date,
			StartTime:    s.StartTime,
			EndTime:      s.EndTime,
			Title:        s.Title,
			ConflictWith: fmt.Sprintf("%s (%s %s-%s)", earlier.Title, earlier.Date, earlier.StartTime, earlier.EndTime),
		})
	}
	return valid, conflicts
}

// firstOverlapping returns the first accepted session sharing time with
// s on the same date. Intervals are half-open, matching the calendar
// conflict check. Sessions reaching this point already passed
// PlannedSession.Validate, so the times parse.
func firstOverlapping(accepted []schedule.PlannedSession, s schedule.PlannedSession) *schedule.PlannedSession {
	start, err := schedule.ParseTimeOfDay(s.StartTime)
	if err != nil {
		return nil
	}
	end, err := schedule.ParseTimeOfDay(s.EndTime)
	if err != nil {
		return nil
	}
	for i := range accepted {
		a := accepted[i]
		if a.Date != s.Date {
			continue
		}
		aStart, err := schedule.ParseTimeOfDay(a.StartTime)
		if err != nil {
			continue
		}
		aEnd, err := schedule.ParseTimeOfDay(a.EndTime)
		if err != nil {
			continue
		}
		if start < aEnd && aStart < end {
			return &accepted[i]
		}
	}
	return nil
}

func (t *planTool) repairRequest() schedule.RepairRequest {
	return schedule.RepairRequest{
		UserID:         t.req.UserID,
		SubjectID:      t.req.SubjectID,
		GradeID:        t.req.GradeID,
		PreferredStart: t.req.preferredStart,
		PreferredEnd:   t.req.preferredEnd,
		SessionMinutes: t.req.SessionMinutes,
		Weekdays:       t.req.Weekdays,
		HorizonEnd:     t.req.EndDate,
	}
}

// weekdayNames renders the weekday set for the task prompt.
func weekdayNames(days []time.Weekday) string {
	if len(days) == 0 {
		return "any day"
	}
	out := ""
	for i, d := range days {
		if i > 0 {
			out += ", "
		}
		out += d.String()
	}
	return out
}

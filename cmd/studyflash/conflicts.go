package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/planner"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Check a new activity against existing ones and suggest free slots",
	Example: `  studyflash conflicts --start 10:00 --duration 60 --existing 09:00/90,13:00/45
  studyflash conflicts --start 18:30 --existing "lecture@09:00/90"`,
	Args: cobra.NoArgs,
	RunE: runConflicts,
}

func init() {
	conflictsCmd.Flags().String("start", "", "Start time of the new activity (HH:MM)")
	conflictsCmd.Flags().Int("duration", planner.DefaultDurationMinutes, "Duration of the new activity in minutes")
	conflictsCmd.Flags().StringSlice("existing", nil, "Existing activities as [title@]HH:MM[/minutes], comma separated")
	_ = conflictsCmd.MarkFlagRequired("start")
}

func runConflicts(cmd *cobra.Command, args []string) error {
	start, _ := cmd.Flags().GetString("start")
	duration, _ := cmd.Flags().GetInt("duration")
	specs, _ := cmd.Flags().GetStringSlice("existing")

	if _, err := planner.ParseClock(start); err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	if duration < 0 {
		return fmt.Errorf("--duration cannot be negative")
	}

	var existing []models.Activity
	for i, spec := range specs {
		a, err := parseActivitySpec(spec)
		if err != nil {
			return fmt.Errorf("--existing %q: %w", spec, err)
		}
		a.ID = int64(i + 1)
		existing = append(existing, a)
	}

	report := planner.DetectConflicts(models.Activity{Title: "new", StartTime: start, DurationMinutes: duration}, existing)

	out := cmd.OutOrStdout()
	if !report.HasConflicts() {
		fmt.Fprintln(out, "no conflicts")
		return nil
	}
	fmt.Fprintf(out, "%d conflict(s):\n", len(report.Conflicts))
	for _, c := range report.Conflicts {
		fmt.Fprintf(out, "  %-20s %s  overlap %d min (%s)\n", c.Activity.Title, c.Activity.StartTime, c.OverlapMinutes, c.Severity)
	}
	if len(report.Suggestions) == 0 {
		fmt.Fprintln(out, "no free slot fits this activity today")
		return nil
	}
	fmt.Fprintln(out, "suggested slots:")
	for _, s := range report.Suggestions {
		fmt.Fprintf(out, "  %s  (free %s-%s, %d min) %s\n", s.SlotStart, s.Start, s.End, s.AvailableMinutes, s.Label)
	}
	return nil
}

// parseActivitySpec reads "[title@]HH:MM[/minutes]".
func parseActivitySpec(spec string) (models.Activity, error) {
	spec = strings.TrimSpace(spec)
	a := models.Activity{Title: "activity"}
	if title, rest, ok := strings.Cut(spec, "@"); ok {
		a.Title = strings.TrimSpace(title)
		spec = rest
	}
	clock, mins, hasDuration := strings.Cut(spec, "/")
	if _, err := planner.ParseClock(clock); err != nil {
		return a, err
	}
	a.StartTime = strings.TrimSpace(clock)
	if hasDuration {
		n, err := strconv.Atoi(strings.TrimSpace(mins))
		if err != nil || n < 0 {
			return a, fmt.Errorf("invalid duration %q", mins)
		}
		a.DurationMinutes = n
	}
	return a, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the instruments in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.screening()
			if err != nil {
				return err
			}
			list := svc.ListInstruments()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), list)
			}

			styles := newPrintStyles()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", styles.header.Render(fmt.Sprintf("%d instruments", len(list))))
			for _, s := range list {
				total := styles.dim.Render("no total")
				if s.TotalRange != nil {
					total = fmt.Sprintf("total %d–%d", s.TotalRange.Min, s.TotalRange.Max)
				}
				fmt.Fprintf(out, "  %-18s %3d items  %-10s %-14s %s\n",
					styles.label.Render(s.ID), s.QuestionCount, s.Method, total, styles.dim.Render(s.Title))
			}
			return nil
		},
	}
}

func newDescribeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <instrument-id>",
		Short: "Show an instrument's questions, bands and escalation rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.screening()
			if err != nil {
				return err
			}
			inst, err := svc.DescribeInstrument(args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), inst)
			}
			printInstrument(cmd.OutOrStdout(), inst)
			return nil
		},
	}
}

func printInstrument(out io.Writer, inst *domain.Instrument) {
	styles := newPrintStyles()

	fmt.Fprintf(out, "%s %s\n", styles.header.Render(inst.Title), styles.dim.Render("("+inst.ID+")"))
	if inst.Description != "" {
		fmt.Fprintln(out, inst.Description)
	}
	if inst.Timeframe != "" {
		fmt.Fprintf(out, "%s %s\n", styles.label.Render("Timeframe:"), inst.Timeframe)
	}

	fmt.Fprintf(out, "\n%s\n", styles.section.Render("Questions"))
	for i, q := range inst.Questions {
		bounds := inst.ItemBounds(i)
		note := fmt.Sprintf("%d–%d", bounds.Min, bounds.Max)
		if inst.IsReverse(i) {
			note += ", reversed"
		}
		if !inst.IsScored(i) {
			note += ", not scored"
		}
		fmt.Fprintf(out, "  %2d. %s %s\n", i+1, q.Text, styles.dim.Render("["+note+"]"))
	}

	if len(inst.Scoring.Bands) > 0 {
		fmt.Fprintf(out, "\n%s\n", styles.section.Render("Bands"))
		worst := worstSeverity(inst.Scoring.Bands)
		for _, b := range inst.Scoring.Bands {
			fmt.Fprintf(out, "  %s %s %s\n",
				styles.severity(b.Severity, worst).Render(fmt.Sprintf("%-36s", b.Label)),
				formatRange(b.Min, b.Max),
				styles.dim.Render(b.Description))
		}
	}

	if len(inst.EscalationRules) > 0 {
		fmt.Fprintf(out, "\n%s\n", styles.section.Render("Escalation rules"))
		for _, r := range inst.EscalationRules {
			marker := styles.warn.Render("recommend")
			if r.Escalate {
				marker = styles.alert.Render("escalate ")
			}
			fmt.Fprintf(out, "  %s %s\n", marker, r.Message)
		}
	}

	if inst.Disclaimer != "" {
		fmt.Fprintf(out, "\n%s\n", styles.dim.Render(inst.Disclaimer))
	}
}

func newScoreCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score <instrument-id> <answers>",
		Short: "Score an answer vector",
		Long: `Score a complete answer vector. Answers are given in question order, either
comma separated ("0,1,2,3") or as separate arguments ("0 1 2 3").`,
		Example: "  screenctl score phq-4 2,1,0,0\n  screenctl score gad-7 1 1 1 1 1 1 1 --json",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAnswers(args[1:])
			if err != nil {
				return err
			}
			svc, err := opts.screening()
			if err != nil {
				return err
			}
			result, err := svc.ScoreValues(context.Background(), args[0], values)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			inst, err := svc.DescribeInstrument(args[0])
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), inst, result)
			return nil
		},
	}
}

// parseAnswers accepts comma or whitespace separated numbers. Bounds and
// integrality are checked by the engine.
func parseAnswers(args []string) ([]float64, error) {
	var values []float64
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("answer %d: %q is not a number", len(values)+1, field)
			}
			values = append(values, v)
		}
	}
	return values, nil
}

func printResult(out io.Writer, inst *domain.Instrument, result *domain.ScoreResult) {
	styles := newPrintStyles()

	fmt.Fprintf(out, "%s %s\n\n", styles.header.Render(inst.Title), styles.dim.Render("("+inst.ID+")"))

	band := styles.dim.Render(result.Band)
	if result.TotalApplicable {
		r := inst.TotalRange()
		fmt.Fprintf(out, "%s %d %s\n", styles.label.Render("Total:"), result.TotalScore, styles.dim.Render(fmt.Sprintf("(%d–%d)", r.Min, r.Max)))
		band = styles.severity(result.Severity, worstSeverity(inst.Scoring.Bands)).Render(result.Band)
	}
	fmt.Fprintf(out, "%s %s\n", styles.label.Render("Band:"), band)
	if result.BandDescription != "" {
		fmt.Fprintf(out, "       %s\n", result.BandDescription)
	}

	if len(result.SubscaleScores) > 0 {
		fmt.Fprintf(out, "\n%s\n", styles.section.Render("Subscales"))
		names := make([]string, 0, len(result.SubscaleScores))
		for name := range result.SubscaleScores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sc := result.SubscaleScores[name]
			line := fmt.Sprintf("  %-28s %s", name, strconv.FormatFloat(sc.Score, 'f', -1, 64))
			if sc.Band != "" {
				line += "  " + sc.Band
			}
			fmt.Fprintln(out, line)
		}
	}

	if len(result.EscalationReasons) > 0 {
		heading := styles.warn.Render("Follow-up recommended")
		if result.RequiresEscalation {
			heading = styles.alert.Render("Requires escalation")
		}
		fmt.Fprintf(out, "\n%s\n", heading)
		for _, reason := range result.EscalationReasons {
			fmt.Fprintf(out, "  • %s\n", reason)
		}
	}

	if inst.Disclaimer != "" {
		fmt.Fprintf(out, "\n%s\n", styles.dim.Render(inst.Disclaimer))
	}
}

func worstSeverity(bands []domain.Band) int {
	worst := 0
	for _, b := range bands {
		if b.Severity > worst {
			worst = b.Severity
		}
	}
	return worst
}

func formatRange(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'f', -1, 64) + "–" + strconv.FormatFloat(hi, 'f', -1, 64)
}

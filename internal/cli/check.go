package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/rishicodesforfun/menta-question/internal/catalog"
)

// checkResult is the outcome of checking one catalog file. Report is nil
// when the file could not be decoded.
type checkResult struct {
	File   string                    `json:"file"`
	Report *catalog.ValidationReport `json:"report,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

func (r checkResult) failed() bool {
	if r.Report == nil {
		return true
	}
	for _, issue := range r.Report.Issues {
		if issue.Severity == catalog.IssueError {
			return true
		}
	}
	return false
}

var errCheckFailed = errors.New("catalog check failed")

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Check instrument definitions for configuration errors",
		Long: `Check every instrument file in a catalog directory and print a report per
file. Without a directory the --catalog directory is checked, falling back to
the embedded catalog. Exits non-zero when any file has errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.catalog.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			fsys, err := catalogFS(dir)
			if err != nil {
				return err
			}

			results, err := checkCatalog(fsys, opts.catalog.Pattern)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				printCheck(cmd.OutOrStdout(), results)
			}

			for _, r := range results {
				if r.failed() {
					return errCheckFailed
				}
			}
			return nil
		},
	}
}

func catalogFS(dir string) (fs.FS, error) {
	if dir == "" {
		return catalog.EmbeddedFS()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// checkCatalog reports on every matching file, continuing past failures.
// A second definition of an already seen id is reported as an error.
func checkCatalog(fsys fs.FS, pattern string) ([]checkResult, error) {
	if pattern == "" {
		pattern = catalog.DefaultPattern
	}
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no instrument files match %q", pattern)
	}
	sort.Strings(matches)

	results := make([]checkResult, 0, len(matches))
	seen := make(map[string]string, len(matches))
	for _, name := range matches {
		inst, err := catalog.ReadFile(fsys, name)
		if err != nil {
			results = append(results, checkResult{File: name, Error: err.Error()})
			continue
		}
		if prev, dup := seen[inst.ID]; dup {
			results = append(results, checkResult{
				File:  name,
				Error: fmt.Sprintf("instrument %q already defined in %s", inst.ID, prev),
			})
			continue
		}
		seen[inst.ID] = name
		results = append(results, checkResult{File: name, Report: catalog.Report(inst)})
	}
	return results, nil
}

func printCheck(out io.Writer, results []checkResult) {
	styles := newPrintStyles()

	failed := 0
	for _, r := range results {
		if r.Report == nil {
			failed++
			fmt.Fprintf(out, "%s %s\n    %s\n", styles.alert.Render("✗"), r.File, styles.alert.Render(r.Error))
			continue
		}

		mark := styles.ok.Render("✓")
		switch {
		case r.failed():
			failed++
			mark = styles.alert.Render("✗")
		case r.Report.NeedsReview:
			mark = styles.warn.Render("!")
		}
		fmt.Fprintf(out, "%s %s %s %s\n", mark, r.File,
			styles.dim.Render("("+r.Report.InstrumentID+")"),
			styles.dim.Render(fmt.Sprintf("confidence %.2f", r.Report.Confidence)))

		for _, issue := range r.Report.Issues {
			style := styles.dim
			switch issue.Severity {
			case catalog.IssueError:
				style = styles.alert
			case catalog.IssueWarning:
				style = styles.warn
			}
			fmt.Fprintf(out, "    %s %s: %s\n", style.Render(fmt.Sprintf("%-7s", issue.Severity)), issue.Field, issue.Message)
		}
	}

	summary := fmt.Sprintf("%d files checked, %d failed", len(results), failed)
	if failed > 0 {
		fmt.Fprintf(out, "\n%s\n", styles.alert.Render(summary))
		return
	}
	fmt.Fprintf(out, "\n%s\n", styles.ok.Render(summary))
}

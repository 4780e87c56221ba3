package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/responsive"
)

var breakpointFlags *StandardFlags

var breakpointCmd = &cobra.Command{
	Use:     "breakpoint [width]",
	Aliases: []string{"bp"},
	Short:   "Show which breakpoints match a width",
	Long: `Show the configured breakpoints, or which of them match a width. The
current breakpoint is the highest priority match.

Examples:
  sizekit breakpoint            # List breakpoints
  sizekit breakpoint 800        # Match a width
  sizekit bp 1024 -f json       # JSON output`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBreakpoint,
}

func init() {
	rootCmd.AddCommand(breakpointCmd)

	breakpointFlags = AddStandardFlags(breakpointCmd, "output")
}

type breakpointRow struct {
	Name     string `json:"name" yaml:"name"`
	Range    string `json:"range" yaml:"range"`
	Priority int    `json:"priority" yaml:"priority"`
	Active   bool   `json:"active" yaml:"active"`
	Current  bool   `json:"current" yaml:"current"`
}

type breakpointResult struct {
	Width       *int            `json:"width,omitempty" yaml:"width,omitempty"`
	Current     string          `json:"current,omitempty" yaml:"current,omitempty"`
	Breakpoints []breakpointRow `json:"breakpoints" yaml:"breakpoints"`
}

func runBreakpoint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(cmd.ErrOrStderr())

	matcher, err := responsive.NewMatcher(cfg.BreakpointSet(), cfg.Options().Matcher(logger))
	if err != nil {
		return err
	}

	result, err := matchBreakpoints(matcher, args)
	if err != nil {
		return err
	}

	if breakpointFlags.OutputFormat != "table" {
		return writeStructured(cmd.OutOrStdout(), breakpointFlags.OutputFormat, result)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if result.Width != nil {
		current := result.Current
		if current == "" {
			current = "none"
		}
		fmt.Fprintf(w, "width %dpx: %s\n\n", *result.Width, current)
	}
	fmt.Fprintln(w, "\tNAME\tRANGE\tPRIORITY")
	for _, r := range result.Breakpoints {
		marker := ""
		switch {
		case r.Current:
			marker = "*"
		case r.Active:
			marker = "+"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", marker, r.Name, r.Range, r.Priority)
	}

	return w.Flush()
}

func matchBreakpoints(matcher *responsive.Matcher, args []string) (breakpointResult, error) {
	var result breakpointResult
	active := map[string]bool{}

	if len(args) == 1 {
		f, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return result, errors.NewValidationError(errors.ErrCodeInvalidBP,
				fmt.Sprintf("width must be a number, got %q", args[0]))
		}
		w := responsive.ToWidth(f)
		result.Width = &w

		for _, bp := range matcher.MatchAll(w) {
			active[bp.Name] = true
		}
		if bp, ok := matcher.Find(w); ok {
			result.Current = bp.Name
		}
	}

	for _, bp := range matcher.Breakpoints() {
		result.Breakpoints = append(result.Breakpoints, breakpointRow{
			Name:     bp.Name,
			Range:    bp.Range(),
			Priority: bp.Priority,
			Active:   active[bp.Name],
			Current:  bp.Name == result.Current,
		})
	}

	return result, nil
}

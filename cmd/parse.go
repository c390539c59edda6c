package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hillway/coursegate/internal/course"
)

var parseCmd = &cobra.Command{
	Use:   "parse <page.html>",
	Short: "Derive a course manifest from an HTML course page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("output")
		format = strings.ToLower(format)
		if format != course.FormatYAML && format != course.FormatJSON {
			return fmt.Errorf("unknown format %q (use yaml or json)", format)
		}

		m, err := loadCourse(args[0])
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}

		w := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := course.Encode(w, m, format); err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}

		sections, questions := 0, len(m.Questions())
		for _, d := range m.Days {
			sections += len(d.Sections)
		}
		fmt.Fprintf(os.Stderr, "%d days, %d sections, %d questions\n", len(m.Days), sections, questions)
		return nil
	},
}

func init() {
	parseCmd.Flags().StringP("format", "f", course.FormatYAML, "Output format: yaml or json")
	parseCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
}

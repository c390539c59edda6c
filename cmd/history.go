package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hillway/coursegate/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [course-name]",
	Short: "List recorded progress events",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")
		summary, _ := cmd.Flags().GetBool("summary")

		var courseName string
		if len(args) == 1 {
			courseName = args[0]
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		repo := s.EventRepo()

		if summary {
			counts, err := repo.CountByKind(ctx, courseName)
			if err != nil {
				return fmt.Errorf("count events: %w", err)
			}
			kinds := make([]string, 0, len(counts))
			for k := range counts {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)
			fmt.Printf("%-18s  %6s\n", "Kind", "Count")
			fmt.Println(strings.Repeat("─", 26))
			for _, k := range kinds {
				fmt.Printf("%-18s  %6d\n", k, counts[k])
			}
			return nil
		}

		events, err := repo.QueryProgressEvents(ctx, store.QueryOpts{Limit: limit, Course: courseName, Kind: kind})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No progress events found.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %-20s  %-16s  %-4s  %-14s  %s\n",
			"Seq", "Timestamp", "Course", "Kind", "Day", "Subject", "Detail")
		fmt.Println(strings.Repeat("─", 110))
		for _, e := range events {
			fmt.Printf("%-6d  %-19s  %-20s  %-16s  %-4d  %-14s  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Course, 20),
				e.Kind,
				e.Day,
				truncate(e.Subject, 14),
				e.Detail,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	historyCmd.Flags().StringP("kind", "k", "", "Filter by kind (section-complete, quiz-unlocked, day-unlocked, answer, reset)")
	historyCmd.Flags().Bool("summary", false, "Show event counts per kind")
}

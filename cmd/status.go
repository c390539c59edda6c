package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hillway/coursegate/internal/backend"
	"github.com/hillway/coursegate/internal/gate"
	"github.com/hillway/coursegate/internal/quiz"
)

var statusCmd = &cobra.Command{
	Use:   "status <course>",
	Short: "Show reading and quiz progress for a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := openCourse(cmd, args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		engine, err := env.engine(ctx, nil)
		if err != nil {
			return fmt.Errorf("build quiz engine: %w", err)
		}
		session, err := env.session(ctx, engine, nil)
		if err != nil {
			return fmt.Errorf("build session: %w", err)
		}

		title := env.manifest.Title
		if title == "" {
			title = env.manifest.Course
		}
		fmt.Printf("%s (%s)\n", title, engine.Progress())
		if id, ok, _ := backend.LoadIdentity(ctx, env.store.KV()); ok {
			learner := id.Name
			if id.IsLocal() {
				learner += " (local only)"
			}
			fmt.Printf("Learner: %s\n", learner)
		}
		if env.admin {
			fmt.Println("Admin mode: gates bypassed")
		}
		fmt.Println()

		days := session.Days()
		if len(days) == 0 {
			fmt.Println("No day structure found; the course is not gated.")
			return nil
		}

		fmt.Printf("%-4s  %-28s  %-9s  %-10s  %s\n", "Day", "Title", "Sections", "Quiz", "Waiting on")
		fmt.Println(strings.Repeat("─", 90))
		for _, d := range days {
			done := 0
			for _, sec := range d.Sections {
				if sec.ReadingComplete {
					done++
				}
			}
			waiting := session.QuizCountdown(d.Number)
			if !session.IsDayUnlocked(d.Number) {
				waiting = fmt.Sprintf("day %d quiz", d.Number-1)
			}
			fmt.Printf("%-4d  %-28s  %-9s  %-10s  %s\n",
				d.Number,
				truncate(d.Title, 28),
				fmt.Sprintf("%d/%d", done, len(d.Sections)),
				quizColumn(session, engine, d),
				waiting,
			)
		}
		return nil
	},
}

func quizColumn(s *gate.Session, e *quiz.Engine, d *gate.Day) string {
	switch {
	case d.QuizID == "":
		return "-"
	case !s.IsDayUnlocked(d.Number):
		return "hidden"
	case s.IsQuizLocked(d.Number):
		return "locked"
	case e.ModuleDone(d.Number):
		correct, _, total := e.ModuleScore(d.Number)
		return fmt.Sprintf("%d/%d", correct, total)
	}
	_, answered, total := e.ModuleScore(d.Number)
	return fmt.Sprintf("open %d/%d", answered, total)
}

func truncate(s string, width int) string {
	if len([]rune(s)) <= width {
		return s
	}
	return string([]rune(s)[:width-1]) + "…"
}

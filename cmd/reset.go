package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <course>",
	Short: "Erase reading and quiz progress for a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := openCourse(cmd, args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Printf("Erase all progress for %q? [y/N] ", env.manifest.Course)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		engine, err := env.engine(ctx, nil)
		if err != nil {
			return fmt.Errorf("build quiz engine: %w", err)
		}
		session, err := env.session(ctx, engine, nil)
		if err != nil {
			return fmt.Errorf("build session: %w", err)
		}
		session.Reset(ctx)
		engine.Reset(ctx)

		fmt.Printf("Progress for %q erased.\n", env.manifest.Course)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

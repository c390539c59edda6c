package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hillway/coursegate/internal/backend"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the learner progress is reported for",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		bcfg := backend.ConfigFromEnv()
		if err := bcfg.Validate(); err != nil {
			return fmt.Errorf("backend config: %w", err)
		}
		var client *backend.Client
		if bcfg.Enabled() {
			client = backend.NewClient(bcfg)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := backend.Register(cmd.Context(), client, s.KV(), name, email, nil)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		if id.IsLocal() {
			fmt.Printf("Registered %s locally (%s); progress will not be reported.\n", id.Name, id.ID)
			return nil
		}
		fmt.Printf("Registered %s (%s).\n", id.Name, id.ID)
		return nil
	},
}

func init() {
	registerCmd.Flags().String("name", "", "Learner name")
	registerCmd.Flags().String("email", "", "Learner email")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
}

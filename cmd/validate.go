package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/olusolaa/redis-k8s-charm/internal/errors"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether the current charm options can be applied.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		problem, err := application.Validate(cmd.Context())
		if err != nil {
			return err
		}
		if problem != "" {
			return apperrors.NewUserFacing(apperrors.CodeConfigValidation,
				fmt.Sprintf("Charm config is not valid: %s", problem), "Fix the charm options and validate again.")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Charm configuration is valid.")
		return nil
	},
}

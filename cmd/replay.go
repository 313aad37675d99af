package main

import (
	"github.com/spf13/cobra"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/events/jsonl"
)

var replayCmd = &cobra.Command{
	Use:   "replay <events.jsonl|->",
	Short: "Dispatch every event of a JSON-lines event log in order.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		source, err := jsonl.NewSource(args[0], application.Logger)
		if err != nil {
			return err
		}
		return application.Run(cmd.Context(), source)
	},
}

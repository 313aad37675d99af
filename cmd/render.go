package main

import "github.com/spf13/cobra"

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the pod spec and resources for the current charm options.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		return application.Render(cmd.Context())
	},
}

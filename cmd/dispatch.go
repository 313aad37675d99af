package main

import (
	"github.com/spf13/cobra"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/events/hookenv"
)

var (
	dispatchEvent        string
	dispatchRemoteUnit   string
	dispatchRelationData string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Handle the lifecycle event of the current hook invocation.",
	Long: `dispatch reads the hook from JUJU_DISPATCH_PATH or JUJU_HOOK_NAME, or from
--event, reconciles it and applies the result.

Only the leader unit applies spec changes. Inside a hook context leadership is
asked from the is-leader hook tool; elsewhere set charm.leader (or
REDIS_CHARM_CHARM_LEADER=true), which defaults to false.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hookenv.ParseRelationData(dispatchRelationData)
		if err != nil {
			return err
		}
		application, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		source := hookenv.NewSource(hookenv.Options{
			Event:        dispatchEvent,
			RemoteUnit:   dispatchRemoteUnit,
			RelationData: data,
		}, application.Logger)
		return application.Run(cmd.Context(), source)
	},
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchEvent, "event", "", "Event to dispatch (e.g., config-changed, redis-relation-changed)")
	dispatchCmd.Flags().StringVar(&dispatchRemoteUnit, "remote-unit", "", "Remote unit of a relation event (default $JUJU_REMOTE_UNIT)")
	dispatchCmd.Flags().StringVar(&dispatchRelationData, "relation-data", "", "Remote unit databag (e.g., 'ingress-address=10.0.0.5')")
}

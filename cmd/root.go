package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/redis-k8s-charm/internal/app"
	apperrors "github.com/olusolaa/redis-k8s-charm/internal/errors"
)

var (
	cfgFile         string
	logLevel        string
	logFormat       string
	optionOverrides string
)

// envKeys are bound explicitly so viper.Unmarshal sees REDIS_CHARM_* values
// for keys that appear in no config file.
var envKeys = []string{
	"settings.log_level", "settings.log_format", "settings.reporter", "settings.no_color",
	"charm.application", "charm.leader", "charm.expected_units", "charm.default_port",
	"charm.options.type", "charm.options.path",
	"observed.type",
	"relation.type", "relation.path",
	"apply.type", "apply.dir", "apply.namespace", "apply.kubeconfig",
	"registry.ecr.enabled", "registry.ecr.region", "registry.ecr.rps",
	"probe.enabled", "probe.host", "probe.timeout",
}

var rootCmd = &cobra.Command{
	Use:   "redis-charm",
	Short: "Reconciles a Redis workload on Kubernetes in response to charm lifecycle events.",
	Long: `redis-charm runs the lifecycle logic of the Redis Kubernetes charm. Each
delivered event is reconciled against the charm options, the peer relation and
the running workload, and the resulting pod spec is applied when it changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .redis-charm.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&optionOverrides, "set", "", "Override charm options (e.g., 'port=6380;image=redis:7')")

	viper.BindPFlag("settings.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("settings.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("set", rootCmd.PersistentFlags().Lookup("set"))

	viper.SetEnvPrefix("REDIS_CHARM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		viper.BindEnv(key)
	}

	rootCmd.AddCommand(dispatchCmd, replayCmd, renderCmd, validateCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".redis-charm")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return apperrors.WrapUserFacing(err, apperrors.CodeConfigReadError, "failed to read config file",
				"Check that the configuration file exists and is valid YAML.")
		}
	}
	return nil
}

func bootstrap(cmd *cobra.Command) (*app.Application, error) {
	return app.BuildApplicationFromViper(cmd.Context(), viper.GetViper())
}

func printError(err error) {
	userMsg, suggestion, ok := apperrors.GetUserFacingMessage(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
	if suggestion != "" {
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
	}
}

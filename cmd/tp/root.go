package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/jeja2023/tp/log"
)

var (
	// flags
	env        string
	configFile string

	// logger
	logger log.Logger
)

func init() {
	RootCmd.PersistentFlags().StringVar(&env, "env", "dev", "environment")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file")

	cobra.OnFinalize(closeApplication)
}

var RootCmd = cobra.Command{
	Use:           "tp",
	Short:         "Manage tasks and their photo evidence",
	Long:          "Manage tasks, upload geotagged images, plot them on a map and export trajectories",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = log.New(env)

		if configFile == "" {
			configFile = path.Join("configuration", fmt.Sprintf("config.%s.toml", env))
		}
	},
}

func inheritPersistentPreRun(cmd *cobra.Command) {
	ppr := cmd.PersistentPreRun
	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		// Run parent persistent pre run
		if cmd.Parent() != nil && cmd.Parent().PersistentPreRun != nil {
			cmd.Parent().PersistentPreRun(c, args)
		}

		// Run command persistent pre run
		if ppr != nil {
			ppr(c, args)
		}
	}
}

// addCommands registers children under parent, each inheriting the persistent
// pre run of its parent.
func addCommands(parent *cobra.Command, children ...*cobra.Command) {
	for _, child := range children {
		parent.AddCommand(child)
		inheritPersistentPreRun(child)
	}
}

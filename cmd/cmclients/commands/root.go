// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"os"

	"github.com/clevermaps/cm-go-clients/sdk/logging"
	"github.com/clevermaps/cm-go-clients/sdk/services/job"
	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	envName  string
	logLevel string
	logger   = zap.NewNop()
)

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cmclients",
		Short:         "Dump and load CleverMaps datasets",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.RegisterIniCfgWithViper(envName); err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = viper.GetString(utils.CmLogLevel)
			}
			l, err := logging.NewLogger(level, os.Stderr)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&envName, "env", "e", "", "environment section of ~/.cmclients.ini")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().String("host", "", "platform REST base URL")
	_ = viper.BindPFlag(utils.CmHost, root.PersistentFlags().Lookup("host"))

	root.AddCommand(dumpCmd(), loadCmd(), statusCmd(), registerCmd())
	return root
}

// pollOptions reads the job polling settings from the active configuration.
func pollOptions() job.PollOptions {
	return job.PollOptions{
		Interval: viper.GetDuration(utils.CmPollInterval),
		Timeout:  viper.GetDuration(utils.CmPollTimeout),
	}
}

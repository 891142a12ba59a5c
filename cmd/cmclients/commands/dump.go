// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/clevermaps/cm-go-clients/sdk/services/dump"
	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"github.com/spf13/cobra"
)

// dump --project <id> --dataset <name> [--output <dir|file.csv|s3://bucket/key>]
func dumpCmd() *cobra.Command {
	var req dump.DumpRequest

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump a dataset to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := dump.NewDumpService(cmd.Context(), utils.BuildConfig(),
				dump.WithLogger(logger),
				dump.WithPollOptions(pollOptions()),
				dump.WithStagingHook(utils.NewProgressHook(cmd.ErrOrStderr(), "upload")))
			if err != nil {
				return err
			}

			path, err := svc.DumpDataset(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Project, "project", "p", "", "project id")
	cmd.Flags().StringVarP(&req.Dataset, "dataset", "d", "", "dataset name")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "output directory, .csv file or s3:// location")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

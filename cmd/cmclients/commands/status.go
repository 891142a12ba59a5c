// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/clevermaps/cm-go-clients/sdk/services/dump"
	"github.com/clevermaps/cm-go-clients/sdk/services/job"
	"github.com/clevermaps/cm-go-clients/sdk/services/load"
	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// status <job-id> --type dataDump|dataPull
func statusCmd() *cobra.Command {
	var jobType string

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the state of a dump or load job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				detail *job.JobDetail
				err    error
			)
			switch jobType {
			case job.TypeDataDump:
				svc, serr := dump.NewDumpService(cmd.Context(), utils.BuildConfig(), dump.WithLogger(logger))
				if serr != nil {
					return serr
				}
				detail, err = svc.JobStatus(cmd.Context(), args[0])
			case job.TypeDataPull:
				svc, serr := load.NewLoadService(cmd.Context(), utils.BuildConfig(), load.WithLogger(logger))
				if serr != nil {
					return serr
				}
				detail, err = svc.JobStatus(cmd.Context(), args[0])
			default:
				return fmt.Errorf("unsupported job type %q", jobType)
			}
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(detail)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&jobType, "type", "t", job.TypeDataPull, "dataDump or dataPull")
	return cmd
}

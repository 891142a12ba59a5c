// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"regexp"

	"github.com/clevermaps/cm-go-clients/sdk/services/load"
	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

var bareNullKey = regexp.MustCompile(`(?m)^\s*(null|Null|NULL|~)\s*:`)

// load --project <id> --dataset <name> --file <path|s3://bucket/key>
func loadCmd() *cobra.Command {
	var (
		req         load.UploadRequest
		optionsFile string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Upload a CSV file into a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if optionsFile != "" {
				opts, err := readCsvOptions(optionsFile)
				if err != nil {
					return err
				}
				req.CsvOptions = opts
			}

			svcOpts := []load.Option{
				load.WithLogger(logger),
				load.WithPollOptions(pollOptions()),
				load.WithChunkSize(viper.GetInt64(utils.CmChunkSize)),
				load.WithPartSize(viper.GetInt64(utils.CmPartSize)),
			}
			var (
				bar  *utils.Progress
				last int64
			)
			if !quiet {
				svcOpts = append(svcOpts, load.WithStagingHook(utils.NewProgressHook(cmd.ErrOrStderr(), "download")))
				svcOpts = append(svcOpts, load.WithProgress(func(sent, total int64) {
					if bar == nil {
						bar = utils.NewProgress(cmd.ErrOrStderr(), "upload", total)
					}
					bar.Add(sent - last)
					last = sent
				}))
			}

			svc, err := load.NewLoadService(cmd.Context(), utils.BuildConfig(), svcOpts...)
			if err != nil {
				return err
			}

			detail, err := svc.UploadData(cmd.Context(), req)
			if bar != nil {
				bar.Done()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", detail.ID, detail.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Project, "project", "p", "", "project id")
	cmd.Flags().StringVarP(&req.Dataset, "dataset", "d", "", "dataset name")
	cmd.Flags().StringVarP(&req.FilePath, "file", "f", "", "CSV file, local or s3://")
	cmd.Flags().StringVarP(&req.Mode, "mode", "m", load.ModeFull, "full or incremental")
	cmd.Flags().BoolVar(&req.NoWait, "no-wait", false, "return once the load job is submitted")
	cmd.Flags().StringVar(&optionsFile, "csv-options", "", "YAML file with CSV parsing options")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not render upload progress")
	cmd.Flags().Int64("chunk-size", utils.DefaultChunkSize, "largest file in bytes sent as a single-part upload")
	cmd.Flags().Int64("part-size", utils.DefaultPartSize, "target size in bytes of one multipart part")
	_ = viper.BindPFlag(utils.CmChunkSize, cmd.Flags().Lookup("chunk-size"))
	_ = viper.BindPFlag(utils.CmPartSize, cmd.Flags().Lookup("part-size"))
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readCsvOptions parses a YAML document such as
//
//	header: true
//	separator: ";"
//	"null": ["NA", ""]
//
// The null key must be quoted, a bare null is the YAML null value.
func readCsvOptions(path string) (*load.CsvOptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var opts load.CsvOptions
	if err := yaml.UnmarshalStrict(raw, &opts); err != nil {
		if bareNullKey.Match(raw) {
			return nil, fmt.Errorf("invalid csv options in %s: the null key must be written as \"null\": %w", path, err)
		}
		return nil, fmt.Errorf("invalid csv options in %s: %w", path, err)
	}
	return &opts, nil
}

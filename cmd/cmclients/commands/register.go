// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"

	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// register stores credentials and settings into an environment section of the
// INI file and makes it the current one.
func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Save platform credentials into ~/.cmclients.ini",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetString(utils.CmAPIToken) == "" {
				return errors.New("api token required (--api-token or CM_API_TOKEN)")
			}
			env := envName
			if env == "" {
				env = "default"
			}
			path := utils.GetIniPath()
			if err := utils.WriteIniFromStruct(path, env); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "environment %q saved to %s\n", env, path)
			return nil
		},
	}

	bind := map[string]string{
		"api-token":             utils.CmAPIToken,
		"aws-access-key-id":     utils.AwsAccessKeyID,
		"aws-secret-access-key": utils.AwsSecretAccessKey,
		"aws-region":            utils.AwsRegion,
		"aws-endpoint-url":      utils.AwsEndpointURL,
	}
	for flag, key := range bind {
		cmd.Flags().String(flag, "", key)
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
	return cmd
}

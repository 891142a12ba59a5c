// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package dump

type DumpRequest struct {
	Project string
	Dataset string
	// Output is a directory, a .csv file path or an s3://bucket/key location.
	// Empty means <dataset>.csv in the working directory.
	Output string
}

// content of a dataDump job
type dataDumpContent struct {
	Dataset string `json:"dataset"`
}

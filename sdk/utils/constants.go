// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

const (
	IniName            = ".odtransfer.ini"
	IniSource          = "ini_source"
	CurrentEnvironment = "current_environment"
	UpdatedEnvKey      = "updated_environment"

	GraphBaseURL     = "graph_base_url"
	GraphDrivePath   = "graph_drive_path"
	GraphAccessToken = "graph_access_token"
	GraphMaxRetries  = "graph_max_retries"
	GraphTimeout     = "graph_timeout"

	TransferChunkSize = "transfer_chunk_size"
	TransferWorkers   = "transfer_workers"

	AwsAccessKeyID     = "aws_access_key_id"
	AwsSecretAccessKey = "aws_secret_access_key"
	AwsSessionToken    = "aws_session_token"
	AwsRegion          = "aws_region"
	AwsEndpointURL     = "aws_endpoint_url"
	S3Bucket           = "s3_bucket"
	S3ManifestKey      = "s3_manifest_key"
)

package config

import "time"

// Config contains description of app configured variables
type Config struct {
	// AWS region hosting the platform APIs and the staging bucket
	Region string `default:"us-east-1"`

	// Bucket used for staging datasets, batch input and job artifacts
	Bucket string `required:"true"`

	// Prefix is the key prefix for every staged object
	Prefix string `default:"sagerun"`

	// RoleArn is the execution role passed to training and hosting jobs
	RoleArn string

	// Endpoint overrides the AWS API endpoint. Useful for local fakes
	// and VPC endpoints. Empty means the real platform.
	Endpoint string

	// PollInterval between remote job status checks
	PollInterval time.Duration `default:"30s"`

	// Timeouts for blocking remote operations
	TrainTimeout     time.Duration `default:"2h"`
	DeployTimeout    time.Duration `default:"20m"`
	TransformTimeout time.Duration `default:"1h"`
	AutoMLTimeout    time.Duration `default:"4h"`

	// ListenAddr for the local status server
	ListenAddr string `default:":8080"`

	// Server timeouts
	ReadTimeout  time.Duration `default:"1m"`
	WriteTimeout time.Duration `default:"1m"`
	IdleTimeout  time.Duration `default:"10m"`
}

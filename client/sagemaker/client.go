// Package sagemaker implements remote.Client against the managed
// platform's control, runtime and log APIs.
package sagemaker

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime"
	uuid "github.com/satori/go.uuid"

	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/remote"
	"github.com/platformlab/sagerun/status"
)

const defaultPollInterval = 30 * time.Second

// Config describes the connection to the platform.
type Config struct {
	Region  string
	RoleArn string
	// Endpoint overrides the API address. Used by local fakes.
	Endpoint     string
	PollInterval time.Duration
}

type client struct {
	sm           *sagemaker.SageMaker
	rt           *sagemakerruntime.SageMakerRuntime
	cwl          *cloudwatchlogs.CloudWatchLogs
	role         string
	pollInterval time.Duration
}

// NewClient creates new remote.Client from given config
func NewClient(cfg Config) (remote.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region must be set")
	}
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &client{
		sm:           sagemaker.New(sess),
		rt:           sagemakerruntime.New(sess),
		cwl:          cloudwatchlogs.New(sess),
		role:         cfg.RoleArn,
		pollInterval: pollInterval,
	}, nil
}

// Ping verifies the platform API is reachable.
func (c *client) Ping(ctx context.Context) error {
	_, err := c.sm.ListTrainingJobsWithContext(ctx, &sagemaker.ListTrainingJobsInput{
		MaxResults: aws.Int64(1),
	})
	if err != nil {
		return fmt.Errorf("error while pinging platform: %s", err)
	}
	return nil
}

func (c *client) ListTrainingJobs(ctx context.Context) ([]remote.JobSummary, error) {
	out, err := c.sm.ListTrainingJobsWithContext(ctx, &sagemaker.ListTrainingJobsInput{
		MaxResults: aws.Int64(50),
		SortBy:     aws.String("CreationTime"),
		SortOrder:  aws.String("Descending"),
	})
	if err != nil {
		return nil, fmt.Errorf("error while listing training jobs: %s", err)
	}
	var summaries []remote.JobSummary
	for _, s := range out.TrainingJobSummaries {
		n, err := status.FromJob(aws.StringValue(s.TrainingJobStatus))
		if err != nil {
			n = status.PENDING
		}
		summaries = append(summaries, remote.JobSummary{
			Name:    aws.StringValue(s.TrainingJobName),
			Status:  n,
			Created: aws.TimeValue(s.CreationTime),
		})
	}
	return summaries, nil
}

func (c *client) ListEndpoints(ctx context.Context) ([]remote.EndpointSummary, error) {
	out, err := c.sm.ListEndpointsWithContext(ctx, &sagemaker.ListEndpointsInput{
		MaxResults: aws.Int64(50),
	})
	if err != nil {
		return nil, fmt.Errorf("error while listing endpoints: %s", err)
	}
	var summaries []remote.EndpointSummary
	for _, s := range out.Endpoints {
		n, err := status.FromEndpoint(aws.StringValue(s.EndpointStatus))
		if err != nil {
			n = status.PENDING
		}
		summaries = append(summaries, remote.EndpointSummary{
			Name:   aws.StringValue(s.EndpointName),
			Status: n,
		})
	}
	return summaries, nil
}

// jobName generates a platform-unique name with a recognizable kind prefix.
func jobName(kind string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewV4().String())
}

// waitLoop polls describe until the job reaches a terminal state,
// logging state transitions and running onTick between polls.
func (c *client) waitLoop(ctx context.Context, id string,
	describe func(context.Context) (status.Name, string, string, error),
	onTick func(context.Context)) error {
	var last string
	for {
		name, detail, reason, err := describe(ctx)
		if err != nil {
			return err
		}
		if detail != last {
			log.Infof("%q entered state %s", id, detail)
			last = detail
		}
		if onTick != nil {
			onTick(ctx)
		}
		if name.IsFinished() {
			if name.IsFailed() {
				if reason == "" {
					reason = "no failure reason reported"
				}
				return fmt.Errorf("%q finished with state %s: %s", id, name, reason)
			}
			log.Infof("%q finished with state %s", id, name)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// isNotFound reports whether the platform rejected the call because the
// resource is already gone.
func isNotFound(err error) bool {
	aerr, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	switch aerr.Code() {
	case "ValidationException", "ResourceNotFound", "ResourceNotFoundException":
		return true
	}
	return false
}

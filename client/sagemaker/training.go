package sagemaker

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemaker"

	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/remote"
	"github.com/platformlab/sagerun/status"
)

const defaultMaxRuntime = 24 * time.Hour

// Hyperparameter names the platform reserves for script mode.
const (
	hpProgram   = "sagemaker_program"
	hpSourceDir = "sagemaker_submit_directory"
)

type trainingJob struct {
	client *client
	spec   remote.TrainingSpec
	id     string
	logs   *logTail
}

func (c *client) NewTrainingJob(spec remote.TrainingSpec) remote.TrainingJob {
	id := jobName("train")
	return &trainingJob{
		client: c,
		spec:   spec,
		id:     id,
		logs:   newLogTail(c.cwl, trainingLogGroup, id),
	}
}

func (j *trainingJob) GetID() string { return j.id }

func (j *trainingJob) Start(ctx context.Context) error {
	hp := make(map[string]*string, len(j.spec.Hyperparameters)+2)
	for k, v := range j.spec.Hyperparameters {
		hp[k] = aws.String(v)
	}
	if j.spec.EntryPoint != "" {
		hp[hpProgram] = aws.String(j.spec.EntryPoint)
	}
	if j.spec.SourceURI != "" {
		hp[hpSourceDir] = aws.String(j.spec.SourceURI)
	}

	var channels []*sagemaker.Channel
	for _, ch := range j.spec.Channels {
		channel := &sagemaker.Channel{
			ChannelName: aws.String(ch.Name),
			DataSource: &sagemaker.DataSource{
				S3DataSource: &sagemaker.S3DataSource{
					S3DataType:             aws.String("S3Prefix"),
					S3Uri:                  aws.String(ch.URI),
					S3DataDistributionType: aws.String("FullyReplicated"),
				},
			},
		}
		if ch.ContentType != "" {
			channel.ContentType = aws.String(ch.ContentType)
		}
		channels = append(channels, channel)
	}

	maxRuntime := j.spec.MaxRuntime
	if maxRuntime <= 0 {
		maxRuntime = defaultMaxRuntime
	}

	input := &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(j.id),
		RoleArn:         aws.String(j.client.role),
		AlgorithmSpecification: &sagemaker.AlgorithmSpecification{
			TrainingImage:     aws.String(j.spec.Image),
			TrainingInputMode: aws.String("File"),
		},
		HyperParameters: hp,
		InputDataConfig: channels,
		OutputDataConfig: &sagemaker.OutputDataConfig{
			S3OutputPath: aws.String(j.spec.OutputURI),
		},
		ResourceConfig: &sagemaker.ResourceConfig{
			InstanceType:   aws.String(j.spec.Instance.Type),
			InstanceCount:  aws.Int64(j.spec.Instance.Count),
			VolumeSizeInGB: aws.Int64(volumeOrDefault(j.spec.Instance)),
		},
		StoppingCondition: &sagemaker.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int64(int64(maxRuntime / time.Second)),
		},
	}
	if _, err := j.client.sm.CreateTrainingJobWithContext(ctx, input); err != nil {
		return fmt.Errorf("error while creating training job %q: %s", j.id, err)
	}
	log.Infof("training job %q submitted", j.id)
	return nil
}

func volumeOrDefault(spec remote.InstanceSpec) int64 {
	if spec.VolumeGB > 0 {
		return spec.VolumeGB
	}
	return 30
}

func (j *trainingJob) describe(ctx context.Context) (*sagemaker.DescribeTrainingJobOutput, error) {
	out, err := j.client.sm.DescribeTrainingJobWithContext(ctx, &sagemaker.DescribeTrainingJobInput{
		TrainingJobName: aws.String(j.id),
	})
	if err != nil {
		return nil, fmt.Errorf("error while describing training job %q: %s", j.id, err)
	}
	return out, nil
}

func (j *trainingJob) Status(ctx context.Context) (status.Name, error) {
	out, err := j.describe(ctx)
	if err != nil {
		return status.PENDING, err
	}
	return status.FromJob(aws.StringValue(out.TrainingJobStatus))
}

func (j *trainingJob) Wait(ctx context.Context) error {
	return j.client.waitLoop(ctx, j.id, func(ctx context.Context) (status.Name, string, string, error) {
		out, err := j.describe(ctx)
		if err != nil {
			return status.PENDING, "", "", err
		}
		name, err := status.FromJob(aws.StringValue(out.TrainingJobStatus))
		if err != nil {
			return status.PENDING, "", "", err
		}
		return name, aws.StringValue(out.SecondaryStatus), aws.StringValue(out.FailureReason), nil
	}, j.logs.Tail)
}

func (j *trainingJob) ArtifactURI(ctx context.Context) (string, error) {
	out, err := j.describe(ctx)
	if err != nil {
		return "", err
	}
	if out.ModelArtifacts == nil || aws.StringValue(out.ModelArtifacts.S3ModelArtifacts) == "" {
		return "", fmt.Errorf("training job %q has no model artifacts", j.id)
	}
	return aws.StringValue(out.ModelArtifacts.S3ModelArtifacts), nil
}

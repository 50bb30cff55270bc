package sagemaker

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemaker"

	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/remote"
	"github.com/platformlab/sagerun/status"
)

type automlJob struct {
	client *client
	spec   remote.AutoMLSpec
	id     string
}

func (c *client) NewAutoMLJob(spec remote.AutoMLSpec) remote.AutoMLJob {
	return &automlJob{client: c, spec: spec, id: jobName("automl")}
}

func (j *automlJob) GetID() string { return j.id }

func (j *automlJob) Start(ctx context.Context) error {
	input := &sagemaker.CreateAutoMLJobInput{
		AutoMLJobName: aws.String(j.id),
		RoleArn:       aws.String(j.client.role),
		InputDataConfig: []*sagemaker.AutoMLChannel{
			{
				DataSource: &sagemaker.AutoMLDataSource{
					S3DataSource: &sagemaker.AutoMLS3DataSource{
						S3DataType: aws.String("S3Prefix"),
						S3Uri:      aws.String(j.spec.DatasetURI),
					},
				},
				TargetAttributeName: aws.String(j.spec.TargetAttribute),
			},
		},
		OutputDataConfig: &sagemaker.AutoMLOutputDataConfig{
			S3OutputPath: aws.String(j.spec.OutputURI),
		},
	}
	if j.spec.ProblemType != "" {
		input.ProblemType = aws.String(j.spec.ProblemType)
	}
	if j.spec.Objective != "" {
		input.AutoMLJobObjective = &sagemaker.AutoMLJobObjective{
			MetricName: aws.String(j.spec.Objective),
		}
	}
	if j.spec.MaxCandidates > 0 {
		input.AutoMLJobConfig = &sagemaker.AutoMLJobConfig{
			CompletionCriteria: &sagemaker.AutoMLJobCompletionCriteria{
				MaxCandidates: aws.Int64(j.spec.MaxCandidates),
			},
		}
	}
	if _, err := j.client.sm.CreateAutoMLJobWithContext(ctx, input); err != nil {
		return fmt.Errorf("error while creating automl job %q: %s", j.id, err)
	}
	log.Infof("automl job %q submitted", j.id)
	return nil
}

func (j *automlJob) describe(ctx context.Context) (*sagemaker.DescribeAutoMLJobOutput, error) {
	out, err := j.client.sm.DescribeAutoMLJobWithContext(ctx, &sagemaker.DescribeAutoMLJobInput{
		AutoMLJobName: aws.String(j.id),
	})
	if err != nil {
		return nil, fmt.Errorf("error while describing automl job %q: %s", j.id, err)
	}
	return out, nil
}

func (j *automlJob) Status(ctx context.Context) (status.Name, error) {
	out, err := j.describe(ctx)
	if err != nil {
		return status.PENDING, err
	}
	return status.FromJob(aws.StringValue(out.AutoMLJobStatus))
}

func (j *automlJob) Wait(ctx context.Context) error {
	return j.client.waitLoop(ctx, j.id, func(ctx context.Context) (status.Name, string, string, error) {
		out, err := j.describe(ctx)
		if err != nil {
			return status.PENDING, "", "", err
		}
		name, err := status.FromJob(aws.StringValue(out.AutoMLJobStatus))
		if err != nil {
			return status.PENDING, "", "", err
		}
		return name, aws.StringValue(out.AutoMLJobSecondaryStatus), aws.StringValue(out.FailureReason), nil
	}, nil)
}

// BestCandidate returns the winning model of a finished search.
func (j *automlJob) BestCandidate(ctx context.Context) (remote.Candidate, error) {
	out, err := j.describe(ctx)
	if err != nil {
		return remote.Candidate{}, err
	}
	best := out.BestCandidate
	if best == nil {
		return remote.Candidate{}, fmt.Errorf("automl job %q has no best candidate", j.id)
	}

	candidate := remote.Candidate{
		Name: aws.StringValue(best.CandidateName),
	}
	if best.FinalAutoMLJobObjectiveMetric != nil {
		candidate.Objective = aws.Float64Value(best.FinalAutoMLJobObjectiveMetric.Value)
	}
	// the inference pipeline may hold several containers; the model one
	// carries the artifact reference
	for _, c := range best.InferenceContainers {
		if aws.StringValue(c.ModelDataUrl) == "" {
			continue
		}
		candidate.Image = aws.StringValue(c.Image)
		candidate.ArtifactURI = aws.StringValue(c.ModelDataUrl)
		break
	}
	if candidate.ArtifactURI == "" {
		return remote.Candidate{}, fmt.Errorf("automl job %q best candidate has no model artifact", j.id)
	}
	return candidate, nil
}

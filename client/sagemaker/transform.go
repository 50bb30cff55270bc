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

type transformJob struct {
	client *client
	spec   remote.TransformSpec
	id     string
}

func (c *client) NewTransformJob(spec remote.TransformSpec) remote.TransformJob {
	return &transformJob{client: c, spec: spec, id: jobName("transform")}
}

func (j *transformJob) GetID() string { return j.id }

func (j *transformJob) modelName() string { return j.id + "-model" }

func (j *transformJob) Start(ctx context.Context) error {
	_, err := j.client.sm.CreateModelWithContext(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(j.modelName()),
		ExecutionRoleArn: aws.String(j.client.role),
		PrimaryContainer: &sagemaker.ContainerDefinition{
			Image:        aws.String(j.spec.Image),
			ModelDataUrl: aws.String(j.spec.ArtifactURI),
		},
	})
	if err != nil {
		return fmt.Errorf("error while creating model %q: %s", j.modelName(), err)
	}

	contentType := j.spec.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	input := &sagemaker.CreateTransformJobInput{
		TransformJobName: aws.String(j.id),
		ModelName:        aws.String(j.modelName()),
		TransformInput: &sagemaker.TransformInput{
			DataSource: &sagemaker.TransformDataSource{
				S3DataSource: &sagemaker.TransformS3DataSource{
					S3DataType: aws.String("S3Prefix"),
					S3Uri:      aws.String(j.spec.InputURI),
				},
			},
			ContentType: aws.String(contentType),
			SplitType:   aws.String("Line"),
		},
		TransformOutput: &sagemaker.TransformOutput{
			S3OutputPath: aws.String(j.spec.OutputURI),
			AssembleWith: aws.String("Line"),
			Accept:       aws.String(contentType),
		},
		TransformResources: &sagemaker.TransformResources{
			InstanceType:  aws.String(j.spec.Instance.Type),
			InstanceCount: aws.Int64(j.spec.Instance.Count),
		},
	}
	if _, err := j.client.sm.CreateTransformJobWithContext(ctx, input); err != nil {
		return fmt.Errorf("error while creating transform job %q: %s", j.id, err)
	}
	log.Infof("transform job %q submitted", j.id)
	return nil
}

func (j *transformJob) describe(ctx context.Context) (*sagemaker.DescribeTransformJobOutput, error) {
	out, err := j.client.sm.DescribeTransformJobWithContext(ctx, &sagemaker.DescribeTransformJobInput{
		TransformJobName: aws.String(j.id),
	})
	if err != nil {
		return nil, fmt.Errorf("error while describing transform job %q: %s", j.id, err)
	}
	return out, nil
}

func (j *transformJob) Status(ctx context.Context) (status.Name, error) {
	out, err := j.describe(ctx)
	if err != nil {
		return status.PENDING, err
	}
	return status.FromJob(aws.StringValue(out.TransformJobStatus))
}

func (j *transformJob) Wait(ctx context.Context) error {
	return j.client.waitLoop(ctx, j.id, func(ctx context.Context) (status.Name, string, string, error) {
		out, err := j.describe(ctx)
		if err != nil {
			return status.PENDING, "", "", err
		}
		name, err := status.FromJob(aws.StringValue(out.TransformJobStatus))
		if err != nil {
			return status.PENDING, "", "", err
		}
		return name, aws.StringValue(out.TransformJobStatus), aws.StringValue(out.FailureReason), nil
	}, nil)
}

// OutputURI returns the storage directory the remote service deposits
// one "<input-file-name>.out" per input file into.
func (j *transformJob) OutputURI() string { return j.spec.OutputURI }

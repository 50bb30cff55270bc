package sagemaker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime"

	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/remote"
	"github.com/platformlab/sagerun/status"
)

type endpoint struct {
	client *client
	spec   remote.DeploySpec
	id     string
}

func (c *client) NewEndpoint(spec remote.DeploySpec) remote.Endpoint {
	return &endpoint{client: c, spec: spec, id: jobName("endpoint")}
}

// GetEndpoint attaches to an already deployed endpoint by name.
func (c *client) GetEndpoint(id string) remote.Endpoint {
	return &endpoint{client: c, id: id}
}

func (e *endpoint) GetID() string { return e.id }

// The model and endpoint config names are derived from the endpoint
// name so an attached endpoint can tear all three down.
func (e *endpoint) modelName() string  { return e.id + "-model" }
func (e *endpoint) configName() string { return e.id + "-config" }

func (e *endpoint) Start(ctx context.Context) error {
	env := make(map[string]*string, len(e.spec.Env))
	for k, v := range e.spec.Env {
		env[k] = aws.String(v)
	}
	_, err := e.client.sm.CreateModelWithContext(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(e.modelName()),
		ExecutionRoleArn: aws.String(e.client.role),
		PrimaryContainer: &sagemaker.ContainerDefinition{
			Image:        aws.String(e.spec.Image),
			ModelDataUrl: aws.String(e.spec.ArtifactURI),
			Environment:  env,
		},
	})
	if err != nil {
		return fmt.Errorf("error while creating model %q: %s", e.modelName(), err)
	}

	_, err = e.client.sm.CreateEndpointConfigWithContext(ctx, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(e.configName()),
		ProductionVariants: []*sagemaker.ProductionVariant{
			{
				VariantName:          aws.String("AllTraffic"),
				ModelName:            aws.String(e.modelName()),
				InstanceType:         aws.String(e.spec.Instance.Type),
				InitialInstanceCount: aws.Int64(e.spec.Instance.Count),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error while creating endpoint config %q: %s", e.configName(), err)
	}

	_, err = e.client.sm.CreateEndpointWithContext(ctx, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(e.id),
		EndpointConfigName: aws.String(e.configName()),
	})
	if err != nil {
		return fmt.Errorf("error while creating endpoint %q: %s", e.id, err)
	}
	log.Infof("endpoint %q requested", e.id)
	return nil
}

func (e *endpoint) describe(ctx context.Context) (*sagemaker.DescribeEndpointOutput, error) {
	out, err := e.client.sm.DescribeEndpointWithContext(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(e.id),
	})
	if err != nil {
		return nil, fmt.Errorf("error while describing endpoint %q: %s", e.id, err)
	}
	return out, nil
}

func (e *endpoint) Status(ctx context.Context) (status.Name, error) {
	out, err := e.describe(ctx)
	if err != nil {
		return status.PENDING, err
	}
	return status.FromEndpoint(aws.StringValue(out.EndpointStatus))
}

func (e *endpoint) Wait(ctx context.Context) error {
	return e.client.waitLoop(ctx, e.id, func(ctx context.Context) (status.Name, string, string, error) {
		out, err := e.describe(ctx)
		if err != nil {
			return status.PENDING, "", "", err
		}
		name, err := status.FromEndpoint(aws.StringValue(out.EndpointStatus))
		if err != nil {
			return status.PENDING, "", "", err
		}
		return name, aws.StringValue(out.EndpointStatus), aws.StringValue(out.FailureReason), nil
	}, nil)
}

// Predict submits one synchronous text/csv request and returns the
// predicted labels in row order.
func (e *endpoint) Predict(ctx context.Context, rows [][]float64) ([]int, error) {
	var b strings.Builder
	for _, row := range rows {
		fields := make([]string, 0, len(row))
		for _, v := range row {
			fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}

	out, err := e.client.rt.InvokeEndpointWithContext(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(e.id),
		ContentType:  aws.String("text/csv"),
		Accept:       aws.String("text/csv"),
		Body:         []byte(b.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("error while invoking endpoint %q: %s", e.id, err)
	}

	labels, err := parsePredictions(out.Body)
	if err != nil {
		return nil, fmt.Errorf("endpoint %q returned malformed predictions: %s", e.id, err)
	}
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("endpoint %q returned %d predictions for %d rows", e.id, len(labels), len(rows))
	}
	return labels, nil
}

// parsePredictions accepts one prediction per line or a single
// comma-separated line; both framings occur in the wild.
func parsePredictions(body []byte) ([]int, error) {
	fields := strings.FieldsFunc(string(body), func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	labels := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		labels = append(labels, int(v))
	}
	return labels, nil
}

// Delete tears down the endpoint together with its config and model.
// Already deleted resources are not an error, so teardown can be
// retried safely.
func (e *endpoint) Delete(ctx context.Context) error {
	_, err := e.client.sm.DeleteEndpointWithContext(ctx, &sagemaker.DeleteEndpointInput{
		EndpointName: aws.String(e.id),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("error while deleting endpoint %q: %s", e.id, err)
	}

	_, err = e.client.sm.DeleteEndpointConfigWithContext(ctx, &sagemaker.DeleteEndpointConfigInput{
		EndpointConfigName: aws.String(e.configName()),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("error while deleting endpoint config %q: %s", e.configName(), err)
	}

	_, err = e.client.sm.DeleteModelWithContext(ctx, &sagemaker.DeleteModelInput{
		ModelName: aws.String(e.modelName()),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("error while deleting model %q: %s", e.modelName(), err)
	}
	log.Infof("endpoint %q deleted", e.id)
	return nil
}

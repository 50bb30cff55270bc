// Package workflow ties the data stager and the remote platform client
// into the linear prepare, submit, wait, retrieve sequence.
package workflow

import (
	"context"

	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/remote"
	"github.com/platformlab/sagerun/storage"
)

const defaultContentType = "text/csv"

// Runner executes workflow steps strictly sequentially. Every step
// blocks until its remote operation reaches a terminal state.
type Runner struct {
	Client remote.Client
	Stager *storage.Stager
}

// Stage uploads a local dataset file and returns its staged location.
func (r *Runner) Stage(ctx context.Context, localPath string) (*storage.URI, error) {
	return r.Stager.Upload(ctx, localPath)
}

// Train stages the dataset when needed, submits the training job and
// blocks until it finishes. Returns the model artifact location.
func (r *Runner) Train(ctx context.Context, req *TrainRequest) (string, error) {
	datasetURI := req.DatasetURI
	if datasetURI == "" {
		uri, err := r.Stager.UploadUnder(ctx, req.DatasetPath, "train")
		if err != nil {
			return "", err
		}
		datasetURI = uri.String()
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	job := r.Client.NewTrainingJob(remote.TrainingSpec{
		Image:           req.Image,
		EntryPoint:      req.EntryPoint,
		SourceURI:       req.SourceURI,
		Hyperparameters: req.Hyperparameters,
		Channels: []remote.Channel{
			{Name: "train", URI: datasetURI, ContentType: contentType},
		},
		Instance:  req.Resources,
		OutputURI: req.OutputURI,
	})
	if err := job.Start(ctx); err != nil {
		return "", err
	}
	if err := job.Wait(ctx); err != nil {
		return "", err
	}
	return job.ArtifactURI(ctx)
}

// AutoML stages the labeled dataset when needed, submits the search job
// and blocks until it finishes. Returns the best candidate found.
func (r *Runner) AutoML(ctx context.Context, req *AutoMLRequest) (remote.Candidate, error) {
	datasetURI := req.DatasetURI
	if datasetURI == "" {
		uri, err := r.Stager.UploadUnder(ctx, req.DatasetPath, "automl")
		if err != nil {
			return remote.Candidate{}, err
		}
		datasetURI = uri.String()
	}

	job := r.Client.NewAutoMLJob(remote.AutoMLSpec{
		DatasetURI:      datasetURI,
		TargetAttribute: req.TargetAttribute,
		OutputURI:       req.OutputURI,
		Objective:       req.Objective,
		ProblemType:     req.ProblemType,
		MaxCandidates:   req.MaxCandidates,
	})
	if err := job.Start(ctx); err != nil {
		return remote.Candidate{}, err
	}
	if err := job.Wait(ctx); err != nil {
		return remote.Candidate{}, err
	}
	return job.BestCandidate(ctx)
}

// Deploy requests an endpoint and blocks until it serves. A failed
// deploy still leaves a billable endpoint behind, so it is torn down
// before the error is returned.
func (r *Runner) Deploy(ctx context.Context, req *DeployRequest) (remote.Endpoint, error) {
	endpoint := r.Client.NewEndpoint(remote.DeploySpec{
		Image:       req.Image,
		ArtifactURI: req.ArtifactURI,
		Instance:    req.Resources,
		Env:         req.Env,
	})
	if err := endpoint.Start(ctx); err != nil {
		return nil, err
	}
	if err := endpoint.Wait(ctx); err != nil {
		if derr := endpoint.Delete(ctx); derr != nil {
			log.Errorf("cannot delete failed endpoint %q: %s", endpoint.GetID(), derr)
		}
		return nil, err
	}
	return endpoint, nil
}

// Predict sends feature rows to an already deployed endpoint.
func (r *Runner) Predict(ctx context.Context, endpointID string, rows [][]float64) ([]int, error) {
	return r.Client.GetEndpoint(endpointID).Predict(ctx, rows)
}

// Teardown deletes a deployed endpoint and its backing resources.
func (r *Runner) Teardown(ctx context.Context, endpointID string) error {
	return r.Client.GetEndpoint(endpointID).Delete(ctx)
}

// Transform stages the batch input when needed, submits the bulk
// inference job and blocks until it finishes. Returns the output
// directory location.
func (r *Runner) Transform(ctx context.Context, req *TransformRequest) (*storage.URI, error) {
	inputURI := req.InputURI
	if inputURI == "" {
		uri, err := r.Stager.UploadUnder(ctx, req.InputPath, "batch_input")
		if err != nil {
			return nil, err
		}
		// the job consumes the whole directory the file was staged into
		inputURI = r.Stager.Prefix().Join("batch_input").String()
		log.Infof("staged batch input %q", uri)
	}

	job := r.Client.NewTransformJob(remote.TransformSpec{
		Image:       req.Image,
		ArtifactURI: req.ArtifactURI,
		InputURI:    inputURI,
		OutputURI:   req.OutputURI,
		ContentType: req.ContentType,
		Instance:    req.Resources,
	})
	if err := job.Start(ctx); err != nil {
		return nil, err
	}
	if err := job.Wait(ctx); err != nil {
		return nil, err
	}
	return storage.ParseURI(job.OutputURI())
}

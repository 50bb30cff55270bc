package remote

import (
	"context"
	"time"

	"github.com/platformlab/sagerun/status"
)

// Hyperparameters are passed verbatim to the remote training container.
type Hyperparameters map[string]string

// Channel is a named training input mapped to an object storage location.
type Channel struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	ContentType string `json:"content_type,omitempty"`
}

// InstanceSpec describes the compute the remote service should provision.
type InstanceSpec struct {
	Type     string `json:"type"`
	Count    int64  `json:"count"`
	VolumeGB int64  `json:"volume_gb,omitempty"`
}

// TrainingSpec describes a remote training job. EntryPoint and SourceURI
// configure script mode: the container downloads the source bundle and
// runs the entry script with hyperparameters as command-line arguments.
type TrainingSpec struct {
	Image           string
	EntryPoint      string
	SourceURI       string
	Hyperparameters Hyperparameters
	Channels        []Channel
	Instance        InstanceSpec
	OutputURI       string
	MaxRuntime      time.Duration
}

// AutoMLSpec describes a remote automated model search job.
type AutoMLSpec struct {
	DatasetURI      string
	TargetAttribute string
	OutputURI       string
	Objective       string
	ProblemType     string
	MaxCandidates   int64
}

// Candidate is the best model an AutoML job found.
type Candidate struct {
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	ArtifactURI string  `json:"artifact_uri"`
	Objective   float64 `json:"objective"`
}

// DeploySpec describes a hosted endpoint serving a trained artifact.
type DeploySpec struct {
	Image       string
	ArtifactURI string
	Instance    InstanceSpec
	Env         map[string]string
}

// TransformSpec describes a bulk inference job over a storage directory.
type TransformSpec struct {
	Image       string
	ArtifactURI string
	InputURI    string
	OutputURI   string
	ContentType string
	Instance    InstanceSpec
}

// JobSummary is a short listing entry for a submitted job.
type JobSummary struct {
	Name    string      `json:"name"`
	Status  status.Name `json:"status"`
	Created time.Time   `json:"created"`
}

// EndpointSummary is a short listing entry for a hosted endpoint.
type EndpointSummary struct {
	Name   string      `json:"name"`
	Status status.Name `json:"status"`
}

// Client allows creating, attaching to and listing remote jobs and endpoints.
type Client interface {
	NewTrainingJob(TrainingSpec) TrainingJob
	NewAutoMLJob(AutoMLSpec) AutoMLJob
	NewEndpoint(DeploySpec) Endpoint
	GetEndpoint(id string) Endpoint
	NewTransformJob(TransformSpec) TransformJob

	ListTrainingJobs(ctx context.Context) ([]JobSummary, error)
	ListEndpoints(ctx context.Context) ([]EndpointSummary, error)
	Ping(ctx context.Context) error
}

// TrainingJob is a submitted training job owned by the remote service.
type TrainingJob interface {
	Start(ctx context.Context) error
	// Wait blocks until the remote state machine reaches a terminal
	// state, surfacing remote log lines, and returns an error if the
	// terminal state is a failure.
	Wait(ctx context.Context) error
	Status(ctx context.Context) (status.Name, error)
	// ArtifactURI is the storage location of the produced model artifact.
	// Valid only after the job succeeded.
	ArtifactURI(ctx context.Context) (string, error)
	GetID() string
}

// AutoMLJob is a submitted automated model search job.
type AutoMLJob interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context) error
	Status(ctx context.Context) (status.Name, error)
	BestCandidate(ctx context.Context) (Candidate, error)
	GetID() string
}

// Endpoint is a long-lived hosted prediction service.
type Endpoint interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context) error
	Status(ctx context.Context) (status.Name, error)
	// Predict submits one synchronous request with the given feature
	// rows and returns the predicted class labels in row order.
	Predict(ctx context.Context, rows [][]float64) ([]int, error)
	// Delete tears the endpoint down together with its config and
	// model. Safe to call on already deleted resources.
	Delete(ctx context.Context) error
	GetID() string
}

// TransformJob is a submitted bulk inference job.
type TransformJob interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context) error
	Status(ctx context.Context) (status.Name, error)
	// OutputURI is the storage directory where the remote service
	// deposits one "<input-file-name>.out" file per input file.
	OutputURI() string
	GetID() string
}

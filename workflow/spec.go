package workflow

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/platformlab/sagerun/remote"
)

func requiredError(field string) error {
	return fmt.Errorf("field %q required to be set", field)
}

// LoadFile reads a JSON job file into the given request struct.
func LoadFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open %q: %s", path, err)
	}
	defer f.Close()
	return decodeInto(f, v)
}

func decodeInto(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("error while decoding into struct: %s", err)
	}
	return nil
}

// TrainRequest describes one training run. The dataset is either a
// local file to stage first or an already staged location.
type TrainRequest struct {
	Image           string              `json:"image"`
	EntryPoint      string              `json:"entry_point,omitempty"`
	SourceURI       string              `json:"source_uri,omitempty"`
	Hyperparameters map[string]string   `json:"hyperparameters,omitempty"`
	DatasetPath     string              `json:"dataset_path,omitempty"`
	DatasetURI      string              `json:"dataset_uri,omitempty"`
	OutputURI       string              `json:"output_uri"`
	ContentType     string              `json:"content_type,omitempty"`
	Resources       remote.InstanceSpec `json:"resources"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *TrainRequest) UnmarshalJSON(data []byte) error {
	type plain TrainRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	if len(r.Image) == 0 {
		return requiredError("image")
	}
	if len(r.DatasetPath) == 0 && len(r.DatasetURI) == 0 {
		return fmt.Errorf("one of %q or %q required to be set", "dataset_path", "dataset_uri")
	}
	if len(r.OutputURI) == 0 {
		return requiredError("output_uri")
	}
	if len(r.Resources.Type) == 0 {
		return requiredError("resources.type")
	}
	if r.Resources.Count == 0 {
		r.Resources.Count = 1
	}
	return nil
}

// AutoMLRequest describes one automated model search run.
type AutoMLRequest struct {
	DatasetPath     string `json:"dataset_path,omitempty"`
	DatasetURI      string `json:"dataset_uri,omitempty"`
	TargetAttribute string `json:"target_attribute"`
	OutputURI       string `json:"output_uri"`
	Objective       string `json:"objective,omitempty"`
	ProblemType     string `json:"problem_type,omitempty"`
	MaxCandidates   int64  `json:"max_candidates,omitempty"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *AutoMLRequest) UnmarshalJSON(data []byte) error {
	type plain AutoMLRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	if len(r.DatasetPath) == 0 && len(r.DatasetURI) == 0 {
		return fmt.Errorf("one of %q or %q required to be set", "dataset_path", "dataset_uri")
	}
	if len(r.TargetAttribute) == 0 {
		return requiredError("target_attribute")
	}
	if len(r.OutputURI) == 0 {
		return requiredError("output_uri")
	}
	return nil
}

// DeployRequest describes a hosted endpoint for a trained artifact.
type DeployRequest struct {
	Image       string              `json:"image"`
	ArtifactURI string              `json:"artifact_uri"`
	Env         map[string]string   `json:"env,omitempty"`
	Resources   remote.InstanceSpec `json:"resources"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *DeployRequest) UnmarshalJSON(data []byte) error {
	type plain DeployRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	if len(r.Image) == 0 {
		return requiredError("image")
	}
	if len(r.ArtifactURI) == 0 {
		return requiredError("artifact_uri")
	}
	if len(r.Resources.Type) == 0 {
		return requiredError("resources.type")
	}
	if r.Resources.Count == 0 {
		r.Resources.Count = 1
	}
	return nil
}

// TransformRequest describes a bulk inference run over a directory of
// input files. The input is either a local file to stage under the
// batch_input prefix or an already staged directory.
type TransformRequest struct {
	Image       string              `json:"image"`
	ArtifactURI string              `json:"artifact_uri"`
	InputPath   string              `json:"input_path,omitempty"`
	InputURI    string              `json:"input_uri,omitempty"`
	OutputURI   string              `json:"output_uri"`
	ContentType string              `json:"content_type,omitempty"`
	Resources   remote.InstanceSpec `json:"resources"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *TransformRequest) UnmarshalJSON(data []byte) error {
	type plain TransformRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	if len(r.Image) == 0 {
		return requiredError("image")
	}
	if len(r.ArtifactURI) == 0 {
		return requiredError("artifact_uri")
	}
	if len(r.InputPath) == 0 && len(r.InputURI) == 0 {
		return fmt.Errorf("one of %q or %q required to be set", "input_path", "input_uri")
	}
	if len(r.OutputURI) == 0 {
		return requiredError("output_uri")
	}
	if len(r.Resources.Type) == 0 {
		return requiredError("resources.type")
	}
	if r.Resources.Count == 0 {
		r.Resources.Count = 1
	}
	return nil
}

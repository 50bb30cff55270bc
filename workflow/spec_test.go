package workflow

import (
	"io/ioutil"
	"strings"
	"testing"
)

func TestTrainRequest_UnmarshalJSON_Negative(t *testing.T) {
	testCases := []struct {
		name, file, err string
	}{
		{
			"missing image",
			"bad.train.image.json",
			`field "image" required to be set`,
		},
		{
			"missing dataset",
			"bad.train.dataset.json",
			`one of "dataset_path" or "dataset_uri" required to be set`,
		},
		{
			"missing resources",
			"bad.train.resources.json",
			`field "resources.type" required to be set`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw := readFixture(t, tc.file)
			req := TrainRequest{}
			err := req.UnmarshalJSON(raw)
			if err == nil {
				t.Fatalf("expected to get err")
			}
			if !strings.Contains(err.Error(), tc.err) {
				t.Fatalf("expected to get err: %s; got instead: %q", tc.err, err)
			}
		})
	}
}

func TestTrainRequest_UnmarshalJSON_Positive(t *testing.T) {
	raw := readFixture(t, "good.train.json")
	req := TrainRequest{}
	if err := req.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if req.EntryPoint != "train.py" {
		t.Fatalf("got entry point %q; expected train.py", req.EntryPoint)
	}
	if req.Hyperparameters["max_leaf_nodes"] != "30" {
		t.Fatalf("got hyperparameters %v", req.Hyperparameters)
	}
	// count defaults to one instance
	if req.Resources.Count != 1 {
		t.Fatalf("got count %d; expected 1", req.Resources.Count)
	}
}

func TestDeployRequest_UnmarshalJSON(t *testing.T) {
	raw := readFixture(t, "bad.deploy.artifact.json")
	req := DeployRequest{}
	err := req.UnmarshalJSON(raw)
	if err == nil {
		t.Fatalf("expected to get err")
	}
	if !strings.Contains(err.Error(), `field "artifact_uri" required to be set`) {
		t.Fatalf("unexpected err: %s", err)
	}

	raw = readFixture(t, "good.deploy.json")
	req = DeployRequest{}
	if err := req.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if req.Resources.Type != "ml.t2.medium" {
		t.Fatalf("got instance type %q", req.Resources.Type)
	}
}

func TestTransformRequest_UnmarshalJSON(t *testing.T) {
	raw := readFixture(t, "bad.transform.input.json")
	req := TransformRequest{}
	err := req.UnmarshalJSON(raw)
	if err == nil {
		t.Fatalf("expected to get err")
	}
	if !strings.Contains(err.Error(), `one of "input_path" or "input_uri" required to be set`) {
		t.Fatalf("unexpected err: %s", err)
	}

	raw = readFixture(t, "good.transform.json")
	req = TransformRequest{}
	if err := req.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if req.InputURI != "s3://bucket/sagerun/batch_input" {
		t.Fatalf("got input uri %q", req.InputURI)
	}
}

func TestAutoMLRequest_UnmarshalJSON(t *testing.T) {
	raw := readFixture(t, "bad.automl.target.json")
	req := AutoMLRequest{}
	err := req.UnmarshalJSON(raw)
	if err == nil {
		t.Fatalf("expected to get err")
	}
	if !strings.Contains(err.Error(), `field "target_attribute" required to be set`) {
		t.Fatalf("unexpected err: %s", err)
	}

	raw = readFixture(t, "good.automl.json")
	req = AutoMLRequest{}
	if err := req.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if req.MaxCandidates != 10 {
		t.Fatalf("got max candidates %d; expected 10", req.MaxCandidates)
	}
}

func TestLoadFile(t *testing.T) {
	req := TrainRequest{}
	if err := LoadFile("./testdata/fixtures/good.train.json", &req); err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if req.Image == "" {
		t.Fatalf("expected image to be set")
	}
	if err := LoadFile("./testdata/fixtures/nope.json", &req); err == nil {
		t.Fatalf("expected to get err")
	}
}

func readFixture(t *testing.T, file string) []byte {
	t.Helper()
	src := "./testdata/fixtures/" + file
	raw, err := ioutil.ReadFile(src)
	if err != nil {
		t.Fatalf("unable to read file %q: %s", src, err)
	}
	return raw
}

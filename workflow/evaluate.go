package workflow

import (
	"context"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/platformlab/sagerun/storage"
)

// Evaluation summarizes the comparison of one transform output file
// against a held-out label file.
type Evaluation struct {
	Rows    int `json:"rows"`
	Matches int `json:"matches"`
}

// Accuracy is the per-row agreement ratio.
func (e Evaluation) Accuracy() float64 {
	if e.Rows == 0 {
		return 0
	}
	return float64(e.Matches) / float64(e.Rows)
}

// Evaluate fetches "<inputName>.out" from the transform output
// directory and compares it line by line, in row order, against the
// held-out label file. Row counts must match exactly.
func (r *Runner) Evaluate(ctx context.Context, outputURI *storage.URI, inputName, labelPath string) (Evaluation, error) {
	predicted, err := r.Stager.Read(ctx, outputURI.Join(inputName+".out"))
	if err != nil {
		return Evaluation{}, err
	}
	expected, err := ioutil.ReadFile(labelPath)
	if err != nil {
		return Evaluation{}, fmt.Errorf("unable to read %q: %s", labelPath, err)
	}

	predLines := splitLines(predicted)
	expLines := splitLines(expected)
	if len(predLines) != len(expLines) {
		return Evaluation{}, fmt.Errorf("output %q has %d rows; held-out file %q has %d",
			inputName+".out", len(predLines), labelPath, len(expLines))
	}

	eval := Evaluation{Rows: len(predLines)}
	for i := range predLines {
		if predLines[i] == expLines[i] {
			eval.Matches++
		}
	}
	return eval, nil
}

func splitLines(b []byte) []string {
	trimmed := strings.TrimRight(string(b), "\n")
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

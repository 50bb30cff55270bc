// Package dataset implements the data preparation conventions for the
// reference classification dataset: a CSV table whose first column is an
// integer class label and whose remaining columns are real-valued
// features.
package dataset

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// Row is one labeled example. The label comes first on the wire, the
// way the remote training containers expect it.
type Row struct {
	Label int     `csv:"label"`
	F1    float64 `csv:"f1"`
	F2    float64 `csv:"f2"`
	F3    float64 `csv:"f3"`
	F4    float64 `csv:"f4"`
}

// Features returns the feature columns in order.
func (r Row) Features() []float64 {
	return []float64{r.F1, r.F2, r.F3, r.F4}
}

// NumClasses is the cardinality of the label column.
const NumClasses = 3

// Load reads a labeled CSV file with a header line and validates that
// every label is within range.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %q", path)
	}
	defer f.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.Wrapf(err, "unable to parse %q", path)
	}
	for i, r := range rows {
		if r.Label < 0 || r.Label >= NumClasses {
			return nil, fmt.Errorf("row %d: label %d out of range [0, %d)", i, r.Label, NumClasses)
		}
	}
	return rows, nil
}

// Save writes rows as a labeled CSV file with a header line.
func Save(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %q", path)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return errors.Wrapf(err, "unable to write %q", path)
	}
	return nil
}

// Split separates rows into the label column and the feature rows,
// preserving row order.
func Split(rows []Row) ([]int, [][]float64) {
	labels := make([]int, len(rows))
	features := make([][]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
		features[i] = r.Features()
	}
	return labels, features
}

// Sample returns n rows drawn without replacement. The draw is
// deterministic for a given seed; row order within the sample follows
// the shuffled order.
func Sample(rows []Row, n int, seed int64) ([]Row, error) {
	if n > len(rows) {
		return nil, fmt.Errorf("cannot sample %d rows from %d", n, len(rows))
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(rows))
	sampled := make([]Row, n)
	for i := 0; i < n; i++ {
		sampled[i] = rows[perm[i]]
	}
	return sampled, nil
}

// WriteFeatures writes the feature columns only, one headerless CSV
// line per row. This is the batch transform input format: the container
// must not see the label column or a header.
func WriteFeatures(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range rows {
		fields := make([]string, 0, len(r.Features()))
		for _, v := range r.Features() {
			fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
		}
		fmt.Fprintln(w, strings.Join(fields, ","))
	}
	return errors.Wrapf(w.Flush(), "unable to write %q", path)
}

// WriteLabels writes the label column only, one label per line. This is
// the held-out file batch transform outputs are compared against.
func WriteLabels(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range rows {
		fmt.Fprintln(w, r.Label)
	}
	return errors.Wrapf(w.Flush(), "unable to write %q", path)
}

// SplitFiles writes paired feature and label files for the same rows.
// Both files have identical row counts and matching row order.
func SplitFiles(rows []Row, xPath, yPath string) error {
	if err := WriteFeatures(xPath, rows); err != nil {
		return err
	}
	return WriteLabels(yPath, rows)
}

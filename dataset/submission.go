package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// Submission is the two-column prediction output: one row per test record,
// in the same order as the input test file.
type Submission struct {
	IDName    string
	LabelName string
	IDs       []int
	Labels    []int
}

// Write emits the submission as CSV.
func (s *Submission) Write(w io.Writer) error {
	if len(s.IDs) != len(s.Labels) {
		return errors.NewDimensionError("Submission.Write", len(s.IDs), len(s.Labels), 0)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{s.IDName, s.LabelName}); err != nil {
		return errors.Wrap(err, "lifeboat: write submission header")
	}
	for i := range s.IDs {
		rec := []string{strconv.Itoa(s.IDs[i]), strconv.Itoa(s.Labels[i])}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "lifeboat: write submission row %d", i)
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}

// WriteFile writes the submission to the given path.
func (s *Submission) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "lifeboat: create %s", path)
	}
	defer f.Close()
	return s.Write(f)
}

// Package titanic wires the generic pipeline, trainer, and model families
// to the Titanic passenger dataset: schema validation, feature pipeline
// construction, the four default model specs, and the end-to-end run.
package titanic

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
	"github.com/YuminosukeSato/lifeboat/preprocessing"
)

// Normalized column names of the passenger files.
const (
	ColPassengerID = "passengerid"
	ColSurvived    = "survived"
	ColPclass      = "pclass"
	ColName        = "name"
	ColSex         = "sex"
	ColAge         = "age"
	ColSibSp       = "sibsp"
	ColParch       = "parch"
	ColTicket      = "ticket"
	ColFare        = "fare"
	ColCabin       = "cabin"
	ColEmbarked    = "embarked"

	// ColDeck is derived from the first character of ColCabin.
	ColDeck = "deck"
)

// featureColumns are the columns every input file must carry beyond the
// identifier; ColSurvived is additionally required for training data.
var featureColumns = []string{
	ColPclass, ColName, ColSex, ColAge, ColSibSp,
	ColParch, ColTicket, ColFare, ColCabin, ColEmbarked,
}

// LoadTrain reads and validates a training CSV. The table must carry the
// passenger id, the survival target, and all feature columns.
func LoadTrain(path string) (*dataset.Table, error) {
	tbl, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := validate(tbl, true); err != nil {
		return nil, err
	}
	return tbl, nil
}

// LoadTest reads and validates a test CSV. Same schema as training data,
// minus the survival target.
func LoadTest(path string) (*dataset.Table, error) {
	tbl, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := validate(tbl, false); err != nil {
		return nil, err
	}
	return tbl, nil
}

func validate(tbl *dataset.Table, train bool) error {
	required := append([]string{ColPassengerID}, featureColumns...)
	if train {
		required = append(required, ColSurvived)
	}
	for _, name := range required {
		if !tbl.HasColumn(name) {
			return errors.NewDataFormatError(tbl.Source, name, "required column is absent")
		}
	}

	id, _ := tbl.Column(ColPassengerID)
	if id.Kind != dataset.Numeric {
		return errors.NewDataFormatError(tbl.Source, ColPassengerID, "passenger id must be numeric")
	}
	if train {
		sv, _ := tbl.Column(ColSurvived)
		if sv.Kind != dataset.Numeric {
			return errors.NewDataFormatError(tbl.Source, ColSurvived, "survival target must be numeric")
		}
		for i := 0; i < sv.Len(); i++ {
			if sv.IsMissing(i) {
				return errors.NewDataFormatError(tbl.Source, ColSurvived, "survival target has missing values")
			}
			if v := sv.Floats[i]; v != 0 && v != 1 {
				return errors.NewDataFormatError(tbl.Source, ColSurvived, "survival target must be 0 or 1")
			}
		}
	}
	return nil
}

// NewPipeline builds the feature pipeline for the passenger schema:
// identifier and free-text columns dropped, cabin reduced to its deck
// letter, then the standard encode-prune-transform-scale stages.
func NewPipeline(opts ...preprocessing.PipelineOption) *preprocessing.Pipeline {
	base := []preprocessing.PipelineOption{
		preprocessing.WithDrop(ColPassengerID, ColSurvived, ColName, ColTicket),
		preprocessing.WithFirstCharDerivation(ColCabin, ColDeck),
	}
	return preprocessing.NewPipeline(append(base, opts...)...)
}

// Target extracts the survival column as a label vector.
func Target(tbl *dataset.Table) (*mat.Dense, error) {
	col, err := tbl.Column(ColSurvived)
	if err != nil {
		return nil, err
	}
	y := mat.NewDense(col.Len(), 1, nil)
	for i := 0; i < col.Len(); i++ {
		y.Set(i, 0, col.Floats[i])
	}
	return y, nil
}

// PassengerIDs extracts the id column in row order.
func PassengerIDs(tbl *dataset.Table) ([]int, error) {
	col, err := tbl.Column(ColPassengerID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			return nil, errors.NewDataFormatError(tbl.Source, ColPassengerID, "passenger id has missing values")
		}
		ids[i] = int(math.Round(col.Floats[i]))
	}
	return ids, nil
}

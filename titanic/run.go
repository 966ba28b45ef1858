package titanic

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/model_selection"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
	"github.com/YuminosukeSato/lifeboat/preprocessing"
)

// Report is the outcome of an end-to-end run: the comparison table, the
// fitted pipeline and model behind the submission, and the submission
// itself.
type Report struct {
	Evaluations []model_selection.Evaluation
	Pipeline    *preprocessing.Pipeline
	Result      *model_selection.Result
	Submission  *dataset.Submission
}

// Compare loads the training data, fits the feature pipeline, and runs the
// four-family comparison.
func Compare(cfg Config, logger zerolog.Logger) ([]model_selection.Evaluation, error) {
	train, err := LoadTrain(cfg.TrainPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.TrainPath).Int("rows", train.NumRows()).Msg("training data loaded")

	pipe := NewPipeline(preprocessing.WithStrictLevels(cfg.StrictLevels))
	X, err := pipe.FitTransform(train)
	if err != nil {
		return nil, err
	}
	y, err := Target(train)
	if err != nil {
		return nil, err
	}
	_, nFeatures := X.Dims()
	logger.Info().Int("features", nFeatures).Msg("pipeline fitted")

	evals, err := model_selection.Compare(X, y, cfg.specs(), trainOptions(cfg))
	if err != nil {
		return nil, err
	}
	for _, e := range evals {
		logger.Info().
			Str("model", e.Model).
			Float64("cv_accuracy", e.CVAccuracy).
			Float64("cv_std", e.CVStd).
			Float64("holdout_accuracy", e.HoldoutAccuracy).
			Msg("model evaluated")
	}
	return evals, nil
}

// Run executes the full workflow: comparison, a final training run for the
// configured family, and a submission for the test file.
func Run(cfg Config, logger zerolog.Logger) (*Report, error) {
	train, err := LoadTrain(cfg.TrainPath)
	if err != nil {
		return nil, err
	}
	test, err := LoadTest(cfg.TestPath)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("train", cfg.TrainPath).Int("train_rows", train.NumRows()).
		Str("test", cfg.TestPath).Int("test_rows", test.NumRows()).
		Msg("data loaded")

	pipe := NewPipeline(preprocessing.WithStrictLevels(cfg.StrictLevels))
	X, err := pipe.FitTransform(train)
	if err != nil {
		return nil, err
	}
	y, err := Target(train)
	if err != nil {
		return nil, err
	}

	evals, err := model_selection.Compare(X, y, cfg.specs(), trainOptions(cfg))
	if err != nil {
		return nil, err
	}

	spec, ok := SpecByName(cfg.Model, cfg.Seed)
	if !ok {
		return nil, errors.NewValueError("titanic.Run", "unknown model family "+cfg.Model)
	}
	if grid, found := cfg.Grids[spec.Name]; found {
		spec.Grid = grid
	}
	result, err := model_selection.Train(X, y, spec, trainOptions(cfg))
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("model", result.ModelName).
		Float64("holdout_accuracy", result.HoldoutScore).
		Msg("submission model trained")

	sub, err := Predict(pipe, result.Model, test)
	if err != nil {
		return nil, err
	}
	if err := sub.WriteFile(cfg.OutPath); err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.OutPath).Int("rows", len(sub.IDs)).Msg("submission written")

	return &Report{
		Evaluations: evals,
		Pipeline:    pipe,
		Result:      result,
		Submission:  sub,
	}, nil
}

// Predict replays the fitted pipeline on the raw test table, applies the
// fitted model, and builds a submission preserving passenger ids in input
// row order. The pipeline is never refit here.
func Predict(pipe *preprocessing.Pipeline, m model.Predictor, test *dataset.Table) (*dataset.Submission, error) {
	if !pipe.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	X, err := pipe.Transform(test)
	if err != nil {
		return nil, err
	}
	pred, err := m.Predict(X)
	if err != nil {
		return nil, err
	}

	ids, err := PassengerIDs(test)
	if err != nil {
		return nil, err
	}
	n, _ := pred.Dims()
	if n != len(ids) {
		return nil, errors.NewDimensionError("titanic.Predict", len(ids), n, 0)
	}

	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = int(math.Round(pred.At(i, 0)))
	}
	return &dataset.Submission{
		IDName:    "PassengerId",
		LabelName: "Survived",
		IDs:       ids,
		Labels:    labels,
	}, nil
}

func trainOptions(cfg Config) model_selection.Options {
	return model_selection.Options{
		Mode:            model_selection.Classification,
		Folds:           cfg.Folds,
		HoldoutFraction: cfg.HoldoutFraction,
		Seed:            cfg.Seed,
	}
}

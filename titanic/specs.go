package titanic

import (
	"github.com/YuminosukeSato/lifeboat/ensemble"
	"github.com/YuminosukeSato/lifeboat/linear"
	"github.com/YuminosukeSato/lifeboat/model_selection"
	"github.com/YuminosukeSato/lifeboat/neighbors"
	"github.com/YuminosukeSato/lifeboat/tree"
)

// Model family names as they appear in the comparison table and in run
// configuration.
const (
	ModelRandomForest       = "random_forest"
	ModelLogisticRegression = "logistic_regression"
	ModelKNN                = "knn"
	ModelDecisionTree       = "decision_tree"
)

// DefaultSpecs returns the four model families with their default search
// grids, in the order they appear in the comparison table. Every stochastic
// family bakes the given seed into its factory, so repeated runs with the
// same seed reproduce the same table.
func DefaultSpecs(seed uint64) []model_selection.Spec {
	return []model_selection.Spec{
		{
			Name: ModelRandomForest,
			New: func() model_selection.Estimator {
				return ensemble.NewRandomForestClassifier(
					ensemble.WithNEstimators(100),
					ensemble.WithSeed(seed),
				)
			},
			Grid: model_selection.Grid{
				"max_depth":        {4, 8, 0},
				"min_samples_leaf": {1, 3},
			},
		},
		{
			Name: ModelLogisticRegression,
			New: func() model_selection.Estimator {
				return linear.NewLogisticRegression(linear.WithSeed(seed))
			},
			Grid: model_selection.Grid{
				"c": {0.1, 1.0, 10.0},
			},
		},
		{
			Name: ModelKNN,
			New: func() model_selection.Estimator {
				return neighbors.NewKNeighborsClassifier()
			},
			Grid: model_selection.Grid{
				"n_neighbors": {3, 5, 7, 9},
			},
		},
		{
			Name: ModelDecisionTree,
			New: func() model_selection.Estimator {
				return tree.NewDecisionTreeClassifier(tree.WithSeed(seed))
			},
			Grid: model_selection.Grid{
				"max_depth":         {3, 5, 8},
				"min_samples_split": {2, 10},
			},
		},
	}
}

// SpecByName returns the default spec with the given family name.
func SpecByName(name string, seed uint64) (model_selection.Spec, bool) {
	for _, spec := range DefaultSpecs(seed) {
		if spec.Name == name {
			return spec, true
		}
	}
	return model_selection.Spec{}, false
}

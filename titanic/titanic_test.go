package titanic

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/lifeboat/model_selection"
	"github.com/YuminosukeSato/lifeboat/pkg/log"
)

// writeTrainCSV writes a synthetic passenger file whose survival follows
// sex and class closely enough for every family to learn it.
func writeTrainCSV(t *testing.T, path string, rows int) {
	t.Helper()

	var b strings.Builder
	b.WriteString("PassengerId,Survived,Pclass,Name,Sex,Age,SibSp,Parch,Ticket,Fare,Cabin,Embarked\n")
	for i := 0; i < rows; i++ {
		sex := "male"
		survived := 0
		pclass := 3
		fare := 7.9 + float64(i%9)
		cabin := ""
		embarked := "S"
		if i%3 == 0 {
			sex = "female"
			survived = 1
			pclass = 1
			fare = 70 + float64(i%20)
			cabin = fmt.Sprintf("C%d", 80+i%10)
			embarked = "C"
		}
		age := fmt.Sprintf("%d", 20+i%30)
		if i%11 == 0 {
			age = "" // missing
		}
		fmt.Fprintf(&b, "%d,%d,%d,\"Passenger %d\",%s,%s,%d,%d,T%d,%.2f,%s,%s\n",
			i+1, survived, pclass, i+1, sex, age, i%3, i%2, 1000+i, fare, cabin, embarked)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func writeTestCSV(t *testing.T, path string, rows int) {
	t.Helper()

	var b strings.Builder
	b.WriteString("PassengerId,Pclass,Name,Sex,Age,SibSp,Parch,Ticket,Fare,Cabin,Embarked\n")
	for i := 0; i < rows; i++ {
		sex := "male"
		pclass := 3
		fare := 8.1 + float64(i%9)
		cabin := ""
		embarked := "S"
		if i%3 == 0 {
			sex = "female"
			pclass = 1
			fare = 75 + float64(i%20)
			cabin = fmt.Sprintf("C%d", 60+i%10)
			embarked = "C"
		}
		fmt.Fprintf(&b, "%d,%d,\"Passenger %d\",%s,%d,%d,%d,T%d,%.2f,%s,%s\n",
			900+i, pclass, 900+i, sex, 22+i%25, i%3, i%2, 2000+i, fare, cabin, embarked)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestLoadTrainValidation(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "train.csv")
		writeTrainCSV(t, path, 30)

		tbl, err := LoadTrain(path)
		require.NoError(t, err)
		assert.Equal(t, 30, tbl.NumRows())
	})

	t.Run("missing required column", func(t *testing.T) {
		path := filepath.Join(dir, "broken.csv")
		require.NoError(t, os.WriteFile(path, []byte("PassengerId,Survived\n1,0\n"), 0o644))

		_, err := LoadTrain(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required column")
	})

	t.Run("non-binary target", func(t *testing.T) {
		path := filepath.Join(dir, "badtarget.csv")
		writeTrainCSV(t, path, 10)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		broken := strings.Replace(string(raw), "1,1,1,", "1,7,1,", 1)
		require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

		_, err = LoadTrain(path)
		require.Error(t, err)
	})
}

func TestTargetAndIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.csv")
	writeTrainCSV(t, path, 12)

	tbl, err := LoadTrain(path)
	require.NoError(t, err)

	y, err := Target(tbl)
	require.NoError(t, err)
	rows, cols := y.Dims()
	assert.Equal(t, 12, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1.0, y.At(0, 0)) // row 0 is i%3==0, survived

	ids, err := PassengerIDs(tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, ids[0])
	assert.Equal(t, 12, ids[11])
}

func TestSpecByName(t *testing.T) {
	for _, name := range []string{ModelRandomForest, ModelLogisticRegression, ModelKNN, ModelDecisionTree} {
		spec, ok := SpecByName(name, 1)
		require.True(t, ok, name)
		assert.Equal(t, name, spec.Name)
		assert.NotNil(t, spec.New())
	}

	_, ok := SpecByName("svm", 1)
	assert.False(t, ok)
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 10, cfg.Folds)
	assert.Equal(t, ModelRandomForest, cfg.Model)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yaml := `
train: data/train.csv
seed: 7
model: knn
grids:
  knn:
    n_neighbors: [3, 5]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "data/train.csv", cfg.TrainPath)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, "knn", cfg.Model)
	// Unset fields keep their defaults.
	assert.Equal(t, "test.csv", cfg.TestPath)
	assert.Equal(t, 10, cfg.Folds)
	require.Contains(t, cfg.Grids, "knn")
}

func TestEndToEndRun(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end run is slow")
	}

	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train.csv")
	testPath := filepath.Join(dir, "test.csv")
	outPath := filepath.Join(dir, "submission.csv")
	writeTrainCSV(t, trainPath, 120)
	writeTestCSV(t, testPath, 30)

	cfg := Config{
		TrainPath:       trainPath,
		TestPath:        testPath,
		OutPath:         outPath,
		Seed:            42,
		Folds:           5,
		HoldoutFraction: 0.2,
		Model:           ModelDecisionTree,
		// Small grids keep the search quick.
		Grids: map[string]model_selection.Grid{
			ModelRandomForest:       {"max_depth": {4}},
			ModelLogisticRegression: {"c": {1.0}},
			ModelKNN:                {"n_neighbors": {3}},
			ModelDecisionTree:       {"max_depth": {3, 5}},
		},
	}

	logger := log.NewConsoleLogger(os.Stderr)
	report, err := Run(cfg, logger)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 4)
	names := make([]string, 0, 4)
	for _, e := range report.Evaluations {
		names = append(names, e.Model)
		assert.GreaterOrEqual(t, e.CVAccuracy, 0.5, e.Model)
	}
	assert.Equal(t, []string{ModelRandomForest, ModelLogisticRegression, ModelKNN, ModelDecisionTree}, names)

	// Submission preserves test ids and row order.
	require.Len(t, report.Submission.IDs, 30)
	for i, id := range report.Submission.IDs {
		assert.Equal(t, 900+i, id)
		label := report.Submission.Labels[i]
		assert.True(t, label == 0 || label == 1)
	}

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 31)
	assert.Equal(t, "PassengerId,Survived", lines[0])
	assert.Equal(t, "900,", strings.SplitAfter(lines[1], ",")[0])
}

func TestPredictRequiresFittedPipeline(t *testing.T) {
	dir := t.TempDir()
	testPath := filepath.Join(dir, "test.csv")
	writeTestCSV(t, testPath, 5)

	test, err := LoadTest(testPath)
	require.NoError(t, err)

	pipe := NewPipeline()
	_, err = Predict(pipe, nil, test)
	require.Error(t, err)
}

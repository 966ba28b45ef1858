package dataset

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PassengerId", "passengerid"},
		{"SibSp", "sibsp"},
		{"Fare ", "fare"},
		{"Embarked", "embarked"},
		{"Age (years)", "ageyears"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestReadCSVFrom(t *testing.T) {
	csv := strings.Join([]string{
		"PassengerId,Survived,Name,Age,Cabin",
		"1,0,\"Braund, Mr. Owen\",22,",
		"2,1,\"Cumings, Mrs. John\",NA,C85",
		"3,1,\"Heikkinen, Miss Laina\",26,",
	}, "\n")

	tbl, err := ReadCSVFrom(strings.NewReader(csv), "train.csv")
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"passengerid", "survived", "name", "age", "cabin"}, tbl.ColumnNames())

	t.Run("numeric column with NA token", func(t *testing.T) {
		age, err := tbl.Column("age")
		require.NoError(t, err)
		assert.Equal(t, Numeric, age.Kind)
		assert.Equal(t, 22.0, age.Floats[0])
		assert.True(t, math.IsNaN(age.Floats[1]))
		assert.True(t, age.IsMissing(1))
	})

	t.Run("string column with empty missing", func(t *testing.T) {
		cabin, err := tbl.Column("cabin")
		require.NoError(t, err)
		assert.Equal(t, String, cabin.Kind)
		assert.True(t, cabin.IsMissing(0))
		assert.Equal(t, "C85", cabin.Strings[1])
	})

	t.Run("mixed cells fall back to string", func(t *testing.T) {
		name, err := tbl.Column("name")
		require.NoError(t, err)
		assert.Equal(t, String, name.Kind)
	})
}

func TestReadCSVFrom_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSVFrom(strings.NewReader(""), "empty.csv")
		assert.Error(t, err)
	})

	t.Run("duplicate normalized header", func(t *testing.T) {
		_, err := ReadCSVFrom(strings.NewReader("Age,age\n1,2\n"), "dup.csv")
		assert.Error(t, err)
	})
}

func TestTableDrop(t *testing.T) {
	tbl := NewTable("t")
	require.NoError(t, tbl.AddNumeric("a", []float64{1, 2}))
	require.NoError(t, tbl.AddNumeric("b", []float64{3, 4}))

	dropped := tbl.Drop("a", "nosuch")
	assert.Equal(t, []string{"b"}, dropped.ColumnNames())
	// The source table is untouched.
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
}

func TestSubmissionWrite(t *testing.T) {
	sub := &Submission{
		IDName:    "PassengerId",
		LabelName: "Survived",
		IDs:       []int{892, 893, 894},
		Labels:    []int{0, 1, 0},
	}

	var buf bytes.Buffer
	require.NoError(t, sub.Write(&buf))

	want := "PassengerId,Survived\n892,0\n893,1\n894,0\n"
	assert.Equal(t, want, buf.String())
}

func TestSubmissionWrite_LengthMismatch(t *testing.T) {
	sub := &Submission{IDName: "id", LabelName: "y", IDs: []int{1, 2}, Labels: []int{0}}
	assert.Error(t, sub.Write(&bytes.Buffer{}))
}

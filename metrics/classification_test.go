package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "All correct",
			yTrue: []float64{0, 1, 1, 0},
			yPred: []float64{0, 1, 1, 0},
			want:  1.0,
		},
		{
			name:  "Half correct",
			yTrue: []float64{0, 1, 1, 0},
			yPred: []float64{0, 1, 0, 1},
			want:  0.5,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewDense(len(tt.yTrue), 1, tt.yTrue)
			yPred := mat.NewDense(len(tt.yPred), 1, tt.yPred)

			got, err := Accuracy(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogLossClipsProbabilities(t *testing.T) {
	yTrue := mat.NewDense(2, 1, []float64{1, 0})
	proba := mat.NewDense(2, 1, []float64{1, 0})

	got, err := LogLoss(yTrue, proba)
	if err != nil {
		t.Fatalf("LogLoss() error = %v", err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("LogLoss() = %v, want finite value from clipping", got)
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewDense(8, 1, []float64{1, 1, 1, 1, 0, 0, 0, 0})
	yPred := mat.NewDense(8, 1, []float64{1, 1, 1, 0, 0, 0, 1, 1})

	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("NewConfusionMatrix() error = %v", err)
	}

	if cm.TruePositive != 3 || cm.FalseNegative != 1 || cm.TrueNegative != 2 || cm.FalsePositive != 2 {
		t.Fatalf("counts = TP %d FN %d TN %d FP %d", cm.TruePositive, cm.FalseNegative, cm.TrueNegative, cm.FalsePositive)
	}

	if got, want := cm.Precision(), 3.0/5.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Precision() = %v, want %v", got, want)
	}
	if got, want := cm.Recall(), 3.0/4.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Recall() = %v, want %v", got, want)
	}
	p, r := 3.0/5.0, 3.0/4.0
	if got, want := cm.F1(), 2*p*r/(p+r); math.Abs(got-want) > 1e-12 {
		t.Errorf("F1() = %v, want %v", got, want)
	}
}

func TestRegressionMetrics(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	yPred := mat.NewDense(4, 1, []float64{1, 2, 3, 8})

	mse, err := MSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MSE() error = %v", err)
	}
	if want := 4.0; math.Abs(mse-want) > 1e-12 {
		t.Errorf("MSE() = %v, want %v", mse, want)
	}

	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("RMSE() error = %v", err)
	}
	if want := 2.0; math.Abs(rmse-want) > 1e-12 {
		t.Errorf("RMSE() = %v, want %v", rmse, want)
	}

	mae, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MAE() error = %v", err)
	}
	if want := 1.0; math.Abs(mae-want) > 1e-12 {
		t.Errorf("MAE() = %v, want %v", mae, want)
	}

	r2, err := R2(yTrue, yTrue)
	if err != nil {
		t.Fatalf("R2() error = %v", err)
	}
	if math.Abs(r2-1.0) > 1e-12 {
		t.Errorf("R2() = %v, want 1", r2)
	}
}

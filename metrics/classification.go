package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// Accuracy computes the share of exact matches between targets and
// predictions.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewValueError("Accuracy", "vector length mismatch")
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// Precision computes binary precision with 1.0 as the positive class. When
// no positives are predicted the metric is undefined: an
// UndefinedMetricWarning is raised and 0 returned.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, fp, _, err := binaryCounts(yTrue, yPred, "Precision")
	if err != nil {
		return 0, err
	}
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positives", 0.0))
		return 0, nil
	}
	return float64(tp) / float64(tp+fp), nil
}

// Recall computes binary recall with 1.0 as the positive class. When there
// are no actual positives the metric is undefined: an
// UndefinedMetricWarning is raised and 0 returned.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, _, fn, err := binaryCounts(yTrue, yPred, "Recall")
	if err != nil {
		return 0, err
	}
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no actual positives", 0.0))
		return 0, nil
	}
	return float64(tp) / float64(tp+fn), nil
}

// F1Score computes the harmonic mean of precision and recall.
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	p, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1_score", "precision and recall are both zero", 0.0))
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

func binaryCounts(yTrue, yPred *mat.VecDense, op string) (tp, fp, fn int, err error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, 0, 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, 0, 0, errors.NewValueError(op, "vector length mismatch")
	}

	for i := 0; i < n; i++ {
		truePos := yTrue.AtVec(i) == 1.0
		predPos := yPred.AtVec(i) == 1.0
		switch {
		case truePos && predPos:
			tp++
		case !truePos && predPos:
			fp++
		case truePos && !predPos:
			fn++
		}
	}
	return tp, fp, fn, nil
}

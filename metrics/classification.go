package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// Accuracy returns the fraction of labels predicted correctly.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, vecLen(yPred), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix computes Accuracy on n×1 label matrices.
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, yPredVec, err := columnVectors("AccuracyMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(yTrueVec, yPredVec)
}

// ClassificationError returns the fraction of labels predicted incorrectly.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AUC computes the area under the ROC curve for binary labels via the
// rank-sum (Mann-Whitney) statistic. Tied scores contribute 0.5 per pair.
//
// When yTrue contains a single class the metric is undefined; 0.5 is
// returned and an UndefinedMetricWarning is emitted.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("AUC", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		return 0, errors.NewDimensionError("AUC", n, vecLen(yPred), 0)
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return 0, errors.NewValueError("AUC", "labels must be binary (0 or 1)")
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}

	// Average ranks over tied scores.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yPred.AtVec(order[j]) == yPred.AtVec(order[i]) {
			j++
		}
		// samples i..j-1 share the average of ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	sumRanksPos := 0.0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			sumRanksPos += ranks[i]
		}
	}
	return (sumRanksPos - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix computes AUC on matrix inputs, using the first column of each.
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || rPred == 0 || cPred == 0 {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AUCMatrix", rTrue, rPred, 0)
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}
	return AUC(yTrueVec, yPredVec)
}

// BinaryLogLoss computes the negative log-likelihood of binary labels under
// predicted probabilities, with epsilon clipping to avoid log(0).
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("BinaryLogLoss", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		return 0, errors.NewDimensionError("BinaryLogLoss", n, vecLen(yPred), 0)
	}

	const eps = 1e-15
	sum := 0.0
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be binary (0 or 1)")
		}
		p := math.Min(math.Max(yPred.AtVec(i), eps), 1-eps)
		if label == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// ConfusionMatrix counts binary outcomes. The returned matrix is indexed
// [actual][predicted] with rows and columns ordered (0, 1).
func ConfusionMatrix(yTrue, yPred *mat.VecDense) ([2][2]int, error) {
	var cm [2][2]int
	if yTrue == nil || yTrue.Len() == 0 {
		return cm, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		return cm, errors.NewDimensionError("ConfusionMatrix", n, vecLen(yPred), 0)
	}

	for i := 0; i < n; i++ {
		actual := yTrue.AtVec(i)
		pred := yPred.AtVec(i)
		if (actual != 0 && actual != 1) || (pred != 0 && pred != 1) {
			return cm, errors.NewValueError("ConfusionMatrix", "labels must be binary (0 or 1)")
		}
		cm[int(actual)][int(pred)]++
	}
	return cm, nil
}

// ROCPoint is one point of a ROC curve.
type ROCPoint struct {
	FPR       float64
	TPR       float64
	Threshold float64
}

// ROCCurve sweeps score thresholds from high to low and returns the
// resulting (FPR, TPR) points, starting at (0, 0) and ending at (1, 1).
func ROCCurve(yTrue, score *mat.VecDense) ([]ROCPoint, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return nil, errors.NewValueError("ROCCurve", "empty vector")
	}
	n := yTrue.Len()
	if score == nil || score.Len() != n {
		return nil, errors.NewDimensionError("ROCCurve", n, vecLen(score), 0)
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return nil, errors.NewValueError("ROCCurve", "labels must be binary (0 or 1)")
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil, errors.NewValueError("ROCCurve", "both classes must be present in yTrue")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return score.AtVec(order[a]) > score.AtVec(order[b])
	})

	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: math.Inf(1)}}
	tp, fp := 0, 0
	for i := 0; i < n; {
		// advance through all samples sharing this score
		thr := score.AtVec(order[i])
		for i < n && score.AtVec(order[i]) == thr {
			if yTrue.AtVec(order[i]) == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, ROCPoint{
			FPR:       float64(fp) / float64(nNeg),
			TPR:       float64(tp) / float64(nPos),
			Threshold: thr,
		})
	}
	return points, nil
}

func vecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}

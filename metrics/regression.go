package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// MSEMatrix は行列形式の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, yPredVec, err := columnVectors("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(yTrueVec, yPredVec)
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
//
// 0/1 ラベルと 0/1 予測に適用すると誤分類率の平方根になる。
// 出席予測パイプラインではモデル比較指標のひとつとして使う。
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// RMSEMatrix は行列形式の入力に対してRMSEを計算する
func RMSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSEMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// columnVectors は n×1 行列ペアを VecDense に変換する
func columnVectors(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	if yTrue == nil || yPred == nil {
		return nil, nil, errors.NewValueError(op, "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}
	return yTrueVec, yPredVec, nil
}

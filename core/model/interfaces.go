package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は分類モデルのインターフェース
type Classifier interface {
	Fitter
	Predictor
	// PredictProba は各クラスの予測確率を返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error
	// Transform は学習済みパラメータでデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)
}

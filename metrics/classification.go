package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// logLossEps はlog(0)を避けるためのクリッピング幅
const logLossEps = 1e-15

// Accuracy は正解率（予測ラベルが真のラベルと一致する割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix is Accuracy for n×1 matrices.
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnVecs("AccuracyMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// ClassificationErrorMatrix is ClassificationError for n×1 matrices.
func ClassificationErrorMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnVecs("ClassificationErrorMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ClassificationError(t, p)
}

// BinaryLogLoss は二値分類の対数損失を計算する。
// yTrue は0/1、yPred は陽性クラスの確率
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// BinaryLogLossMatrix is BinaryLogLoss for n×1 matrices.
func BinaryLogLossMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnVecs("BinaryLogLossMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return BinaryLogLoss(t, p)
}

// AUC はROC曲線下面積をMann-Whitney U統計量として計算する。
// 同順位のスコアは平均順位で扱う。
// 片方のクラスしか存在しない場合は UndefinedMetricWarning を発生させ 0.5 を返す
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	// 平均順位（1始まり）
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yPred.AtVec(order[j+1]) == yPred.AtVec(order[i]) {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var nPos, nNeg int
	var rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}

	u := rankSum - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する。
// 複数列の場合は先頭列を使用する
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}
	if isEmpty(yTrue) || isEmpty(yPred) {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}
	return AUC(colVec(yTrue), colVec(yPred))
}

func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// Accuracy は予測ラベルが正解ラベルと一致した割合を返す
func Accuracy(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
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

// Package analysis routes a prepared dataset to one of five algorithm families
// and packages their divergent outputs into a single Result.
//
// Every family goes through the same preprocessing: features are coerced and
// imputed by preprocessing.Preparer, standardized on the full matrix, and, for
// supervised families, split into train and test partitions from a fixed seed.
package analysis

import (
	"strings"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Algorithm identifies a requested analysis.
type Algorithm string

const (
	LinearRegression           Algorithm = "linear_regression"
	RandomForestRegression     Algorithm = "random_forest_regression"
	RandomForestClassification Algorithm = "random_forest_classification"
	KMeans                     Algorithm = "kmeans"
	DBSCAN                     Algorithm = "dbscan"
	PCA                        Algorithm = "pca"
)

// Algorithms lists every supported identifier in presentation order.
func Algorithms() []Algorithm {
	return []Algorithm{
		LinearRegression,
		RandomForestRegression,
		RandomForestClassification,
		KMeans,
		DBSCAN,
		PCA,
	}
}

// ParseAlgorithm validates an identifier. Surrounding space and case are ignored.
func ParseAlgorithm(s string) (Algorithm, error) {
	id := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Algorithms() {
		if a == id {
			return a, nil
		}
	}
	supported := make([]string, 0, len(Algorithms()))
	for _, a := range Algorithms() {
		supported = append(supported, string(a))
	}
	return "", errors.NewUnsupportedAlgorithmError(s, supported)
}

// FamilyKind is the structural family an algorithm belongs to.
type FamilyKind string

const (
	Regression     FamilyKind = "regression"
	Classification FamilyKind = "classification"
	Partition      FamilyKind = "partition"
	Density        FamilyKind = "density"
	Reduction      FamilyKind = "reduction"
)

// Family returns the family of a.
func (a Algorithm) Family() FamilyKind {
	switch a {
	case LinearRegression, RandomForestRegression:
		return Regression
	case RandomForestClassification:
		return Classification
	case KMeans:
		return Partition
	case DBSCAN:
		return Density
	case PCA:
		return Reduction
	default:
		return ""
	}
}

// Supervised reports whether a needs a target column and a train/test split.
func (a Algorithm) Supervised() bool {
	switch a.Family() {
	case Regression, Classification:
		return true
	default:
		return false
	}
}

func (a Algorithm) String() string { return string(a) }

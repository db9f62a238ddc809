package prediction

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when the score vector does not line up with the class list.
var ErrShapeMismatch = errors.New("score vector does not match class list")

var classes = []string{
	"dress",
	"hat",
	"longsleeve",
	"outwear",
	"pants",
	"shirt",
	"shoes",
	"shorts",
	"skirt",
	"t-shirt",
}

// Classes returns a copy of the label order the clothing model was trained with.
func Classes() []string {
	out := make([]string, len(classes))
	copy(out, classes)
	return out
}

type Result struct {
	Predictions    map[string]float32 `json:"predictions"`
	TopClass       string             `json:"top_class"`
	TopProbability float32            `json:"top_probability"`
}

// Assemble labels scores positionally with classes and picks the first
// class holding the maximum score.
func Assemble(classes []string, scores []float32) (*Result, error) {
	if len(classes) == 0 || len(scores) != len(classes) {
		return nil, fmt.Errorf("%w: got %d scores for %d classes", ErrShapeMismatch, len(scores), len(classes))
	}

	predictions := make(map[string]float32, len(classes))
	maxIdx := 0
	for i, score := range scores {
		predictions[classes[i]] = score
		if score > scores[maxIdx] {
			maxIdx = i
		}
	}

	return &Result{
		Predictions:    predictions,
		TopClass:       classes[maxIdx],
		TopProbability: scores[maxIdx],
	}, nil
}

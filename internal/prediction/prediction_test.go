package prediction

import (
	"errors"
	"reflect"
	"testing"
)

func TestAssemblePicksSkirt(t *testing.T) {
	scores := []float32{0.1, 0.05, 0.05, 0.05, 0.05, 0.1, 0.1, 0.1, 0.3, 0.1}

	result, err := Assemble(Classes(), scores)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TopClass != "skirt" {
		t.Fatalf("expected skirt, got %s", result.TopClass)
	}
	if result.TopProbability != 0.3 {
		t.Fatalf("expected 0.3, got %v", result.TopProbability)
	}
	if len(result.Predictions) != len(Classes()) {
		t.Fatalf("expected %d classes, got %d", len(Classes()), len(result.Predictions))
	}
	for i, class := range Classes() {
		if result.Predictions[class] != scores[i] {
			t.Fatalf("class %s: got %v want %v", class, result.Predictions[class], scores[i])
		}
	}
}

func TestAssembleTieGoesToEarlierClass(t *testing.T) {
	scores := []float32{0.1, 0.4, 0, 0, 0, 0, 0.4, 0, 0, 0.1}

	result, err := Assemble(Classes(), scores)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TopClass != "hat" {
		t.Fatalf("expected hat to win the tie, got %s", result.TopClass)
	}
}

func TestAssembleNegativeScores(t *testing.T) {
	scores := []float32{-5, -4, -3, -2, -1.5, -9, -8, -7, -6, -1.6}

	result, err := Assemble(Classes(), scores)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TopClass != "pants" || result.TopProbability != -1.5 {
		t.Fatalf("unexpected top %s=%v", result.TopClass, result.TopProbability)
	}
}

func TestAssembleShapeMismatch(t *testing.T) {
	for _, n := range []int{0, 9, 11} {
		if _, err := Assemble(Classes(), make([]float32, n)); !errors.Is(err, ErrShapeMismatch) {
			t.Fatalf("%d scores: expected ErrShapeMismatch, got %v", n, err)
		}
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	scores := []float32{0.3, 0.1, 0.3, 0, 0, 0, 0, 0, 0, 0.3}
	first, err := Assemble(Classes(), scores)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, _ := Assemble(Classes(), scores)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("call %d differs: %+v vs %+v", i, first, next)
		}
	}
	if first.TopClass != "dress" {
		t.Fatalf("expected dress, got %s", first.TopClass)
	}
}

func TestClassesReturnsCopy(t *testing.T) {
	labels := Classes()
	labels[8] = "kilt"
	if Classes()[8] != "skirt" {
		t.Fatal("class order was mutated through the returned slice")
	}
}

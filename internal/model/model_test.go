package model

import (
	"os"
	"path/filepath"
	"testing"

	ort "github.com/yalue/onnxruntime_go"
)

func TestLoadMetadataDefaults(t *testing.T) {
	metadata, err := LoadMetadata("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metadata.Classes) != 10 || metadata.Classes[8] != "skirt" {
		t.Fatalf("unexpected classes %v", metadata.Classes)
	}
	if metadata.ImageSize != 224 {
		t.Fatalf("unexpected image size %d", metadata.ImageSize)
	}
}

func TestLoadMetadataOverridesClasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(`{"classes":["cat","dog"]}`), 0o644); err != nil {
		t.Fatalf("failed to write metadata: %v", err)
	}

	metadata, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metadata.Classes) != 2 || metadata.Classes[1] != "dog" {
		t.Fatalf("unexpected classes %v", metadata.Classes)
	}
	if metadata.ImageSize != 224 {
		t.Fatalf("expected default image size, got %d", metadata.ImageSize)
	}
}

func TestLoadMetadataRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(`{classes`), 0o644); err != nil {
		t.Fatalf("failed to write metadata: %v", err)
	}
	if _, err := LoadMetadata(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefaultMetadataIsACopy(t *testing.T) {
	metadata := DefaultMetadata()
	metadata.Classes[0] = "changed"
	if DefaultMetadata().Classes[0] != "dress" {
		t.Fatal("mutating returned metadata leaked into defaults")
	}
}

func TestFixBatch(t *testing.T) {
	shape := fixBatch(ort.NewShape(-1, 10))
	if shape[0] != 1 || shape[1] != 10 {
		t.Fatalf("unexpected shape %v", shape)
	}
}

func TestFirstRow(t *testing.T) {
	scores := []float32{0.1, 0.05, 0.05, 0.05, 0.05, 0.1, 0.1, 0.1, 0.3, 0.1}

	row, err := firstRow(scores, ort.NewShape(1, 10))
	if err != nil || len(row) != 10 || row[8] != 0.3 {
		t.Fatalf("batched shape: got %v, %v", row, err)
	}

	row, err = firstRow(scores, ort.NewShape(10))
	if err != nil || len(row) != 10 {
		t.Fatalf("rank-1 shape: got %v, %v", row, err)
	}

	row, err = firstRow(append(scores, scores...), ort.NewShape(2, 10))
	if err != nil || len(row) != 10 || row[0] != 0.1 {
		t.Fatalf("two rows: got %v, %v", row, err)
	}

	row[0] = 9
	if scores[0] != 0.1 {
		t.Fatal("row aliases the output buffer")
	}

	if _, err := firstRow(scores, ort.NewShape(3, 4)); err == nil {
		t.Fatal("expected error when data does not fit the shape")
	}
	if _, err := firstRow(scores, ort.Shape{}); err == nil {
		t.Fatal("expected error for empty shape")
	}
}

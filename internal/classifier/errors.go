package classifier

import (
	"errors"

	"github.com/Brownie44l1/clothing-api/internal/prediction"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrAcquisition   = errors.New("image acquisition failed")
	ErrExecution     = errors.New("model execution failed")
	ErrShapeMismatch = prediction.ErrShapeMismatch
)

// stageError attaches one of the sentinel kinds to a lower-level cause.
type stageError struct {
	kind  error
	cause error
}

func (e *stageError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *stageError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

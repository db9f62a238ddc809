package model

import (
	"context"
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/Brownie44l1/clothing-api/internal/preprocess"
)

// Server owns the ONNX Runtime session for one classification model. The
// session is created once; every Run uses its own tensors, so concurrent
// calls share nothing mutable.
type Server struct {
	session     *ort.DynamicAdvancedSession
	Metadata    Metadata
	InputName   string
	OutputName  string
	outputShape ort.Shape
	logger      *zap.Logger
}

type Options struct {
	ModelPath      string
	MetadataPath   string
	RuntimeLibPath string
}

func NewServer(opts Options, logger *zap.Logger) (*Server, error) {
	logger = logger.Named("model")

	metadata, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	if opts.RuntimeLibPath != "" {
		ort.SetSharedLibraryPath(opts.RuntimeLibPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to inspect model %s: %w", opts.ModelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("model %s has %d inputs and %d outputs", opts.ModelPath, len(inputs), len(outputs))
	}
	input, output := inputs[0], outputs[0]

	outputShape := fixBatch(output.Dimensions)
	if width := outputShape[len(outputShape)-1]; width > 0 && int(width) != len(metadata.Classes) {
		logger.Warn("model output width does not match class list",
			zap.Int64("output_width", width),
			zap.Int("classes", len(metadata.Classes)),
		)
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{input.Name}, []string{output.Name}, nil)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.Info("model loaded",
		zap.String("path", opts.ModelPath),
		zap.String("input", input.Name),
		zap.String("output", output.Name),
		zap.Strings("classes", metadata.Classes),
	)

	return &Server{
		session:     session,
		Metadata:    metadata,
		InputName:   input.Name,
		OutputName:  output.Name,
		outputShape: outputShape,
		logger:      logger,
	}, nil
}

// Run executes the model on one input tensor and returns the first row of
// the output.
func (s *Server) Run(ctx context.Context, input preprocess.Tensor) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](s.outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return firstRow(outputTensor.GetData(), s.outputShape)
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
	}
	if err := ort.DestroyEnvironment(); err != nil {
		s.logger.Warn("failed to destroy ONNX environment", zap.Error(err))
	}
}

// firstRow copies batch row 0 out of data laid out as shape. A rank-1 shape
// is a single unbatched row.
func firstRow(data []float32, shape ort.Shape) ([]float32, error) {
	if len(shape) == 0 {
		return nil, errors.New("model output has no dimensions")
	}
	width := len(data)
	if len(shape) > 1 {
		rows := int(shape[0])
		if rows <= 0 || len(data)%rows != 0 {
			return nil, fmt.Errorf("model output of %d values does not fit shape %v", len(data), shape)
		}
		width = len(data) / rows
	}
	row := make([]float32, width)
	copy(row, data)
	return row, nil
}

// fixBatch replaces dynamic dimensions with 1, the only batch size served.
func fixBatch(dims ort.Shape) ort.Shape {
	shape := make(ort.Shape, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		shape[i] = d
	}
	if len(shape) == 0 {
		shape = ort.NewShape(1)
	}
	return shape
}

// Package preprocess turns a resized RGB pixel array into the normalized
// NCHW float32 tensor the classifier was trained on.
package preprocess

import "fmt"

const Channels = 3

// ImageNet channel statistics, R, G, B.
var (
	mean = [Channels]float64{0.485, 0.456, 0.406}
	std  = [Channels]float64{0.229, 0.224, 0.225}
)

// Mean returns the per-channel mean subtracted after scaling.
func Mean() [Channels]float64 { return mean }

// Std returns the per-channel standard deviation divided out after centering.
func Std() [Channels]float64 { return std }

// Tensor is a dense float32 tensor with its shape, batch first.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Transform converts NHWC pixels (batch 1, values in [0, 255]) of the given
// height and width into a (1, 3, height, width) tensor where every value is
// ((pixel/255) - Mean()[c]) / Std()[c].
func Transform(pixels []float32, height, width int) (Tensor, error) {
	plane := height * width
	if height <= 0 || width <= 0 || len(pixels) != plane*Channels {
		return Tensor{}, fmt.Errorf("expected %dx%dx%d pixels, got %d values", height, width, Channels, len(pixels))
	}

	out := make([]float32, len(pixels))
	for i := 0; i < plane; i++ {
		src := pixels[i*Channels : i*Channels+Channels]
		for c := 0; c < Channels; c++ {
			v := float64(src[c]) / 255.0
			out[c*plane+i] = float32((v - mean[c]) / std[c])
		}
	}

	return Tensor{
		Shape: []int64{1, Channels, int64(height), int64(width)},
		Data:  out,
	}, nil
}

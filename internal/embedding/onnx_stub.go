//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

var errONNXUnavailable = errors.New("onnx provider requires cgo; build with CGO_ENABLED=1 and onnxruntime installed")

// ONNXProvider is unavailable without cgo.
type ONNXProvider struct{}

// NewONNXProvider always fails without cgo.
func NewONNXProvider(_ string, _, _ int) (*ONNXProvider, error) {
	return nil, errONNXUnavailable
}

func (p *ONNXProvider) Name() string    { return "onnx" }
func (p *ONNXProvider) BatchLimit() int { return 0 }
func (p *ONNXProvider) Close() error    { return nil }

func (p *ONNXProvider) Embed(context.Context, []string, InputType) ([][]float32, error) {
	return nil, errONNXUnavailable
}

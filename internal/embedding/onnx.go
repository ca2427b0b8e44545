//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/ruiji/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	onnxOnce sync.Once
	onnxErr  error
)

func initONNX() error {
	onnxOnce.Do(func() { onnxErr = ort.InitializeEnvironment() })
	return onnxErr
}

// ONNXProvider runs a local sentence-embedding model through ONNX Runtime.
// Inference reuses one set of tensors, so calls are serialized.
type ONNXProvider struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	tokenizer  Tokenizer
	dimensions int
	maxTokens  int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

// NewONNXProvider loads the model at modelPath. The model must take input_ids,
// attention_mask and token_type_ids of shape [1, maxTokens] and emit "output" of
// shape [1, dimensions].
func NewONNXProvider(modelPath string, dimensions, maxTokens int) (*ONNXProvider, error) {
	if err := initONNX(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	p := &ONNXProvider{tokenizer: HashTokenizer{}, dimensions: dimensions, maxTokens: maxTokens}
	ids, mask, types := p.tokenizer.Tokenize("", maxTokens)
	shape := ort.NewShape(1, int64(len(ids)))

	var err error
	if p.inputIDs, err = ort.NewTensor(shape, ids); err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	if p.attentionMask, err = ort.NewTensor(shape, mask); err != nil {
		p.Close()
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	if p.tokenTypeIDs, err = ort.NewTensor(shape, types); err != nil {
		p.Close()
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	if p.output, err = ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions)); err != nil {
		p.Close()
		return nil, fmt.Errorf("output tensor: %w", err)
	}

	p.session, err = ort.NewAdvancedSession(modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{p.inputIDs, p.attentionMask, p.tokenTypeIDs},
		[]ort.ArbitraryTensor{p.output},
		nil,
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("create onnx session for %s: %w", modelPath, err)
	}
	return p, nil
}

func (p *ONNXProvider) Name() string    { return "onnx" }
func (p *ONNXProvider) BatchLimit() int { return 0 }

// Embed runs inference once per text.
func (p *ONNXProvider) Embed(ctx context.Context, texts []string, _ InputType) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, fmt.Errorf("onnx provider closed")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids, mask, types := p.tokenizer.Tokenize(text, p.maxTokens)
		copy(p.inputIDs.GetData(), ids)
		copy(p.attentionMask.GetData(), mask)
		copy(p.tokenTypeIDs.GetData(), types)

		if err := p.session.Run(); err != nil {
			return nil, fmt.Errorf("onnx inference: %w", err)
		}
		v := make([]float32, p.dimensions)
		copy(v, p.output.GetData())
		utils.NormalizeL2(v)
		out[i] = v
	}
	return out, nil
}

// Close releases the session and tensors.
func (p *ONNXProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.session != nil {
		err = p.session.Destroy()
		p.session = nil
	}
	if p.inputIDs != nil {
		_ = p.inputIDs.Destroy()
	}
	if p.attentionMask != nil {
		_ = p.attentionMask.Destroy()
	}
	if p.tokenTypeIDs != nil {
		_ = p.tokenTypeIDs.Destroy()
	}
	if p.output != nil {
		_ = p.output.Destroy()
	}
	p.inputIDs, p.attentionMask, p.tokenTypeIDs, p.output = nil, nil, nil, nil
	return err
}

package embedding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// ONNXModel runs a sentence transformer through the ONNX runtime. The model
// is downloaded from HuggingFace into a local cache directory on first load.
type ONNXModel struct {
	spec     ModelSpec
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

var _ Model = (*ONNXModel)(nil)

// loadONNXModel is the default Cache LoadFunc.
func loadONNXModel(ctx context.Context, spec ModelSpec) (Model, error) {
	return NewONNXModel(ctx, spec)
}

// NewONNXModel downloads the model if needed and builds the inference
// pipeline.
func NewONNXModel(_ context.Context, spec ModelSpec) (*ONNXModel, error) {
	cacheDir, err := modelCacheDir()
	if err != nil {
		return nil, err
	}

	modelPath := filepath.Join(cacheDir, spec.Name)
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		downloaded, err := hugot.DownloadModel(spec.HFRepo, cacheDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", spec.HFRepo, err)
		}
		modelPath = downloaded
	}

	session, err := hugot.NewORTSession(
		options.WithIntraOpNumThreads(runtime.NumCPU()),
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      spec.Name,
	})
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	return &ONNXModel{
		spec:     spec,
		session:  session,
		pipeline: pipeline,
	}, nil
}

// Name returns the model identifier.
func (m *ONNXModel) Name() string {
	return m.spec.Name
}

// Dimension returns the output vector dimensionality.
func (m *ONNXModel) Dimension() int {
	return m.spec.Dimension
}

// Embed encodes the texts in one pipeline run.
func (m *ONNXModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	output, err := m.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	if len(output.Embeddings) != len(texts) {
		return nil, fmt.Errorf("inference: got %d embeddings for %d texts", len(output.Embeddings), len(texts))
	}
	return output.Embeddings, nil
}

// Close destroys the runtime session.
func (m *ONNXModel) Close() error {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
		m.pipeline = nil
	}
	return nil
}

func modelCacheDir() (string, error) {
	if dir := os.Getenv("DOCIDX_MODEL_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}

	dir := filepath.Join(home, ".docidx", "models")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Package embedding turns text into dense float32 vectors using sentence
// transformer models, with a process-wide cache so each model is loaded at
// most once.
package embedding

import (
	"context"
	"fmt"
)

// Model embeds batches of text into fixed-dimension vectors.
type Model interface {
	// Name returns the model identifier, e.g. "all-MiniLM-L6-v2".
	Name() string

	// Dimension returns the output vector dimensionality.
	Dimension() int

	// Embed encodes each text into one vector. The result has one row per
	// input, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelSpec describes a supported sentence transformer model.
type ModelSpec struct {
	// Name is the short model identifier used in indexer names.
	Name string

	// HFRepo is the HuggingFace repository the ONNX export is fetched from.
	HFRepo string

	// Dimension is the output dimensionality of the model.
	Dimension int
}

// The supported model table is closed: indexer names embed the model
// identifier, so accepting arbitrary models would make stored artifacts
// unresolvable. New models are added here deliberately.
var modelSpecs = map[string]ModelSpec{
	"all-MiniLM-L6-v2": {
		Name:      "all-MiniLM-L6-v2",
		HFRepo:    "sentence-transformers/all-MiniLM-L6-v2",
		Dimension: 384,
	},
	"all-mpnet-base-v2": {
		Name:      "all-mpnet-base-v2",
		HFRepo:    "sentence-transformers/all-mpnet-base-v2",
		Dimension: 768,
	},
	"multi-qa-distilbert-cos-v1": {
		Name:      "multi-qa-distilbert-cos-v1",
		HFRepo:    "sentence-transformers/multi-qa-distilbert-cos-v1",
		Dimension: 768,
	},
}

// LookupSpec returns the spec for a supported model name.
func LookupSpec(name string) (ModelSpec, error) {
	spec, ok := modelSpecs[name]
	if !ok {
		return ModelSpec{}, &ModelUnavailableError{
			Model: name,
			Err:   fmt.Errorf("not in the supported model table"),
		}
	}
	return spec, nil
}

// SupportedModels returns the names of all supported models.
func SupportedModels() []string {
	names := make([]string, 0, len(modelSpecs))
	for name := range modelSpecs {
		names = append(names, name)
	}
	return names
}

// ModelUnavailableError indicates a model that could not be resolved or
// loaded.
type ModelUnavailableError struct {
	Model string
	Err   error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("embedding: model %q unavailable: %v", e.Model, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

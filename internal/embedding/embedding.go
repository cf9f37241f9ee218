// Package embedding provides text-to-vector embedding generation for the
// auto-embedding text fields of §6. Vectors are []float64 to match
// internal/kernel's numeric-stability requirements end to end: a
// provider's output is inserted into a vector index without a
// precision-narrowing conversion at the boundary.
package embedding

import (
	"context"
	"errors"

	"github.com/arvolabs/vecstore/internal/kernel"
)

// Common errors for embedding operations.
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrProviderClosed    = errors.New("embedding provider is closed")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Provider defines the interface for embedding generation.
type Provider interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension returns the dimension of the embedding vectors.
	Dimension() int

	// Close releases any resources held by the provider.
	Close() error
}

// Config holds configuration for embedding providers.
type Config struct {
	// Provider specifies which embedding provider to use. NewProvider
	// only builds "mock" (or "", which defaults to it) and returns an
	// error for any other value; any other Provider is built by the
	// caller and passed directly as TableOptions.Embedder.
	Provider string `mapstructure:"provider"`

	// Dimension is the embedding dimension; zero makes NewProvider use 384.
	Dimension int `mapstructure:"dimension"`

	// APIKey, BaseURL and Model configure a caller-supplied remote
	// Provider; NewProvider itself never reads them.
	APIKey string `mapstructure:"api_key"`

	// BaseURL for remote providers.
	BaseURL string `mapstructure:"base_url"`

	// Model name for remote providers.
	Model string `mapstructure:"model"`

	// BatchSize for batch operations.
	BatchSize int `mapstructure:"batch_size"`
}

// DefaultConfig returns the default embedding configuration.
func DefaultConfig() Config {
	return Config{
		Provider:  "mock",
		Dimension: 384,
		BatchSize: 32,
	}
}

// CosineSimilarity calculates the cosine similarity between two vectors,
// delegating to kernel's distance primitives so providers and indexes
// agree on the same numeric definition.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, errors.New("vectors cannot be empty")
	}
	return 1 - kernel.CosineDistance(a, b), nil
}

// Normalize normalizes a vector to unit length, leaving a zero vector
// unchanged.
func Normalize(v []float64) []float64 {
	return kernel.Normalize(v)
}

package embedding

import "fmt"

// ProviderType represents the type of embedding provider.
type ProviderType string

const (
	// ProviderTypeMock uses deterministic mock embeddings (for testing and
	// for tables that don't need a real embedding model).
	ProviderTypeMock ProviderType = "mock"
)

// NewProvider creates a new embedding provider based on configuration. A
// real model-backed provider is an external collaborator per §1 and is
// constructed by the caller and passed in as TableOptions.Embedder; this
// factory only ever builds the mock.
func NewProvider(cfg Config) (Provider, error) {
	switch ProviderType(cfg.Provider) {
	case ProviderTypeMock, "":
		dim := cfg.Dimension
		if dim == 0 {
			dim = 384
		}
		return NewMockProvider(dim), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
}

package shortener

import (
	"context"
)

// Generator defines the interface for generating aliases
type Generator interface {
	// Generate mints a new candidate alias
	Generate(ctx context.Context) (string, error)

	// Type returns the type identifier of the generator
	Type() string
}

// GeneratorType constants
const (
	TypeTime = "time"
)

package providers

import (
	"context"
)

// Image is the photo an AI request is about. Providers use whichever of
// Data or URL they support.
type Image struct {
	Data     []byte
	MIMEType string
	URL      string
}

// Config represents the configuration for a single generation request
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Image       *Image
}

// Provider defines the interface for an AI text/vision backend
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, config Config) (string, error)
}

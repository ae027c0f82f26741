package exporters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOTLPConfig(t *testing.T) {
	t.Run("should carry a non-zero export timeout", func(t *testing.T) {
		cfg := DefaultOTLPConfig()

		assert.Equal(t, "grpc", cfg.Protocol)
		assert.True(t, cfg.Insecure)
		assert.Greater(t, cfg.Timeout.Seconds(), 0.0)
	})
}

func TestNewOTLPExporter(t *testing.T) {
	t.Run("should reject an unknown protocol", func(t *testing.T) {
		_, err := NewOTLPExporter(context.Background(), OTLPConfig{
			Endpoint: "localhost:4317",
			Protocol: "udp",
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported OTLP protocol")
	})
}

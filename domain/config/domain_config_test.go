package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDomainConfig(t *testing.T) {
	tests := []struct {
		environment string
		maxNodes    int
		ports       bool
	}{
		{"production", 1000, true},
		{"development", 100000, false},
		{"staging", 2000, false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := LoadDomainConfig(tt.environment)
			assert.Equal(t, tt.maxNodes, cfg.MaxNodesPerGraph)
			assert.Equal(t, tt.ports, cfg.EnforceBlockPorts)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestDomainConfig_Validate(t *testing.T) {
	cfg := DefaultDomainConfig()
	cfg.MaxEdgesPerGraph = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultDomainConfig()
	cfg.DefaultEdgeType = ""
	assert.Error(t, cfg.Validate())
}

package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable workflow graph rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxEdgesPerGraph int
	DefaultGraphName string

	// Defaults applied by the store
	DefaultNodeType string
	DefaultEdgeType string

	// Batch constraints
	MaxChangesPerBatch int

	// Session constraints
	MaxOpenWorkflows int
	SessionTimeout   time.Duration

	// Validation settings
	RequireKnownNodeTypes bool
	EnforceBlockPorts     bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Graph constraints
		MaxNodesPerGraph: 2000,
		MaxEdgesPerGraph: 10000,
		DefaultGraphName: "Untitled workflow",

		DefaultNodeType: "workflowBlock",
		DefaultEdgeType: "workflowEdge",

		MaxChangesPerBatch: 1000,

		MaxOpenWorkflows: 500,
		SessionTimeout:   24 * time.Hour,

		// Validation settings
		RequireKnownNodeTypes: true,
		EnforceBlockPorts:     false,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More restrictive limits for production
	config.MaxNodesPerGraph = 1000
	config.MaxEdgesPerGraph = 5000
	config.MaxChangesPerBatch = 500

	// Stricter validation
	config.EnforceBlockPorts = true

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More permissive for development
	config.MaxNodesPerGraph = 100000
	config.MaxEdgesPerGraph = 500000
	config.MaxChangesPerBatch = 10000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxNodesPerGraph <= 0 || c.MaxEdgesPerGraph <= 0 {
		return fmt.Errorf("graph limits must be positive")
	}
	if c.MaxChangesPerBatch <= 0 {
		return fmt.Errorf("max changes per batch must be positive")
	}
	if c.DefaultNodeType == "" || c.DefaultEdgeType == "" {
		return fmt.Errorf("default node and edge types are required")
	}
	return nil
}

// Package catalog is the read-only registry of node types a workflow graph
// may contain.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// MaxCatalogFileSize bounds catalog files read from disk.
const MaxCatalogFileSize = 1024 * 1024

//go:embed blocks.yaml
var defaultBlocksYAML []byte

// Catalog is the lookup the graph consults before creating a node.
type Catalog interface {
	IsKnownType(nodeType string) bool
	Lookup(nodeType string) (Block, bool)
	Blocks() []Block
}

// Block describes one node type.
type Block struct {
	Type        string `yaml:"type" json:"type"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`

	// Named ports. Empty means any handle, including the default one.
	Inputs  []string `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty" json:"outputs,omitempty"`

	// Accepts restricts which source types may connect into this block.
	Accepts []string `yaml:"accepts,omitempty" json:"accepts,omitempty"`

	// SourceOnly blocks can never be a connection target.
	SourceOnly bool `yaml:"source_only,omitempty" json:"sourceOnly,omitempty"`
}

// HasInput reports whether handle is a valid target port of the block.
func (b Block) HasInput(handle string) bool {
	return handle == "" || len(b.Inputs) == 0 || slices.Contains(b.Inputs, handle)
}

// HasOutput reports whether handle is a valid source port of the block.
func (b Block) HasOutput(handle string) bool {
	return handle == "" || len(b.Outputs) == 0 || slices.Contains(b.Outputs, handle)
}

// AcceptsFrom reports whether the block takes input from sourceType.
func (b Block) AcceptsFrom(sourceType string) bool {
	return len(b.Accepts) == 0 || slices.Contains(b.Accepts, sourceType)
}

type catalogFile struct {
	Blocks []Block `yaml:"blocks"`
}

// StaticCatalog is an immutable in-memory catalog, safe for concurrent use.
type StaticCatalog struct {
	blocks map[string]Block
	order  []string
}

// NewStaticCatalog builds a catalog from blocks. Types must be unique and
// non-empty.
func NewStaticCatalog(blocks ...Block) (*StaticCatalog, error) {
	c := &StaticCatalog{blocks: make(map[string]Block, len(blocks))}
	for i, b := range blocks {
		if b.Type == "" {
			return nil, fmt.Errorf("block %d: type is required", i)
		}
		if _, exists := c.blocks[b.Type]; exists {
			return nil, fmt.Errorf("block %q: duplicate type", b.Type)
		}
		if b.Name == "" {
			b.Name = b.Type
		}
		c.blocks[b.Type] = b
		c.order = append(c.order, b.Type)
	}
	sort.Strings(c.order)
	return c, nil
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*StaticCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse block catalog: %w", err)
	}
	if len(file.Blocks) == 0 {
		return nil, fmt.Errorf("block catalog defines no blocks")
	}
	return NewStaticCatalog(file.Blocks...)
}

// Load reads a catalog file, or the built-in catalog when path is empty.
func Load(path string) (*StaticCatalog, error) {
	if path == "" {
		return Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat block catalog: %w", err)
	}
	if info.Size() > MaxCatalogFileSize {
		return nil, fmt.Errorf("block catalog %s exceeds %d bytes", path, MaxCatalogFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in catalog.
func Default() (*StaticCatalog, error) {
	return Parse(defaultBlocksYAML)
}

func (c *StaticCatalog) IsKnownType(nodeType string) bool {
	_, ok := c.blocks[nodeType]
	return ok
}

func (c *StaticCatalog) Lookup(nodeType string) (Block, bool) {
	b, ok := c.blocks[nodeType]
	return b, ok
}

// Blocks lists every block sorted by type.
func (c *StaticCatalog) Blocks() []Block {
	out := make([]Block, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.blocks[t])
	}
	return out
}

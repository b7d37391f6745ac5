package parser

import (
	"bytes"
)

// Registry holds all available parsers and provides auto-detection.
type Registry struct {
	parsers []Parser
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry returns a registry with the comma, semicolon and tab parsers.
// Comma is registered first so it wins ties.
func NewRegistry() *Registry {
	return &Registry{
		parsers: []Parser{
			NewDelimitedParser("csv", ','),
			NewDelimitedParser("csv_semicolon", ';'),
			NewDelimitedParser("tsv", '\t'),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// FindParser picks the parser that splits the header line into the most fields.
func (r *Registry) FindParser(head []byte) (Parser, error) {
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, newParseError(0, "binary content is not supported", ErrNotTabular)
	}

	var best Parser
	bestFields := 0
	for _, p := range r.parsers {
		if n := p.Sniff(head); n > bestFields {
			best, bestFields = p, n
		}
	}
	if best == nil {
		return nil, newParseError(0, "no columns to parse from file", ErrNotTabular)
	}
	return best, nil
}

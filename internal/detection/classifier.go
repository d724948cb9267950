package detection

import (
	"fmt"
	"sort"
	"strings"

	"solana-pool-monitor/internal/domain"
)

// Registry maps program IDs to source labels.
type Registry struct {
	labels map[domain.PublicKey]domain.Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		labels: make(map[domain.PublicKey]domain.Source),
	}
}

// DefaultRegistry returns a registry with Jupiter v6 and Raydium programs registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.MustParsePublicKey(domain.JupiterV6), domain.SourceJupiter)
	r.Register(domain.MustParsePublicKey(domain.RaydiumCLMM), domain.SourceRaydiumCLMM)
	r.Register(domain.MustParsePublicKey(domain.RaydiumAMMV4), domain.SourceRaydiumAMM)
	return r
}

// ParseRegistry builds a registry from "label=programID" entries.
func ParseRegistry(entries []string) (*Registry, error) {
	r := NewRegistry()
	for _, entry := range entries {
		label, program, ok := strings.Cut(entry, "=")
		label = strings.TrimSpace(label)
		program = strings.TrimSpace(program)
		if !ok || label == "" || program == "" {
			return nil, fmt.Errorf("program entry %q: expected label=programID", entry)
		}
		pk, err := domain.ParsePublicKey(program)
		if err != nil {
			return nil, fmt.Errorf("program entry %q: %w", entry, err)
		}
		r.Register(pk, domain.Source(label))
	}
	return r, nil
}

// Register adds or replaces the label for a program ID.
func (r *Registry) Register(program domain.PublicKey, label domain.Source) {
	r.labels[program] = label
}

// Lookup returns the label for a program ID.
func (r *Registry) Lookup(program domain.PublicKey) (domain.Source, bool) {
	label, ok := r.labels[program]
	return label, ok
}

// Len returns the number of registered programs.
func (r *Registry) Len() int {
	return len(r.labels)
}

// Entries returns "label=programID" pairs sorted by label.
func (r *Registry) Entries() []string {
	out := make([]string, 0, len(r.labels))
	for pk, label := range r.labels {
		out = append(out, string(label)+"="+pk.String())
	}
	sort.Strings(out)
	return out
}

// Classifier assigns a source label to a transaction.
type Classifier struct {
	registry *Registry
}

// NewClassifier creates a classifier over the given registry.
func NewClassifier(registry *Registry) *Classifier {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Classifier{registry: registry}
}

// Classify scans instructions in order and returns the label of the first one
// whose program is registered. Outer instructions come first, so a router such
// as Jupiter wins over the AMM it calls into. Returns SourceOther if none match.
func (c *Classifier) Classify(instructions []domain.SubOperation, accountKeys []domain.PublicKey) domain.Source {
	for _, ix := range instructions {
		if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(accountKeys) {
			continue
		}
		if label, ok := c.registry.Lookup(accountKeys[ix.ProgramIDIndex]); ok {
			return label
		}
	}
	return domain.SourceOther
}

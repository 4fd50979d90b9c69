// Package benchconfig decodes the HCL scenario file consumed by
// cmd/depgraph-bench, following the same Loader/Converter split the
// teacher's own configuration layer uses: Loader reads and parses bytes
// into an hcl.Body, Converter decodes that body into a typed Go struct.
package benchconfig

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// QueueKind selects which queue.Queue implementation a scenario runs
// against.
type QueueKind string

const (
	QueueInline   QueueKind = "inline"
	QueuePool     QueueKind = "pool"
	QueuePriority QueueKind = "priority"
)

// Scenario is the decoded shape of a scenario.hcl file.
type Scenario struct {
	Queue      string `hcl:"queue"`
	Workers    int    `hcl:"workers,optional"`
	TopKey     int    `hcl:"top_key"`
	Iterations int    `hcl:"iterations,optional"`
}

// Loader reads scenario files from disk and parses them into hcl.Body
// values, mirroring the teacher's config.Loader interface.
type Loader interface {
	Load(path string) (hcl.Body, error)
}

// Converter decodes an hcl.Body into a Scenario, mirroring the teacher's
// config.Converter interface.
type Converter interface {
	Convert(body hcl.Body) (*Scenario, error)
}

// HCLLoader is the reference Loader, backed by hclparse.
type HCLLoader struct {
	parser *hclparse.Parser
}

// NewHCLLoader returns a ready-to-use HCLLoader.
func NewHCLLoader() *HCLLoader {
	return &HCLLoader{parser: hclparse.NewParser()}
}

// Load implements Loader.
func (l *HCLLoader) Load(path string) (hcl.Body, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("benchconfig: reading %s: %w", path, err)
	}
	file, diags := l.parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("benchconfig: parsing %s: %w", path, diags)
	}
	return file.Body, nil
}

// HCLConverter is the reference Converter, backed by gohcl.
type HCLConverter struct{}

// Convert implements Converter.
func (HCLConverter) Convert(body hcl.Body) (*Scenario, error) {
	var scenario Scenario
	if diags := gohcl.DecodeBody(body, nil, &scenario); diags.HasErrors() {
		return nil, fmt.Errorf("benchconfig: decoding scenario: %w", diags)
	}
	scenario.applyDefaults()
	if err := scenario.validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) applyDefaults() {
	if s.Workers == 0 {
		s.Workers = 16
	}
	if s.Iterations == 0 {
		s.Iterations = 1000
	}
}

func (s *Scenario) validate() error {
	switch QueueKind(s.Queue) {
	case QueueInline, QueuePool, QueuePriority:
	default:
		return fmt.Errorf("benchconfig: unknown queue kind %q (want inline, pool, or priority)", s.Queue)
	}
	if s.TopKey < 1 {
		return fmt.Errorf("benchconfig: top_key must be >= 1, got %d", s.TopKey)
	}
	return nil
}

// Load reads and decodes the scenario file at path in one step.
func Load(path string) (*Scenario, error) {
	body, err := NewHCLLoader().Load(path)
	if err != nil {
		return nil, err
	}
	return HCLConverter{}.Convert(body)
}

// Package config loads the record layer's configuration from a YAML file,
// mirroring the nested-struct + yaml-tag shape the wider tool ecosystem
// uses for versioned, file-based configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aman-cerp/fdblayer/internal/entity"
)

// CurrentVersion is the current config schema version.
const CurrentVersion = 1

// Config is the complete record-layer configuration.
type Config struct {
	Version int            `yaml:"version" json:"version"`
	Store   StoreConfig    `yaml:"store" json:"store"`
	Chunk   ChunkConfig    `yaml:"chunk" json:"chunk"`
	PQ      PQConfig       `yaml:"pq" json:"pq"`
	Fusion  FusionConfig   `yaml:"fusion" json:"fusion"`
	Planner PlannerConfig  `yaml:"planner" json:"planner"`
	Logging LoggingSection `yaml:"logging" json:"logging"`
	Schema  []EntityConfig `yaml:"schema" json:"schema"`
}

// EntityConfig declares one entity type and its indexes for cmd/fdbctl,
// which has no embedding application to supply an entity.Schema in Go
// code: the schema it administers is instead described in the same YAML
// file as everything else.
type EntityConfig struct {
	Name    string        `yaml:"name" json:"name"`
	Indexes []IndexConfig `yaml:"indexes" json:"indexes"`
}

// IndexConfig declares one index descriptor.
type IndexConfig struct {
	Name                string   `yaml:"name" json:"name"`
	Kind                string   `yaml:"kind" json:"kind"` // scalar, rank, vector-pq, text
	Fields              []string `yaml:"fields" json:"fields"`
	VectorDimension     int      `yaml:"vector_dimension,omitempty" json:"vector_dimension,omitempty"`
	VectorSubquantizers int      `yaml:"vector_subquantizers,omitempty" json:"vector_subquantizers,omitempty"`
	RankDescending      bool     `yaml:"rank_descending,omitempty" json:"rank_descending,omitempty"`
}

// BuildSchema converts the YAML-declared Schema section into an
// entity.Schema the record layer's packages understand.
func (c Config) BuildSchema() entity.Schema {
	descriptors := make([]entity.EntityDescriptor, len(c.Schema))
	for i, ec := range c.Schema {
		indexes := make([]entity.IndexDescriptor, len(ec.Indexes))
		for j, ic := range ec.Indexes {
			indexes[j] = entity.IndexDescriptor{
				Name:                entity.IndexDescriptorName(ic.Name),
				Kind:                entity.IndexKind(ic.Kind),
				Fields:              ic.Fields,
				VectorDimension:     ic.VectorDimension,
				VectorSubquantizers: ic.VectorSubquantizers,
				RankDescending:      ic.RankDescending,
			}
		}
		descriptors[i] = entity.EntityDescriptor{Name: entity.TypeName(ec.Name), Indexes: indexes}
	}
	return entity.NewSchema(descriptors...)
}

// StoreConfig configures the underlying ordered KV store.
type StoreConfig struct {
	// Path is the bbolt database file path.
	Path string `yaml:"path" json:"path"`

	// TxnTimeout is a per-transaction time budget. No package in this
	// module reads it: transactions are bounded only by the caller's
	// context.
	TxnTimeout time.Duration `yaml:"txn_timeout" json:"txn_timeout"`

	// MaxConflictRetries bounds the transient-conflict retry loop
	// (default: 5).
	MaxConflictRetries int `yaml:"max_conflict_retries" json:"max_conflict_retries"`
}

// ChunkConfig configures the inline-vs-chunked record value policy
// (default: 90 KiB inline threshold, 80 KiB chunk size).
type ChunkConfig struct {
	InlineThresholdBytes int `yaml:"inline_threshold_bytes" json:"inline_threshold_bytes"`
	ChunkSizeBytes       int `yaml:"chunk_size_bytes" json:"chunk_size_bytes"`
}

// PQConfig configures Product Quantization training defaults.
type PQConfig struct {
	Subquantizers int `yaml:"subquantizers" json:"subquantizers"` // m
	Centroids     int `yaml:"centroids" json:"centroids"`         // ksub, fixed at 256
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
}

// FusionConfig configures the fusion engine's RRF aggregation.
type FusionConfig struct {
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
}

// PlannerConfig configures query planner cost constants.
type PlannerConfig struct {
	RowCost         float64 `yaml:"row_cost" json:"row_cost"`
	IndexRowCost    float64 `yaml:"index_row_cost" json:"index_row_cost"`
	LookupCost      float64 `yaml:"lookup_cost" json:"lookup_cost"`
	PlanCacheSize   int     `yaml:"plan_cache_size" json:"plan_cache_size"`
	SelectivityEq   float64 `yaml:"selectivity_equality" json:"selectivity_equality"`
	SelectivityRng  float64 `yaml:"selectivity_range" json:"selectivity_range"`
	SelectivityUnk  float64 `yaml:"selectivity_unknown" json:"selectivity_unknown"`
}

// LoggingSection configures the structured logger.
type LoggingSection struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// Default returns sensible defaults for every section: 90 KiB/80 KiB
// chunking, k=60 RRF, 5 conflict retries, 256 centroids per subquantizer.
func Default() Config {
	return Config{
		Version: CurrentVersion,
		Store: StoreConfig{
			Path:               "fdblayer.db",
			TxnTimeout:         30 * time.Second,
			MaxConflictRetries: 5,
		},
		Chunk: ChunkConfig{
			InlineThresholdBytes: 90 * 1024,
			ChunkSizeBytes:       80 * 1024,
		},
		PQ: PQConfig{
			Subquantizers: 8,
			Centroids:     256,
			MaxIterations: 25,
		},
		Fusion: FusionConfig{
			RRFConstant: 60,
		},
		Planner: PlannerConfig{
			RowCost:        1.0,
			IndexRowCost:   0.1,
			LookupCost:     0.05,
			PlanCacheSize:  256,
			SelectivityEq:  0.01,
			SelectivityRng: 0.33,
			SelectivityUnk: 1.0,
		},
		Logging: LoggingSection{
			Level:         "info",
			WriteToStderr: true,
		},
	}
}

// Load reads and parses a YAML config file, filling unset fields from
// Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

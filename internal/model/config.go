package model

import "runtime"

// Config holds every tunable of a casechain run
type Config struct {
	Matching  MatchingConfig  `yaml:"matching" mapstructure:"matching"`
	Chain     ChainConfig     `yaml:"chain" mapstructure:"chain"`
	Inference InferenceConfig `yaml:"inference" mapstructure:"inference"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy" mapstructure:"taxonomy"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
}

// MatchingConfig controls process-number canonicalization
type MatchingConfig struct {
	DefaultStrategy string         `yaml:"default_strategy" mapstructure:"default_strategy"`
	Strategies      []string       `yaml:"strategies" mapstructure:"strategies"`           // Evaluated by `evaluate`
	MinDigits       map[string]int `yaml:"min_digits" mapstructure:"min_digits"`           // Per-strategy overrides
	FuzzyThreshold  float64        `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"` // Normalized edit distance
	SweepWorkers    int            `yaml:"sweep_workers" mapstructure:"sweep_workers"`     // Strategies evaluated at once
	OversizedGroup  int            `yaml:"oversized_group" mapstructure:"oversized_group"` // Records per core before warning
}

// ChainConfig controls chain building
type ChainConfig struct {
	Workers              int  `yaml:"workers" mapstructure:"workers"`
	ExpandEmbeddedOrigin bool `yaml:"expand_embedded_origin" mapstructure:"expand_embedded_origin"`
}

// InferenceConfig holds the policy choices of outcome inference
type InferenceConfig struct {
	SettlementPolicy    string `yaml:"settlement_policy" mapstructure:"settlement_policy"`         // undetermined, worker_wins
	MissingOriginPolicy string `yaml:"missing_origin_policy" mapstructure:"missing_origin_policy"` // undetermined, exclude
}

// TaxonomyConfig allows extending the movement table at load time
type TaxonomyConfig struct {
	Version    string          `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	ExtraCodes []TaxonomyEntry `json:"extra_codes,omitempty" yaml:"extra_codes,omitempty" mapstructure:"extra_codes"`
}

// TaxonomyEntry is the config form of one movement code
type TaxonomyEntry struct {
	Code         int      `json:"code" yaml:"code" mapstructure:"code"`
	Name         string   `json:"name" yaml:"name" mapstructure:"name"`
	Tiers        []string `json:"tiers" yaml:"tiers" mapstructure:"tiers"`
	Category     string   `json:"category" yaml:"category" mapstructure:"category"`
	FavorsWorker *bool    `json:"favors_worker,omitempty" yaml:"favors_worker,omitempty" mapstructure:"favors_worker"`
	Kind         string   `json:"kind" yaml:"kind" mapstructure:"kind"` // merits, closing, procedural
}

// OutputConfig controls rendering
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// StoreConfig points at the optional SQLite result store
type StoreConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			DefaultStrategy: "fixed_window",
			Strategies:      []string{"full_digits", "fixed_window", "middle_section", "sequential_year", "fuzzy"},
			MinDigits:       map[string]int{},
			FuzzyThreshold:  0.10,
			SweepWorkers:    2,
			OversizedGroup:  12,
		},
		Chain: ChainConfig{
			Workers:              runtime.NumCPU(),
			ExpandEmbeddedOrigin: false,
		},
		Inference: InferenceConfig{
			SettlementPolicy:    "undetermined",
			MissingOriginPolicy: "undetermined",
		},
		Output: OutputConfig{
			Dir: "./casechain-reports",
		},
	}
}

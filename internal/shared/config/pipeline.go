package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// PipelineConfig contains all configuration for the modeling pipeline.
type PipelineConfig struct {
	Project    ProjectConfig    `mapstructure:"project"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Alignment  AlignmentConfig  `mapstructure:"alignment"`
	Modeling   ModelingConfig   `mapstructure:"modeling"`
	Clustering ClusteringConfig `mapstructure:"clustering"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ProjectConfig locates the project directory tree.
type ProjectConfig struct {
	Root string `mapstructure:"root"`
}

// WorkersConfig sizes the fixed worker pool.
type WorkersConfig struct {
	Count int `mapstructure:"count"`
}

// AlignmentConfig holds the fixed pairwise-alignment parameters. These are
// shared by every job in a run so that alignment output is deterministic for
// a given target/template pair.
type AlignmentConfig struct {
	Scheme    string  `mapstructure:"scheme"`
	GapOpen   float64 `mapstructure:"gap_open"`
	GapExtend float64 `mapstructure:"gap_extend"`
}

// ModelingConfig holds per-job model-build options.
type ModelingConfig struct {
	// WriteRestraints controls whether the engine's restraint data is kept
	// as a per-job artifact. The file can be large (hundreds of KB per
	// kinase-domain model), so some projects turn it off.
	WriteRestraints bool `mapstructure:"write_restraints"`
}

// ClusteringConfig holds the greedy redundancy-filter parameters.
type ClusteringConfig struct {
	Cutoff   float64 `mapstructure:"cutoff"`
	AtomName string  `mapstructure:"atom_name"`
}

// ToolsConfig configures the external collaborator commands.
type ToolsConfig struct {
	Aligner  ToolConfig `mapstructure:"aligner"`
	Engine   ToolConfig `mapstructure:"engine"`
	Geometry ToolConfig `mapstructure:"geometry"`
}

// ToolConfig describes how to invoke one external tool.
type ToolConfig struct {
	Command     string   `mapstructure:"command"`
	Args        []string `mapstructure:"args"`
	VersionFlag string   `mapstructure:"version_flag"`
}

// LoadPipeline loads the pipeline configuration from the given path.
// If configPath is empty, it looks for pipeline.yaml in the config/ directory.
// Environment variables with MODELPIPE_ prefix override config file values.
func LoadPipeline(configPath string) (*PipelineConfig, error) {
	v := viper.New()

	v.SetDefault("project.root", ".")
	v.SetDefault("workers.count", 1)
	v.SetDefault("alignment.scheme", "gonnet")
	v.SetDefault("alignment.gap_open", -10.0)
	v.SetDefault("alignment.gap_extend", -0.5)
	v.SetDefault("modeling.write_restraints", true)
	v.SetDefault("clustering.cutoff", 0.06)
	v.SetDefault("clustering.atom_name", "CA")
	v.SetDefault("tools.aligner.command", "pairalign")
	v.SetDefault("tools.aligner.version_flag", "--version")
	v.SetDefault("tools.engine.command", "modelbuild")
	v.SetDefault("tools.engine.version_flag", "--version")
	v.SetDefault("tools.geometry.command", "ensembledist")
	v.SetDefault("tools.geometry.version_flag", "--version")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pipeline")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MODELPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Workers.Count < 1 {
		return nil, fmt.Errorf("workers.count must be at least 1, got %d", cfg.Workers.Count)
	}

	return &cfg, nil
}

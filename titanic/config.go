package titanic

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/lifeboat/model_selection"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// Config is the run configuration. Zero values fall back to defaults, so a
// partial YAML file or no file at all both work.
type Config struct {
	TrainPath string `yaml:"train"`
	TestPath  string `yaml:"test"`
	OutPath   string `yaml:"out"`

	Seed            uint64  `yaml:"seed"`
	Folds           int     `yaml:"folds"`
	HoldoutFraction float64 `yaml:"holdout_fraction"`

	// Model selects the family whose fitted artifact produces the
	// submission. Defaults to random_forest.
	Model string `yaml:"model"`

	// StrictLevels makes unseen categorical levels a transform-time error.
	StrictLevels bool `yaml:"strict_levels"`

	// Grids overrides the default search grid per family name. Families
	// not listed keep their defaults.
	Grids map[string]model_selection.Grid `yaml:"grids"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		TrainPath:       "train.csv",
		TestPath:        "test.csv",
		OutPath:         "submission.csv",
		Seed:            42,
		Folds:           10,
		HoldoutFraction: 0.2,
		Model:           ModelRandomForest,
	}
}

// LoadConfig reads a YAML config file and fills unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "lifeboat: read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "lifeboat: parse config %s", path)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TrainPath == "" {
		c.TrainPath = def.TrainPath
	}
	if c.TestPath == "" {
		c.TestPath = def.TestPath
	}
	if c.OutPath == "" {
		c.OutPath = def.OutPath
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	if c.Folds == 0 {
		c.Folds = def.Folds
	}
	if c.HoldoutFraction == 0 {
		c.HoldoutFraction = def.HoldoutFraction
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	return c
}

// specs builds the model specs for this configuration, applying any grid
// overrides.
func (c Config) specs() []model_selection.Spec {
	specs := DefaultSpecs(c.Seed)
	for i := range specs {
		if grid, ok := c.Grids[specs[i].Name]; ok {
			specs[i].Grid = grid
		}
	}
	return specs
}

package main

import (
	"fmt"
	"os"

	"github.com/sw965/kite/model/fm/verify"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML file given with --config. Pointer fields
// distinguish "not set" from zero values.
type FileConfig struct {
	NObjects  *int     `yaml:"n_objects"`
	NFeatures *int     `yaml:"n_features"`
	Order     *int     `yaml:"order"`
	Rank      *int     `yaml:"rank"`
	InitStd   *float64 `yaml:"init_std"`
	Epochs    *int     `yaml:"epochs"`
	Seed      *uint64  `yaml:"seed"`
	Decimal   *int     `yaml:"decimal"`
	Sparsity  *float64 `yaml:"sparsity"`

	Input     string `yaml:"input"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func loadFileConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("reading config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return fc, nil
}

type runFlags struct {
	configPath string
	nObjects   int
	nFeatures  int
	order      int
	rank       int
	initStd    float64
	epochs     int
	seed       uint64
	decimal    int
	sparsity   float64
	input      string
	determine  bool
	jsonOutput bool
	logLevel   string
	logFormat  string
}

// applyFileConfig copies file values into f for every flag the user did not
// set explicitly on the command line.
func applyFileConfig(c *cli.Command, fc FileConfig, f *runFlags) {
	if fc.NObjects != nil && !c.IsSet("objects") {
		f.nObjects = *fc.NObjects
	}
	if fc.NFeatures != nil && !c.IsSet("features") {
		f.nFeatures = *fc.NFeatures
	}
	if fc.Order != nil && !c.IsSet("order") {
		f.order = *fc.Order
	}
	if fc.Rank != nil && !c.IsSet("rank") {
		f.rank = *fc.Rank
	}
	if fc.InitStd != nil && !c.IsSet("init-std") {
		f.initStd = *fc.InitStd
	}
	if fc.Epochs != nil && !c.IsSet("epochs") {
		f.epochs = *fc.Epochs
	}
	if fc.Seed != nil && !c.IsSet("seed") {
		f.seed = *fc.Seed
	}
	if fc.Decimal != nil && !c.IsSet("decimal") {
		f.decimal = *fc.Decimal
	}
	if fc.Sparsity != nil && !c.IsSet("sparsity") {
		f.sparsity = *fc.Sparsity
	}
	if fc.Input != "" && !c.IsSet("input") {
		f.input = fc.Input
	}
	if fc.LogLevel != "" && !c.IsSet("log-level") {
		f.logLevel = fc.LogLevel
	}
	if fc.LogFormat != "" && !c.IsSet("log-format") {
		f.logFormat = fc.LogFormat
	}
}

func (f *runFlags) verifyConfig() verify.Config {
	return verify.Config{
		NObjects:  f.nObjects,
		NFeatures: f.nFeatures,
		Order:     f.order,
		Rank:      f.rank,
		InitStd:   f.initStd,
		Epochs:    f.epochs,
		Seed:      f.seed,
		Decimal:   f.decimal,
		Sparsity:  f.sparsity,
	}
}

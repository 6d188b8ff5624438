package fvrpt

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
)

const (
	TOLERANCE            = 1e-6
	MAX_CUTS_PER_VEHICLE = 3
	MAX_CUTS_PER_CALL    = 10
)

// Config holds the numeric tolerances and the per-call cut budgets. The budgets
// only bound callback latency, they have no bearing on correctness.
type Config struct {
	LogLevel int

	Tolerance    float64
	CapacityMode string

	Threshold         float64
	MaxCutsPerVehicle int
	MaxCutsPerCall    int
}

func DefaultConfig() Config {
	return Config{
		LogLevel:          LOG_INFO,
		Tolerance:         TOLERANCE,
		CapacityMode:      CAPACITY_CORRECTED,
		Threshold:         FLOW_THRESHOLD,
		MaxCutsPerVehicle: MAX_CUTS_PER_VEHICLE,
		MaxCutsPerCall:    MAX_CUTS_PER_CALL,
	}
}

func (c Config) Validate() error {
	if !(c.Tolerance > 0) {
		return invalidf("tolerance must be positive, got %g", c.Tolerance)
	}
	if c.CapacityMode != CAPACITY_LITERAL && c.CapacityMode != CAPACITY_CORRECTED {
		return invalidf("unknown capacity mode %q", c.CapacityMode)
	}
	if !(c.Threshold > 0 && c.Threshold < 1) {
		return invalidf("threshold must lie in (0,1), got %g", c.Threshold)
	}
	if c.MaxCutsPerVehicle < 1 || c.MaxCutsPerCall < 1 {
		return invalidf("cut budgets must be at least 1, got %d per vehicle and %d per call", c.MaxCutsPerVehicle, c.MaxCutsPerCall)
	}
	return nil
}

type hclConfigFile struct {
	LogLevel   *int           `hcl:"log_level,optional"`
	Verifier   *hclVerifier   `hcl:"verifier,block"`
	Separation *hclSeparation `hcl:"separation,block"`
}

type hclVerifier struct {
	Tolerance    *float64 `hcl:"tolerance,optional"`
	CapacityMode *string  `hcl:"capacity_mode,optional"`
}

type hclSeparation struct {
	Threshold         *float64 `hcl:"threshold,optional"`
	MaxCutsPerVehicle *int     `hcl:"max_cuts_per_vehicle,optional"`
	MaxCutsPerCall    *int     `hcl:"max_cuts_per_call,optional"`
}

// LoadConfig reads an HCL configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, errors.Wrapf(diags, "parsing config %s", path)
	}
	return decodeConfig(file, path)
}

// ParseConfig is LoadConfig for in-memory sources.
func ParseConfig(src []byte, filename string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, errors.Wrapf(diags, "parsing config %s", filename)
	}
	return decodeConfig(file, filename)
}

func decodeConfig(file *hcl.File, filename string) (Config, error) {
	var parsed hclConfigFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return Config{}, errors.Wrapf(diags, "decoding config %s", filename)
	}
	cfg := DefaultConfig()
	if parsed.LogLevel != nil {
		cfg.LogLevel = *parsed.LogLevel
	}
	if v := parsed.Verifier; v != nil {
		if v.Tolerance != nil {
			cfg.Tolerance = *v.Tolerance
		}
		if v.CapacityMode != nil {
			cfg.CapacityMode = *v.CapacityMode
		}
	}
	if s := parsed.Separation; s != nil {
		if s.Threshold != nil {
			cfg.Threshold = *s.Threshold
		}
		if s.MaxCutsPerVehicle != nil {
			cfg.MaxCutsPerVehicle = *s.MaxCutsPerVehicle
		}
		if s.MaxCutsPerCall != nil {
			cfg.MaxCutsPerCall = *s.MaxCutsPerCall
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", filename)
	}
	return cfg, nil
}

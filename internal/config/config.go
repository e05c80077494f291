package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"

	"github.com/axon-dev/axon/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "axon.json"

	// DefaultMaxEvalDepth matches the engine's built-in source-chain
	// recursion bound.
	DefaultMaxEvalDepth = 256

	// DefaultDiagnosticLimit matches the engine's built-in diagnostic
	// ring size.
	DefaultDiagnosticLimit = 128

	// DefaultInspectorAddress is where the live inspector listens.
	DefaultInspectorAddress = "127.0.0.1:7433"

	// DefaultBenchIterations is the number of sampled sends per grid.
	DefaultBenchIterations = 1000
)

// defaultBenchDims is the default sweep of grid widths and heights.
func defaultBenchDims() []int {
	return []int{1, 10, 100, 1000}
}

// Config represents the complete axon.json configuration.
type Config struct {
	// Name is the project name, used in CLI output.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Engine contains propagation engine tuning.
	Engine EngineConfig `json:"engine,omitempty"`

	// Inspector contains live inspector settings.
	Inspector InspectorConfig `json:"inspector,omitempty"`

	// Bench contains benchmark grid settings.
	Bench BenchConfig `json:"bench,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// EngineConfig contains propagation engine tuning.
type EngineConfig struct {
	// MaxEvalDepth bounds source-chain recursion during evaluation.
	// Chains deeper than this are treated as cycles.
	MaxEvalDepth int `json:"maxEvalDepth,omitempty"`

	// EagerCycleCheck rejects cycle-forming edges at insertion. When
	// disabled, cycles surface at evaluation through MaxEvalDepth.
	// Always written out so an explicit false survives a save/load
	// round trip.
	EagerCycleCheck bool `json:"eagerCycleCheck"`

	// DiagnosticLimit is how many recent failures the engine retains.
	DiagnosticLimit int `json:"diagnosticLimit,omitempty"`
}

// InspectorConfig contains live inspector settings.
type InspectorConfig struct {
	// Address is the host:port the inspector listens on.
	Address string `json:"address,omitempty"`

	// Metrics mounts the Prometheus handler on the inspector mux.
	Metrics bool `json:"metrics,omitempty"`
}

// BenchConfig contains benchmark grid settings.
type BenchConfig struct {
	// Widths is the sweep of pipeline counts per grid.
	Widths []int `json:"widths,omitempty"`

	// Heights is the sweep of computed-chain lengths per grid.
	Heights []int `json:"heights,omitempty"`

	// Iterations is the number of sampled sends per grid.
	Iterations int `json:"iterations,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Engine: EngineConfig{
			MaxEvalDepth:    DefaultMaxEvalDepth,
			EagerCycleCheck: true,
			DiagnosticLimit: DefaultDiagnosticLimit,
		},
		Inspector: InspectorConfig{
			Address: DefaultInspectorAddress,
		},
		Bench: BenchConfig{
			Widths:     defaultBenchDims(),
			Heights:    defaultBenchDims(),
			Iterations: DefaultBenchIterations,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for axon.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("AX121").
				WithDetail("No axon.json found in " + filepath.Dir(path)).
				WithSuggestion("Create axon.json at the project root, or run without one to use the defaults")
		}
		return nil, errors.New("AX120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("AX120").
			WithDetail("Failed to parse axon.json: " + err.Error()).
			WithSuggestion("Check that axon.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("AX120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("AX120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Engine.MaxEvalDepth == 0 {
		c.Engine.MaxEvalDepth = DefaultMaxEvalDepth
	}
	if c.Engine.DiagnosticLimit == 0 {
		c.Engine.DiagnosticLimit = DefaultDiagnosticLimit
	}

	if c.Inspector.Address == "" {
		c.Inspector.Address = DefaultInspectorAddress
	}

	if c.Bench.Widths == nil {
		c.Bench.Widths = defaultBenchDims()
	}
	if c.Bench.Heights == nil {
		c.Bench.Heights = defaultBenchDims()
	}
	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = DefaultBenchIterations
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine.MaxEvalDepth < 1 {
		return errors.New("AX122").
			WithDetail("engine.maxEvalDepth must be at least 1")
	}
	if c.Engine.DiagnosticLimit < 1 {
		return errors.New("AX122").
			WithDetail("engine.diagnosticLimit must be at least 1")
	}
	if _, _, err := net.SplitHostPort(c.Inspector.Address); err != nil {
		return errors.New("AX122").
			WithDetail("inspector.address must be host:port, got " + c.Inspector.Address)
	}
	if c.Bench.Iterations < 1 {
		return errors.New("AX122").
			WithDetail("bench.iterations must be at least 1")
	}
	for _, w := range c.Bench.Widths {
		if w < 1 {
			return errors.New("AX122").
				WithDetail("bench.widths entries must be at least 1")
		}
	}
	for _, h := range c.Bench.Heights {
		if h < 1 {
			return errors.New("AX122").
				WithDetail("bench.heights entries must be at least 1")
		}
	}
	return nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing axon.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("AX121").
				WithDetail("No axon.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create axon.json at the project root, or run without one to use the defaults")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory, walking up to the project root. A missing file is not an
// error: the defaults apply.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}

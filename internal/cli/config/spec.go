package config

// CLIConfig is the configuration for objhost-cli.
type CLIConfig struct {
	// Default connection settings
	DefaultServer string `yaml:"default_server"`
	DefaultOutput string `yaml:"default_output"` // table, json, yaml

	// CurrentProfile is used when --profile is not given.
	CurrentProfile string `yaml:"current_profile,omitempty"`

	// Saved profiles
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile stores saved connection details.
type Profile struct {
	Server string `yaml:"server,omitempty" json:"server,omitempty"`
	Socket string `yaml:"socket,omitempty" json:"socket,omitempty"`
	Token  string `yaml:"token,omitempty" json:"token,omitempty"`
	CAFile string `yaml:"ca_file,omitempty" json:"ca_file,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "127.0.0.1:5180",
		DefaultOutput: "table",
		Profiles:      make(map[string]Profile),
	}
}

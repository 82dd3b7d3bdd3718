package models

// ServerConfig holds process-level configuration
type ServerConfig struct {
	Environment string `json:"environment,omitzero" yaml:"environment"`
	LogLevel    string `json:"log_level,omitzero" yaml:"log_level"`
}

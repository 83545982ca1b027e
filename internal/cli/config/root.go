package config

// RootConfig holds the persistent flags shared by all commands.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	NoColor    bool
}

package config

// Saver persists a configuration.
type Saver interface {
	Save(*Config) error
}

// ManagerInterface is the configuration file surface used by the commands.
type ManagerInterface interface {
	Saver
	Load() (*Config, error)
	Path() string
}

var _ ManagerInterface = (*Manager)(nil)

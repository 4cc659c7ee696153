package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings (used when storage.backend=redis).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OpenAIConfig holds the scoring model settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// StorageConfig selects where batches and snapshots live.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"` // file | redis | memory
	BatchDir    string `mapstructure:"batch_dir"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// ServerConfig controls the HTTP gateway.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// MergeConfig controls the background merge worker.
type MergeConfig struct {
	Delay         string `mapstructure:"delay"`          // settle time after an append, e.g. "2s"
	SweepInterval string `mapstructure:"sweep_interval"` // periodic catch-up run, e.g. "10m"; empty disables
}

// ScoringConfig carries the default scoring instructions.
type ScoringConfig struct {
	Instructions string `mapstructure:"instructions"`
}

// ReportConfig controls the markdown digest output.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	TopN      int    `mapstructure:"top_n"`
	Title     string `mapstructure:"title"` // supports {.CurrentDate}
}

// Config is the top-level configuration structure.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Redis   RedisConfig   `mapstructure:"redis"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Merge   MergeConfig   `mapstructure:"merge"`
	Scoring ScoringConfig `mapstructure:"scoring"`
	Report  ReportConfig  `mapstructure:"report"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.BatchDir == "" {
		c.Storage.BatchDir = "./data/batches"
	}
	if c.Storage.SnapshotDir == "" {
		c.Storage.SnapshotDir = "./data/snapshots"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Merge.Delay == "" {
		c.Merge.Delay = "2s"
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "./out"
	}
	if c.Report.TopN == 0 {
		c.Report.TopN = 20
	}
}

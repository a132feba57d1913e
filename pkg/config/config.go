package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"specgen/internal/domain"
)

const (
	TargetLocal    = "local"
	TargetDeployed = "deployed"

	SinkFS = "fs"
	SinkS3 = "s3"
)

// Config holds the complete application configuration
type Config struct {
	Endpoint EndpointConfig        `yaml:"endpoint" json:"endpoint"`
	HTTP     HTTPConfig            `yaml:"http" json:"http"`
	Upload   UploadConfig          `yaml:"upload" json:"upload"`
	Modes    map[string]ModeConfig `yaml:"modes" json:"modes"`
	Messages MessagesConfig        `yaml:"messages" json:"messages"`
	Output   OutputConfig          `yaml:"output" json:"output"`
	S3       S3Config              `yaml:"s3" json:"s3"`
	Server   ServerConfig          `yaml:"server" json:"server"`
	Metrics  MetricsConfig         `yaml:"metrics" json:"metrics"`
	Logging  LoggingConfig         `yaml:"logging" json:"logging"`
}

// EndpointConfig chooses where uploads are sent. URL wins over Target.
type EndpointConfig struct {
	URL      string `yaml:"url" json:"url"`
	Target   string `yaml:"target" json:"target"`
	Local    string `yaml:"local" json:"local"`
	Deployed string `yaml:"deployed" json:"deployed"`
}

// HTTPConfig holds transport settings. A zero Timeout means no bound.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"userAgent" json:"userAgent"`
}

// UploadConfig holds request-shape settings shared by all modes
type UploadConfig struct {
	ModeField       string `yaml:"modeField" json:"modeField"`
	MaxFileSize     int64  `yaml:"maxFileSize" json:"maxFileSize"`
	DefaultFilename string `yaml:"defaultFilename" json:"defaultFilename"`
}

// ModeConfig is the configured shape of one mode
type ModeConfig struct {
	Slots             []domain.Slot `yaml:"slots" json:"slots"`
	ValidationMessage string        `yaml:"validationMessage" json:"validationMessage"`
}

// MessagesConfig holds the status strings shown to the user
type MessagesConfig struct {
	Generating     string `yaml:"generating" json:"generating"`
	Completed      string `yaml:"completed" json:"completed"`
	ServerError    string `yaml:"serverError" json:"serverError"`
	TransportError string `yaml:"transportError" json:"transportError"`
	SaveError      string `yaml:"saveError" json:"saveError"`
}

// OutputConfig selects and configures the artifact sink
type OutputConfig struct {
	Sink      string `yaml:"sink" json:"sink"`
	Dir       string `yaml:"dir" json:"dir"`
	Overwrite bool   `yaml:"overwrite" json:"overwrite"`
}

// S3Config holds settings for the s3 sink
type S3Config struct {
	Bucket          string `yaml:"bucket" json:"bucket"`
	Prefix          string `yaml:"prefix" json:"prefix"`
	Region          string `yaml:"region" json:"region"`
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyId" json:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey" json:"-"`
	UsePathStyle    bool   `yaml:"usePathStyle" json:"usePathStyle"`
}

// ServerConfig configures the local development server
type ServerConfig struct {
	Address           string   `yaml:"address" json:"address"`
	Path              string   `yaml:"path" json:"path"`
	AllowedExtensions []string `yaml:"allowedExtensions" json:"allowedExtensions"`
	ArchivePrefix     string   `yaml:"archivePrefix" json:"archivePrefix"`
	MaxMemory         int64    `yaml:"maxMemory" json:"maxMemory"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns a fresh copy of the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint: EndpointConfig{
			Target: TargetLocal,
			Local:  "http://localhost:7071/api/upload",
		},
		HTTP: HTTPConfig{
			UserAgent: "specgen/" + Version,
		},
		Upload: UploadConfig{
			ModeField:       "testType",
			MaxFileSize:     50 * 1024 * 1024, // 50MB
			DefaultFilename: "generated_files.zip",
		},
		Modes: map[string]ModeConfig{
			string(domain.ModeUnit): {
				Slots: []domain.Slot{
					{Field: "documentFile", Label: "design document"},
				},
				ValidationMessage: "please select a design document",
			},
			string(domain.ModeIntegration): {
				Slots: []domain.Slot{
					{Field: "structuredDesignFiles", Label: "structured design documents", Multiple: true},
					{Field: "transitionDiagramFile", Label: "transition diagram"},
				},
				ValidationMessage: "please select the structured design documents and the transition diagram",
			},
		},
		Messages: MessagesConfig{
			Generating:     "generating...",
			Completed:      "completed",
			ServerError:    "error: %d",
			TransportError: "connection error: %s",
			SaveError:      "save failed: %s",
		},
		Output: OutputConfig{
			Sink: SinkFS,
			Dir:  ".",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Address:           "localhost:7071",
			Path:              "/api/upload",
			AllowedExtensions: []string{".xlsx"},
			ArchivePrefix:     "test_spec",
			MaxMemory:         32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from multiple sources in order of precedence:
// 1. Environment variables, including .env files (highest precedence)
// 2. Configuration file (explicit path, or the first one found on the search path)
// 3. Default values (lowest precedence)
//
// It returns the configuration and a description of where it came from.
func LoadConfig(explicitPath string) (*Config, string, error) {
	config := DefaultConfig()

	path, err := loadFromFile(&config, explicitPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	if e := loadEnvFiles("."); e != nil {
		return nil, "", fmt.Errorf("failed to load env files: %w", e)
	}

	if e := loadFromEnv(&config); e != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", e)
	}

	if e := config.Validate(); e != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", e)
	}

	return &config, path, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(config *Config, explicitPath string) (string, error) {
	if explicitPath != "" {
		if err := decodeFile(config, explicitPath); err != nil {
			return "", err
		}
		return explicitPath, nil
	}

	configPaths := []string{
		os.Getenv("SPECGEN_CONFIG_PATH"),
		"./specgen.yaml",
		"./config/specgen.yaml",
		"/etc/specgen/config.yaml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		if err := decodeFile(config, path); err != nil {
			return "", err
		}
		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

func decodeFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadEnvFiles loads .env then .env.local from dir. Variables already set in
// the process environment win over .env; .env.local wins over both.
func loadEnvFiles(dir string) error {
	base := dir + "/.env"
	if _, err := os.Stat(base); err == nil {
		if err := godotenv.Load(base); err != nil {
			return fmt.Errorf("failed to load %s: %w", base, err)
		}
	}

	local := dir + "/.env.local"
	if _, err := os.Stat(local); err == nil {
		if err := godotenv.Overload(local); err != nil {
			return fmt.Errorf("failed to load %s: %w", local, err)
		}
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) error {
	// Endpoint config
	if val := os.Getenv("SPECGEN_ENDPOINT_URL"); val != "" {
		config.Endpoint.URL = val
	}
	if val := os.Getenv("SPECGEN_ENDPOINT_TARGET"); val != "" {
		config.Endpoint.Target = val
	}
	if val := os.Getenv("SPECGEN_ENDPOINT_LOCAL"); val != "" {
		config.Endpoint.Local = val
	}
	if val := os.Getenv("SPECGEN_ENDPOINT_DEPLOYED"); val != "" {
		config.Endpoint.Deployed = val
	}

	// HTTP config
	if val := os.Getenv("SPECGEN_HTTP_TIMEOUT"); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("SPECGEN_HTTP_TIMEOUT: %w", err)
		}
		config.HTTP.Timeout = timeout
	}

	// Upload config
	if val := os.Getenv("SPECGEN_MODE_FIELD"); val != "" {
		config.Upload.ModeField = val
	}
	if val := os.Getenv("SPECGEN_MAX_FILE_SIZE"); val != "" {
		size, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("SPECGEN_MAX_FILE_SIZE: %w", err)
		}
		config.Upload.MaxFileSize = size
	}
	if val := os.Getenv("SPECGEN_DEFAULT_FILENAME"); val != "" {
		config.Upload.DefaultFilename = val
	}

	// Output config
	if val := os.Getenv("SPECGEN_SINK"); val != "" {
		config.Output.Sink = val
	}
	if val := os.Getenv("SPECGEN_OUTPUT_DIR"); val != "" {
		config.Output.Dir = val
	}
	if val := os.Getenv("SPECGEN_OUTPUT_OVERWRITE"); val != "" {
		config.Output.Overwrite = val == "true" || val == "1"
	}

	// S3 config
	if val := os.Getenv("SPECGEN_S3_BUCKET"); val != "" {
		config.S3.Bucket = val
	}
	if val := os.Getenv("SPECGEN_S3_PREFIX"); val != "" {
		config.S3.Prefix = val
	}
	if val := os.Getenv("SPECGEN_S3_REGION"); val != "" {
		config.S3.Region = val
	}
	if val := os.Getenv("SPECGEN_S3_ENDPOINT"); val != "" {
		config.S3.Endpoint = val
	}
	if val := os.Getenv("SPECGEN_S3_ACCESS_KEY_ID"); val != "" {
		config.S3.AccessKeyID = val
	}
	if val := os.Getenv("SPECGEN_S3_SECRET_ACCESS_KEY"); val != "" {
		config.S3.SecretAccessKey = val
	}

	// Dev server config
	if val := os.Getenv("SPECGEN_SERVER_ADDRESS"); val != "" {
		config.Server.Address = val
	}
	if val := os.Getenv("SPECGEN_SERVER_ALLOWED_EXTENSIONS"); val != "" {
		config.Server.AllowedExtensions = strings.Split(val, ",")
	}

	// Metrics config
	if val := os.Getenv("SPECGEN_METRICS_TEXTFILE"); val != "" {
		config.Metrics.Textfile = val
	}

	// Logging config
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		config.Logging.Format = val
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Endpoint.Target != TargetLocal && c.Endpoint.Target != TargetDeployed {
		return fmt.Errorf("invalid endpoint target: %s (valid: local, deployed)", c.Endpoint.Target)
	}

	endpoint := c.ResolveEndpoint()
	if endpoint == "" {
		return fmt.Errorf("no endpoint configured for target %s", c.Endpoint.Target)
	}
	if err := validateHTTPURL(endpoint); err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}

	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("invalid http timeout: %s", c.HTTP.Timeout)
	}

	if strings.TrimSpace(c.Upload.ModeField) == "" {
		return fmt.Errorf("upload mode field must not be empty")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("invalid max file size: %d", c.Upload.MaxFileSize)
	}
	if c.Upload.DefaultFilename == "" {
		return fmt.Errorf("default download filename must not be empty")
	}

	for name := range c.Modes {
		if _, err := domain.ParseMode(name); err != nil {
			return fmt.Errorf("invalid mode in configuration: %w", err)
		}
	}
	for _, profile := range c.Profiles() {
		if err := profile.Validate(); err != nil {
			return err
		}
		for _, slot := range profile.Slots {
			if slot.Field == c.Upload.ModeField {
				return fmt.Errorf("mode %s: slot field %q collides with the mode field", profile.Mode, slot.Field)
			}
		}
	}

	if err := c.Messages.validate(); err != nil {
		return err
	}

	switch c.Output.Sink {
	case SinkFS:
		if c.Output.Dir == "" {
			return fmt.Errorf("output directory required for fs sink")
		}
	case SinkS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket required for s3 sink")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("s3 region required for s3 sink")
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return fmt.Errorf("s3 access key id and secret must be set together")
		}
	default:
		return fmt.Errorf("invalid output sink: %s (valid: fs, s3)", c.Output.Sink)
	}

	validLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true,
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// validate checks that each template takes exactly the verb it is formatted with.
func (m MessagesConfig) validate() error {
	templates := []struct {
		name, value, verb string
	}{
		{"serverError", m.ServerError, "%d"},
		{"transportError", m.TransportError, "%s"},
		{"saveError", m.SaveError, "%s"},
	}
	for _, t := range templates {
		if strings.Count(t.value, "%") != strings.Count(t.value, "%%")*2+1 || !strings.Contains(t.value, t.verb) {
			return fmt.Errorf("message %s must contain exactly one %s: %q", t.name, t.verb, t.value)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http and https URLs are supported: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %q", raw)
	}
	return nil
}

// ResolveEndpoint returns the URL uploads are posted to.
func (c *Config) ResolveEndpoint() string {
	if c.Endpoint.URL != "" {
		return c.Endpoint.URL
	}
	if c.Endpoint.Target == TargetDeployed {
		return c.Endpoint.Deployed
	}
	return c.Endpoint.Local
}

// Profiles converts the configured modes into domain profiles.
func (c *Config) Profiles() map[domain.Mode]domain.Profile {
	profiles := make(map[domain.Mode]domain.Profile, len(c.Modes))
	for name, mc := range c.Modes {
		mode, err := domain.ParseMode(name)
		if err != nil {
			continue
		}
		profiles[mode] = domain.Profile{
			Mode:              mode,
			Slots:             append([]domain.Slot(nil), mc.Slots...),
			ValidationMessage: mc.ValidationMessage,
		}
	}
	return profiles
}

// ModeNames lists configured modes in a stable order.
func (c *Config) ModeNames() []string {
	names := make([]string, 0, len(c.Modes))
	for name := range c.Modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) SaveToFile(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GenerateDefaultConfig creates a default configuration file
func GenerateDefaultConfig(path string) error {
	config := DefaultConfig()
	return config.SaveToFile(path)
}

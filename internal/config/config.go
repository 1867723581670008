package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/gettools/internal/constants"
	"github.com/oshokin/gettools/internal/logger"
	"github.com/oshokin/gettools/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// CDSBaseURL is the root of the vendor CDS tree listing product versions.
	CDSBaseURL string `mapstructure:"cds_base_url" yaml:"cds_base_url"`
	// ProductVersion is the product release to take the tools from, or "latest".
	ProductVersion string `mapstructure:"product_version" yaml:"product_version"`
	// Build is the build number of the release. Empty selects the newest listed build.
	Build string `mapstructure:"build" yaml:"build"`
	// Platform is the path below the build folder that holds the core archive.
	Platform string `mapstructure:"platform" yaml:"platform"`
	// Arch is the ISO images subfolder inside the application bundle.
	Arch string `mapstructure:"arch" yaml:"arch"`
	// OutputPath is the tools directory. It is wiped and recreated on every run.
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	// UserAgent overrides the browser-like User-Agent sent to the CDS.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// DownloadSpeedLimit sets the maximum download speed per second (e.g., "1MB", "500KB").
	DownloadSpeedLimit string `mapstructure:"download_speed_limit" yaml:"download_speed_limit"`
	// RequestTimeout bounds every HTTP request, including the archive download.
	RequestTimeout string `mapstructure:"request_timeout" yaml:"request_timeout"`
	// ShowProgress enables the download progress bar.
	ShowProgress bool `mapstructure:"show_progress" yaml:"show_progress"`
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes.
	ParsedDownloadSpeedLimit int64 `yaml:"-"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level `yaml:"-"`
	// ParsedRequestTimeout is the parsed request timeout.
	ParsedRequestTimeout time.Duration `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".gettools.yaml"

	// DefaultCDSBaseURL is the CDS root for the product family carrying the tools.
	DefaultCDSBaseURL = "https://softwareupdate.vmware.com/cds/vmw-desktop/fusion/"

	// DefaultProductVersion is the last release that still ships the darwin tools.
	DefaultProductVersion = "13.5.2"

	// DefaultBuild is the build number of DefaultProductVersion.
	DefaultBuild = "23775688"

	// DefaultPlatform is the path from the build folder to the core archive.
	DefaultPlatform = "universal/core"

	// DefaultArch is the ISO images subfolder holding the darwin tools.
	DefaultArch = "x86_x64"

	// DefaultOutputPath is the tools directory relative to the working directory.
	DefaultOutputPath = "tools"

	// DefaultLogLevel is the default logging verbosity.
	DefaultLogLevel = "info"

	// DefaultRequestTimeout is the default timeout for HTTP requests.
	DefaultRequestTimeout = "30m"

	// DefaultMaxLogLength is the default maximum size (in bytes) of logged HTTP dumps.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// LatestVersion asks for the newest version listed by the CDS.
	LatestVersion = "latest"

	// envPrefix prefixes environment variables overriding config keys, e.g. GETTOOLS_OUTPUT_PATH.
	envPrefix = "GETTOOLS"
)

// Static error definitions for better error handling.
var (
	// ErrInvalidBaseURL indicates that the CDS base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("cds_base_url must be an absolute http(s) URL")
	// ErrInvalidVersion indicates that the product version is neither "latest" nor dotted numeric.
	ErrInvalidVersion = errors.New("product_version must be 'latest' or a dotted number like 13.5.2")
	// ErrInvalidBuild indicates that the build is not numeric.
	ErrInvalidBuild = errors.New("build must be numeric")
	// ErrEmptyPlatform indicates that the platform path is missing.
	ErrEmptyPlatform = errors.New("platform cannot be empty")
	// ErrEmptyArch indicates that the architecture is missing.
	ErrEmptyArch = errors.New("arch cannot be empty")
	// ErrEmptyOutputPath indicates that the tools directory is missing.
	ErrEmptyOutputPath = errors.New("output_path cannot be empty")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidRequestTimeout indicates that the request timeout is not positive.
	ErrInvalidRequestTimeout = errors.New("request_timeout must be positive")
	// ErrConfigExists indicates that a config file would be overwritten without force.
	ErrConfigExists = errors.New("config file already exists")
)

var (
	//nolint:gochecknoglobals // Immutable, pre-compiled pattern used as a constant.
	versionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

	//nolint:gochecknoglobals // Immutable, pre-compiled pattern used as a constant.
	buildPattern = regexp.MustCompile(`^\d+$`)
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		CDSBaseURL:     DefaultCDSBaseURL,
		ProductVersion: DefaultProductVersion,
		Build:          DefaultBuild,
		Platform:       DefaultPlatform,
		Arch:           DefaultArch,
		OutputPath:     DefaultOutputPath,
		LogLevel:       DefaultLogLevel,
		RequestTimeout: DefaultRequestTimeout,
		ShowProgress:   true,
	}
}

// LoadConfig loads configuration settings from a YAML file, defaults, and GETTOOLS_* variables.
// A missing default config file is not an error; a missing explicitly named one is.
func LoadConfig(configFilename string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	isExplicit := configFilename != ""
	if !isExplicit {
		configFilename = DefaultConfigFilename
	}

	isExist, err := utils.IsFileExist(configFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to check config file: %w", err)
	}

	switch {
	case isExist:
		v.SetConfigFile(configFilename)

		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	case isExplicit:
		return nil, fmt.Errorf("failed to read config from file: %w: %s", os.ErrNotExist, configFilename)
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("cds_base_url", defaults.CDSBaseURL)
	v.SetDefault("product_version", defaults.ProductVersion)
	v.SetDefault("build", defaults.Build)
	v.SetDefault("platform", defaults.Platform)
	v.SetDefault("arch", defaults.Arch)
	v.SetDefault("output_path", defaults.OutputPath)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("download_speed_limit", defaults.DownloadSpeedLimit)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("show_progress", defaults.ShowProgress)
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:cyclop // Validation functions naturally have high complexity due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var (
		downloadSpeedLimit       = strings.TrimSpace(cfg.DownloadSpeedLimit)
		parsedDownloadSpeedLimit uint64
		err                      error
	)

	baseURL, err := url.Parse(strings.TrimSpace(cfg.CDSBaseURL))
	if err != nil || !baseURL.IsAbs() || (baseURL.Scheme != "http" && baseURL.Scheme != "https") {
		return fmt.Errorf("%w: '%s'", ErrInvalidBaseURL, cfg.CDSBaseURL)
	}

	// The CDS tree is relative, so the base must behave like a directory.
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}

	cfg.CDSBaseURL = baseURL.String()

	cfg.ProductVersion = strings.TrimSpace(cfg.ProductVersion)
	if !strings.EqualFold(cfg.ProductVersion, LatestVersion) && !versionPattern.MatchString(cfg.ProductVersion) {
		return fmt.Errorf("%w: got '%s'", ErrInvalidVersion, cfg.ProductVersion)
	}

	if strings.EqualFold(cfg.ProductVersion, LatestVersion) {
		cfg.ProductVersion = LatestVersion
	}

	cfg.Build = strings.TrimSpace(cfg.Build)
	if cfg.Build != "" && !buildPattern.MatchString(cfg.Build) {
		return fmt.Errorf("%w: got '%s'", ErrInvalidBuild, cfg.Build)
	}

	cfg.Platform = strings.Trim(strings.TrimSpace(cfg.Platform), "/")
	if cfg.Platform == "" {
		return ErrEmptyPlatform
	}

	cfg.Arch = strings.TrimSpace(cfg.Arch)
	if cfg.Arch == "" {
		return ErrEmptyArch
	}

	cfg.OutputPath = strings.TrimSpace(cfg.OutputPath)
	if cfg.OutputPath == "" {
		return ErrEmptyOutputPath
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if downloadSpeedLimit != "" && downloadSpeedLimit != "0" {
		parsedDownloadSpeedLimit, err = humanize.ParseBytes(downloadSpeedLimit)
		if err != nil {
			return fmt.Errorf("failed to parse download speed limit: %w", err)
		}
	}

	// io.CopyN accepts only int64 so we transform it safely in order to use it later.
	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(parsedDownloadSpeedLimit)

	cfg.ParsedRequestTimeout, err = time.ParseDuration(strings.TrimSpace(cfg.RequestTimeout))
	if err != nil {
		return fmt.Errorf("failed to parse request timeout: %w", err)
	}

	if cfg.ParsedRequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	return nil
}

// WriteDefaultConfig writes a YAML file with default settings to path.
// An existing file is only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	content, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create config folder: %w", err)
		}
	}

	fileOptions := os.O_CREATE | os.O_EXCL | os.O_WRONLY
	if force {
		fileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	}

	file, err := os.OpenFile(filepath.Clean(path), fileOptions, constants.DefaultFilePermissions)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}

		return fmt.Errorf("failed to create config file: %w", err)
	}

	defer file.Close() //nolint:errcheck // The write error below is the one that matters.

	if _, err = file.Write(content); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

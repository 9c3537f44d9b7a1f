package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration. Values come from defaults, then an
// optional YAML file named by APP_CONFIG_FILE, then environment variables.
type Config struct {
	ListenAddr       string
	SampleInterval   time.Duration
	CPUWindow        time.Duration
	HistoryCapacity  int
	GPUStrategies    []string
	AllowedOrigins   []string
	EnablePrometheus bool
	EnablePprof      bool
	LogLevel         slog.Level
	SysfsRoot        string
	ConfigFile       string
	Commands         CommandConfig
	WS               WebsocketConfig
}

// CommandConfig controls external diagnostic command execution.
type CommandConfig struct {
	Timeout   time.Duration
	Grace     time.Duration
	Sensors   string
	NvidiaSMI string
	GLXInfo   string
}

// WebsocketConfig captures tunables for WebSocket handling.
type WebsocketConfig struct {
	MaxClients   int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		SampleInterval:  time.Second,
		CPUWindow:       500 * time.Millisecond,
		HistoryCapacity: 60,
		GPUStrategies:   []string{"nvidia", "glxinfo", "drm"},
		AllowedOrigins:  []string{"*"},
		LogLevel:        slog.LevelInfo,
		SysfsRoot:       "/sys",
		Commands: CommandConfig{
			Timeout:   2 * time.Second,
			Grace:     500 * time.Millisecond,
			Sensors:   "sensors",
			NvidiaSMI: "nvidia-smi",
			GLXInfo:   "glxinfo",
		},
		WS: WebsocketConfig{
			MaxClients:   1024,
			WriteTimeout: 3 * time.Second,
			ReadTimeout:  30 * time.Second,
		},
	}
}

// Load builds configuration from defaults, the optional config file and
// environment variables, in that order of precedence (last wins).
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
		cfg.ConfigFile = path
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks constraints spanning several options.
func (c Config) Validate() error {
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be > 0")
	}
	if c.CPUWindow <= 0 {
		return fmt.Errorf("cpu window must be > 0")
	}
	if c.CPUWindow >= c.SampleInterval {
		return fmt.Errorf("cpu window (%s) must be shorter than the sample interval (%s)", c.CPUWindow, c.SampleInterval)
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be > 0")
	}
	if len(c.GPUStrategies) == 0 {
		return fmt.Errorf("at least one gpu strategy is required")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed origins must not be empty")
	}
	if c.Commands.Timeout <= 0 {
		return fmt.Errorf("command timeout must be > 0")
	}
	if c.Commands.Grace < 0 {
		return fmt.Errorf("command grace must be >= 0")
	}
	if c.Commands.Sensors == "" || c.Commands.NvidiaSMI == "" || c.Commands.GLXInfo == "" {
		return fmt.Errorf("command names must not be empty")
	}
	if c.WS.MaxClients <= 0 {
		return fmt.Errorf("websocket max clients must be > 0")
	}
	if c.WS.WriteTimeout <= 0 || c.WS.ReadTimeout <= 0 {
		return fmt.Errorf("websocket timeouts must be > 0")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if value := env("APP_LISTEN_ADDR"); value != "" {
		cfg.ListenAddr = value
	}
	if err := envDuration("APP_SAMPLE_INTERVAL", &cfg.SampleInterval, true); err != nil {
		return err
	}
	if err := envDuration("APP_CPU_WINDOW", &cfg.CPUWindow, true); err != nil {
		return err
	}
	if err := envPositiveInt("APP_HISTORY_CAPACITY", &cfg.HistoryCapacity); err != nil {
		return err
	}
	if err := envList("APP_GPU_STRATEGIES", &cfg.GPUStrategies); err != nil {
		return err
	}
	if err := envList("APP_ALLOWED_ORIGINS", &cfg.AllowedOrigins); err != nil {
		return err
	}
	if err := envBool("APP_ENABLE_PROMETHEUS", &cfg.EnablePrometheus); err != nil {
		return err
	}
	if err := envBool("APP_ENABLE_PPROF", &cfg.EnablePprof); err != nil {
		return err
	}
	if value := env("APP_LOG_LEVEL"); value != "" {
		level, err := parseLogLevel(value)
		if err != nil {
			return fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	if value := env("APP_SYSFS_ROOT"); value != "" {
		cfg.SysfsRoot = value
	}

	if err := envDuration("APP_COMMAND_TIMEOUT", &cfg.Commands.Timeout, true); err != nil {
		return err
	}
	if err := envDuration("APP_COMMAND_GRACE", &cfg.Commands.Grace, false); err != nil {
		return err
	}
	if value := env("APP_SENSORS_COMMAND"); value != "" {
		cfg.Commands.Sensors = value
	}
	if value := env("APP_NVIDIA_SMI_COMMAND"); value != "" {
		cfg.Commands.NvidiaSMI = value
	}
	if value := env("APP_GLXINFO_COMMAND"); value != "" {
		cfg.Commands.GLXInfo = value
	}

	if err := envPositiveInt("APP_WS_MAX_CLIENTS", &cfg.WS.MaxClients); err != nil {
		return err
	}
	if err := envDuration("APP_WS_WRITE_TIMEOUT", &cfg.WS.WriteTimeout, true); err != nil {
		return err
	}
	return envDuration("APP_WS_READ_TIMEOUT", &cfg.WS.ReadTimeout, true)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envDuration(key string, target *time.Duration, positive bool) error {
	value := env(key)
	if value == "" {
		return nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if positive && duration <= 0 {
		return fmt.Errorf("%s must be > 0", key)
	}
	if duration < 0 {
		return fmt.Errorf("%s must be >= 0", key)
	}
	*target = duration
	return nil
}

func envPositiveInt(key string, target *int) error {
	value := env(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("%s must be > 0", key)
	}
	*target = parsed
	return nil
}

func envBool(key string, target *bool) error {
	value := env(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func envList(key string, target *[]string) error {
	value := env(key)
	if value == "" {
		return nil
	}
	items := splitAndTrim(value, ",")
	if len(items) == 0 {
		return fmt.Errorf("%s must not be empty", key)
	}
	*target = items
	return nil
}

func splitAndTrim(value, sep string) []string {
	raw := strings.Split(value, sep)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(input string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q", input)
	}
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected ListenAddr %q", cfg.ListenAddr)
	}
	if cfg.SampleInterval != time.Second {
		t.Fatalf("unexpected SampleInterval %s", cfg.SampleInterval)
	}
	if cfg.CPUWindow != 500*time.Millisecond {
		t.Fatalf("unexpected CPUWindow %s", cfg.CPUWindow)
	}
	if cfg.HistoryCapacity != 60 {
		t.Fatalf("unexpected HistoryCapacity %d", cfg.HistoryCapacity)
	}
	if want := []string{"nvidia", "glxinfo", "drm"}; !reflect.DeepEqual(cfg.GPUStrategies, want) {
		t.Fatalf("unexpected GPUStrategies %v", cfg.GPUStrategies)
	}
	if cfg.Commands.Timeout != 2*time.Second || cfg.Commands.Grace != 500*time.Millisecond {
		t.Fatalf("unexpected command timings %+v", cfg.Commands)
	}
	if cfg.Commands.Sensors != "sensors" || cfg.Commands.NvidiaSMI != "nvidia-smi" || cfg.Commands.GLXInfo != "glxinfo" {
		t.Fatalf("unexpected command names %+v", cfg.Commands)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected LogLevel %v", cfg.LogLevel)
	}
	if cfg.SysfsRoot != "/sys" {
		t.Fatalf("unexpected SysfsRoot %q", cfg.SysfsRoot)
	}
	if cfg.ConfigFile != "" {
		t.Fatalf("unexpected ConfigFile %q", cfg.ConfigFile)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("APP_SAMPLE_INTERVAL", "2s")
	t.Setenv("APP_CPU_WINDOW", "250ms")
	t.Setenv("APP_HISTORY_CAPACITY", "120")
	t.Setenv("APP_GPU_STRATEGIES", "glxinfo, drm")
	t.Setenv("APP_ALLOWED_ORIGINS", "https://example.com, https://other.test")
	t.Setenv("APP_ENABLE_PROMETHEUS", "true")
	t.Setenv("APP_ENABLE_PPROF", "true")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_SYSFS_ROOT", "/tmp/sys")
	t.Setenv("APP_COMMAND_TIMEOUT", "750ms")
	t.Setenv("APP_COMMAND_GRACE", "0s")
	t.Setenv("APP_SENSORS_COMMAND", "/usr/local/bin/sensors")
	t.Setenv("APP_NVIDIA_SMI_COMMAND", "/opt/nvidia/nvidia-smi")
	t.Setenv("APP_GLXINFO_COMMAND", "glxinfo64")
	t.Setenv("APP_WS_MAX_CLIENTS", "2048")
	t.Setenv("APP_WS_WRITE_TIMEOUT", "10s")
	t.Setenv("APP_WS_READ_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("ListenAddr override failed, got %q", cfg.ListenAddr)
	}
	if cfg.SampleInterval != 2*time.Second {
		t.Fatalf("SampleInterval override failed, got %s", cfg.SampleInterval)
	}
	if cfg.CPUWindow != 250*time.Millisecond {
		t.Fatalf("CPUWindow override failed, got %s", cfg.CPUWindow)
	}
	if cfg.HistoryCapacity != 120 {
		t.Fatalf("HistoryCapacity override failed, got %d", cfg.HistoryCapacity)
	}
	if want := []string{"glxinfo", "drm"}; !reflect.DeepEqual(cfg.GPUStrategies, want) {
		t.Fatalf("GPUStrategies mismatch: %v", cfg.GPUStrategies)
	}
	wantOrigins := []string{"https://example.com", "https://other.test"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, wantOrigins) {
		t.Fatalf("AllowedOrigins mismatch: %+v", cfg.AllowedOrigins)
	}
	if !cfg.EnablePrometheus || !cfg.EnablePprof {
		t.Fatalf("feature flag overrides failed")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel override failed, got %v", cfg.LogLevel)
	}
	if cfg.SysfsRoot != "/tmp/sys" {
		t.Fatalf("SysfsRoot override failed, got %q", cfg.SysfsRoot)
	}
	wantCommands := CommandConfig{
		Timeout:   750 * time.Millisecond,
		Grace:     0,
		Sensors:   "/usr/local/bin/sensors",
		NvidiaSMI: "/opt/nvidia/nvidia-smi",
		GLXInfo:   "glxinfo64",
	}
	if cfg.Commands != wantCommands {
		t.Fatalf("Commands override failed, got %+v", cfg.Commands)
	}
	if cfg.WS.MaxClients != 2048 {
		t.Fatalf("WS.MaxClients override failed, got %d", cfg.WS.MaxClients)
	}
	if cfg.WS.WriteTimeout != 10*time.Second {
		t.Fatalf("WS.WriteTimeout override failed, got %s", cfg.WS.WriteTimeout)
	}
	if cfg.WS.ReadTimeout != 45*time.Second {
		t.Fatalf("WS.ReadTimeout override failed, got %s", cfg.WS.ReadTimeout)
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{"NegativeSampleInterval", "APP_SAMPLE_INTERVAL", "-1s"},
		{"WindowNotShorterThanInterval", "APP_CPU_WINDOW", "1s"},
		{"InvalidCPUWindow", "APP_CPU_WINDOW", "soon"},
		{"InvalidHistoryCapacity", "APP_HISTORY_CAPACITY", "lots"},
		{"NonPositiveHistoryCapacity", "APP_HISTORY_CAPACITY", "0"},
		{"EmptyStrategies", "APP_GPU_STRATEGIES", " , "},
		{"InvalidOrigins", "APP_ALLOWED_ORIGINS", ","},
		{"InvalidPrometheusBool", "APP_ENABLE_PROMETHEUS", "maybe"},
		{"InvalidLogLevel", "APP_LOG_LEVEL", "loud"},
		{"NonPositiveCommandTimeout", "APP_COMMAND_TIMEOUT", "0"},
		{"NegativeCommandGrace", "APP_COMMAND_GRACE", "-1s"},
		{"InvalidWSMaxClients", "APP_WS_MAX_CLIENTS", "zero"},
		{"NonPositiveWSMaxClients", "APP_WS_MAX_CLIENTS", "0"},
		{"InvalidWSWriteTimeout", "APP_WS_WRITE_TIMEOUT", "nope"},
		{"NegativeWSReadTimeout", "APP_WS_READ_TIMEOUT", "-1s"},
		{"MissingConfigFile", "APP_CONFIG_FILE", "/nonexistent/corebuddy.yaml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
listen_addr: "127.0.0.1:7070"
sample_interval: 2s
cpu_window: 1s
history_capacity: 30
gpu_strategies: [drm]
log_level: warn
commands:
  timeout: 1500ms
  sensors: /usr/bin/sensors
websocket:
  max_clients: 8
`)
	t.Setenv("APP_CONFIG_FILE", path)
	// Environment wins over the file.
	t.Setenv("APP_HISTORY_CAPACITY", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ConfigFile != path {
		t.Fatalf("ConfigFile not recorded, got %q", cfg.ConfigFile)
	}
	if cfg.ListenAddr != "127.0.0.1:7070" {
		t.Fatalf("ListenAddr from file failed, got %q", cfg.ListenAddr)
	}
	if cfg.SampleInterval != 2*time.Second || cfg.CPUWindow != time.Second {
		t.Fatalf("timings from file failed: %s / %s", cfg.SampleInterval, cfg.CPUWindow)
	}
	if cfg.HistoryCapacity != 90 {
		t.Fatalf("env must override file, got %d", cfg.HistoryCapacity)
	}
	if !reflect.DeepEqual(cfg.GPUStrategies, []string{"drm"}) {
		t.Fatalf("GPUStrategies from file failed: %v", cfg.GPUStrategies)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel from file failed, got %v", cfg.LogLevel)
	}
	if cfg.Commands.Timeout != 1500*time.Millisecond || cfg.Commands.Sensors != "/usr/bin/sensors" {
		t.Fatalf("commands from file failed: %+v", cfg.Commands)
	}
	if cfg.Commands.NvidiaSMI != "nvidia-smi" {
		t.Fatalf("unset keys must keep defaults, got %q", cfg.Commands.NvidiaSMI)
	}
	if cfg.WS.MaxClients != 8 || cfg.WS.ReadTimeout != 30*time.Second {
		t.Fatalf("websocket from file failed: %+v", cfg.WS)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{"UnknownKey", "sample_rate: 1s\n", "sample_rate"},
		{"BadDuration", "sample_interval: fast\n", "sample_interval"},
		{"BadLogLevel", "log_level: chatty\n", "log_level"},
		{"WindowTooLong", "sample_interval: 1s\ncpu_window: 2s\n", "cpu window"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_CONFIG_FILE", writeConfig(t, tc.content))
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadEmptyConfigFile(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", writeConfig(t, ""))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SampleInterval != time.Second {
		t.Fatalf("empty file must keep defaults, got %s", cfg.SampleInterval)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corebuddy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

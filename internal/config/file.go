package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML decoding. Unset keys keep the value
// already present in Config.
type fileConfig struct {
	ListenAddr       *string   `yaml:"listen_addr"`
	SampleInterval   *string   `yaml:"sample_interval"`
	CPUWindow        *string   `yaml:"cpu_window"`
	HistoryCapacity  *int      `yaml:"history_capacity"`
	GPUStrategies    []string  `yaml:"gpu_strategies"`
	AllowedOrigins   []string  `yaml:"allowed_origins"`
	EnablePrometheus *bool     `yaml:"enable_prometheus"`
	EnablePprof      *bool     `yaml:"enable_pprof"`
	LogLevel         *string   `yaml:"log_level"`
	SysfsRoot        *string   `yaml:"sysfs_root"`
	Commands         *fileCmds `yaml:"commands"`
	WS               *fileWS   `yaml:"websocket"`
}

type fileCmds struct {
	Timeout   *string `yaml:"timeout"`
	Grace     *string `yaml:"grace"`
	Sensors   *string `yaml:"sensors"`
	NvidiaSMI *string `yaml:"nvidia_smi"`
	GLXInfo   *string `yaml:"glxinfo"`
}

type fileWS struct {
	MaxClients   *int    `yaml:"max_clients"`
	WriteTimeout *string `yaml:"write_timeout"`
	ReadTimeout  *string `yaml:"read_timeout"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := fc.apply(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (fc fileConfig) apply(cfg *Config) error {
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.SysfsRoot, fc.SysfsRoot)
	if err := setDuration(&cfg.SampleInterval, fc.SampleInterval, "sample_interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.CPUWindow, fc.CPUWindow, "cpu_window"); err != nil {
		return err
	}
	if fc.HistoryCapacity != nil {
		cfg.HistoryCapacity = *fc.HistoryCapacity
	}
	if fc.GPUStrategies != nil {
		cfg.GPUStrategies = fc.GPUStrategies
	}
	if fc.AllowedOrigins != nil {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.EnablePrometheus != nil {
		cfg.EnablePrometheus = *fc.EnablePrometheus
	}
	if fc.EnablePprof != nil {
		cfg.EnablePprof = *fc.EnablePprof
	}
	if fc.LogLevel != nil {
		level, err := parseLogLevel(*fc.LogLevel)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	if cmds := fc.Commands; cmds != nil {
		if err := setDuration(&cfg.Commands.Timeout, cmds.Timeout, "commands.timeout"); err != nil {
			return err
		}
		if err := setDuration(&cfg.Commands.Grace, cmds.Grace, "commands.grace"); err != nil {
			return err
		}
		setString(&cfg.Commands.Sensors, cmds.Sensors)
		setString(&cfg.Commands.NvidiaSMI, cmds.NvidiaSMI)
		setString(&cfg.Commands.GLXInfo, cmds.GLXInfo)
	}

	if ws := fc.WS; ws != nil {
		if ws.MaxClients != nil {
			cfg.WS.MaxClients = *ws.MaxClients
		}
		if err := setDuration(&cfg.WS.WriteTimeout, ws.WriteTimeout, "websocket.write_timeout"); err != nil {
			return err
		}
		if err := setDuration(&cfg.WS.ReadTimeout, ws.ReadTimeout, "websocket.read_timeout"); err != nil {
			return err
		}
	}
	return nil
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

func setDuration(target *time.Duration, value *string, key string) error {
	if value == nil {
		return nil
	}
	duration, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = duration
	return nil
}

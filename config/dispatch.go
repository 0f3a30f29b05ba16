package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Trendyol/go-dispatch/helpers"
)

const (
	DefaultAPIPort      = 8080
	DefaultMetricPath   = "/metrics"
	DefaultLoggingLevel = "info"
	DefaultHistoryDepth = 1
)

type API struct {
	Port    int  `yaml:"port"`
	Enabled bool `yaml:"enabled"`
}

type Metric struct {
	Path string `yaml:"path"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Command struct {
	HistoryDepth int `yaml:"historyDepth"`
}

type Dispatch struct {
	Name    string  `yaml:"name"`
	Logging Logging `yaml:"logging"`
	Metric  Metric  `yaml:"metric"`
	Command Command `yaml:"command"`
	API     API     `yaml:"api"`
	Debug   bool    `yaml:"debug"`
}

func (c *Dispatch) ApplyDefaults() {
	c.applyDefaultName()
	c.applyDefaultLogging()
	c.applyDefaultMetric()
	c.applyDefaultCommand()
	c.applyDefaultAPI()
}

func (c *Dispatch) applyDefaultName() {
	if c.Name == "" {
		c.Name = helpers.Name
	}
}

func (c *Dispatch) applyDefaultLogging() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLoggingLevel
	}
}

func (c *Dispatch) applyDefaultMetric() {
	if c.Metric.Path == "" {
		c.Metric.Path = DefaultMetricPath
	}
}

func (c *Dispatch) applyDefaultCommand() {
	if c.Command.HistoryDepth <= 0 {
		c.Command.HistoryDepth = DefaultHistoryDepth
	}
}

func (c *Dispatch) applyDefaultAPI() {
	if c.API.Port == 0 {
		c.API.Port = DefaultAPIPort
	}
}

// Load reads a yaml file and applies defaults.
func Load(path string) (*Dispatch, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(file)
}

func Parse(data []byte) (*Dispatch, error) {
	c := &Dispatch{}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.ApplyDefaults()

	return c, nil
}

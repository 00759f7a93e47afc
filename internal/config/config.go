package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ftc2/interview-notify/internal/engine"
	"github.com/ftc2/interview-notify/internal/notify"
	"github.com/ftc2/interview-notify/internal/trigger"
	"github.com/ftc2/interview-notify/internal/watcher"
	"github.com/sirupsen/logrus"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration
type Config struct {
	System    SystemConfig             `yaml:"System"`
	Watch     map[string]interface{}   `yaml:"Watch"`
	Triggers  map[string]interface{}   `yaml:"Triggers"`
	Notifiers []map[string]interface{} `yaml:"Notifiers"`
}

// SystemConfig holds system-wide configuration
type SystemConfig struct {
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`
	Mode     string `yaml:"mode"`
}

func (c *SystemConfig) GetLogLevel() logrus.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "TRACE":
		return logrus.TraceLevel
	case "DEBUG":
		return logrus.DebugLevel
	case "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		// Default LogLevel Info
		return logrus.InfoLevel
	}
}

// Engine is extended to include configuration
type PluginEngine struct {
	*engine.Engine
	config Config
}

// NewPluginEngine creates a new engine with configuration
func NewPluginEngine(configPath string) (*PluginEngine, error) {
	engine := &PluginEngine{
		Engine: engine.NewEngine(),
	}

	if err := engine.loadConfig(configPath); err != nil {
		return nil, err
	}

	if err := engine.initializePlugins(); err != nil {
		return nil, err
	}

	return engine, nil
}

func (e *PluginEngine) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Replace environment variables
	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), &e.config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Setup logging
	if err := e.setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	// Only the red interview mode exists so far.
	if mode := e.config.System.Mode; mode != "" && mode != "red" {
		return fmt.Errorf("%q mode not implemented", mode)
	}

	return nil
}

func (e *PluginEngine) setupLogging() error {
	writers := []io.Writer{os.Stderr}

	if e.config.System.LogFile != "" {
		file, err := os.OpenFile(e.config.System.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}

	// Set log level based on config
	logrus.SetLevel(e.config.System.GetLogLevel())

	// Create multi-writer
	writer := io.MultiWriter(writers...)
	logrus.SetOutput(writer)

	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339, // Use RFC3339 format (2006-01-02T15:04:05Z07:00)
	})

	return nil
}

func (e *PluginEngine) initializePlugins() error {
	watcherObject := &watcher.Watcher{}
	if err := watcherObject.Init(e.config.Watch); err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	e.RegisterWatcher(watcherObject)

	matcherObject := &trigger.Matcher{}
	if err := matcherObject.Init(e.config.Triggers); err != nil {
		return fmt.Errorf("failed to initialize triggers: %w", err)
	}
	e.RegisterMatcher(matcherObject)

	for _, notifierConfig := range e.config.Notifiers {
		if err := e.initializeNotifier(notifierConfig); err != nil {
			return fmt.Errorf("failed to initialize notifier: %w", err)
		}
	}

	return nil
}

func (e *PluginEngine) initializeNotifier(config map[string]interface{}) error {
	notifierType, ok := config["Type"].(string)
	if !ok {
		return fmt.Errorf("notifier type missing or not a string")
	}

	var notifierObject notify.Plugin

	switch strings.ToLower(notifierType) {
	case "ntfy":
		notifierObject = &notify.Ntfy{}
	case "gelf":
		notifierObject = &notify.GELF{}
	case "stdout":
		notifierObject = &notify.Stdout{}
	case "history":
		notifierObject = &notify.History{}
	default:
		return fmt.Errorf("unknown notifier type: %s", config["Type"])
	}

	if err := notifierObject.Init(config); err != nil {
		return err
	}

	e.RegisterNotifier(notifierObject)
	return nil
}

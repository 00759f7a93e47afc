package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ftc2/interview-notify/internal/config"
	"github.com/sirupsen/logrus"
)

const Version = "1.0"

type FlagOptions struct {
	configPath *string
}

var opts = FlagOptions{}

func init() {
	opts.configPath = flag.String("cfg", "./cfg.yaml", "provide the path to your config file")
	flag.Parse()
}

func main() {
	engine, err := config.NewPluginEngine(*opts.configPath)
	if err != nil {
		logrus.WithError(err).Fatal("could not build engine")
	}

	logrus.WithField("version", Version).Info("Starting interview notifier")

	if err := engine.Start(); err != nil {
		logrus.WithError(err).Fatal("could not start engine")
	}

	// Wait for shutdown signal or a fatal watcher error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logrus.Info("Stopping interview notifier")
		engine.Stop()
	case err := <-engine.Errors():
		engine.Stop()
		logrus.WithError(err).Fatal("watcher failed")
	}
}

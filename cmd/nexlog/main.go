package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/flagext"
	"gopkg.in/yaml.v3"

	"github.com/grafana/nexlog/cmd/nexlog/app"
	utillog "github.com/grafana/nexlog/pkg/util/log"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "clusters" {
		if err := runClustersCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed parsing config: %v\n", err)
		os.Exit(1)
	}

	utillog.InitLogger(cfg.LogLevel)

	a, err := app.New(*cfg)
	if err != nil {
		level.Error(utillog.Logger).Log("msg", "error initialising nexlog", "err", err)
		os.Exit(1)
	}

	level.Info(utillog.Logger).Log("msg", "starting nexlog")
	if err := a.Run(); err != nil {
		level.Error(utillog.Logger).Log("msg", "error running nexlog", "err", err)
		os.Exit(1)
	}
}

func loadConfig() (*app.Config, error) {
	const configFileOption = "config.file"

	var configFile string

	args := os.Args[1:]
	cfg := &app.Config{}

	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&configFile, configFileOption, "", "")

	for len(args) > 0 {
		_ = fs.Parse(args)
		args = args[1:]
	}

	cfg.RegisterFlagsAndApplyDefaults("", flag.CommandLine)

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read configFile %s: %w", configFile, err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configFile %s: %w", configFile, err)
		}
	}

	flagext.IgnoredFlag(flag.CommandLine, configFileOption, "Configuration file to load")
	flag.Parse()

	return cfg, nil
}

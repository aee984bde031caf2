package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"

	"github.com/jeja2023/tp/mapview"
)

type Configuration struct {
	API struct {
		URL     string `toml:"url" env:"TP_API_URL" env-default:"http://localhost:8000/api"`
		Timeout string `toml:"timeout" env:"TP_TIMEOUT" env-default:"30s"`
	} `toml:"api"`
	Bolt struct {
		Store string `toml:"store" env:"TP_STORE" env-default:"data/tp.db"`
	} `toml:"bolt"`
	Bleve struct {
		Store string `toml:"store" env:"TP_INDEX" env-default:"data/tasks.bleve"`
	} `toml:"bleve"`
	Serve struct {
		Address string `toml:"address" env:"TP_SERVE_ADDR" env-default:"127.0.0.1:8787"`
	} `toml:"serve"`
	Download struct {
		Dir string `toml:"dir" env:"TP_DOWNLOAD_DIR" env-default:"downloads"`
	} `toml:"download"`
	Map MapConfiguration `toml:"map"`
}

// MapConfiguration overrides the default map. Zero values keep the defaults.
type MapConfiguration struct {
	Latitude   float64 `toml:"latitude"`
	Longitude  float64 `toml:"longitude"`
	Zoom       int     `toml:"zoom"`
	Subdomains string  `toml:"subdomains"`
	Standard   string  `toml:"standard"`
	Satellite  string  `toml:"satellite"`
	RoadNet    string  `toml:"roadnet"`
	Traffic    string  `toml:"traffic"`
	District   string  `toml:"district"`
}

func (c MapConfiguration) mapview() mapview.Config {
	cfg := mapview.DefaultConfig()
	if c.Latitude != 0 || c.Longitude != 0 {
		cfg.Center = mapview.LatLng{Lat: c.Latitude, Lng: c.Longitude}
	}
	if c.Zoom != 0 {
		cfg.Zoom = c.Zoom
	}
	for _, o := range []struct {
		dst *string
		src string
	}{
		{&cfg.Subdomains, c.Subdomains},
		{&cfg.Standard, c.Standard},
		{&cfg.Satellite, c.Satellite},
		{&cfg.RoadNet, c.RoadNet},
		{&cfg.Traffic, c.Traffic},
		{&cfg.District, c.District},
	} {
		if o.src != "" {
			*o.dst = o.src
		}
	}
	return cfg
}

func (c Configuration) timeout() (time.Duration, error) {
	return time.ParseDuration(c.API.Timeout)
}

// loadConfiguration reads path and applies the environment overrides. A missing
// file leaves the environment and the defaults.
func loadConfiguration(path string) (Configuration, error) {
	var cfg Configuration

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return cfg, err
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

var (
	forceConfig bool

	config Configuration
)

func init() {
	ConfigInitCommand.Flags().BoolVar(&forceConfig, "force", false, "overwrite an existing file")

	addCommands(&ConfigCommand, &ConfigInitCommand, &ConfigShowCommand)
	addCommands(&RootCmd, &ConfigCommand)
}

var ConfigCommand = cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long:  "Manage the configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var ConfigInitCommand = cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long:  "Write a configuration file with the default values, or the ones of the environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configFile); err == nil && !forceConfig {
			return errors.New(configFile + " already exists, use --force to overwrite it")
		}

		var cfg Configuration
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
			return err
		}
		f, err := os.Create(configFile)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return err
		}
		cmd.Printf("configuration written to %s\n", configFile)
		return nil
	},
}

var ConfigShowCommand = cobra.Command{
	Use:   "show",
	Short: "Print the configuration in use",
	Long:  "Print the configuration in use, the file merged with the environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfiguration(configFile)
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	DBPath   string
	Name     string
	SeedDemo bool
	Bands    []string
	Verbose  bool
}

func NewConfig() *Config {
	return &Config{
		Bands: DemoBandNames(),
	}
}

func NewConfigFromCLI() (*Config, error) {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var bands string
	fs.StringVar(&c.DBPath, "db", "", "Path to the registry database file")
	fs.StringVar(&c.Name, "name", "", "Show the arrays of a single dataset")
	fs.BoolVar(&c.SeedDemo, "seed-demo", false, "Write the demo top-hat bandpasses before listing")
	fs.StringVar(&bands, "bands", strings.Join(c.Bands, ","), "Comma separated demo bands to seed")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c.Bands = nil
	for _, b := range strings.Split(bands, ",") {
		if b = strings.TrimSpace(b); b != "" {
			c.Bands = append(c.Bands, b)
		}
	}

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SeedDemo && len(c.Bands) == 0 {
		err = errors.New("no demo bands to seed")
	} else {
		for _, b := range c.Bands {
			if _, ok := demoBands[b]; !ok {
				err = fmt.Errorf("unknown demo band: %s", b)
				break
			}
		}
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}
	return c, nil
}

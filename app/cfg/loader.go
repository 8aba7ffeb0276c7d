package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	ProfilesDir  string `long:"profiles-dir" env:"PROFILES_DIR" default:"./profiles" description:"Directory containing normalization profiles"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	BodyLimit    int64  `long:"body-limit" env:"BODY_LIMIT" default:"10485760" description:"Maximum accepted document size in bytes"`

	// Tree conventions
	AttrKey string `long:"attr-key" env:"ATTR_KEY" default:"$" description:"Key holding element attributes in parsed trees"`
	TextKey string `long:"text-key" env:"TEXT_KEY" default:"_" description:"Key holding text of mixed-content elements"`

	// One-shot mode
	File        string `long:"file" short:"f" description:"Normalize this document, print JSON and exit"`
	Profile     string `long:"profile" short:"p" description:"Profile used with --file"`
	ContentType string `long:"content-type" default:"application/xml; charset=utf-8" description:"Content-Type used to pick the encoding of --file"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command-line arguments and environment variables. It returns
// nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ProfilesDir:  raw.ProfilesDir,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		BodyLimit:    raw.BodyLimit,
		AttrKey:      raw.AttrKey,
		TextKey:      raw.TextKey,
		File:         raw.File,
		Profile:      raw.Profile,
		ContentType:  raw.ContentType,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.AttrKey == "" || cfg.TextKey == "" {
		return fmt.Errorf("attribute and text keys must not be empty")
	}
	if cfg.AttrKey == cfg.TextKey {
		return fmt.Errorf("attribute and text keys must differ, both are %q", cfg.AttrKey)
	}
	if cfg.BodyLimit <= 0 {
		return fmt.Errorf("body limit must be positive")
	}
	if cfg.OneShot() && cfg.Profile == "" {
		return fmt.Errorf("--profile is required with --file")
	}
	return nil
}

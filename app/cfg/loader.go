package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Scrape configuration
	ProfilePath  string `long:"profile" env:"PROFILE" default:"./feed.yml" description:"Path to the YAML scrape profile (built-in defaults are used when the file is missing)"`
	OutputPath   string `long:"output" env:"OUTPUT" default:"feed.xml" description:"Path of the generated RSS file"`
	SnapshotPath string `long:"snapshot" env:"SNAPSHOT" description:"Optional path to store the raw fetched HTML"`
	URL          string `long:"url" env:"TARGET_URL" description:"Override the page URL from the profile"`
	MaxItems     int    `long:"max-items" env:"MAX_ITEMS" default:"-1" description:"Override the maximum number of posts considered (-1 keeps the profile value)"`
	Order        string `long:"order" env:"ORDER" choice:"newest-first" choice:"oldest-first" description:"Override the traversal order"`

	// Serve mode
	Serve    bool   `long:"serve" env:"SERVE" description:"Keep running: regenerate on an interval and serve the feed over HTTP"`
	Port     string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	BaseUrl  string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	Interval int    `long:"interval" env:"INTERVAL" default:"900" description:"Seconds between regenerations (serve mode)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Scrape/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for log timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments; nil means os.Args.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", raw.Interval)
	}

	cfg := &Cfg{
		ProfilePath:  raw.ProfilePath,
		OutputPath:   raw.OutputPath,
		SnapshotPath: raw.SnapshotPath,
		URL:          raw.URL,
		MaxItems:     raw.MaxItems,
		Order:        raw.Order,
		Serve:        raw.Serve,
		Port:         raw.Port,
		BaseUrl:      raw.BaseUrl,
		Interval:     raw.Interval,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// GetInterval returns the serve-mode interval as time.Duration
func (c *Cfg) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

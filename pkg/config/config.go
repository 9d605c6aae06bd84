package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/feeds"
	"github.com/travigo/departureboard/pkg/util"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath       = "board.yaml"
	DefaultFeedLimit  = 10
	DefaultSBBURL     = "http://transport.opendata.ch/v1/connections"
	DefaultUserAgent  = "curl/7.54.1"
	DefaultAPIKeyName = "x-api-key"
)

var InvalidDepartureModes = []string{"skip", "consume"}

type Config struct {
	RefreshInterval   Duration `yaml:"refresh_interval"`
	FrameRate         int      `yaml:"frame_rate"`
	ScrollStep        int      `yaml:"scroll_step"`
	LineHeight        int      `yaml:"line_height"`
	LineWidth         int      `yaml:"line_width"`
	Dwell             Duration `yaml:"dwell"`
	ShowClock         bool     `yaml:"show_clock"`
	RotatePages       bool     `yaml:"rotate_pages"`
	InvalidDepartures string   `yaml:"invalid_departures"`

	Screen    Screen    `yaml:"screen"`
	Providers Providers `yaml:"providers"`
	Pages     []Page    `yaml:"pages"`
}

type Screen struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Providers struct {
	SBB    SBBProvider    `yaml:"sbb"`
	GTFSRT GTFSRTProvider `yaml:"gtfsrt"`
}

type SBBProvider struct {
	BaseURL   string   `yaml:"base_url"`
	UserAgent string   `yaml:"user_agent"`
	Timeout   Duration `yaml:"timeout"`
}

type GTFSRTProvider struct {
	FeedURL      string   `yaml:"feed_url"`
	RoutesFile   string   `yaml:"routes_file"`
	APIKeyHeader string   `yaml:"api_key_header"`
	APIKey       string   `yaml:"api_key"`
	Timeout      Duration `yaml:"timeout"`
}

type Page struct {
	Name  string `yaml:"name"`
	Feeds []Feed `yaml:"feeds"`
}

type Feed struct {
	Name        string       `yaml:"name"`
	Origin      string       `yaml:"origin"`
	Destination string       `yaml:"destination"`
	Colour      *ctdf.Colour `yaml:"colour"`
	Limit       int          `yaml:"limit"`
	Provider    string       `yaml:"provider"`
	Filter      string       `yaml:"filter"`
}

func (f Feed) Query() ctdf.FeedQuery {
	return ctdf.FeedQuery{
		Provider:    f.Provider,
		Origin:      f.Origin,
		Destination: f.Destination,
		Limit:       f.Limit,
		Filter:      f.Filter,
	}
}

func (f Feed) DisplayColour() ctdf.Colour {
	if f.Colour == nil {
		return ctdf.ColourWhite
	}

	return *f.Colour
}

// Default is the board used when no file exists: the five Zurich connections
func Default() *Config {
	config := base()
	config.Pages = DefaultPages()
	config.applyDefaults()

	return config
}

func DefaultPages() []Page {
	colour := func(r, g, b uint8) *ctdf.Colour {
		return &ctdf.Colour{R: r, G: g, B: b}
	}

	return []Page{
		{
			Name: "Zurich",
			Feeds: []Feed{
				{Name: "Freihofstrasse => HB", Origin: "Zurich,Freihofstrasse", Destination: "Zurich,Letzigrund", Colour: colour(255, 0, 0)},
				{Name: "Siemens => HB", Origin: "Zurich, Siemens", Destination: "Zurich, HB", Colour: colour(0, 255, 0)},
				{Name: "Kappeli => Altstatten", Origin: "Zurich,Kappeli", Destination: "Zurich,Letzipark West", Colour: colour(0, 255, 255)},
				{Name: "Albisrank => Hardbrucke", Origin: "Zurich,Albisrank", Destination: "Zurich,Hardbrucke", Colour: colour(255, 0, 255)},
				{Name: "HB => Geneve", Origin: "Zurich,HB", Destination: "Geneve", Colour: colour(255, 255, 0)},
			},
		},
	}
}

func base() *Config {
	return &Config{
		RefreshInterval:   Duration(10 * time.Minute),
		FrameRate:         30,
		ScrollStep:        4,
		LineHeight:        16,
		LineWidth:         24,
		Dwell:             Duration(2 * time.Second),
		ShowClock:         true,
		RotatePages:       true,
		InvalidDepartures: "skip",
		Screen:            Screen{Width: 192, Height: 64},
		Providers: Providers{
			SBB: SBBProvider{
				BaseURL:   DefaultSBBURL,
				UserAgent: DefaultUserAgent,
				Timeout:   Duration(10 * time.Second),
			},
			GTFSRT: GTFSRTProvider{
				APIKeyHeader: DefaultAPIKeyName,
				Timeout:      Duration(10 * time.Second),
			},
		},
	}
}

// Parse reads a board file on top of the defaults. A file without pages gets the default board.
func Parse(data []byte) (*Config, error) {
	config := base()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse board file: %w", err)
	}

	if len(config.Pages) == 0 {
		config.Pages = DefaultPages()
	}
	config.applyDefaults()

	return config, nil
}

// Load reads, overrides from the environment and validates the board file at path.
// A missing file falls back to the default board.
func Load(path string) (*Config, error) {
	var config *Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("path", path).Msg("Board file not found, using the default board")
		config = Default()
	case err != nil:
		return nil, fmt.Errorf("read board file: %w", err)
	default:
		config, err = Parse(data)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironment(util.GetEnvironmentVariables()); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) ApplyEnvironment(env map[string]string) error {
	if value := util.BoardEnv(env, "REFRESH_INTERVAL", ""); value != "" {
		interval, err := ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%sREFRESH_INTERVAL: %w", util.EnvironmentPrefix, err)
		}
		c.RefreshInterval = Duration(interval)
	}

	if value := util.BoardEnv(env, "DWELL", ""); value != "" {
		dwell, err := ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%sDWELL: %w", util.EnvironmentPrefix, err)
		}
		c.Dwell = Duration(dwell)
	}

	if value := util.BoardEnv(env, "FRAME_RATE", ""); value != "" {
		frameRate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%sFRAME_RATE: %w", util.EnvironmentPrefix, err)
		}
		c.FrameRate = frameRate
	}

	c.Providers.SBB.BaseURL = util.BoardEnv(env, "SBB_URL", c.Providers.SBB.BaseURL)
	c.Providers.GTFSRT.APIKey = util.BoardEnv(env, "GTFSRT_API_KEY", c.Providers.GTFSRT.APIKey)

	return nil
}

func (c *Config) applyDefaults() {
	for p := range c.Pages {
		for f := range c.Pages[p].Feeds {
			feed := &c.Pages[p].Feeds[f]

			if feed.Limit <= 0 {
				feed.Limit = DefaultFeedLimit
			}
			if feed.Provider == "" {
				feed.Provider = ctdf.ProviderSBB
			}
			if feed.Name == "" {
				feed.Name = feed.Origin
				if feed.Destination != "" {
					feed.Name = fmt.Sprintf("%s => %s", feed.Origin, feed.Destination)
				}
			}
		}
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.RefreshInterval <= 0 {
		errs = append(errs, errors.New("refresh_interval must be positive"))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, errors.New("frame_rate must be positive"))
	}
	if c.ScrollStep <= 0 {
		errs = append(errs, errors.New("scroll_step must be positive"))
	}
	if c.LineHeight < 0 {
		errs = append(errs, errors.New("line_height must not be negative"))
	}
	if c.LineWidth < 2 {
		errs = append(errs, errors.New("line_width must be at least 2"))
	}
	if c.Dwell < 0 {
		errs = append(errs, errors.New("dwell must not be negative"))
	}
	if c.Providers.SBB.Timeout <= 0 {
		errs = append(errs, errors.New("providers.sbb.timeout must be positive"))
	}
	if c.Providers.GTFSRT.Timeout <= 0 {
		errs = append(errs, errors.New("providers.gtfsrt.timeout must be positive"))
	}
	if !slices.Contains(InvalidDepartureModes, c.InvalidDepartures) {
		errs = append(errs, fmt.Errorf("invalid_departures %q must be one of %v", c.InvalidDepartures, InvalidDepartureModes))
	}

	if len(c.Pages) == 0 {
		errs = append(errs, errors.New("no pages configured"))
	}

	for p, page := range c.Pages {
		if len(page.Feeds) == 0 {
			errs = append(errs, fmt.Errorf("page %d (%s) has no feeds", p, page.Name))
		}

		for f, feed := range page.Feeds {
			where := fmt.Sprintf("page %d feed %d (%s)", p, f, feed.Name)

			if feed.Origin == "" {
				errs = append(errs, fmt.Errorf("%s: origin is required", where))
			}

			switch feed.Provider {
			case ctdf.ProviderSBB:
				if feed.Destination == "" {
					errs = append(errs, fmt.Errorf("%s: destination is required for sbb feeds", where))
				}
			case ctdf.ProviderGTFSRT:
				if c.Providers.GTFSRT.FeedURL == "" {
					errs = append(errs, fmt.Errorf("%s: providers.gtfsrt.feed_url is not set", where))
				}
			default:
				errs = append(errs, fmt.Errorf("%s: unknown provider %q", where, feed.Provider))
			}

			if feed.Filter != "" {
				if _, err := feeds.CompileFilter(feed.Filter); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", where, err))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// FetchTimeouts maps every provider to the time one of its fetches may take
func (c *Config) FetchTimeouts() map[string]time.Duration {
	return map[string]time.Duration{
		ctdf.ProviderSBB:    c.Providers.SBB.Timeout.Duration(),
		ctdf.ProviderGTFSRT: c.Providers.GTFSRT.Timeout.Duration(),
	}
}

func (c *Config) FeedCount() int {
	count := 0
	for _, page := range c.Pages {
		count += len(page.Feeds)
	}

	return count
}

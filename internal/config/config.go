package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     string
	AllowedOrigins []string
	LogLevel       slog.Level
	LogFormat      string
	RT             bool
	Spotify        struct {
		ClientID     string
		ClientSecret string
		RefreshToken string
		TokenURL     string
		APIURL       string
	}
	GitHub struct {
		AccessToken string
		APIURL      string
	}
	Activity struct {
		DefaultLimit   int
		MaxAge         time.Duration
		RequestTimeout time.Duration
		MatchBy        string
		RateLimit      float64
		RateBurst      int
		Live           bool
		LiveLimit      int
		PollInterval   time.Duration
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")
	v.SetDefault("rt", false)

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.refresh_token", "")
	v.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	v.SetDefault("spotify.api_url", "https://api.spotify.com/v1")

	v.SetDefault("github.access_token", "")
	v.SetDefault("github.api_url", "https://api.github.com")

	v.SetDefault("activity.default_limit", 10)
	v.SetDefault("activity.max_age", 60*time.Second)
	v.SetDefault("activity.request_timeout", 10*time.Second)
	v.SetDefault("activity.match_by", "title")
	v.SetDefault("activity.rate_limit", 1.0)
	v.SetDefault("activity.rate_burst", 5)
	v.SetDefault("activity.live", true)
	v.SetDefault("activity.live_limit", 4)
	v.SetDefault("activity.poll_interval", 15*time.Second)
}

// Load loads the configuration from a .env file, an optional config.yaml and
// environment variables, in increasing order of precedence. Missing Spotify
// credentials are not an error here; they are reported when the activity
// endpoint is served.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		slog.Info("using config file", "path", v.ConfigFileUsed())
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.ServerPort = v.GetString("server.port")
	cfg.AllowedOrigins = stringList(v.Get("allowed_origins"))
	cfg.LogLevel = parseLevel(v.GetString("log.level"))
	cfg.LogFormat = strings.ToLower(v.GetString("log.format"))
	cfg.RT = v.GetBool("rt")

	cfg.Spotify.ClientID = v.GetString("spotify.client_id")
	cfg.Spotify.ClientSecret = v.GetString("spotify.client_secret")
	cfg.Spotify.RefreshToken = v.GetString("spotify.refresh_token")
	cfg.Spotify.TokenURL = v.GetString("spotify.token_url")
	cfg.Spotify.APIURL = v.GetString("spotify.api_url")

	cfg.GitHub.AccessToken = v.GetString("github.access_token")
	cfg.GitHub.APIURL = v.GetString("github.api_url")

	cfg.Activity.DefaultLimit = v.GetInt("activity.default_limit")
	cfg.Activity.MaxAge = v.GetDuration("activity.max_age")
	cfg.Activity.RequestTimeout = v.GetDuration("activity.request_timeout")
	cfg.Activity.MatchBy = strings.ToLower(v.GetString("activity.match_by"))
	cfg.Activity.RateLimit = v.GetFloat64("activity.rate_limit")
	cfg.Activity.RateBurst = v.GetInt("activity.rate_burst")
	cfg.Activity.Live = v.GetBool("activity.live")
	cfg.Activity.LiveLimit = v.GetInt("activity.live_limit")
	cfg.Activity.PollInterval = v.GetDuration("activity.poll_interval")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ServerPort == "" {
		errs = append(errs, errors.New("server port must be set"))
	}
	switch c.LogFormat {
	case "pretty", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.Activity.DefaultLimit < 1 {
		errs = append(errs, fmt.Errorf("activity default limit must be positive, got %d", c.Activity.DefaultLimit))
	}
	if err := checkDuration("activity max age", c.Activity.MaxAge, true); err != nil {
		errs = append(errs, err)
	}
	if err := checkDuration("activity request timeout", c.Activity.RequestTimeout, true); err != nil {
		errs = append(errs, err)
	}
	switch c.Activity.MatchBy {
	case "title", "track":
	default:
		errs = append(errs, fmt.Errorf("unknown activity match policy %q", c.Activity.MatchBy))
	}
	if c.Activity.RateLimit < 0 || c.Activity.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("invalid upstream rate %v/s with burst %d", c.Activity.RateLimit, c.Activity.RateBurst))
	}
	if c.Activity.Live {
		if c.Activity.LiveLimit < 1 {
			errs = append(errs, fmt.Errorf("live feed limit must be positive, got %d", c.Activity.LiveLimit))
		}
		if err := checkDuration("poll interval", c.Activity.PollInterval, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// checkDuration rejects negative values and anything below one second. A bare
// number such as "60" is read as nanoseconds, so this catches a missing unit.
// allowZero keeps zero as the "disabled" value.
func checkDuration(name string, d time.Duration, allowZero bool) error {
	if d == 0 && allowZero {
		return nil
	}
	if d < time.Second {
		return fmt.Errorf("%s must be at least 1s (use a unit suffix such as \"60s\"), got %s", name, d)
	}
	return nil
}

// HasSpotifyCredentials reports whether all three Spotify secrets are present.
func (c *Config) HasSpotifyCredentials() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != "" && c.Spotify.RefreshToken != ""
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// stringList accepts a comma separated string (environment) or a YAML list.
func stringList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the collector.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the web interface and monitoring endpoints.
// - Keys: Credentials for the address, geocoding and open data APIs.
// - OutputDir: Directory the CSV exports are written to.
// - Portal: Browser and form settings for the land permit portal.
// - Geocoder: Which geocoding provider to use and how fast to call it.
// - Apartment: Batch settings for the apartment registry API.
// - Database: Optional PostgreSQL archive settings.
type Config struct {
	Env       string          `yaml:"env"`        // Env is the current environment: local, development, production.
	Port      int             `yaml:"port"`       // Port is the web interface port.
	Keys      APIKeys         `yaml:"keys"`       // Keys holds the external API credentials.
	OutputDir string          `yaml:"output_dir"` // OutputDir is where CSV files are saved.
	Portal    PortalConfig    `yaml:"portal"`     // Portal holds the browser settings.
	Geocoder  GeocoderConfig  `yaml:"geocoder"`   // Geocoder selects the geocoding provider.
	Apartment ApartmentConfig `yaml:"apartment"`  // Apartment holds the registry API settings.
	Database  PostgresConfig  `yaml:"postgres"`   // Database holds the postgres archive configuration.
}

// APIKeys groups the credentials of the external services.
type APIKeys struct {
	Juso    string `yaml:"juso"`    // Juso is the road address conversion key (confmKey).
	Kakao   string `yaml:"kakao"`   // Kakao is the Kakao local REST API key.
	OpenAPI string `yaml:"openapi"` // OpenAPI is the Seoul open data key.
	Google  string `yaml:"google"`  // Google is used only when the google geocoder is selected.
}

// PortalConfig describes how the land permit portal is driven.
type PortalConfig struct {
	URL         string        `yaml:"url"`          // URL of the search form.
	Headless    bool          `yaml:"headless"`     // Headless runs the browser without a window.
	DateLayout  string        `yaml:"date_layout"`  // DateLayout is the Go layout typed into the date inputs.
	MaxSpanDays int           `yaml:"max_span"`     // MaxSpanDays is the longest accepted search period.
	SearchPause time.Duration `yaml:"search_pause"` // SearchPause is waited after clicking search.
	PagePause   time.Duration `yaml:"page_pause"`   // PagePause is waited after moving to the next page.
	Districts   []string      `yaml:"districts"`    // Districts optionally restricts the crawl to these codes.
}

// GeocoderConfig selects the geocoding provider.
type GeocoderConfig struct {
	Type           string        `yaml:"type"`            // Type is kakao, google or nominatim.
	RateLimit      int           `yaml:"rate_limit"`      // RateLimit is requests per second.
	RequestTimeout time.Duration `yaml:"request_timeout"` // RequestTimeout bounds each API call.
}

// ApartmentConfig holds the apartment registry settings.
type ApartmentConfig struct {
	BatchSize int `yaml:"batch_size"` // BatchSize is the number of records requested per call.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// Enabled reports whether an archive database was configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// envBindings maps each configuration key, as nested in the YAML file, to
// the environment variable that overrides it.
var envBindings = map[string]string{
	"env":                      "LANDSCOUT_ENV",
	"port":                     "LANDSCOUT_PORT",
	"output_dir":               "LANDSCOUT_OUTPUT_DIR",
	"keys.juso":                "LANDSCOUT_JUSO_KEY",
	"keys.kakao":               "LANDSCOUT_KAKAO_KEY",
	"keys.openapi":             "LANDSCOUT_OPENAPI_KEY",
	"keys.google":              "LANDSCOUT_GOOGLE_KEY",
	"portal.url":               "LANDSCOUT_PORTAL_URL",
	"portal.headless":          "LANDSCOUT_HEADLESS",
	"portal.date_layout":       "LANDSCOUT_DATE_LAYOUT",
	"portal.max_span":          "LANDSCOUT_MAX_SPAN_DAYS",
	"portal.search_pause":      "LANDSCOUT_SEARCH_PAUSE",
	"portal.page_pause":        "LANDSCOUT_PAGE_PAUSE",
	"portal.districts":         "LANDSCOUT_DISTRICTS",
	"geocoder.type":            "LANDSCOUT_GEOCODER",
	"geocoder.rate_limit":      "LANDSCOUT_GEOCODER_RATE",
	"geocoder.request_timeout": "LANDSCOUT_REQUEST_TIMEOUT",
	"apartment.batch_size":     "LANDSCOUT_APT_BATCH",
	"postgres.host":            "DB_HOST",
	"postgres.port":            "DB_PORT",
	"postgres.user":            "DB_USERNAME",
	"postgres.password":        "DB_PASSWORD",
	"postgres.db_name":         "DB_NAME",
}

// MustLoad loads the configuration and returns a Config struct. Values come
// from the environment (and an optional .env file), then from the YAML file
// named by LANDSCOUT_CONFIG, then from defaults.
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	setDefaults(v)

	if file := os.Getenv("LANDSCOUT_CONFIG"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		panic("failed to parse port for web interface from configuration")
	}

	headless, err := strconv.ParseBool(v.GetString("portal.headless"))
	if err != nil {
		panic("failed to parse headless flag from configuration, must be a boolean")
	}

	maxSpan, err := strconv.Atoi(v.GetString("portal.max_span"))
	if err != nil {
		panic("failed to parse max span days from configuration, must be an integer")
	}

	searchPause, err := time.ParseDuration(v.GetString("portal.search_pause"))
	if err != nil {
		panic("failed to parse search pause from configuration")
	}

	pagePause, err := time.ParseDuration(v.GetString("portal.page_pause"))
	if err != nil {
		panic("failed to parse page pause from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("geocoder.rate_limit"))
	if err != nil {
		panic("failed to parse geocoder rate limit from configuration, must be an integer")
	}

	timeout, err := time.ParseDuration(v.GetString("geocoder.request_timeout"))
	if err != nil {
		panic("failed to parse request timeout from configuration")
	}

	batchSize, err := strconv.Atoi(v.GetString("apartment.batch_size"))
	if err != nil || batchSize <= 0 {
		panic("failed to parse apartment batch size from configuration, must be a positive integer")
	}

	return &Config{
		Env:  v.GetString("env"),
		Port: port,
		Keys: APIKeys{
			Juso:    v.GetString("keys.juso"),
			Kakao:   v.GetString("keys.kakao"),
			OpenAPI: v.GetString("keys.openapi"),
			Google:  v.GetString("keys.google"),
		},
		OutputDir: v.GetString("output_dir"),
		Portal: PortalConfig{
			URL:         v.GetString("portal.url"),
			Headless:    headless,
			DateLayout:  v.GetString("portal.date_layout"),
			MaxSpanDays: maxSpan,
			SearchPause: searchPause,
			PagePause:   pagePause,
			Districts:   districts(v),
		},
		Geocoder: GeocoderConfig{
			Type:           v.GetString("geocoder.type"),
			RateLimit:      rateLimit,
			RequestTimeout: timeout,
		},
		Apartment: ApartmentConfig{
			BatchSize: batchSize,
		},
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("port", "5000")
	v.SetDefault("output_dir", ".")
	v.SetDefault("portal.headless", "true")
	v.SetDefault("portal.url", "https://land.seoul.go.kr/land/other/contractStatus.do")
	v.SetDefault("portal.date_layout", "2006-01-02")
	v.SetDefault("portal.max_span", "60")
	v.SetDefault("portal.search_pause", "2s")
	v.SetDefault("portal.page_pause", "1.5s")
	v.SetDefault("geocoder.type", "kakao")
	v.SetDefault("geocoder.rate_limit", "10")
	v.SetDefault("geocoder.request_timeout", "5s")
	v.SetDefault("apartment.batch_size", "1000")
	v.SetDefault("postgres.port", "5432")
}

// districts reads the district filter, a comma separated list in the
// environment or a YAML sequence in the file.
func districts(v *viper.Viper) []string {
	if list, ok := v.Get("portal.districts").(string); ok {
		return splitList(list)
	}

	return splitList(strings.Join(v.GetStringSlice("portal.districts"), ","))
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

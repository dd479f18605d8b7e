package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ExtractKeys are the object storage keys of the published extracts.
type ExtractKeys struct {
	Signups string
	Map     string
	Daily   string
}

// Config holds the full configuration of the dashboard service and the
// extraction job. It is built explicitly from the environment in main, no
// package reads it at import time.
type Config struct {
	Port           string
	Region         string
	S3EndpointURL  string
	RoleARN        string
	Bucket         string
	ExtractPrefix  string
	AthenaDatabase string
	AthenaOutput   string
	DisplayZone    *time.Location
	RollingWindow  int
	ExcludedUsers  []string
	QueryMaxWait   time.Duration
}

// Keys returns the extract keys under the configured prefix.
func (c Config) Keys() ExtractKeys {
	return ExtractKeys{
		Signups: c.ExtractPrefix + "/quest_signups.csv",
		Map:     c.ExtractPrefix + "/map_data.csv",
		Daily:   c.ExtractPrefix + "/signups_daily.csv",
	}
}

// ConfigFromEnv reads the service configuration. Only the bucket is
// mandatory for the dashboard, the extraction job additionally validates
// its Athena settings.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Port:           getEnv("SERVICE_PORT", "8080"),
		Region:         getEnv("REGION", "us-east-2"),
		S3EndpointURL:  os.Getenv("S3_ENDPOINT_URL"),
		RoleARN:        os.Getenv("ROLE_ARN"),
		Bucket:         os.Getenv("BUCKET"),
		ExtractPrefix:  getEnv("EXTRACT_PREFIX", "clean_data_admin_dash"),
		AthenaDatabase: getEnv("ATHENA_DATABASE", "playfab_events"),
		AthenaOutput:   os.Getenv("ATHENA_OUTPUT_LOCATION"),
	}
	if cfg.Bucket == "" {
		return Config{}, fmt.Errorf("env var BUCKET is not provided or empty")
	}

	zoneName := getEnv("DISPLAY_TIMEZONE", "America/New_York")
	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", zoneName, err)
	}
	cfg.DisplayZone = zone

	window, err := strconv.Atoi(getEnv("ROLLING_WINDOW", "7"))
	if err != nil || window < 1 {
		return Config{}, fmt.Errorf("invalid ROLLING_WINDOW %q", os.Getenv("ROLLING_WINDOW"))
	}
	cfg.RollingWindow = window

	if excluded := os.Getenv("EXCLUDED_USER_IDS"); excluded != "" {
		for _, id := range strings.Split(excluded, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.ExcludedUsers = append(cfg.ExcludedUsers, id)
			}
		}
	}

	maxWait, err := time.ParseDuration(getEnv("QUERY_MAX_WAIT", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid QUERY_MAX_WAIT %q: %w", os.Getenv("QUERY_MAX_WAIT"), err)
	}
	cfg.QueryMaxWait = maxWait

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

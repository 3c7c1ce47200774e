package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	UserID                    string        `mapstructure:"user_id"`
	AiModel                   string        `mapstructure:"ai_model"`
	AiMaxRequestsPerMinute    float32       `mapstructure:"ai_max_requests_per_minute"`
	AiMaxRequestsPerDay       float32       `mapstructure:"ai_max_requests_per_day"`
	BoardMaxRequestsPerSecond float32       `mapstructure:"board_max_requests_per_second"`
	SweepSchedule             string        `mapstructure:"sweep_schedule"`
	SweepCacheTTL             time.Duration `mapstructure:"sweep_cache_ttl"`
	InboxScanLimit            int64         `mapstructure:"inbox_scan_limit"`
	MetricsPort               int           `mapstructure:"metrics_port"`
}

func (config AppConfig) validate() error {

	var missingFields []string

	if config.UserID == "" {
		missingFields = append(missingFields, "user_id")
	}

	if config.AiModel == "" {
		missingFields = append(missingFields, "ai_model")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func (config AppConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("app.user_id", "USER_ID"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("app.ai_model", "AI_MODEL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("app.ai_max_requests_per_minute", "AI_MAX_REQUESTS_PER_MINUTE"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("app.ai_max_requests_per_day", "AI_MAX_REQUESTS_PER_DAY"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("app.board_max_requests_per_second", "BOARD_MAX_REQUESTS_PER_SECOND"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("app.sweep_schedule", "SWEEP_SCHEDULE"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("app.inbox_scan_limit", "INBOX_SCAN_LIMIT"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("app.metrics_port", "METRICS_PORT"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}

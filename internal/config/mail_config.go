package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type MailConfig struct {
	Token       string `mapstructure:"token"`
	FromAddress string `mapstructure:"from_address"`
}

func (config MailConfig) validate() error {

	var missingFields []string

	if config.Token == "" {
		missingFields = append(missingFields, "token")
	}

	if config.FromAddress == "" {
		missingFields = append(missingFields, "from_address")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func (config MailConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("mail.token", "GMAIL_TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("mail.from_address", "MAIL_FROM"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// jsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from "zero" so that a partial file only overrides
// what it names.
type jsonConfig struct {
	EndpointAddrHTTP *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      *string         `json:"database_dsn"`
	SigningKey       *string         `json:"signing_key"`
	InternalAPIKey   *string         `json:"internal_api_key"`
	Production       *bool           `json:"production"`
	AllowedOrigins   []string        `json:"allowed_origins"`
	LogLevel         *string         `json:"log_level"`
	MailProvider     *string         `json:"mail_provider"`
	MailFrom         *string         `json:"mail_from"`
	MailFromName     *string         `json:"mail_from_name"`
	SendGridAPIKey   *string         `json:"sendgrid_api_key"`
	SendGridSandbox  *bool           `json:"sendgrid_sandbox"`
	AWSRegion        *string         `json:"aws_region"`
	AWSAccessKeyID   *string         `json:"aws_access_key_id"`
	AWSSecretKey     *string         `json:"aws_secret_access_key"`
	SESEndpoint      *string         `json:"ses_endpoint"`
	CleanupSchedule  *string         `json:"cleanup_schedule"`
	CleanupRetention *timex.Duration `json:"cleanup_retention"`
	ShutdownTimeout  *timex.Duration `json:"shutdown_timeout"`
}

// parseJSON overlays the file named by -c / -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var c jsonConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&cfg.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SigningKey, c.SigningKey)
	setString(&cfg.InternalAPIKey, c.InternalAPIKey)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.MailProvider, c.MailProvider)
	setString(&cfg.MailFrom, c.MailFrom)
	setString(&cfg.MailFromName, c.MailFromName)
	setString(&cfg.SendGridAPIKey, c.SendGridAPIKey)
	setString(&cfg.AWSRegion, c.AWSRegion)
	setString(&cfg.AWSAccessKeyID, c.AWSAccessKeyID)
	setString(&cfg.AWSSecretKey, c.AWSSecretKey)
	setString(&cfg.SESEndpoint, c.SESEndpoint)
	setString(&cfg.CleanupSchedule, c.CleanupSchedule)

	if c.Production != nil {
		cfg.Production = *c.Production
	}
	if c.SendGridSandbox != nil {
		cfg.SendGridSandbox = *c.SendGridSandbox
	}
	if c.AllowedOrigins != nil {
		cfg.AllowedOrigins = c.AllowedOrigins
	}
	if c.CleanupRetention != nil {
		cfg.CleanupRetention = c.CleanupRetention.Duration
	}
	if c.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

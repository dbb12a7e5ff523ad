package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC health bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   access token signing key
//	-k string   internal API key
//	-m string   mail provider: log, sendgrid or ses
//	-l string   log level
//	-prod       production mode (Secure cookies)
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-k", "-m", "-l", "-prod"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrHTTP, "a", cfg.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&cfg.EndpointAddrGRPC, "g", cfg.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SigningKey, "s", cfg.SigningKey, "access token signing key")
	fs.StringVar(&cfg.InternalAPIKey, "k", cfg.InternalAPIKey, "internal API key")
	fs.StringVar(&cfg.MailProvider, "m", cfg.MailProvider, "mail provider (log, sendgrid, ses)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Production, "prod", cfg.Production, "production mode")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

// Package config loads the report job configuration from the environment
// and, optionally, a TOML file.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultOutputPath is where the rendered report is written each run.
// The file is overwritten; no history is kept.
const DefaultOutputPath = "vda_status_report.txt"

// Tenant holds one tenant's API credentials and identity.
type Tenant struct {
	CustomerID   string `toml:"customer_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	DisplayName  string `toml:"display_name"`
	SiteID       string `toml:"site_id"`
}

// SMTP holds outgoing mail settings.
type SMTP struct {
	Server   string `toml:"server"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	UseTLS   bool   `toml:"use_tls"`
}

// Report holds report rendering and output settings.
type Report struct {
	OutputPath    string `toml:"output_path"`
	IncludeFailed bool   `toml:"include_failed"`
}

// Config is the full job configuration.
type Config struct {
	Tenants    []Tenant `toml:"tenant"`
	SMTP       SMTP     `toml:"smtp"`
	Recipients []string `toml:"recipients"`
	Report     Report   `toml:"report"`
}

// Default returns a configuration with defaults applied.
func Default() *Config {
	return &Config{
		Report: Report{OutputPath: DefaultOutputPath},
	}
}

// Load builds the configuration from the optional TOML file at path, then
// overlays environment values read through lookup. Environment values win
// field by field; environment-declared tenants append after file tenants.
func Load(path string, lookup func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if cfg.Report.OutputPath == "" {
			cfg.Report.OutputPath = DefaultOutputPath
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv builds the configuration from environment values alone.
func FromEnv(lookup func(string) string) (*Config, error) {
	return Load("", lookup)
}

// applyEnv overlays environment-provided settings onto the configuration.
func (c *Config) applyEnv(lookup func(string) string) error {
	c.Tenants = append(c.Tenants, tenantsFromEnv(lookup)...)

	if v := lookup("SMTP_SERVER"); v != "" {
		c.SMTP.Server = v
	}
	if v := lookup("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT must be an integer, got %q", v)
		}
		c.SMTP.Port = port
	}
	if v := lookup("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := lookup("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := lookup("USE_TLS"); v != "" {
		c.SMTP.UseTLS = strings.EqualFold(v, "true")
	}
	if v := lookup("EMAIL_RECIPIENTS"); v != "" {
		c.Recipients = splitRecipients(v)
	}
	if v := lookup("REPORT_INCLUDE_FAILED"); v != "" {
		c.Report.IncludeFailed = strings.EqualFold(v, "true")
	}

	return nil
}

// tenantsFromEnv scans indexed tenant records starting at suffix 1. A missing
// or empty CUSTOMER_ID_{i} ends the scan; gaps in the numbering are not
// supported. The remaining fields are read without presence validation --
// a missing credential surfaces later as an authorization failure.
func tenantsFromEnv(lookup func(string) string) []Tenant {
	var tenants []Tenant

	for i := 1; ; i++ {
		customerID := lookup(fmt.Sprintf("CUSTOMER_ID_%d", i))
		if customerID == "" {
			return tenants
		}

		tenants = append(tenants, Tenant{
			CustomerID:   customerID,
			ClientID:     lookup(fmt.Sprintf("CLIENT_ID_%d", i)),
			ClientSecret: lookup(fmt.Sprintf("CLIENT_SECRET_%d", i)),
			DisplayName:  lookup(fmt.Sprintf("CUSTOMER_NAME_%d", i)),
			SiteID:       lookup(fmt.Sprintf("SITE_ID_%d", i)),
		})
	}
}

// splitRecipients splits a comma-separated recipient list, trimming
// whitespace and dropping empty entries.
func splitRecipients(s string) []string {
	var recipients []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

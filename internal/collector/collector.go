// Package collector orchestrates the per-tenant VDA status collection run.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsline/vda-status-report/internal/citrix"
	"github.com/opsline/vda-status-report/internal/config"
	"github.com/opsline/vda-status-report/internal/mail"
	"github.com/opsline/vda-status-report/internal/report"
)

// Collector runs the collection loop and publishes the resulting report.
type Collector struct {
	client citrix.CloudClient
	sender mail.Sender
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
	dryRun bool
}

// Options controls run behavior.
type Options struct {
	// DryRun builds and writes the report but skips sending email.
	DryRun bool
}

// New creates a Collector against the public Citrix Cloud endpoint and the
// configured SMTP server.
func New(cfg *config.Config, logger *slog.Logger, opts Options) *Collector {
	sender := mail.New(mail.Config{
		Host:     cfg.SMTP.Server,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		UseTLS:   cfg.SMTP.UseTLS,
	})
	return NewWithClient(cfg, citrix.NewClient(logger), sender, logger, opts)
}

// NewWithClient creates a Collector with custom client and sender (for testing).
func NewWithClient(cfg *config.Config, client citrix.CloudClient, sender mail.Sender, logger *slog.Logger, opts Options) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		client: client,
		sender: sender,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		dryRun: opts.DryRun,
	}
}

// Run collects machine status for every configured tenant, then builds,
// writes, and emails the report once. A tenant whose token exchange or
// status fetch fails is logged and carried as unavailable; it does not stop
// the run. Failures writing or sending the report fail the run as a whole.
// The rendered report text is returned.
func (c *Collector) Run(ctx context.Context) (string, error) {
	c.logger.Info("running VDA status collection", "tenants", len(c.cfg.Tenants))

	results := make([]report.TenantResult, 0, len(c.cfg.Tenants))
	for _, tenant := range c.cfg.Tenants {
		results = append(results, c.collectTenant(ctx, tenant))
	}

	text := report.Build(results, report.Options{IncludeFailed: c.cfg.Report.IncludeFailed}, c.now())

	if err := report.Write(c.cfg.Report.OutputPath, text); err != nil {
		return "", err
	}
	c.logger.Info("report saved", "path", c.cfg.Report.OutputPath)

	if c.dryRun {
		c.logger.Info("dry run, skipping email")
		return text, nil
	}

	if err := c.sender.Send(report.Title, text, c.cfg.Recipients); err != nil {
		return "", fmt.Errorf("failed to send report: %w", err)
	}
	c.logger.Info("report emailed", "recipients", len(c.cfg.Recipients))

	return text, nil
}

// collectTenant runs the token exchange and machine fetch for one tenant.
func (c *Collector) collectTenant(ctx context.Context, tenant config.Tenant) report.TenantResult {
	result := report.TenantResult{
		CustomerID:  tenant.CustomerID,
		DisplayName: tenant.DisplayName,
	}

	token, err := c.client.AcquireToken(ctx, tenant.CustomerID, tenant.ClientID, tenant.ClientSecret)
	if err != nil {
		c.logger.Error("failed to get token", "customer_id", tenant.CustomerID, "error", err)
		result.Unavailable = true
		return result
	}

	machines, err := c.client.FetchMachines(ctx, token, tenant.CustomerID, tenant.SiteID)
	if err != nil {
		c.logger.Error("failed to get VDA status", "customer_id", tenant.CustomerID, "error", err)
		result.Unavailable = true
		return result
	}

	c.logger.Debug("collected machines", "customer_id", tenant.CustomerID, "count", len(machines))
	result.Machines = machines
	return result
}

// Package report renders VDA status data into the plain-text report document.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsline/vda-status-report/internal/citrix"
)

// Title is the first line of every report and the subject of the report mail.
const Title = "VDA Status Report"

// UnknownName is used when a tenant has no display name or a machine has no
// catalog name.
const UnknownName = "Unknown"

// dateLayout is the report-date stamp format (DD/MM/YYYY).
const dateLayout = "02/01/2006"

// TenantResult is one tenant's collection outcome. Results are kept as an
// ordered slice so report sections follow processing order, never map order.
type TenantResult struct {
	CustomerID  string
	DisplayName string
	Machines    []citrix.Machine

	// Unavailable marks a tenant whose token exchange or status fetch
	// failed. Such tenants are omitted from the report unless
	// Options.IncludeFailed is set.
	Unavailable bool
}

// CatalogSummary holds the per-catalog machine counters.
type CatalogSummary struct {
	Name          string
	Total         int
	Registered    int
	Unregistered  int
	InMaintenance int
}

// Options controls report rendering.
type Options struct {
	// IncludeFailed renders an explicit "data unavailable" section for
	// tenants whose collection failed instead of omitting them.
	IncludeFailed bool
}

// Build renders the report document. It is a pure function of its inputs;
// the report-date stamp comes from the caller-supplied now.
func Build(results []TenantResult, opts Options, now time.Time) string {
	var b strings.Builder

	b.WriteString(Title + "\n")
	fmt.Fprintf(&b, "Report completed: %s\n\n", now.Format(dateLayout))

	for _, result := range results {
		if result.Unavailable && !opts.IncludeFailed {
			continue
		}

		name := result.DisplayName
		if name == "" {
			name = UnknownName
		}
		fmt.Fprintf(&b, "Customer Name: %s\n", name)

		if result.Unavailable {
			b.WriteString("  Machine data unavailable\n\n")
			continue
		}

		for _, catalog := range Summarize(result.Machines) {
			fmt.Fprintf(&b, "  Machine Catalog: %s\n", catalog.Name)
			fmt.Fprintf(&b, "    Total Machines: %d\n", catalog.Total)
			fmt.Fprintf(&b, "    Registered: %d\n", catalog.Registered)
			fmt.Fprintf(&b, "    Unregistered: %d\n", catalog.Unregistered)
			fmt.Fprintf(&b, "    In Maintenance Mode: %d\n", catalog.InMaintenance)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Summarize groups machines by catalog name in first-seen order and computes
// the per-catalog counters. Unregistered is always Total minus Registered.
func Summarize(machines []citrix.Machine) []CatalogSummary {
	var summaries []CatalogSummary
	index := make(map[string]int)

	for _, machine := range machines {
		name := machine.MachineCatalog.Name
		if name == "" {
			name = UnknownName
		}

		i, seen := index[name]
		if !seen {
			i = len(summaries)
			index[name] = i
			summaries = append(summaries, CatalogSummary{Name: name})
		}

		s := &summaries[i]
		s.Total++
		if machine.Registered() {
			s.Registered++
		}
		if machine.InMaintenanceMode {
			s.InMaintenance++
		}
	}

	for i := range summaries {
		summaries[i].Unregistered = summaries[i].Total - summaries[i].Registered
	}

	return summaries
}

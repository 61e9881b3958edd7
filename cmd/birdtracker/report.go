package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/birdtracker/birdtracker/pkg/core"
)

func renderCounts(c core.Counts, colorize bool) string {
	return renderTable(
		[]string{"Drawn", "Raw PNG", "Full WebP", "Thumbnail"},
		[][]string{{
			strconv.Itoa(c.Drawn),
			strconv.Itoa(c.Raw),
			strconv.Itoa(c.Full),
			strconv.Itoa(c.Thumb),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
		colorize,
	)
}

// renderIntegrity lists every non-empty section of the report, or a single
// success line.
func renderIntegrity(r core.IntegrityReport, colorize bool) string {
	if r.Passed() {
		return "Integrity check passed: catalog and assets are in sync."
	}

	var rows [][]string
	for _, s := range r.Sections() {
		if len(s.IDs) == 0 {
			continue
		}
		rows = append(rows, []string{s.Label, strconv.Itoa(len(s.IDs)), strings.Join(s.IDs, ", ")})
	}
	return fmt.Sprintf("Integrity check found %d issue(s):\n%s",
		r.IssueCount(),
		renderTable([]string{"Problem", "Count", "IDs"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}, colorize),
	)
}

func renderBuild(result *core.BuildResult, colorize bool) string {
	var b strings.Builder

	if len(result.Processed) == 0 {
		b.WriteString("No new illustrations.\n")
	} else {
		rows := make([][]string, 0, len(result.Processed))
		for _, p := range result.Processed {
			rows = append(rows, []string{p.BaseName, p.Name, p.Filename})
		}
		fmt.Fprintf(&b, "Added %d illustration(s):\n", len(result.Processed))
		b.WriteString(renderTable([]string{"ID", "Name", "Source"}, rows, nil, colorize))
		b.WriteString("\n")
	}

	if len(result.Skipped) > 0 {
		rows := make([][]string, 0, len(result.Skipped))
		for _, s := range result.Skipped {
			rows = append(rows, []string{s.Filename, s.Reason})
		}
		fmt.Fprintf(&b, "Skipped %d image(s):\n", len(result.Skipped))
		b.WriteString(renderTable([]string{"File", "Reason"}, rows, nil, colorize))
		b.WriteString("\n")
	}

	if len(result.Unlisted) > 0 {
		fmt.Fprintf(&b, "Not in catalog: %s\n", strings.Join(result.Unlisted, ", "))
	}

	if len(result.Repaired)+len(result.RepairFailures) > 0 {
		rows := make([][]string, 0, len(result.Repaired)+len(result.RepairFailures))
		for _, r := range result.Repaired {
			rows = append(rows, []string{r.ID, r.Asset, "rebuilt"})
		}
		for _, r := range result.RepairFailures {
			rows = append(rows, []string{r.ID, r.Asset, "failed: " + r.Reason})
		}
		b.WriteString("Repairs:\n")
		b.WriteString(renderTable([]string{"ID", "Asset", "Result"}, rows, nil, colorize))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Version %s\n", result.Version)
	b.WriteString(renderCounts(result.Counts, colorize))
	b.WriteString("\n")
	b.WriteString(renderIntegrity(result.Integrity, colorize))
	b.WriteString("\n")
	return b.String()
}

func renderCheck(result *core.CheckResult, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Version %s\n", result.Version)
	b.WriteString(renderCounts(result.Counts, colorize))
	b.WriteString("\n")
	b.WriteString(renderIntegrity(result.Integrity, colorize))
	b.WriteString("\n")
	if !result.Counts.Balanced() {
		b.WriteString("Asset counts differ.\n")
	}
	return b.String()
}

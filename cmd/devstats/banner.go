package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/devstats/internal/pipeline"
	"github.com/pders01/devstats/internal/storage"
)

var (
	accentColor = lipgloss.Color("#4ECDC4")
	labelColor  = lipgloss.Color("#95E1D3")
	warnColor   = lipgloss.Color("#FF6B6B")
)

func showBanner() {
	lines := []string{
		"‚Ėą‚Ėą‚Ėą‚Ėą‚ĖĄ  ‚Ėą‚Ėą‚Ėą‚Ėą‚Ėą ‚Ėą    ‚Ėą ‚Ėą‚Ėą‚Ėą‚Ėą‚Ėą ‚Ėą‚Ėą‚Ėą‚Ėą‚Ėą ‚ĖĄ‚Ėą‚Ėą‚Ėą‚ĖĄ ‚Ėą‚Ėą‚Ėą‚Ėą‚Ėą ‚ĖĄ‚Ėą‚Ėą‚Ėą‚ĖĄ",
		"‚Ėą   ‚Ėą ‚Ėą‚ĖĄ‚ĖĄ    ‚Ėą  ‚Ėą    ‚Ėą     ‚Ėą   ‚Ėą‚ĖĄ‚ĖĄ‚ĖĄ‚Ėą   ‚Ėą   ‚Ėą‚ĖĄ‚ĖĄ‚ĖĄ",
		"‚Ėą   ‚Ėą ‚Ėą‚ĖÄ‚ĖÄ     ‚Ėą‚Ėą     ‚ĖÄ‚ĖÄ‚Ėą‚ĖĄ   ‚Ėą   ‚Ėą   ‚Ėą   ‚Ėą   ‚ĖÄ‚ĖÄ‚Ėą‚ĖĄ",
		"‚Ėą‚Ėą‚Ėą‚Ėą‚ĖÄ  ‚Ėą‚Ėą‚Ėą‚Ėą‚Ėą   ‚Ėą   ‚ĖĄ ‚Ėą‚Ėą‚Ėą‚Ėą‚ĖÄ   ‚Ėą   ‚Ėą   ‚Ėą   ‚Ėą   ‚ĖÄ‚Ėą‚Ėą‚Ėą‚ĖÄ",
		"",
		"dev.to analytics collector",
	}

	var colored []string
	for i, line := range lines {
		if line == "" {
			colored = append(colored, line)
			continue
		}
		color := accentColor
		if i >= 5 {
			color = labelColor
		}
		colored = append(colored, lipgloss.NewStyle().
			Foreground(color).
			Bold(i < 4).
			Render(line))
	}

	banner := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(lipgloss.Center, colored...))

	fmt.Println(banner)
}

func printSummary(sum *pipeline.Summary) {
	label := lipgloss.NewStyle().Foreground(labelColor)
	value := lipgloss.NewStyle().Foreground(accentColor).Bold(true)

	parts := []string{
		fmt.Sprintf("%s %s", label.Render("articles:"), value.Render(fmt.Sprint(sum.Articles))),
		fmt.Sprintf("%s %s", label.Render("updated:"), value.Render(fmt.Sprint(sum.Updated))),
		fmt.Sprintf("%s %s", label.Render("skipped:"), value.Render(fmt.Sprint(sum.Skipped))),
	}
	if sum.Failed > 0 {
		failed := lipgloss.NewStyle().Foreground(warnColor).Bold(true)
		parts = append(parts, fmt.Sprintf("%s %s",
			label.Render("failed:"), failed.Render(fmt.Sprint(sum.Failed))))
	}

	fmt.Printf("%s done: %s\n", sum.Mode, strings.Join(parts, "  "))
}

func printRuns(runs []*storage.RunRecord) {
	mode := lipgloss.NewStyle().Foreground(accentColor).Bold(true).Width(14)
	dim := lipgloss.NewStyle().Foreground(labelColor)

	for _, run := range runs {
		counts := fmt.Sprintf("articles=%d updated=%d skipped=%d failed=%d",
			run.Articles, run.Updated, run.Skipped, run.Failed)
		fmt.Printf("%s %s  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			mode.Render(run.Mode),
			dim.Render(counts))
	}
}

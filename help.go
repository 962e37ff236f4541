package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/symfony-cli/console"
)

const panelWidth = 70

// bannerRamp colors the banner lines from top to bottom.
var bannerRamp = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
}

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(panelWidth)
	centerStyle  = lipgloss.NewStyle().Width(panelWidth - 4).Align(lipgloss.Center)
	versionStyle = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// printHelp renders the top-level overview panel: the banner, the purpose
// line, and a table of the available commands.
func printHelp(w io.Writer, usage string, cmds []*console.Command) {
	sections := []string{
		banner(),
		"",
		centerStyle.Render(usage),
		"",
		commandTable(cmds),
	}
	fmt.Fprintln(w, panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...)))
}

func banner() string {
	art := figure.NewFigure("dsv-scripts", "standard", true)
	lines := strings.Split(strings.TrimRight(art.String(), "\n"), "\n")

	colored := make([]string, 0, len(lines))
	for i, line := range lines {
		style := bannerRamp[i*len(bannerRamp)/len(lines)]
		colored = append(colored, style.Render(line))
	}
	colored[len(colored)-1] += versionStyle.Render(fmt.Sprintf("  v%s", version))
	return lipgloss.JoinVertical(lipgloss.Left, colored...)
}

func commandTable(cmds []*console.Command) string {
	width := len("Command")
	for _, cmd := range cmds {
		if len(cmd.Name) > width {
			width = len(cmd.Name)
		}
	}

	rows := make([]string, 0, len(cmds)+1)
	rows = append(rows, headerStyle.Render(fmt.Sprintf("%-*s  %s", width, "Command", "Description")))
	for _, cmd := range cmds {
		rows = append(rows, commandStyle.Render(fmt.Sprintf("%-*s", width, cmd.Name))+"  "+cmd.Usage)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/typedsql/migrate"
)

var (
	// Out and Err receive all CLI output.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr

	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func PrintError(format string, args ...any) {
	fmt.Fprintln(Err, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(Out, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...any) {
	fmt.Fprintln(Out, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// PrintSection prints a section header
func PrintSection(title string) {
	section := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(SecondaryColor).
		Render(TitleStyle.Render(title))
	fmt.Fprintln(Out, section)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(Out, "  • %s\n", item)
	}
}

// PrintTable prints a table using pterm
func PrintTable(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(Out).WithData(data).Render()
}

// PrintMarkdown renders markdown content
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Fprint(Out, out)
	return nil
}

var stateColors = map[migrate.State]*color.Color{
	migrate.StateApplied: color.New(color.FgGreen, color.Bold),
	migrate.StatePending: color.New(color.FgYellow),
	migrate.StateSkipped: color.New(color.FgMagenta, color.Bold),
	migrate.StateMissing: color.New(color.FgRed, color.Bold),
}

// StateWord colors a migration state for tables.
func StateWord(s migrate.State) string {
	if c, ok := stateColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

// PrintStatus prints the migration status table.
func PrintStatus(entries []migrate.Entry) error {
	if len(entries) == 0 {
		PrintInfo("No migrations found")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		runOn := ""
		if !e.RunOn.IsZero() {
			runOn = e.RunOn.Local().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{e.Version, e.Name, StateWord(e.State), runOn})
	}
	return PrintTable([]string{"Version", "Name", "State", "Run on"}, rows)
}

// MigrationMarkdown describes a migration and its scripts.
func MigrationMarkdown(m *migrate.Migration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.String())
	if m.NoTransaction {
		b.WriteString("_Runs outside a transaction._\n\n")
	}
	for _, part := range []struct{ title, sql string }{{"Up", m.Up}, {"Down", m.Down}} {
		fmt.Fprintf(&b, "## %s\n\n", part.title)
		if strings.TrimSpace(part.sql) == "" {
			b.WriteString("_empty_\n\n")
			continue
		}
		fmt.Fprintf(&b, "```sql\n%s\n```\n\n", strings.TrimSpace(part.sql))
	}
	return b.String()
}

// Confirm asks a yes/no question. assumeYes skips the prompt.
func Confirm(message string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	ok := false
	if err := survey.AskOne(&survey.Confirm{Message: message}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tradevault/pkg/utils"
)

// ANSI escapes used by the CLI.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

var ansiCodes = []string{ColorReset, ColorRed, ColorGreen, ColorYellow, ColorCyan, ColorBold, ColorDim}

// Output writes human or JSON results of a command.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates an Output for cmd honouring --json. Colors are used
// only when stdout is a terminal.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && stdoutIsTerminal(),
	}
}

func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// IsJSON reports whether --json was given.
func (o *Output) IsJSON() bool { return o.jsonMode }

// JSON writes data as indented JSON.
func (o *Output) JSON(data interface{}) error {
	enc := json.NewEncoder(o.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (o *Output) Println(args ...interface{}) { fmt.Fprintln(o.writer, args...) }

func (o *Output) Printf(format string, args ...interface{}) { fmt.Fprintf(o.writer, format, args...) }

// line writes one formatted message wrapped in color.
func (o *Output) line(color, format string, args []interface{}) {
	fmt.Fprintln(o.writer, o.ColoredString(color, fmt.Sprintf(format, args...)))
}

func (o *Output) Success(format string, args ...interface{}) { o.line(ColorGreen, format, args) }
func (o *Output) Warning(format string, args ...interface{}) { o.line(ColorYellow, format, args) }
func (o *Output) Info(format string, args ...interface{})    { o.line(ColorCyan, format, args) }
func (o *Output) Bold(format string, args ...interface{})    { o.line(ColorBold, format, args) }
func (o *Output) Dim(format string, args ...interface{})     { o.line(ColorDim, format, args) }

// ColoredString wraps text in color when colors are enabled.
func (o *Output) ColoredString(color, text string) string {
	if !o.colorEnabled || text == "" {
		return text
	}
	return color + text + ColorReset
}

// signColor is green for gains, red for losses and plain for flat.
func signColor(v float64) string {
	switch {
	case v > 0:
		return ColorGreen
	case v < 0:
		return ColorRed
	}
	return ColorReset
}

// PnL renders a signed money result.
func (o *Output) PnL(pnl float64, currency string) string {
	return o.ColoredString(signColor(pnl), utils.FormatPnL(pnl, currency))
}

// R renders a signed R multiple.
func (o *Output) R(r float64) string {
	return o.ColoredString(signColor(r), utils.FormatR(r))
}

// KV prints an indented "label: value" detail line.
func (o *Output) KV(label string, value interface{}) {
	o.Printf("  %-18s %v\n", label+":", value)
}

// Table collects rows and renders them with columns sized to the widest
// visible cell.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a table with the given column headers.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{headers: headers, output: output}
}

// AddRow appends a row; extra cells beyond the headers are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the header, a rule and every row.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for _, row := range append([][]string{t.headers}, t.rows...) {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], visibleLen(row[i]))
		}
	}

	header := make([]string, len(t.headers))
	rule := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = t.output.ColoredString(ColorBold, h)
		rule[i] = strings.Repeat("─", widths[i])
	}

	t.writeRow(header, widths)
	t.output.Println(t.output.ColoredString(ColorDim, strings.Join(rule, "──")))
	for _, row := range t.rows {
		t.writeRow(row, widths)
	}
}

func (t *Table) writeRow(cells []string, widths []int) {
	var b strings.Builder
	for i := 0; i < len(cells) && i < len(widths); i++ {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(cells[i])
		b.WriteString(strings.Repeat(" ", widths[i]-visibleLen(cells[i])))
	}
	t.output.Println(strings.TrimRight(b.String(), " "))
}

// visibleLen is the display width of s without ANSI escapes.
func visibleLen(s string) int {
	return len([]rune(stripANSI(s)))
}

func stripANSI(s string) string {
	for _, code := range ansiCodes {
		s = strings.ReplaceAll(s, code, "")
	}
	return s
}

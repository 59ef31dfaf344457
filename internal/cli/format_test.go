package cli

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"tradevault/internal/models"
	"tradevault/pkg/utils"
)

func TestParseTriState(t *testing.T) {
	tests := []struct {
		in      string
		want    models.TriState
		wantErr bool
	}{
		{"", models.TriUnknown, false},
		{"yes", models.TriYes, false},
		{"Y", models.TriYes, false},
		{"true", models.TriYes, false},
		{"no", models.TriNo, false},
		{"false", models.TriNo, false},
		{"maybe", models.TriUnknown, true},
	}
	for _, tt := range tests {
		got, err := ParseTriState(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("$1,250.50")
	assert.NoError(t, err)
	assert.Equal(t, 1250.5, v)

	_, err = parseAmount("ten")
	assert.Error(t, err)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1.08500", FormatPrice(1.085))
	assert.Equal(t, "2350.00", FormatPrice(2350))
	assert.Equal(t, "-", FormatOptPrice(nil))
	assert.Equal(t, "1:3.00", FormatRiskReward(3))
	assert.Equal(t, "OB, FVG", FormatList([]string{"OB", "FVG"}))
	assert.Equal(t, "-", FormatDate(models.Date{}, ""))
	assert.Equal(t, "13 Jan 2025", FormatDate(models.NewDate(2025, 1, 13), "02 Jan 2006"))
	assert.Equal(t, "abcd...", TruncateString("abcdefghij", 7))
}

func TestTableRenderAlignsColoredCells(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{writer: &buf, colorEnabled: true}

	table := NewTable(out, "A", "B")
	table.AddRow(out.ColoredString(ColorGreen, "+1.00R"), "x")
	table.AddRow("-", "y")
	table.Render()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 4)
	assert.Equal(t, visibleLen(string(lines[2])), visibleLen(string(lines[3])))
}

// Property: colored P&L strips back to the plain formatted value.
func TestPnLColoringProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	out := &Output{colorEnabled: true}

	properties.Property("stripANSI(PnL) equals FormatPnL", prop.ForAll(
		func(pnl float64) bool {
			return stripANSI(out.PnL(pnl, "USD")) == utils.FormatPnL(pnl, "USD")
		},
		gen.Float64Range(-1e7, 1e7),
	))

	properties.Property("visible width ignores color codes", prop.ForAll(
		func(s string) bool {
			return visibleLen(out.ColoredString(ColorRed, s)) == len([]rune(s))
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

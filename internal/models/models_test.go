package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriStateJSON(t *testing.T) {
	type flags struct {
		A TriState `json:"a"`
		B TriState `json:"b"`
		C TriState `json:"c"`
	}

	out, err := json.Marshal(flags{A: TriYes, B: TriNo})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":true,"b":false,"c":null}`, string(out))

	var in flags
	require.NoError(t, json.Unmarshal([]byte(`{"a":false,"b":null,"c":true}`), &in))
	assert.Equal(t, flags{A: TriNo, B: TriUnknown, C: TriYes}, in)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"yes"}`), &in))
}

func TestTriStateSQL(t *testing.T) {
	v, err := TriNo.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	v, _ = TriUnknown.Value()
	assert.Nil(t, v)

	var ts TriState
	require.NoError(t, ts.Scan(int64(1)))
	assert.Equal(t, TriYes, ts)
	require.NoError(t, ts.Scan(nil))
	assert.Equal(t, TriUnknown, ts)
	assert.Error(t, ts.Scan("maybe"))
}

func TestDate(t *testing.T) {
	d, err := ParseDate(" 2025-01-15 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, 1, 15), d)
	assert.Equal(t, "2025-01-15", d.String())

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-15"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)
	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.True(t, back.IsZero())

	_, err = ParseDate("15/01/2025")
	assert.Error(t, err)

	var scanned Date
	require.NoError(t, scanned.Scan("2024-12-31"))
	assert.True(t, scanned.Before(d))
}

func TestTradeEligibility(t *testing.T) {
	tr := Trade{Status: StatusClosed, ExitPrice: Float(1.1)}
	assert.True(t, tr.IsEligible())

	tr.ExitPrice = Float(0)
	assert.False(t, tr.IsEligible())

	tr.ExitPrice = nil
	assert.False(t, tr.IsEligible())
	assert.Equal(t, 0.0, tr.Exit())

	tr = Trade{Status: StatusOpen, ExitPrice: Float(1.1), KeyLevels: []string{"OB", "FVG"}}
	assert.False(t, tr.IsEligible())
	assert.True(t, tr.HasKeyLevel("FVG"))
	assert.False(t, tr.HasKeyLevel("BB"))
}

// Package models provides domain models for the trading journal.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Direction represents the side of a trade.
type Direction string

const (
	DirectionBuy  Direction = "Buy"
	DirectionSell Direction = "Sell"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// Status represents the lifecycle state of a trade.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Location classifies a price inside a dealing range.
type Location string

const (
	LocationNone     Location = ""
	LocationPremium  Location = "Premium"
	LocationDiscount Location = "Discount"
	LocationEQ       Location = "EQ"
)

// TxType represents the kind of a ledger transaction.
type TxType string

const (
	TxDeposit    TxType = "deposit"
	TxWithdrawal TxType = "withdrawal"
)

// TriState is a yes/no flag that may also be unanswered.
type TriState int8

const (
	TriUnknown TriState = iota
	TriYes
	TriNo
)

// TriStateOf converts an optional bool.
func TriStateOf(b *bool) TriState {
	if b == nil {
		return TriUnknown
	}
	if *b {
		return TriYes
	}
	return TriNo
}

// Bool returns the flag as an optional bool.
func (t TriState) Bool() *bool {
	switch t {
	case TriYes:
		v := true
		return &v
	case TriNo:
		v := false
		return &v
	}
	return nil
}

func (t TriState) String() string {
	switch t {
	case TriYes:
		return "yes"
	case TriNo:
		return "no"
	}
	return "-"
}

// MarshalJSON encodes the flag as true, false or null.
func (t TriState) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Bool())
}

// UnmarshalJSON accepts true, false or null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("tri-state flag: %w", err)
	}
	*t = TriStateOf(b)
	return nil
}

// Value stores the flag as 1, 0 or NULL.
func (t TriState) Value() (driver.Value, error) {
	switch t {
	case TriYes:
		return int64(1), nil
	case TriNo:
		return int64(0), nil
	}
	return nil, nil
}

// Scan reads 1, 0 or NULL.
func (t *TriState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TriUnknown
	case int64:
		if v != 0 {
			*t = TriYes
		} else {
			*t = TriNo
		}
	case bool:
		*t = TriStateOf(&v)
	default:
		return fmt.Errorf("cannot scan %T into TriState", src)
	}
	return nil
}

// DateLayout is the storage and wire layout of a calendar date.
const DateLayout = "2006-01-02"

// Date is a plain calendar date without time-of-day or zone.
type Date struct {
	t time.Time
}

// NewDate builds a date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a yyyy-mm-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.t.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = DateOf(v)
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

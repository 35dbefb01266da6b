package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VinylState grades the physical condition of a record or its sleeve.
type VinylState string

const (
	Mint         VinylState = "mint"
	NearMint     VinylState = "near_mint"
	VeryGoodPlus VinylState = "very_good_plus"
	VeryGood     VinylState = "very_good"
	GoodPlus     VinylState = "good_plus"
	Good         VinylState = "good"
	Fair         VinylState = "fair"
	Poor         VinylState = "poor"
	NotDefined   VinylState = "not_defined"
)

// VinylStates lists every grade from best to worst, then [NotDefined].
var VinylStates = []VinylState{Mint, NearMint, VeryGoodPlus, VeryGood, GoodPlus, Good, Fair, Poor, NotDefined}

var vinylLabels = map[VinylState]string{
	Mint:         "Mint",
	NearMint:     "Near Mint",
	VeryGoodPlus: "Very Good Plus",
	VeryGood:     "Very Good",
	GoodPlus:     "Good Plus",
	Good:         "Good",
	Fair:         "Fair",
	Poor:         "Poor",
	NotDefined:   "Not Defined",
}

// Label returns the display name of the grade.
func (v VinylState) Label() string {
	if l, ok := vinylLabels[v]; ok {
		return l
	}
	return string(v)
}

// ParseVinylState accepts either the wire value ("near_mint"), the label ("Near Mint") or a
// trailing plus ("Very Good+").
func ParseVinylState(s string) (VinylState, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.TrimSpace(strings.ReplaceAll(norm, "+", " plus"))
	norm = strings.Join(strings.Fields(norm), " ")
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	for _, v := range VinylStates {
		if string(v) == norm {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vinyl state %q", s)
}

// YearMonth is an acquisition date with month precision, exchanged as "YYYY-MM".
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses exactly "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	if len(s) != 7 || s[4] != '-' {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: want YYYY-MM", s)
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year in %q", s)
	}
	m, err := strconv.Atoi(s[5:])
	if err != nil || m < 1 || m > 12 {
		return YearMonth{}, fmt.Errorf("invalid month in %q", s)
	}
	return YearMonth{Year: y, Month: time.Month(m)}, nil
}

// YearMonthOf truncates t to its month.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// IsZero reports whether the value is unset.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// Time returns the first instant of the month in UTC.
func (ym YearMonth) Time() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MarshalText implements [encoding.TextMarshaler].
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (ym *YearMonth) UnmarshalText(text []byte) error {
	v, err := ParseYearMonth(string(text))
	if err != nil {
		return err
	}
	*ym = v
	return nil
}

// Condition is the owner-editable metadata of an album in a collection.
type Condition struct {
	Record   *VinylState `json:"state_record,omitempty"`
	Cover    *VinylState `json:"state_cover,omitempty"`
	Acquired *YearMonth  `json:"acquisition_month_year,omitempty"`
}

// ConditionUpdate is a partial condition change. Nil fields are left as they are;
// Clear* flags send an explicit null.
type ConditionUpdate struct {
	Record        *VinylState
	Cover         *VinylState
	Acquired      *YearMonth
	ClearAcquired bool
}

// IsEmpty reports whether the update changes nothing.
func (u ConditionUpdate) IsEmpty() bool {
	return u.Record == nil && u.Cover == nil && u.Acquired == nil && !u.ClearAcquired
}

// MarshalJSON emits only the fields being changed.
func (u ConditionUpdate) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if u.Record != nil {
		body["state_record"] = *u.Record
	}
	if u.Cover != nil {
		body["state_cover"] = *u.Cover
	}
	switch {
	case u.Acquired != nil:
		body["acquisition_month_year"] = u.Acquired.String()
	case u.ClearAcquired:
		body["acquisition_month_year"] = nil
	}
	return json.Marshal(body)
}

// UnmarshalJSON reads a partial update, treating an explicit null acquisition as a clear.
func (u *ConditionUpdate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = ConditionUpdate{}
	for key, val := range raw {
		switch key {
		case "state_record", "state_cover":
			if string(val) == "null" {
				continue
			}
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				return err
			}
			v, err := ParseVinylState(s)
			if err != nil {
				return err
			}
			if key == "state_record" {
				u.Record = &v
			} else {
				u.Cover = &v
			}
		case "acquisition_month_year":
			if string(val) == "null" {
				u.ClearAcquired = true
				continue
			}
			var ym YearMonth
			if err := json.Unmarshal(val, &ym); err != nil {
				return err
			}
			u.Acquired = &ym
		}
	}
	return nil
}

// Apply returns c with the update merged in.
func (c Condition) Apply(u ConditionUpdate) Condition {
	if u.Record != nil {
		v := *u.Record
		c.Record = &v
	}
	if u.Cover != nil {
		v := *u.Cover
		c.Cover = &v
	}
	if u.Acquired != nil {
		v := *u.Acquired
		c.Acquired = &v
	} else if u.ClearAcquired {
		c.Acquired = nil
	}
	return c
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ChoiceOrder maps displayed positions to original slots: ChoiceOrder[i] is the
// original slot shown at position i. "B,A,D,C" shows slot B first.
type ChoiceOrder [4]ChoiceLabel

// IdentityOrder shows every choice in its original slot.
var IdentityOrder = ChoiceOrder{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// ParseChoiceOrder parses the stored comma-joined form.
func ParseChoiceOrder(s string) (ChoiceOrder, error) {
	var order ChoiceOrder
	parts := strings.Split(s, ",")
	if len(parts) != len(order) {
		return order, fmt.Errorf("choice order %q must list exactly %d labels", s, len(order))
	}
	for i, part := range parts {
		label, ok := ParseChoiceLabel(part)
		if !ok {
			return order, fmt.Errorf("choice order %q contains invalid label %q", s, part)
		}
		order[i] = label
	}
	if !order.Valid() {
		return order, fmt.Errorf("choice order %q is not a permutation of A,B,C,D", s)
	}
	return order, nil
}

// Valid reports whether the order is a permutation of exactly A, B, C and D.
func (o ChoiceOrder) Valid() bool {
	var seen [4]bool
	for _, label := range o {
		idx := label.Index()
		if idx < 0 || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func (o ChoiceOrder) String() string {
	parts := make([]string, len(o))
	for i, label := range o {
		parts[i] = string(label)
	}
	return strings.Join(parts, ",")
}

// Original translates the label a student clicked (a displayed position) into the
// question's original slot.
func (o ChoiceOrder) Original(displayed ChoiceLabel) (ChoiceLabel, bool) {
	idx := displayed.Index()
	if idx < 0 {
		return "", false
	}
	return o[idx], true
}

// Displayed returns the position at which an original slot is shown.
func (o ChoiceOrder) Displayed(original ChoiceLabel) (ChoiceLabel, bool) {
	for i, label := range o {
		if label == original {
			return ChoiceLabels[i], true
		}
	}
	return "", false
}

func (o ChoiceOrder) Value() (driver.Value, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("refusing to store invalid choice order %q", o.String())
	}
	return o.String(), nil
}

func (o *ChoiceOrder) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported choice order column type %T", src)
	}
	parsed, err := ParseChoiceOrder(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (ChoiceOrder) GormDataType() string {
	return "string"
}

func (o ChoiceOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *ChoiceOrder) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseChoiceOrder(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

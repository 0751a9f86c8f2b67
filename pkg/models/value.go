package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a statistic that is either a number or "n/a"
type Value struct {
	Num float64
	NA  bool
}

// Num wraps a number as an available value
func Num(f float64) Value {
	return Value{Num: f}
}

// NA returns the "not available" value
func NA() Value {
	return Value{NA: true}
}

// Float returns the number and whether it is available
func (v Value) Float() (float64, bool) {
	if v.NA {
		return 0, false
	}
	return v.Num, true
}

func (v Value) String() string {
	if v.NA {
		return NotAvailable
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

// MarshalJSON writes a number or the "n/a" string
func (v Value) MarshalJSON() ([]byte, error) {
	if v.NA {
		return []byte(`"` + NotAvailable + `"`), nil
	}
	return json.Marshal(v.Num)
}

// UnmarshalJSON accepts numbers, "n/a" and null
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = NA()
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s == NotAvailable {
			*v = NA()
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid statistic value %q", s)
		}
		*v = Num(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return err
	}
	*v = Num(f)
	return nil
}

// MarshalYAML keeps "n/a" readable in YAML exports
func (v Value) MarshalYAML() (interface{}, error) {
	if v.NA {
		return NotAvailable, nil
	}
	return v.Num, nil
}

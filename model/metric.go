package model

import (
	"bytes"
	"math"
	"strconv"
)

// Metric is a measurement that may be undefined. Undefined values are NaN in
// memory and null on the wire.
type Metric float64

// Undefined returns the NaN metric.
func Undefined() Metric {
	return Metric(math.NaN())
}

// Defined reports whether m holds a finite value.
func (m Metric) Defined() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns m as a float64.
func (m Metric) Float() float64 {
	return float64(m)
}

// MarshalJSON writes null for undefined values.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(m), 'g', -1, 64), nil
}

// UnmarshalJSON reads null as NaN.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Undefined()
		return nil
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

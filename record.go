package kle

import (
	"bytes"
	"encoding/json"
	"math"
)

// Changes is an insertion-ordered set of wire tag/value pairs. Go maps would
// alphabetize keys on marshal; KLE documents conventionally lead with the
// rotation and position tags, so order is preserved explicitly.
type Changes struct {
	entries []changeEntry
}

type changeEntry struct {
	tag   string
	value any
}

// Len returns the number of recorded changes.
func (c *Changes) Len() int {
	return len(c.entries)
}

// Get returns the value recorded for tag.
func (c *Changes) Get(tag string) (any, bool) {
	for _, e := range c.entries {
		if e.tag == tag {
			return e.value, true
		}
	}
	return nil, false
}

// Tags returns the recorded tags in insertion order.
func (c *Changes) Tags() []string {
	tags := make([]string, len(c.entries))
	for i, e := range c.entries {
		tags[i] = e.tag
	}
	return tags
}

func (c *Changes) set(tag string, value any) {
	for i := range c.entries {
		if c.entries[i].tag == tag {
			c.entries[i].value = value
			return
		}
	}
	c.entries = append(c.entries, changeEntry{tag: tag, value: value})
}

// MarshalJSON emits the changes as a JSON object in insertion order.
func (c *Changes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		tag, err := json.Marshal(e.tag)
		if err != nil {
			return nil, err
		}
		buf.Write(tag)
		buf.WriteByte(':')
		val, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// The record* helpers write a field into the change set only when it differs
// from the reference value, and hand the value back so callers can update
// their running state in the same expression.

func (c *Changes) recordString(tag, val, ref string) string {
	if val != ref {
		c.set(tag, val)
	}
	return val
}

func (c *Changes) recordBool(tag string, val, ref bool) bool {
	if val != ref {
		c.set(tag, val)
	}
	return val
}

func (c *Changes) recordInt(tag string, val, ref int) int {
	if val != ref {
		c.set(tag, int64(val))
	}
	return val
}

// recordFloat normalizes integral values to integer literals.
func (c *Changes) recordFloat(tag string, val, ref float64) float64 {
	if val != ref {
		c.set(tag, normalizeNumber(val))
	}
	return val
}

func (c *Changes) recordDecimal(tag string, val, ref Decimal) Decimal {
	if !val.Equal(ref) {
		c.set(tag, val.jsonNumber())
	}
	return val
}

// normalizeNumber renders a float64 as an integer when it has no fractional
// part, matching how KLE documents are written by hand.
func normalizeNumber(v float64) any {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return int64(v)
	}
	return v
}

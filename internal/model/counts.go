package model

import (
	"bytes"
	"encoding/json"
)

// CategoryCounts maps a category label to the number of files downloaded in
// one run. Labels keep the order in which they were first set.
type CategoryCounts struct {
	labels []string
	counts map[string]int
}

// NewCategoryCounts returns an empty counts map.
func NewCategoryCounts() *CategoryCounts {
	return &CategoryCounts{counts: make(map[string]int)}
}

// Set records n for label, replacing any previous value.
func (c *CategoryCounts) Set(label string, n int) {
	if _, ok := c.counts[label]; !ok {
		c.labels = append(c.labels, label)
	}
	c.counts[label] = n
}

// Get returns the count for label and whether it was set.
func (c *CategoryCounts) Get(label string) (int, bool) {
	n, ok := c.counts[label]
	return n, ok
}

// Labels returns labels in insertion order.
func (c *CategoryCounts) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Len returns the number of labels.
func (c *CategoryCounts) Len() int {
	return len(c.labels)
}

// Total sums every count.
func (c *CategoryCounts) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Map returns a copy as a plain map.
func (c *CategoryCounts) Map() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the counts as an object in insertion order.
func (c *CategoryCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range c.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c.counts[label])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

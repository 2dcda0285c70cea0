package aggregate

import (
	"bytes"
	"encoding/json"
)

// Distribution counts values per bucket while remembering bucket insertion
// order, so aggregated output lists options in the order the schema
// declared them. A plain map would serialize its keys sorted.
type Distribution struct {
	keys   []string
	counts map[string]int
}

// NewDistribution returns a distribution with one zeroed bucket per option,
// in option order.
func NewDistribution(options ...string) *Distribution {
	d := &Distribution{counts: make(map[string]int, len(options))}
	for _, opt := range options {
		if _, ok := d.counts[opt]; !ok {
			d.keys = append(d.keys, opt)
			d.counts[opt] = 0
		}
	}
	return d
}

// Increment bumps the bucket for key, creating it after the declared
// buckets if it does not exist yet.
func (d *Distribution) Increment(key string) {
	if _, ok := d.counts[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.counts[key]++
}

// Has reports whether key is a declared or accumulated bucket.
func (d *Distribution) Has(key string) bool {
	_, ok := d.counts[key]
	return ok
}

// Count returns the tally for key, zero when the bucket does not exist.
func (d *Distribution) Count(key string) int {
	return d.counts[key]
}

// Keys returns bucket names in insertion order.
func (d *Distribution) Keys() []string {
	return d.keys
}

func (d *Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		count, err := json.Marshal(d.counts[key])
		if err != nil {
			return nil, err
		}
		buf.Write(count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	counts := map[string]int{}
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	d.counts = counts
	d.keys = d.keys[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if key, ok := tok.(string); ok {
			d.keys = append(d.keys, key)
		}
		// skip the value token
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return err
		}
	}
	return nil
}

// Package dump renders a human readable YAML report of a lidl buffer.
package dump

import (
	"io"

	"github.com/rawbytedev/lidl"
	"gopkg.in/yaml.v3"
)

type Allocation struct {
	Offset  int `yaml:"offset"`
	Size    int `yaml:"size"`
	Align   int `yaml:"align"`
	Padding int `yaml:"padding,omitempty"`
}

type Report struct {
	Capacity    int          `yaml:"capacity"`
	Used        int          `yaml:"used"`
	Padding     int          `yaml:"padding"`
	Utilization float64      `yaml:"utilization"`
	Allocations []Allocation `yaml:"allocations,omitempty"`
	Root        any          `yaml:"root,omitempty"`
}

// FromBuilder describes the message b has built so far. The allocation list
// is only filled when b was created with Options.Trace.
func FromBuilder(b *lidl.Builder, root any) Report {
	m := b.Metrics()
	r := Report{
		Capacity:    m.Capacity,
		Used:        m.Used,
		Padding:     m.Padding,
		Utilization: m.Utilization,
		Root:        root,
	}
	for _, a := range b.Allocations() {
		r.Allocations = append(r.Allocations, Allocation(a))
	}
	return r
}

// FromMessage describes a finished message read back from storage, where
// only its length is known.
func FromMessage(msg []byte, root any) Report {
	r := Report{Capacity: len(msg), Used: len(msg), Root: root}
	if len(msg) > 0 {
		r.Utilization = 1
	}
	return r
}

// Write renders r as YAML.
func Write(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

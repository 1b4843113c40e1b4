// Package metrics computes scalar summaries of a trajectory by observing its
// samples one at a time.
package metrics

import (
	"github.com/san-kum/cyberdyn/internal/dynamo"
)

type Metric interface {
	Name() string
	Observe(x dynamo.State, u dynamo.Control, t float64)
	Value() float64
	Reset()
}

// Replay feeds every sample of tr to each metric in order.
func Replay(tr *dynamo.Trajectory, ms ...Metric) {
	for i, x := range tr.States {
		for _, m := range ms {
			m.Observe(x, nil, tr.Times[i])
		}
	}
}

// ChannelSummary describes one state channel over a run.
type ChannelSummary struct {
	Name     string  `json:"name"`
	Peak     float64 `json:"peak"`
	PeakTime float64 `json:"peak_time"`
	Trough   float64 `json:"trough"`
	Mean     float64 `json:"mean"`
	Final    float64 `json:"final"`
}

type Summary struct {
	Channels []ChannelSummary `json:"channels"`
	// NegativeSamples counts samples with at least one negative component.
	NegativeSamples int `json:"negative_samples"`
}

// Summarize reports peak, trough and mean for each named channel.
func Summarize(tr *dynamo.Trajectory, names []string) Summary {
	var s Summary
	if tr == nil || tr.Len() == 0 {
		return s
	}

	neg := NewNegativeExcursions()
	ms := []Metric{neg}
	peaks := make([]*Peak, len(names))
	troughs := make([]*Trough, len(names))
	means := make([]*Mean, len(names))
	for i := range names {
		peaks[i], troughs[i], means[i] = NewPeak(i), NewTrough(i), NewMean(i)
		ms = append(ms, peaks[i], troughs[i], means[i])
	}
	Replay(tr, ms...)

	final := tr.Final()
	for i, name := range names {
		s.Channels = append(s.Channels, ChannelSummary{
			Name:     name,
			Peak:     peaks[i].Value(),
			PeakTime: peaks[i].Time(),
			Trough:   troughs[i].Value(),
			Mean:     means[i].Value(),
			Final:    final[i],
		})
	}
	s.NegativeSamples = neg.Count()
	return s
}

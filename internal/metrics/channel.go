package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

type Peak struct {
	name    string
	channel int
	value   float64
	time    float64
}

func NewPeak(channel int) *Peak {
	p := &Peak{name: fmt.Sprintf("peak_%d", channel), channel: channel}
	p.Reset()
	return p
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if p.channel >= len(x) {
		return
	}
	if x[p.channel] > p.value {
		p.value = x[p.channel]
		p.time = t
	}
}

func (p *Peak) Value() float64 {
	if math.IsInf(p.value, -1) {
		return 0
	}
	return p.value
}

// Time is when the peak was first reached.
func (p *Peak) Time() float64 { return p.time }

func (p *Peak) Reset() {
	p.value = math.Inf(-1)
	p.time = 0
}

type Trough struct {
	name    string
	channel int
	value   float64
}

func NewTrough(channel int) *Trough {
	tr := &Trough{name: fmt.Sprintf("trough_%d", channel), channel: channel}
	tr.Reset()
	return tr
}

func (tr *Trough) Name() string { return tr.name }

func (tr *Trough) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if tr.channel < len(x) {
		tr.value = math.Min(tr.value, x[tr.channel])
	}
}

func (tr *Trough) Value() float64 {
	if math.IsInf(tr.value, 1) {
		return 0
	}
	return tr.value
}

func (tr *Trough) Reset() { tr.value = math.Inf(1) }

type Mean struct {
	name    string
	channel int
	sum     float64
	samples int
}

func NewMean(channel int) *Mean {
	return &Mean{name: fmt.Sprintf("mean_%d", channel), channel: channel}
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if m.channel >= len(x) {
		return
	}
	m.sum += x[m.channel]
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.samples = 0
}

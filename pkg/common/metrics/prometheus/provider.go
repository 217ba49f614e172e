/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	kitmetrics "github.com/go-kit/kit/metrics"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics"
)

// Provider creates meters backed by prometheus collectors. Collectors are
// registered with Registerer; asking twice for the same metric returns
// meters over the collector registered first.
type Provider struct {
	Registerer prom.Registerer
}

// NewProvider returns a provider registering with reg, or with the default
// prometheus registerer when reg is nil
func NewProvider(reg prom.Registerer) *Provider {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	return &Provider{Registerer: reg}
}

// NewCounter creates a counter vector with the given label names
func (p *Provider) NewCounter(o metrics.CounterOpts) metrics.Counter {
	cv := prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: o.Namespace,
			Subsystem: o.Subsystem,
			Name:      o.Name,
			Help:      o.Help,
		},
		o.LabelNames,
	)
	if existing := p.register(cv); existing != nil {
		cv = existing.(*prom.CounterVec)
	}
	return &Counter{Counter: kitprom.NewCounter(cv)}
}

// NewGauge creates a gauge vector with the given label names
func (p *Provider) NewGauge(o metrics.GaugeOpts) metrics.Gauge {
	gv := prom.NewGaugeVec(
		prom.GaugeOpts{
			Namespace: o.Namespace,
			Subsystem: o.Subsystem,
			Name:      o.Name,
			Help:      o.Help,
		},
		o.LabelNames,
	)
	if existing := p.register(gv); existing != nil {
		gv = existing.(*prom.GaugeVec)
	}
	return &Gauge{Gauge: kitprom.NewGauge(gv)}
}

// NewHistogram creates a histogram vector with the given label names
func (p *Provider) NewHistogram(o metrics.HistogramOpts) metrics.Histogram {
	hv := prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: o.Namespace,
			Subsystem: o.Subsystem,
			Name:      o.Name,
			Help:      o.Help,
			Buckets:   o.Buckets,
		},
		o.LabelNames,
	)
	if existing := p.register(hv); existing != nil {
		hv = existing.(*prom.HistogramVec)
	}
	return &Histogram{Histogram: kitprom.NewHistogram(hv)}
}

// register returns the already registered collector, if any
func (p *Provider) register(c prom.Collector) prom.Collector {
	err := p.Registerer.Register(c)
	if err == nil {
		return nil
	}
	if are, ok := err.(prom.AlreadyRegisteredError); ok {
		return are.ExistingCollector
	}
	panic(err)
}

// Counter adapts a go-kit counter
type Counter struct{ kitmetrics.Counter }

// With returns the counter for the given label values
func (c *Counter) With(labelValues ...string) metrics.Counter {
	return &Counter{Counter: c.Counter.With(labelValues...)}
}

// Gauge adapts a go-kit gauge
type Gauge struct{ kitmetrics.Gauge }

// With returns the gauge for the given label values
func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	return &Gauge{Gauge: g.Gauge.With(labelValues...)}
}

// Histogram adapts a go-kit histogram
type Histogram struct{ kitmetrics.Histogram }

// With returns the histogram for the given label values
func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	return &Histogram{Histogram: h.Histogram.With(labelValues...)}
}

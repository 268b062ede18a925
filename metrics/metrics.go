/*
 * Patch Panel - A software patch panel for OpenFlow switches
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 *  Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package metrics

import (
	"net/http"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stereocat/patch-panel/network"
)

var (
	logger = logging.MustGetLogger("metrics")
)

// Topology is the source of the topology gauges.
type Topology interface {
	Snapshot() network.Snapshot
}

// PatchCounter returns the number of stored patches.
type PatchCounter interface {
	Len() int
}

// Collector exports the topology and patch counts as Prometheus metrics. It
// is a topology observer that refreshes the gauges on every topology event.
type Collector struct {
	gatherer prometheus.Gatherer
	topology Topology

	Events   *prometheus.CounterVec
	Switches prometheus.Gauge
	Ports    prometheus.Gauge
	Links    prometheus.Gauge
	Hosts    prometheus.Gauge
}

// New registers the metrics against reg, defaulting to the global Prometheus registry when nil.
func New(reg prometheus.Registerer, topology Topology, patches PatchCounter) (*Collector, error) {
	if topology == nil {
		return nil, errors.New("nil topology")
	}
	if patches == nil {
		return nil, errors.New("nil patch counter")
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "patchpanel_topology_events_total",
		Help: "Total number of topology events, labeled by the event type.",
	}, []string{"type"})
	if err := register(reg, events); err != nil {
		return nil, err
	}

	gauges := make([]prometheus.Gauge, 0, 4)
	for _, v := range []struct{ name, help string }{
		{"patchpanel_switches", "Current number of registered switches."},
		{"patchpanel_ports", "Current number of up ports of the registered switches."},
		{"patchpanel_physical_links", "Current number of discovered physical links."},
		{"patchpanel_hosts", "Current number of learned hosts."},
	} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: v.name, Help: v.help})
		if err := register(reg, g); err != nil {
			return nil, err
		}
		gauges = append(gauges, g)
	}

	err := register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "patchpanel_patches",
		Help: "Current number of stored patches.",
	}, func() float64 { return float64(patches.Len()) }))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer: gatherer,
		topology: topology,
		Events:   events,
		Switches: gauges[0],
		Ports:    gauges[1],
		Links:    gauges[2],
		Hosts:    gauges[3],
	}, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		return errors.Wrap(err, "registering a metric")
	}

	return nil
}

func (r *Collector) OnTopologyEvent(e network.Event) {
	r.Events.WithLabelValues(e.Type.String()).Inc()
	r.refresh()
}

// refresh sets the gauges to the current topology counts.
func (r *Collector) refresh() {
	s := r.topology.Snapshot()

	ports := 0
	for _, sw := range s.Switches {
		ports += len(sw.Ports)
	}
	r.Switches.Set(float64(len(s.Switches)))
	r.Ports.Set(float64(ports))
	r.Links.Set(float64(len(s.Links)))
	r.Hosts.Set(float64(len(s.Hosts)))
	logger.Debugf("topology gauges are refreshed: switches=%v, ports=%v, links=%v, hosts=%v", len(s.Switches), ports, len(s.Links), len(s.Hosts))
}

// Handler exposes a ready-to-use metrics handler.
func (r *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

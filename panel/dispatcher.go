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

package panel

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/network"
)

const DefaultProbeInterval = 1 * time.Second

// Event is an event delivered from switches.
type Event interface {
	fmt.Stringer
	dispatch(*Panel) error
}

type SwitchConnected struct {
	DPID  uint64
	Ports []network.Port
}

func (r SwitchConnected) String() string {
	return fmt.Sprintf("SwitchConnected(dpid=%#x, ports=%v)", r.DPID, len(r.Ports))
}

func (r SwitchConnected) dispatch(p *Panel) error {
	return p.OnSwitchConnected(r.DPID, r.Ports)
}

type SwitchDisconnected struct {
	DPID uint64
}

func (r SwitchDisconnected) String() string {
	return fmt.Sprintf("SwitchDisconnected(dpid=%#x)", r.DPID)
}

func (r SwitchDisconnected) dispatch(p *Panel) error {
	p.OnSwitchDisconnected(r.DPID)
	return nil
}

type PortStatusChanged struct {
	DPID uint64
	Port network.Port
}

func (r PortStatusChanged) String() string {
	return fmt.Sprintf("PortStatusChanged(dpid=%#x, port=%v, state=%v)", r.DPID, r.Port.Number, r.Port.State)
}

func (r PortStatusChanged) dispatch(p *Panel) error {
	return p.OnPortStatus(r.DPID, r.Port)
}

type PacketIn struct {
	DPID   uint64
	InPort uint32
	Data   []byte
}

func (r PacketIn) String() string {
	return fmt.Sprintf("PacketIn(dpid=%#x, inport=%v, length=%v)", r.DPID, r.InPort, len(r.Data))
}

func (r PacketIn) dispatch(p *Panel) error {
	p.OnPacketIn(r.DPID, r.InPort, r.Data)
	return nil
}

// Dispatcher runs the switch events one by one to completion, and probes the
// links periodically in the same goroutine.
type Dispatcher struct {
	panel    *Panel
	events   chan Event
	interval chan time.Duration
}

func NewDispatcher(p *Panel, queueSize int) *Dispatcher {
	if p == nil {
		panic("nil panel")
	}

	return &Dispatcher{
		panel:    p,
		events:   make(chan Event, queueSize),
		interval: make(chan time.Duration, 1),
	}
}

// Post queues e. It blocks until e is queued or ctx is done.
func (r *Dispatcher) Post(ctx context.Context, e Event) error {
	select {
	case r.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetProbeInterval changes the probe interval of the running dispatcher.
func (r *Dispatcher) SetProbeInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	// Keep only the latest one.
	for {
		select {
		case r.interval <- d:
			return
		default:
		}
		select {
		case <-r.interval:
		default:
		}
	}
}

// Run dispatches the events and probes the links every interval until ctx is done.
func (r *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Infof("event dispatcher is started: probe interval=%v", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("terminating the event dispatcher")
			return
		case e := <-r.events:
			r.dispatch(e)
		case d := <-r.interval:
			ticker.Reset(d)
			logger.Infof("probe interval is changed to %v", d)
		case <-ticker.C:
			r.panel.Probe()
		}
	}
}

func (r *Dispatcher) dispatch(e Event) {
	logger.Debugf("dispatching %v", e)

	if err := e.dispatch(r.panel); err != nil {
		if errors.Is(err, network.ErrUnexpectedPortState) {
			logger.Criticalf("failed to handle %v: %v", e, err)
			return
		}
		logger.Errorf("failed to handle %v: %v", e, err)
	}
}

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
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/network"
	"github.com/stereocat/patch-panel/openflow"
	"github.com/stereocat/patch-panel/patch"
)

var (
	logger = logging.MustGetLogger("panel")
)

// Panel is the patch panel controller. It handles the switch events through
// the discovery driver and manages the patches requested by operators.
type Panel struct {
	driver    openflow.Driver
	topology  *network.Topology
	discovery *network.Discovery
	manager   *patch.Manager
}

// New returns a patch panel that controls switches through driver. Physical
// links not refreshed during linkExpiration are removed, and zero disables the expiry.
func New(driver openflow.Driver, topology *network.Topology, linkExpiration time.Duration) *Panel {
	if driver == nil {
		panic("nil driver")
	}
	if topology == nil {
		panic("nil topology")
	}

	return &Panel{
		driver:    driver,
		topology:  topology,
		discovery: network.NewDiscovery(topology, driver, linkExpiration),
		manager:   patch.NewManager(driver),
	}
}

func (r *Panel) Topology() *network.Topology {
	return r.topology
}

func (r *Panel) Manager() *patch.Manager {
	return r.manager
}

// OnSwitchConnected installs the default drop rule and the stored patches of
// the switch, and then registers the switch.
func (r *Panel) OnSwitchConnected(dpid uint64, ports []network.Port) error {
	logger.Infof("switch is connected: dpid=%#x", dpid)

	if err := r.driver.InstallFlowRule(dpid, patch.DefaultDropRule()); err != nil {
		return errors.Wrapf(err, "installing the default drop rule on %#x", dpid)
	}
	if err := r.manager.Restore(dpid); err != nil {
		// Keep going to discover the topology even if some patches are not restored.
		logger.Errorf("failed to restore patches on %#x: %v", dpid, err)
	}
	r.discovery.OnSwitchConnected(dpid, ports)

	return nil
}

func (r *Panel) OnSwitchDisconnected(dpid uint64) {
	logger.Infof("switch is disconnected: dpid=%#x", dpid)
	r.discovery.OnSwitchDisconnected(dpid)
}

func (r *Panel) OnPortStatus(dpid uint64, port network.Port) error {
	logger.Debugf("port status is changed: dpid=%#x, port=%v, state=%v", dpid, port.Number, port.State)
	return r.discovery.OnPortStatus(dpid, port)
}

func (r *Panel) OnPacketIn(dpid uint64, inPort uint32, frame []byte) {
	r.discovery.OnPacketIn(dpid, inPort, frame)
}

// Probe sends LLDP probes and removes the stale links.
func (r *Panel) Probe() {
	r.discovery.Probe()
	for _, v := range r.discovery.Expire() {
		logger.Infof("physical link is expired: %v", v)
	}
}

func (r *Panel) CreatePatch(spec patch.Spec) error {
	return r.manager.Create(spec)
}

func (r *Panel) DeletePatch(spec patch.Spec) error {
	return r.manager.Delete(spec)
}

func (r *Panel) ListPatches() []patch.Spec {
	return r.manager.List()
}

func wireSpecs(dpid uint64, a, b uint32) [2]patch.Spec {
	return [2]patch.Spec{
		{DPID: dpid, InPort: a, OutPort: patch.Uint32(b)},
		{DPID: dpid, InPort: b, OutPort: patch.Uint32(a)},
	}
}

// CreateWire creates two layer-1 patches, a to b and then b to a. The first
// patch is not removed if the second one fails.
func (r *Panel) CreateWire(dpid uint64, a, b uint32) error {
	for _, v := range wireSpecs(dpid, a, b) {
		if err := r.manager.Create(v); err != nil {
			return err
		}
	}

	return nil
}

// DeleteWire deletes the two patches created by CreateWire. The first patch
// is not restored if deleting the second one fails.
func (r *Panel) DeleteWire(dpid uint64, a, b uint32) error {
	for _, v := range wireSpecs(dpid, a, b) {
		if err := r.manager.Delete(v); err != nil {
			return err
		}
	}

	return nil
}

func (r *Panel) PhysicalLinks() []network.Link {
	return r.topology.Links()
}

func (r *Panel) LogicalWires() []network.Link {
	return r.manager.LogicalWires()
}

func (r *Panel) Switches() []network.Switch {
	return r.topology.Switches()
}

func (r *Panel) Switch(dpid uint64) (network.Switch, bool) {
	return r.topology.Switch(dpid)
}

func (r *Panel) Snapshot() network.Snapshot {
	return r.topology.Snapshot()
}

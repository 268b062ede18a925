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

package network

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/protocol"
)

const (
	lldpPortIDPrefix = "patchpanel/"
	lldpTTL          = 120
)

// Sender sends a raw ethernet frame out of a switch port.
type Sender interface {
	SendRawFrame(dpid uint64, port uint32, frame []byte) error
}

// Discovery learns links between switches by LLDP probing, and hosts by
// observing packets received from switches.
type Discovery struct {
	topology   *Topology
	sender     Sender
	expiration time.Duration
}

// NewDiscovery returns a discovery driver that updates topology. Links not
// refreshed during expiration are removed by Expire. Zero expiration disables the expiry.
func NewDiscovery(topology *Topology, sender Sender, expiration time.Duration) *Discovery {
	if topology == nil {
		panic("nil topology")
	}
	if sender == nil {
		panic("nil sender")
	}

	return &Discovery{
		topology:   topology,
		sender:     sender,
		expiration: expiration,
	}
}

func (r *Discovery) Topology() *Topology {
	return r.topology
}

func (r *Discovery) OnSwitchConnected(dpid uint64, ports []Port) {
	r.topology.AddSwitch(dpid, ports)
	// Probe right away instead of waiting for the next tick.
	sw, ok := r.topology.Switch(dpid)
	if !ok {
		return
	}
	r.probeSwitch(sw)
}

func (r *Discovery) OnSwitchDisconnected(dpid uint64) {
	if !r.topology.RemoveSwitch(dpid) {
		logger.Warningf("disconnected switch is not registered: dpid=%#x", dpid)
	}
}

func (r *Discovery) OnPortStatus(dpid uint64, port Port) error {
	if err := r.topology.UpdatePort(dpid, port); err != nil {
		return err
	}
	if port.State != PortStateUp || port.Local {
		return nil
	}
	// Probe the new port to find its neighbor as soon as possible.
	if err := r.sendProbe(dpid, port); err != nil {
		logger.Errorf("failed to send a LLDP probe: dpid=%#x, port=%v, err=%v", dpid, port.Number, err)
	}

	return nil
}

// OnPacketIn handles a frame received at the port inPort of the switch dpid.
// Undecodable frames and frames that are not ours are silently ignored.
func (r *Discovery) OnPacketIn(dpid uint64, inPort uint32, frame []byte) {
	eth := new(protocol.Ethernet)
	if err := eth.UnmarshalBinary(frame); err != nil {
		logger.Debugf("ignoring an invalid ethernet frame: dpid=%#x, port=%v, err=%v", dpid, inPort, err)
		return
	}
	receiver := Endpoint{DPID: dpid, Port: inPort}

	if eth.Type == protocol.EtherTypeLLDP {
		r.handleLLDP(receiver, eth)
		return
	}
	r.handleHost(receiver, eth)
}

func (r *Discovery) handleLLDP(receiver Endpoint, eth *protocol.Ethernet) {
	lldp := new(protocol.LLDP)
	if err := lldp.UnmarshalBinary(eth.Payload); err != nil {
		logger.Debugf("ignoring an invalid LLDP packet: receiver=%v, err=%v", receiver, err)
		return
	}
	sender, err := extractEndpoint(lldp)
	if err != nil {
		// Do nothing if this packet is not the one we sent
		logger.Debugf("ignoring a LLDP packet issued by an unknown device: receiver=%v", receiver)
		return
	}
	// Looped back to the same port?
	if sender == receiver {
		return
	}

	added, err := r.topology.AddLink(NewLink(sender, receiver))
	if err != nil {
		logger.Warningf("ignoring a LLDP packet: sender=%v, receiver=%v, err=%v", sender, receiver, err)
		return
	}
	if added {
		logger.Debugf("new link is discovered: %v-%v", sender, receiver)
	}
}

func (r *Discovery) handleHost(receiver Endpoint, eth *protocol.Ethernet) {
	// Multicast or broadcast source MAC is not a host.
	if len(eth.SrcMAC) != 6 || eth.SrcMAC[0]&0x01 != 0 {
		return
	}

	host := Host{
		MAC:      copyMAC(eth.SrcMAC),
		IP:       sourceIP(eth),
		Location: receiver,
		LastSeen: time.Now(),
	}
	r.topology.AddHost(host)
}

func sourceIP(eth *protocol.Ethernet) net.IP {
	switch eth.Type {
	case protocol.EtherTypeARP:
		arp := new(protocol.ARP)
		if err := arp.UnmarshalBinary(eth.Payload); err != nil {
			return nil
		}
		// ARP probe has the unspecified sender IP address.
		if arp.SPA.IsUnspecified() {
			return nil
		}
		return copyIP(arp.SPA)
	case protocol.EtherTypeIPv4:
		ip := new(protocol.IPv4)
		if err := ip.UnmarshalBinary(eth.Payload); err != nil {
			return nil
		}
		if ip.SrcIP.IsUnspecified() {
			return nil
		}
		return copyIP(ip.SrcIP)
	default:
		return nil
	}
}

// Probe sends LLDP probes out of every up and non-local port of every registered switch.
func (r *Discovery) Probe() {
	for _, sw := range r.topology.Switches() {
		r.probeSwitch(sw)
	}
}

func (r *Discovery) probeSwitch(sw Switch) {
	for _, p := range sw.Ports {
		if p.State != PortStateUp || p.Local {
			continue
		}
		if err := r.sendProbe(sw.DPID, p); err != nil {
			logger.Errorf("failed to send a LLDP probe: dpid=%#x, port=%v, err=%v", sw.DPID, p.Number, err)
		}
	}
}

func (r *Discovery) sendProbe(dpid uint64, p Port) error {
	frame, err := newProbeFrame(dpid, p)
	if err != nil {
		return err
	}

	return r.sender.SendRawFrame(dpid, p.Number, frame)
}

// Expire removes the links that have not been refreshed during the expiration.
func (r *Discovery) Expire() []Link {
	if r.expiration <= 0 {
		return nil
	}

	return r.topology.RemoveStaleLinks(r.expiration)
}

func newProbeFrame(dpid uint64, p Port) ([]byte, error) {
	lldp := &protocol.LLDP{
		ChassisID: protocol.LLDPChassisID{
			SubType: protocol.LLDPChassisIDSubTypeLocal,
			Data:    []byte(strconv.FormatUint(dpid, 10)),
		},
		PortID: protocol.LLDPPortID{
			SubType: protocol.LLDPPortIDSubTypeIfName,
			Data:    []byte(fmt.Sprintf("%v%v", lldpPortIDPrefix, p.Number)),
		},
		TTL: lldpTTL,
	}
	payload, err := lldp.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshaling LLDP")
	}

	src := p.MAC
	if len(src) != 6 {
		src = probeSourceMAC(dpid)
	}
	eth := protocol.Ethernet{
		SrcMAC:  src,
		DstMAC:  protocol.LLDPMulticastMAC,
		Type:    protocol.EtherTypeLLDP,
		Payload: payload,
	}
	frame, err := eth.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshaling ethernet")
	}

	return frame, nil
}

// probeSourceMAC returns a locally administered unicast MAC address derived from dpid.
func probeSourceMAC(dpid uint64) net.HardwareAddr {
	return net.HardwareAddr{0x02, byte(dpid >> 32), byte(dpid >> 24), byte(dpid >> 16), byte(dpid >> 8), byte(dpid)}
}

func isOurLLDP(p *protocol.LLDP) bool {
	// We sent a LLDP packet that has ChassisID.SubType=7, PortID.SubType=5,
	// and port ID starting with "patchpanel/".
	if p.ChassisID.SubType != protocol.LLDPChassisIDSubTypeLocal || len(p.ChassisID.Data) == 0 {
		return false
	}
	if p.PortID.SubType != protocol.LLDPPortIDSubTypeIfName {
		return false
	}
	if len(p.PortID.Data) <= len(lldpPortIDPrefix) || !bytes.HasPrefix(p.PortID.Data, []byte(lldpPortIDPrefix)) {
		return false
	}

	return true
}

func extractEndpoint(p *protocol.LLDP) (Endpoint, error) {
	if !isOurLLDP(p) {
		return Endpoint{}, errors.New("not our LLDP packet")
	}

	dpid, err := strconv.ParseUint(string(p.ChassisID.Data), 10, 64)
	if err != nil {
		return Endpoint{}, errors.Wrap(err, "invalid chassis ID")
	}
	// PortID.Data string consists of the prefix and port number
	num, err := strconv.ParseUint(string(p.PortID.Data[len(lldpPortIDPrefix):]), 10, 32)
	if err != nil {
		return Endpoint{}, errors.Wrap(err, "invalid port ID")
	}

	return Endpoint{DPID: dpid, Port: uint32(num)}, nil
}

func copyMAC(mac net.HardwareAddr) net.HardwareAddr {
	v := make(net.HardwareAddr, len(mac))
	copy(v, mac)

	return v
}

func copyIP(ip net.IP) net.IP {
	v := make(net.IP, len(ip))
	copy(v, ip)

	return v
}

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
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"time"
)

type PortState uint8

const (
	PortStateUnknown PortState = iota
	PortStateUp
	PortStateDown
)

func (r PortState) String() string {
	switch r {
	case PortStateUp:
		return "up"
	case PortStateDown:
		return "down"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

func (r PortState) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type Port struct {
	Number uint32
	State  PortState
	MAC    net.HardwareAddr
	// Local is true if the port is the switch-local port.
	Local bool
}

func (r Port) MarshalJSON() ([]byte, error) {
	v := struct {
		Number uint32    `json:"number"`
		State  PortState `json:"state"`
		MAC    string    `json:"mac,omitempty"`
		Local  bool      `json:"local"`
	}{
		Number: r.Number,
		State:  r.State,
		Local:  r.Local,
	}
	if r.MAC != nil {
		v.MAC = r.MAC.String()
	}

	return json.Marshal(v)
}

// Switch is a snapshot of a registered switch and its ports sorted by the port number.
type Switch struct {
	DPID  uint64 `json:"dpid"`
	Ports []Port `json:"ports"`
}

func (r Switch) Port(num uint32) (Port, bool) {
	i := sort.Search(len(r.Ports), func(i int) bool { return r.Ports[i].Number >= num })
	if i < len(r.Ports) && r.Ports[i].Number == num {
		return r.Ports[i], true
	}

	return Port{}, false
}

// Host is a network node that is attached to a switch port.
type Host struct {
	MAC      net.HardwareAddr
	IP       net.IP
	Location Endpoint
	LastSeen time.Time
}

func (r Host) MarshalJSON() ([]byte, error) {
	v := struct {
		MAC      string    `json:"mac"`
		IP       string    `json:"ip,omitempty"`
		Location Endpoint  `json:"location"`
		LastSeen time.Time `json:"last_seen"`
	}{
		MAC:      r.MAC.String(),
		Location: r.Location,
		LastSeen: r.LastSeen,
	}
	if r.IP != nil {
		v.IP = r.IP.String()
	}

	return json.Marshal(v)
}

func (r Host) String() string {
	return fmt.Sprintf("Host(MAC=%v, IP=%v, Location=%v)", r.MAC, r.IP, r.Location)
}

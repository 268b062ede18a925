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
	"fmt"
)

type EventType int

const (
	SwitchAdded EventType = iota
	SwitchRemoved
	PortAdded
	PortRemoved
	LinkAdded
	LinkRemoved
	HostAdded
)

func (r EventType) String() string {
	switch r {
	case SwitchAdded:
		return "SwitchAdded"
	case SwitchRemoved:
		return "SwitchRemoved"
	case PortAdded:
		return "PortAdded"
	case PortRemoved:
		return "PortRemoved"
	case LinkAdded:
		return "LinkAdded"
	case LinkRemoved:
		return "LinkRemoved"
	case HostAdded:
		return "HostAdded"
	default:
		return fmt.Sprintf("EventType(%d)", int(r))
	}
}

// Event describes a topology change. Only the fields related to Type are meaningful:
// DPID for switch events, DPID and Port for port events, Link for link events,
// and Host for host events.
type Event struct {
	Type EventType
	DPID uint64
	Port Port
	Link Link
	Host Host
}

func (r Event) String() string {
	switch r.Type {
	case SwitchAdded, SwitchRemoved:
		return fmt.Sprintf("%v(dpid=%#x)", r.Type, r.DPID)
	case PortAdded, PortRemoved:
		return fmt.Sprintf("%v(dpid=%#x, port=%v)", r.Type, r.DPID, r.Port.Number)
	case LinkAdded, LinkRemoved:
		return fmt.Sprintf("%v(%v)", r.Type, r.Link)
	default:
		return fmt.Sprintf("%v(%v)", r.Type, r.Host)
	}
}

// Observer receives topology events. OnTopologyEvent is called after the
// topology has been updated, so it may read the topology, but it must not
// modify the topology. Otherwise, it will cause a deadlock.
type Observer interface {
	OnTopologyEvent(Event)
}

// ObserverFunc is an adapter to use an ordinary function as an Observer.
type ObserverFunc func(Event)

func (r ObserverFunc) OnTopologyEvent(e Event) {
	r(e)
}

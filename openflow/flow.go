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

package openflow

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidMACAddress = errors.New("invalid MAC address")
	ErrInvalidVLANID     = errors.New("invalid VLAN ID")
)

const (
	// Port numbers reserved by OpenFlow 1.3.
	PortController uint32 = 0xFFFFFFFD
	PortLocal      uint32 = 0xFFFFFFFE
)

const (
	MinPriority uint16 = 0
	MaxPriority uint16 = 0xFFFF
)

// MaxVLANID is the largest VLAN ID that fits into the 12-bit 802.1Q VID field.
const MaxVLANID uint16 = 0x0FFF

// FlowRule is a single flow table entry that is going to be installed on a switch.
type FlowRule struct {
	Priority uint16
	Match    Match
	Actions  []Action
}

// IsDrop returns whether this rule drops all the matched packets.
func (r FlowRule) IsDrop() bool {
	return len(r.Actions) == 0
}

// OutPorts returns the output ports of this rule in the order of the actions.
func (r FlowRule) OutPorts() []uint32 {
	ports := make([]uint32, 0)
	for _, v := range r.Actions {
		if v.Type != ActionOutput {
			continue
		}
		ports = append(ports, v.Port)
	}

	return ports
}

func (r FlowRule) String() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Priority=%v, Match={%v}, Actions=[", r.Priority, r.Match))
	for i, v := range r.Actions {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v.String())
	}
	buf.WriteString("]")

	return buf.String()
}

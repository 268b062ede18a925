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
	"net"
	"strings"

	"github.com/pkg/errors"
)

type Wildcard uint8

const (
	WildcardInPort Wildcard = 1 << iota
	WildcardSrcMAC
	WildcardDstMAC
	WildcardVLANID

	WildcardAll = WildcardInPort | WildcardSrcMAC | WildcardDstMAC | WildcardVLANID
)

// Match is a flow match. Every field is a wildcard until it is explicitly set.
type Match struct {
	wildcards Wildcard
	inPort    uint32
	srcMAC    net.HardwareAddr
	dstMAC    net.HardwareAddr
	vlanID    uint16
}

// NewMatch returns a match whose fields are all wildcards.
func NewMatch() Match {
	return Match{wildcards: WildcardAll}
}

func (r Match) Wildcards() Wildcard {
	return r.wildcards
}

func (r *Match) SetInPort(port uint32) {
	r.inPort = port
	r.wildcards &^= WildcardInPort
}

func (r Match) InPort() (wildcard bool, port uint32) {
	return r.wildcards&WildcardInPort != 0, r.inPort
}

func (r *Match) SetSrcMAC(mac net.HardwareAddr) error {
	if len(mac) != 6 {
		return errors.Wrap(ErrInvalidMACAddress, "SetSrcMAC")
	}
	r.srcMAC = copyMAC(mac)
	r.wildcards &^= WildcardSrcMAC

	return nil
}

func (r Match) SrcMAC() (wildcard bool, mac net.HardwareAddr) {
	return r.wildcards&WildcardSrcMAC != 0, r.srcMAC
}

func (r *Match) SetDstMAC(mac net.HardwareAddr) error {
	if len(mac) != 6 {
		return errors.Wrap(ErrInvalidMACAddress, "SetDstMAC")
	}
	r.dstMAC = copyMAC(mac)
	r.wildcards &^= WildcardDstMAC

	return nil
}

func (r Match) DstMAC() (wildcard bool, mac net.HardwareAddr) {
	return r.wildcards&WildcardDstMAC != 0, r.dstMAC
}

func (r *Match) SetVLANID(id uint16) error {
	if id > MaxVLANID {
		return errors.Wrapf(ErrInvalidVLANID, "SetVLANID: %v", id)
	}
	r.vlanID = id
	r.wildcards &^= WildcardVLANID

	return nil
}

func (r Match) VLANID() (wildcard bool, id uint16) {
	return r.wildcards&WildcardVLANID != 0, r.vlanID
}

// Equal reports whether both matches select exactly the same packets.
func (r Match) Equal(m Match) bool {
	if r.wildcards != m.wildcards {
		return false
	}
	if r.wildcards&WildcardInPort == 0 && r.inPort != m.inPort {
		return false
	}
	if r.wildcards&WildcardSrcMAC == 0 && !bytes.Equal(r.srcMAC, m.srcMAC) {
		return false
	}
	if r.wildcards&WildcardDstMAC == 0 && !bytes.Equal(r.dstMAC, m.dstMAC) {
		return false
	}
	if r.wildcards&WildcardVLANID == 0 && r.vlanID != m.vlanID {
		return false
	}

	return true
}

func (r Match) String() string {
	if r.wildcards == WildcardAll {
		return "*"
	}

	v := make([]string, 0)
	if r.wildcards&WildcardInPort == 0 {
		v = append(v, fmt.Sprintf("in_port=%v", r.inPort))
	}
	if r.wildcards&WildcardSrcMAC == 0 {
		v = append(v, fmt.Sprintf("eth_src=%v", r.srcMAC))
	}
	if r.wildcards&WildcardDstMAC == 0 {
		v = append(v, fmt.Sprintf("eth_dst=%v", r.dstMAC))
	}
	if r.wildcards&WildcardVLANID == 0 {
		v = append(v, fmt.Sprintf("vlan_vid=%v", r.vlanID))
	}

	return strings.Join(v, ",")
}

func copyMAC(mac net.HardwareAddr) net.HardwareAddr {
	v := make(net.HardwareAddr, len(mac))
	copy(v, mac)

	return v
}

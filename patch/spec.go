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

package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/openflow"
)

// Spec describes a patch that forwards packets received at InPort of the
// switch DPID to OutPort or OutPorts. Exactly one of OutPort and OutPorts
// should be specified. The optional fields are nil if they are not specified.
//
// A patch that has SrcMAC or DstMAC is a layer-2 patch. Otherwise, it is a
// layer-1 patch that forwards all the packets received at InPort.
type Spec struct {
	DPID     uint64
	InPort   uint32
	OutPort  *uint32
	OutPorts []uint32
	Priority *uint16
	SrcMAC   net.HardwareAddr
	DstMAC   net.HardwareAddr
	VLANID   *uint16
	SetVLAN  *uint16
	PopVLAN  bool
}

func Uint16(v uint16) *uint16 {
	return &v
}

func Uint32(v uint32) *uint32 {
	return &v
}

func (r Spec) IsLayer2() bool {
	return r.SrcMAC != nil || r.DstMAC != nil
}

func (r Spec) IsLayer1() bool {
	return !r.IsLayer2()
}

// ConflictsWith returns whether r and other cannot be stored together. Two
// patches conflict if they share the inbound port of a switch and at least
// one of them is a layer-1 patch.
func (r Spec) ConflictsWith(other Spec) bool {
	if r.IsLayer2() && other.IsLayer2() {
		return false
	}

	return r.DPID == other.DPID && r.InPort == other.InPort
}

// OutPortSet returns the outbound ports in the specified order.
func (r Spec) OutPortSet() []uint32 {
	if r.OutPort != nil {
		return []uint32{*r.OutPort}
	}

	return append([]uint32(nil), r.OutPorts...)
}

// Validate checks the constraints that the builder relies on.
func (r Spec) Validate() error {
	if r.OutPort == nil && len(r.OutPorts) == 0 {
		return errors.Wrap(ErrMalformed, "outport or outports is required")
	}
	if r.OutPort != nil && len(r.OutPorts) > 0 {
		return errors.Wrap(ErrMalformed, "outport and outports are mutually exclusive")
	}
	if r.SrcMAC != nil && len(r.SrcMAC) != 6 {
		return errors.Wrapf(ErrMalformed, "invalid eth_src: %v", r.SrcMAC)
	}
	if r.DstMAC != nil && len(r.DstMAC) != 6 {
		return errors.Wrapf(ErrMalformed, "invalid eth_dst: %v", r.DstMAC)
	}
	if r.VLANID != nil && (*r.VLANID == 0 || *r.VLANID > openflow.MaxVLANID) {
		return errors.Wrapf(ErrMalformed, "invalid vlan_vid: %v", *r.VLANID)
	}
	if r.SetVLAN != nil && (*r.SetVLAN == 0 || *r.SetVLAN > openflow.MaxVLANID) {
		return errors.Wrapf(ErrMalformed, "invalid set_vlan: %v", *r.SetVLAN)
	}

	return nil
}

// Equal returns whether all the fields of r and other are same. An omitted
// priority is same as the maximum priority.
func (r Spec) Equal(other Spec) bool {
	if r.DPID != other.DPID || r.InPort != other.InPort || r.PopVLAN != other.PopVLAN {
		return false
	}
	if r.priority() != other.priority() {
		return false
	}
	if !equalUint32(r.OutPort, other.OutPort) {
		return false
	}
	if len(r.OutPorts) != len(other.OutPorts) {
		return false
	}
	for i := range r.OutPorts {
		if r.OutPorts[i] != other.OutPorts[i] {
			return false
		}
	}
	if !equalUint16(r.VLANID, other.VLANID) || !equalUint16(r.SetVLAN, other.SetVLAN) {
		return false
	}

	return equalMAC(r.SrcMAC, other.SrcMAC) && equalMAC(r.DstMAC, other.DstMAC)
}

func equalUint16(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func equalUint32(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func equalMAC(a, b net.HardwareAddr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return bytes.Equal(a, b)
}

// clone returns a deep copy of r.
func (r Spec) clone() Spec {
	v := r
	if r.OutPort != nil {
		v.OutPort = Uint32(*r.OutPort)
	}
	if r.OutPorts != nil {
		v.OutPorts = append([]uint32(nil), r.OutPorts...)
	}
	if r.Priority != nil {
		v.Priority = Uint16(*r.Priority)
	}
	if r.SrcMAC != nil {
		v.SrcMAC = append(net.HardwareAddr(nil), r.SrcMAC...)
	}
	if r.DstMAC != nil {
		v.DstMAC = append(net.HardwareAddr(nil), r.DstMAC...)
	}
	if r.VLANID != nil {
		v.VLANID = Uint16(*r.VLANID)
	}
	if r.SetVLAN != nil {
		v.SetVLAN = Uint16(*r.SetVLAN)
	}

	return v
}

func (r Spec) String() string {
	v := []string{
		fmt.Sprintf("dpid=%#x", r.DPID),
		fmt.Sprintf("inport=%v", r.InPort),
	}
	if r.OutPort != nil {
		v = append(v, fmt.Sprintf("outport=%v", *r.OutPort))
	}
	if len(r.OutPorts) > 0 {
		v = append(v, fmt.Sprintf("outports=%v", r.OutPorts))
	}
	if r.Priority != nil {
		v = append(v, fmt.Sprintf("priority=%v", *r.Priority))
	}
	if r.SrcMAC != nil {
		v = append(v, fmt.Sprintf("eth_src=%v", r.SrcMAC))
	}
	if r.DstMAC != nil {
		v = append(v, fmt.Sprintf("eth_dst=%v", r.DstMAC))
	}
	if r.VLANID != nil {
		v = append(v, fmt.Sprintf("vlan_vid=%v", *r.VLANID))
	}
	if r.SetVLAN != nil {
		v = append(v, fmt.Sprintf("set_vlan=%v", *r.SetVLAN))
	}
	if r.PopVLAN {
		v = append(v, "pop_vlan")
	}

	return fmt.Sprintf("Patch(%v)", strings.Join(v, ", "))
}

func (r Spec) MarshalJSON() ([]byte, error) {
	v := struct {
		DPID     uint64   `json:"dpid"`
		InPort   uint32   `json:"inport"`
		OutPort  *uint32  `json:"outport,omitempty"`
		OutPorts []uint32 `json:"outports,omitempty"`
		Priority uint16   `json:"priority"`
		SrcMAC   string   `json:"eth_src,omitempty"`
		DstMAC   string   `json:"eth_dst,omitempty"`
		VLANID   *uint16  `json:"vlan_vid,omitempty"`
		SetVLAN  *uint16  `json:"set_vlan,omitempty"`
		PopVLAN  bool     `json:"pop_vlan,omitempty"`
	}{
		DPID:     r.DPID,
		InPort:   r.InPort,
		OutPort:  r.OutPort,
		OutPorts: r.OutPorts,
		Priority: r.priority(),
		VLANID:   r.VLANID,
		SetVLAN:  r.SetVLAN,
		PopVLAN:  r.PopVLAN,
	}
	if r.SrcMAC != nil {
		v.SrcMAC = r.SrcMAC.String()
	}
	if r.DstMAC != nil {
		v.DstMAC = r.DstMAC.String()
	}

	return json.Marshal(v)
}

func (r Spec) priority() uint16 {
	if r.Priority == nil {
		return openflow.MaxPriority
	}

	return *r.Priority
}

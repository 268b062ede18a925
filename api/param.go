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

package api

import (
	"encoding/json"
	"fmt"
	"net"
	"regexp"

	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/openflow"
	"github.com/stereocat/patch-panel/patch"
)

var (
	// The separators of a MAC address should be all colons or all hyphens.
	macColonRegexp  = regexp.MustCompile(`^[[:xdigit:]]{2}(:[[:xdigit:]]{2}){5}$`)
	macHyphenRegexp = regexp.MustCompile(`^[[:xdigit:]]{2}(-[[:xdigit:]]{2}){5}$`)
)

const (
	minVLANID = 1
	maxVLANID = 4095
)

// patchParam is the JSON representation of a patch in the requests.
type patchParam struct {
	Spec patch.Spec
}

func (r *patchParam) UnmarshalJSON(data []byte) error {
	v := struct {
		DPID     *uint64  `json:"dpid"`
		InPort   *uint32  `json:"inport"`
		OutPort  *uint32  `json:"outport"`
		OutPorts []uint32 `json:"outports"`
		Priority *int64   `json:"priority"`
		SrcMAC   *string  `json:"eth_src"`
		DstMAC   *string  `json:"eth_dst"`
		VLANID   *int64   `json:"vlan_vid"`
		SetVLAN  *int64   `json:"set_vlan"`
		PopVLAN  *bool    `json:"pop_vlan"`
	}{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	if v.DPID == nil {
		return errors.New("dpid is missing")
	}
	if v.InPort == nil {
		return errors.New("inport is missing")
	}
	if v.OutPort == nil && v.OutPorts == nil {
		return errors.New("outport or outports is missing")
	}
	if v.OutPort != nil && v.OutPorts != nil {
		return errors.New("outport and outports are mutually exclusive")
	}
	if v.OutPorts != nil && len(v.OutPorts) == 0 {
		return errors.New("empty outports")
	}

	spec := patch.Spec{
		DPID:     *v.DPID,
		InPort:   *v.InPort,
		OutPort:  v.OutPort,
		OutPorts: v.OutPorts,
	}
	if v.Priority != nil {
		if *v.Priority < int64(openflow.MinPriority) || *v.Priority > int64(openflow.MaxPriority) {
			return fmt.Errorf("invalid priority: %v", *v.Priority)
		}
		spec.Priority = patch.Uint16(uint16(*v.Priority))
	}

	var err error
	if spec.SrcMAC, err = parseMAC("eth_src", v.SrcMAC); err != nil {
		return err
	}
	if spec.DstMAC, err = parseMAC("eth_dst", v.DstMAC); err != nil {
		return err
	}
	if spec.VLANID, err = parseVLANID("vlan_vid", v.VLANID); err != nil {
		return err
	}
	if spec.SetVLAN, err = parseVLANID("set_vlan", v.SetVLAN); err != nil {
		return err
	}
	if v.PopVLAN != nil {
		spec.PopVLAN = *v.PopVLAN
	}
	r.Spec = spec

	return nil
}

func parseMAC(name string, v *string) (net.HardwareAddr, error) {
	if v == nil {
		return nil, nil
	}
	if !macColonRegexp.MatchString(*v) && !macHyphenRegexp.MatchString(*v) {
		return nil, fmt.Errorf("invalid %v: %v", name, *v)
	}

	return net.ParseMAC(*v)
}

func parseVLANID(name string, v *int64) (*uint16, error) {
	if v == nil {
		return nil, nil
	}
	if *v < minVLANID || *v > maxVLANID {
		return nil, fmt.Errorf("invalid %v: %v", name, *v)
	}

	return patch.Uint16(uint16(*v)), nil
}

// wireParam is the JSON representation of a bidirectional wire between two ports of a switch.
type wireParam struct {
	DPID  uint64
	PortA uint32
	PortB uint32
}

func (r *wireParam) UnmarshalJSON(data []byte) error {
	v := struct {
		DPID  *uint64 `json:"dpid"`
		PortA *uint32 `json:"port_a"`
		PortB *uint32 `json:"port_b"`
	}{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	if v.DPID == nil || v.PortA == nil || v.PortB == nil {
		return errors.New("dpid, port_a, and port_b are required")
	}
	if *v.PortA == *v.PortB {
		return fmt.Errorf("same port_a and port_b: %v", *v.PortA)
	}
	r.DPID = *v.DPID
	r.PortA = *v.PortA
	r.PortB = *v.PortB

	return nil
}

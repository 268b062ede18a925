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
	"net"
	"testing"

	"github.com/pkg/errors"
)

func TestMatchWildcards(t *testing.T) {
	m := NewMatch()
	if m.Wildcards() != WildcardAll || m.String() != "*" {
		t.Fatalf("unexpected new match: %v", m)
	}

	m.SetInPort(3)
	mac := net.HardwareAddr{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
	if err := m.SetSrcMAC(mac); err != nil {
		t.Fatalf("failed to set the source MAC: %v", err)
	}
	if err := m.SetVLANID(100); err != nil {
		t.Fatalf("failed to set the VLAN ID: %v", err)
	}
	// The match should keep its own copy.
	mac[0] = 0xbb

	if wildcard, port := m.InPort(); wildcard || port != 3 {
		t.Fatalf("unexpected in_port: wildcard=%v, port=%v", wildcard, port)
	}
	if wildcard, v := m.SrcMAC(); wildcard || v.String() != "aa:aa:aa:aa:aa:aa" {
		t.Fatalf("unexpected eth_src: wildcard=%v, mac=%v", wildcard, v)
	}
	if wildcard, _ := m.DstMAC(); !wildcard {
		t.Fatalf("eth_dst is not a wildcard")
	}
	expected := "in_port=3,eth_src=aa:aa:aa:aa:aa:aa,vlan_vid=100"
	if m.String() != expected {
		t.Fatalf("unexpected match string: expected=%v, actual=%v", expected, m.String())
	}
}

func TestMatchInvalidFields(t *testing.T) {
	m := NewMatch()
	if err := m.SetDstMAC(net.HardwareAddr{0x01}); !errors.Is(err, ErrInvalidMACAddress) {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrInvalidMACAddress, err)
	}
	if err := m.SetVLANID(0x1000); !errors.Is(err, ErrInvalidVLANID) {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrInvalidVLANID, err)
	}
	if m.Wildcards() != WildcardAll {
		t.Fatalf("invalid fields changed the wildcards: %v", m.Wildcards())
	}
}

func TestMatchEqual(t *testing.T) {
	a, b := NewMatch(), NewMatch()
	a.SetInPort(1)
	if a.Equal(b) {
		t.Fatalf("different matches are equal: a=%v, b=%v", a, b)
	}
	b.SetInPort(1)
	if !a.Equal(b) {
		t.Fatalf("same matches are not equal: a=%v, b=%v", a, b)
	}
}

func TestFlowRuleOutPorts(t *testing.T) {
	rule := FlowRule{
		Priority: MaxPriority,
		Match:    NewMatch(),
		Actions: []Action{
			NewSetVLANIDAction(10),
			NewStripVLANAction(),
			NewOutputAction(3),
			NewOutputAction(PortController),
		},
	}
	ports := rule.OutPorts()
	if len(ports) != 2 || ports[0] != 3 || ports[1] != PortController {
		t.Fatalf("unexpected output ports: %v", ports)
	}
	if rule.IsDrop() {
		t.Fatalf("rule with actions is a drop rule: %v", rule)
	}
	expected := "Priority=65535, Match={*}, Actions=[set_vlan_vid:10, strip_vlan, output:3, output:4294967293]"
	if rule.String() != expected {
		t.Fatalf("unexpected rule string: expected=%v, actual=%v", expected, rule.String())
	}
}

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
	"net"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"

	"github.com/stereocat/patch-panel/openflow"
)

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}

	return mac
}

func TestBuildRuleOutPorts(t *testing.T) {
	spec := Spec{
		DPID:     1,
		InPort:   1,
		OutPorts: []uint32{3, 4},
		SetVLAN:  Uint16(100),
		PopVLAN:  true,
	}
	rule := BuildRule(spec)

	match := openflow.NewMatch()
	match.SetInPort(1)
	expected := openflow.FlowRule{
		Priority: openflow.MaxPriority,
		Match:    match,
		Actions:  []openflow.Action{openflow.NewOutputAction(3), openflow.NewOutputAction(4)},
	}
	if !cmp.Equal(rule, expected) {
		t.Fatalf("unexpected flow rule: expected=%v, actual=%v", expected, rule)
	}
}

func TestBuildRuleLayer2(t *testing.T) {
	src := mustMAC("aa:aa:aa:aa:aa:aa")
	dst := mustMAC("bb:bb:bb:bb:bb:bb")
	spec := Spec{
		DPID:     1,
		InPort:   2,
		OutPort:  Uint32(5),
		Priority: Uint16(100),
		SrcMAC:   src,
		DstMAC:   dst,
		VLANID:   Uint16(10),
		SetVLAN:  Uint16(20),
		PopVLAN:  true,
	}
	rule := BuildRule(spec)

	match := openflow.NewMatch()
	match.SetInPort(2)
	if err := match.SetSrcMAC(src); err != nil {
		t.Fatalf("failed to set eth_src: %v", err)
	}
	if err := match.SetDstMAC(dst); err != nil {
		t.Fatalf("failed to set eth_dst: %v", err)
	}
	if err := match.SetVLANID(10); err != nil {
		t.Fatalf("failed to set vlan_vid: %v", err)
	}
	expected := openflow.FlowRule{
		Priority: 100,
		Match:    match,
		// Both VLAN actions are emitted without reconciliation.
		Actions: []openflow.Action{
			openflow.NewSetVLANIDAction(20),
			openflow.NewStripVLANAction(),
			openflow.NewOutputAction(5),
		},
	}
	if !cmp.Equal(rule, expected) {
		t.Fatalf("unexpected flow rule: expected=%v, actual=%v", expected, rule)
	}
	if !DeleteMatch(spec).Equal(match) {
		t.Fatalf("unexpected delete match: %v", DeleteMatch(spec))
	}
}

func TestBuildRulePriority(t *testing.T) {
	samples := []struct {
		Priority *uint16
		Expected uint16
	}{
		{nil, 0xffff},
		{Uint16(0), 0},
		{Uint16(0x8000), 0x8000},
	}

	for _, v := range samples {
		rule := BuildRule(Spec{DPID: 1, InPort: 1, OutPort: Uint32(2), Priority: v.Priority})
		if rule.Priority != v.Expected {
			t.Fatalf("unexpected priority: expected=%v, actual=%v", v.Expected, rule.Priority)
		}
		if _, port := rule.Match.InPort(); port != 1 {
			t.Fatalf("unexpected in_port: %v", spew.Sdump(rule.Match))
		}
	}
}

func TestBuildRuleVLANMatchOnly(t *testing.T) {
	// VLAN match without eth_src and eth_dst is a layer-1 patch, so set_vlan is not applied.
	rule := BuildRule(Spec{DPID: 1, InPort: 1, OutPort: Uint32(2), VLANID: Uint16(10), SetVLAN: Uint16(20)})
	if !cmp.Equal(rule.OutPorts(), []uint32{2}) || len(rule.Actions) != 1 {
		t.Fatalf("unexpected actions: %v", rule.Actions)
	}
	if wildcard, id := rule.Match.VLANID(); wildcard || id != 10 {
		t.Fatalf("unexpected vlan_vid match: wildcard=%v, id=%v", wildcard, id)
	}
}

func TestDefaultDropRule(t *testing.T) {
	rule := DefaultDropRule()
	if rule.Priority != 0 || !rule.IsDrop() || rule.Match.Wildcards() != openflow.WildcardAll {
		t.Fatalf("unexpected default drop rule: %v", rule)
	}
}

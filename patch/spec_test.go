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
	"encoding/json"
	"testing"

	"github.com/stereocat/patch-panel/openflow"
)

func TestSpecConflict(t *testing.T) {
	l1 := Spec{DPID: 1, InPort: 1, OutPort: Uint32(2)}
	l2a := Spec{DPID: 1, InPort: 1, OutPort: Uint32(3), SrcMAC: mustMAC("aa:aa:aa:aa:aa:aa")}
	l2b := Spec{DPID: 1, InPort: 1, OutPort: Uint32(4), DstMAC: mustMAC("bb:bb:bb:bb:bb:bb")}

	samples := []struct {
		A, B     Spec
		Expected bool
	}{
		{l1, l1, true},
		{l1, l2a, true},
		{l2a, l1, true},
		{l2a, l2b, false},
		{l2a, l2a, false},
		// Different switch
		{l1, Spec{DPID: 2, InPort: 1, OutPort: Uint32(2)}, false},
		// Different inbound port
		{l1, Spec{DPID: 1, InPort: 2, OutPort: Uint32(2)}, false},
		// VLAN match only is still layer-1.
		{l2a, Spec{DPID: 1, InPort: 1, OutPort: Uint32(2), VLANID: Uint16(10)}, true},
	}

	for i, v := range samples {
		if v.A.ConflictsWith(v.B) != v.Expected {
			t.Fatalf("unexpected conflict result #%v: a=%v, b=%v, expected=%v", i, v.A, v.B, v.Expected)
		}
	}
}

func TestSpecEqual(t *testing.T) {
	a := Spec{DPID: 1, InPort: 1, OutPort: Uint32(2), Priority: Uint16(10), SrcMAC: mustMAC("aa:aa:aa:aa:aa:aa")}
	b := a.clone()
	if !a.Equal(b) {
		t.Fatalf("clone is not equal: a=%v, b=%v", a, b)
	}

	*b.OutPort = 3
	if a.Equal(b) || *a.OutPort != 2 {
		t.Fatalf("clone shares the outport with the original")
	}

	c := a.clone()
	c.OutPort = nil
	c.OutPorts = []uint32{2}
	if a.Equal(c) {
		t.Fatalf("outport and outports are equal: a=%v, c=%v", a, c)
	}

	d := a.clone()
	d.Priority = nil
	if a.Equal(d) {
		t.Fatalf("explicit and default priorities are equal: a=%v, d=%v", a, d)
	}
	d.Priority = Uint16(openflow.MaxPriority)
	e := d.clone()
	e.Priority = nil
	if !d.Equal(e) {
		t.Fatalf("default priority is not same as the maximum priority: d=%v, e=%v", d, e)
	}
}

func TestSpecValidate(t *testing.T) {
	invalid := []Spec{
		{DPID: 1, InPort: 1},
		{DPID: 1, InPort: 1, OutPort: Uint32(2), OutPorts: []uint32{3}},
		{DPID: 1, InPort: 1, OutPort: Uint32(2), SrcMAC: []byte{0xaa}},
		{DPID: 1, InPort: 1, OutPort: Uint32(2), VLANID: Uint16(0)},
		{DPID: 1, InPort: 1, OutPort: Uint32(2), VLANID: Uint16(4096)},
		{DPID: 1, InPort: 1, OutPort: Uint32(2), SetVLAN: Uint16(5000)},
	}
	for _, v := range invalid {
		if err := v.Validate(); err == nil {
			t.Fatalf("expected error for %v, but no error returns", v)
		}
	}

	valid := Spec{DPID: 1, InPort: 1, OutPorts: []uint32{2, 3}, VLANID: Uint16(4095)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error for %v: %v", valid, err)
	}
}

func TestSpecJSON(t *testing.T) {
	spec := Spec{DPID: 1, InPort: 1, OutPorts: []uint32{3, 4}, SrcMAC: mustMAC("aa:aa:aa:aa:aa:aa")}
	v, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("failed to marshal a patch: %v", err)
	}

	expected := `{"dpid":1,"inport":1,"outports":[3,4],"priority":65535,"eth_src":"aa:aa:aa:aa:aa:aa"}`
	if string(v) != expected {
		t.Fatalf("unexpected JSON: expected=%v, actual=%v", expected, string(v))
	}
}

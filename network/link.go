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
)

// Endpoint is a port of a switch.
type Endpoint struct {
	DPID uint64 `json:"dpid"`
	Port uint32 `json:"port"`
}

func (r Endpoint) Less(other Endpoint) bool {
	if r.DPID != other.DPID {
		return r.DPID < other.DPID
	}

	return r.Port < other.Port
}

func (r Endpoint) String() string {
	return fmt.Sprintf("%#x:%v", r.DPID, r.Port)
}

// NodeName returns the name of the endpoint in the whole topology graph.
func (r Endpoint) NodeName() string {
	return fmt.Sprintf("dpid:%#x.dpid:%#x_port:%d", r.DPID, r.DPID, r.Port)
}

// Link is an undirected edge between two endpoints. A physical link connects
// two different switches, and a logical wire connects two ports of a switch.
//
// Link is always stored in the canonical order, so the built-in equality
// operator and map keys do not depend on the order of the endpoints.
type Link struct {
	a, b Endpoint
}

func NewLink(a, b Endpoint) Link {
	if b.Less(a) {
		a, b = b, a
	}

	return Link{a: a, b: b}
}

func (r Link) Equal(other Link) bool {
	return r.a == other.a && r.b == other.b
}

// Key returns a token that identifies the link regardless of the endpoint order.
func (r Link) Key() string {
	return fmt.Sprintf("%v/%v", r.a, r.b)
}

// Less reports whether r sorts before other.
func (r Link) Less(other Link) bool {
	if r.a != other.a {
		return r.a.Less(other.a)
	}

	return r.b.Less(other.b)
}

// ConnectsTo returns whether one of the endpoints of the link is e.
func (r Link) ConnectsTo(e Endpoint) bool {
	return r.a == e || r.b == e
}

// ConnectsToSwitch returns whether the link has an endpoint on the switch dpid.
func (r Link) ConnectsToSwitch(dpid uint64) bool {
	return r.a.DPID == dpid || r.b.DPID == dpid
}

func (r Link) Endpoints() [2]Endpoint {
	return [2]Endpoint{r.a, r.b}
}

// IsLogical returns whether both endpoints are on the same switch.
func (r Link) IsLogical() bool {
	return r.a.DPID == r.b.DPID
}

func (r Link) String() string {
	return fmt.Sprintf("%v-%v", r.a, r.b)
}

func (r Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		DPIDA uint64 `json:"dpid_a"`
		PortA uint32 `json:"port_a"`
		DPIDB uint64 `json:"dpid_b"`
		PortB uint32 `json:"port_b"`
	}{r.a.DPID, r.a.Port, r.b.DPID, r.b.Port})
}

// GraphNode is a node of the whole topology graph, named after an endpoint
// and importing the endpoints it is linked with.
type GraphNode struct {
	Name    string   `json:"name"`
	Imports []string `json:"imports"`
}

// GraphNodes returns the two nodes that describe the link in the whole topology graph.
func (r Link) GraphNodes() []GraphNode {
	a, b := r.a.NodeName(), r.b.NodeName()
	return []GraphNode{
		{Name: a, Imports: []string{b}},
		{Name: b, Imports: []string{a}},
	}
}

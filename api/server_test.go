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
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stereocat/patch-panel/network"
	"github.com/stereocat/patch-panel/openflow"
	"github.com/stereocat/patch-panel/panel"
	"github.com/stereocat/patch-panel/protocol"
)

type testResponse struct {
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T) (http.Handler, *panel.Panel) {
	topo, err := network.NewTopology(16)
	if err != nil {
		t.Fatalf("failed to create a topology: %v", err)
	}
	p := panel.New(openflow.DryRun{}, topo, 0)
	server := &Server{Controller: p}
	handler, err := server.Handler()
	if err != nil {
		t.Fatalf("failed to create a handler: %v", err)
	}

	return handler, p
}

func request(t *testing.T, handler http.Handler, method, path, body string) testResponse {
	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("failed to create a request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v %v", method, path)
	}
	resp := testResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode the response: %v: %v", err, rec.Body.String())
	}
	if int(resp.Status) != rec.Code {
		t.Fatalf("mismatched status codes: body=%v, http=%v", resp.Status, rec.Code)
	}

	return resp
}

func TestPatchFlow(t *testing.T) {
	handler, p := newTestHandler(t)

	samples := []struct {
		Method   string
		Body     string
		Expected Status
	}{
		{"PUT", `{"dpid": 1, "inport": 1, "outport": 2}`, StatusOkay},
		// Layer-1 patch on the same inbound port
		{"PUT", `{"dpid": 1, "inport": 1, "outport": 3}`, StatusLayerConflict},
		{"PUT", `{"dpid": 1, "inport": 2, "eth_src": "aa:aa:aa:aa:aa:aa", "outports": [3, 4], "vlan_vid": 10, "set_vlan": 20, "pop_vlan": true}`, StatusOkay},
		{"PUT", `{"dpid": 1, "inport": 2, "eth_src": "bb-bb-bb-bb-bb-bb", "outport": 3, "priority": 0}`, StatusOkay},
		{"PUT", `{"dpid": 1, "inport": 2, "eth_src": "bb-bb-bb-bb-bb-bb", "outport": 3, "priority": 0}`, StatusDuplicated},
		{"DELETE", `{"dpid": 1, "inport": 2, "eth_src": "bb:bb:bb:bb:bb:bb", "outport": 3, "priority": 0}`, StatusOkay},
		{"DELETE", `{"dpid": 1, "inport": 2, "eth_src": "bb:bb:bb:bb:bb:bb", "outport": 3, "priority": 0}`, StatusNotFound},
		// Malformed inputs
		{"PUT", `{"inport": 1, "outport": 2}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "outport": 2}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outport": 2, "outports": [3]}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outports": []}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outport": 2, "eth_src": "aa:aa-aa:aa:aa:aa"}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outport": 2, "eth_dst": "aa:aa:aa:aa:aa"}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outport": 2, "vlan_vid": 0}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outport": 2, "set_vlan": 4096}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outport": 2, "priority": 65536}`, StatusInvalidParameter},
		{"PUT", `{"dpid": 1, "inport": 5, "outport": 2, "priority": -1}`, StatusInvalidParameter},
		{"PUT", `not a json`, StatusInvalidParameter},
	}

	for i, v := range samples {
		resp := request(t, handler, v.Method, "/patch/flow", v.Body)
		if resp.Status != v.Expected {
			t.Fatalf("unexpected status #%v: expected=%v, actual=%v, message=%v", i, v.Expected, resp.Status, resp.Message)
		}
	}

	list := p.ListPatches()
	if len(list) != 2 {
		t.Fatalf("unexpected number of patches: expected=2, actual=%v", len(list))
	}
	if *list[1].VLANID != 10 || *list[1].SetVLAN != 20 || !list[1].PopVLAN || !cmp.Equal(list[1].OutPorts, []uint32{3, 4}) {
		t.Fatalf("unexpected patch: %v", list[1])
	}

	resp := request(t, handler, "GET", "/patch/flow", "")
	patches := make([]map[string]interface{}, 0)
	if err := json.Unmarshal(resp.Data, &patches); err != nil {
		t.Fatalf("failed to decode patches: %v", err)
	}
	if len(patches) != 2 || patches[0]["priority"].(float64) != 0xffff || patches[1]["eth_src"].(string) != "aa:aa:aa:aa:aa:aa" {
		t.Fatalf("unexpected patches: %v", patches)
	}
}

func TestPatchWire(t *testing.T) {
	handler, p := newTestHandler(t)

	if resp := request(t, handler, "PUT", "/patch/wire", `{"dpid": 1, "port_a": 1, "port_b": 2}`); resp.Status != StatusOkay {
		t.Fatalf("failed to create a wire: %v", resp.Message)
	}
	if resp := request(t, handler, "PUT", "/patch/wire", `{"dpid": 1, "port_a": 1, "port_b": 1}`); resp.Status != StatusInvalidParameter {
		t.Fatalf("unexpected status: expected=%v, actual=%v", StatusInvalidParameter, resp.Status)
	}
	if len(p.ListPatches()) != 2 {
		t.Fatalf("unexpected patches: %v", p.ListPatches())
	}

	resp := request(t, handler, "GET", "/patch/logical_wires", "")
	expected := `[{"dpid_a":1,"port_a":1,"dpid_b":1,"port_b":2}]`
	if string(resp.Data) != expected {
		t.Fatalf("unexpected logical wires: expected=%v, actual=%v", expected, string(resp.Data))
	}

	if resp := request(t, handler, "DELETE", "/patch/wire", `{"dpid": 1, "port_a": 1, "port_b": 2}`); resp.Status != StatusOkay {
		t.Fatalf("failed to delete a wire: %v", resp.Message)
	}
	if resp := request(t, handler, "DELETE", "/patch/wire", `{"dpid": 1, "port_a": 1, "port_b": 2}`); resp.Status != StatusNotFound {
		t.Fatalf("unexpected status: expected=%v, actual=%v", StatusNotFound, resp.Status)
	}
}

func TestTopologyQueries(t *testing.T) {
	handler, p := newTestHandler(t)
	if err := p.OnSwitchConnected(0x1, []network.Port{{Number: 5, State: network.PortStateUp}}); err != nil {
		t.Fatalf("failed to connect a switch: %v", err)
	}

	resp := request(t, handler, "GET", "/patch/switches", "")
	if string(resp.Data) != `["0x1"]` {
		t.Fatalf("unexpected switches: %v", string(resp.Data))
	}

	resp = request(t, handler, "GET", "/patch/switch/0x1/ports", "")
	if resp.Status != StatusOkay {
		t.Fatalf("unexpected status: %v", resp.Status)
	}
	ports := make([]map[string]interface{}, 0)
	if err := json.Unmarshal(resp.Data, &ports); err != nil {
		t.Fatalf("failed to decode ports: %v", err)
	}
	if len(ports) != 1 || ports[0]["number"].(float64) != 5 || ports[0]["state"].(string) != "up" {
		t.Fatalf("unexpected ports: %v", ports)
	}

	if resp := request(t, handler, "GET", "/patch/switch/2/ports", ""); resp.Status != StatusNotFound {
		t.Fatalf("unexpected status: expected=%v, actual=%v", StatusNotFound, resp.Status)
	}
	if resp := request(t, handler, "GET", "/patch/switch/xyz/ports", ""); resp.Status != StatusInvalidParameter {
		t.Fatalf("unexpected status: expected=%v, actual=%v", StatusInvalidParameter, resp.Status)
	}
	// Empty list is rendered as an empty array.
	if resp := request(t, handler, "GET", "/patch/physical_links", ""); string(resp.Data) != `[]` {
		t.Fatalf("unexpected physical links: %v", string(resp.Data))
	}
}

func TestTopologySnapshot(t *testing.T) {
	handler, p := newTestHandler(t)
	if err := p.OnSwitchConnected(0x1, []network.Port{{Number: 5, State: network.PortStateUp}}); err != nil {
		t.Fatalf("failed to connect a switch: %v", err)
	}
	mac := net.HardwareAddr{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
	arp, err := protocol.NewARPRequest(mac, net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2)).MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal ARP: %v", err)
	}
	frame, err := protocol.Ethernet{SrcMAC: mac, DstMAC: protocol.BroadcastMAC, Type: protocol.EtherTypeARP, Payload: arp}.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal ethernet: %v", err)
	}
	p.OnPacketIn(0x1, 5, frame)

	resp := request(t, handler, "GET", "/patch/topology", "")
	if resp.Status != StatusOkay {
		t.Fatalf("unexpected status: %v", resp.Status)
	}
	snapshot := struct {
		Switches []map[string]interface{} `json:"switches"`
		Links    []map[string]interface{} `json:"links"`
		Hosts    []map[string]interface{} `json:"hosts"`
	}{}
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("failed to decode the topology: %v", err)
	}
	if len(snapshot.Switches) != 1 || snapshot.Switches[0]["dpid"].(float64) != 1 {
		t.Fatalf("unexpected switches: %v", snapshot.Switches)
	}
	if snapshot.Links == nil || len(snapshot.Links) != 0 {
		t.Fatalf("unexpected links: %v", snapshot.Links)
	}
	if len(snapshot.Hosts) != 1 || snapshot.Hosts[0]["mac"].(string) != "aa:aa:aa:aa:aa:aa" || snapshot.Hosts[0]["ip"].(string) != "10.0.0.1" {
		t.Fatalf("unexpected hosts: %v", snapshot.Hosts)
	}
}

func TestGraphNodes(t *testing.T) {
	links := []network.Link{
		network.NewLink(network.Endpoint{DPID: 1, Port: 5}, network.Endpoint{DPID: 2, Port: 9}),
		network.NewLink(network.Endpoint{DPID: 1, Port: 5}, network.Endpoint{DPID: 1, Port: 1}),
	}
	expected := []network.GraphNode{
		{Name: "dpid:0x1.dpid:0x1_port:1", Imports: []string{"dpid:0x1.dpid:0x1_port:5"}},
		{Name: "dpid:0x1.dpid:0x1_port:5", Imports: []string{"dpid:0x1.dpid:0x1_port:1", "dpid:0x2.dpid:0x2_port:9"}},
		{Name: "dpid:0x2.dpid:0x2_port:9", Imports: []string{"dpid:0x1.dpid:0x1_port:5"}},
	}
	if v := graphNodes(links); !cmp.Equal(v, expected) {
		t.Fatalf("unexpected graph nodes: %v", cmp.Diff(expected, v))
	}
}

func TestMetricsHandler(t *testing.T) {
	topo, err := network.NewTopology(16)
	if err != nil {
		t.Fatalf("failed to create a topology: %v", err)
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metrics"))
	})
	server := &Server{Controller: panel.New(openflow.DryRun{}, topo, 0), Metrics: metrics}
	if _, err := server.Handler(); err == nil {
		t.Fatalf("expected error for an empty metrics path, but no error returns")
	}

	server.MetricsPath = "/metrics"
	handler, err := server.Handler()
	if err != nil {
		t.Fatalf("failed to create a handler: %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Body.String() != "metrics" {
		t.Fatalf("unexpected metrics response: %v", rec.Body.String())
	}
}

func TestDeleteListedPatch(t *testing.T) {
	handler, p := newTestHandler(t)
	if resp := request(t, handler, "PUT", "/patch/flow", `{"dpid": 1, "inport": 1, "outport": 2, "eth_src": "aa:aa:aa:aa:aa:aa"}`); resp.Status != StatusOkay {
		t.Fatalf("failed to create a patch: %v", resp.Message)
	}
	// Same patch with the explicit default priority
	if resp := request(t, handler, "PUT", "/patch/flow", `{"dpid": 1, "inport": 1, "outport": 2, "eth_src": "aa:aa:aa:aa:aa:aa", "priority": 65535}`); resp.Status != StatusDuplicated {
		t.Fatalf("unexpected status: expected=%v, actual=%v", StatusDuplicated, resp.Status)
	}

	resp := request(t, handler, "GET", "/patch/flow", "")
	patches := make([]json.RawMessage, 0)
	if err := json.Unmarshal(resp.Data, &patches); err != nil || len(patches) != 1 {
		t.Fatalf("unexpected patches: %v", string(resp.Data))
	}
	if resp := request(t, handler, "DELETE", "/patch/flow", string(patches[0])); resp.Status != StatusOkay {
		t.Fatalf("failed to delete the listed patch: %v: %v", string(patches[0]), resp.Message)
	}
	if len(p.ListPatches()) != 0 {
		t.Fatalf("unexpected patches after delete: %v", p.ListPatches())
	}
}

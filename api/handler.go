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
	"fmt"
	"sort"
	"strconv"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/network"
	"github.com/stereocat/patch-panel/patch"
)

func (r *Server) routes() []*rest.Route {
	return []*rest.Route{
		rest.Get("/patch/switches", r.listSwitches),
		rest.Get("/patch/switch/:dpid/ports", r.listPorts),
		rest.Get("/patch/physical_links", r.listPhysicalLinks),
		rest.Get("/patch/logical_wires", r.listLogicalWires),
		rest.Get("/patch/whole_topology", r.wholeTopology),
		rest.Get("/patch/topology", r.topology),
		rest.Get("/patch/flow", r.listPatches),
		rest.Put("/patch/flow", r.createPatch),
		rest.Delete("/patch/flow", r.deletePatch),
		rest.Put("/patch/wire", r.createWire),
		rest.Delete("/patch/wire", r.deleteWire),
	}
}

// errorStatus returns the status code for err returned from the controller.
func errorStatus(err error) Status {
	switch {
	case errors.Is(err, patch.ErrMalformed):
		return StatusInvalidParameter
	case errors.Is(err, patch.ErrConflict):
		return StatusLayerConflict
	case errors.Is(err, patch.ErrAlreadyExists):
		return StatusDuplicated
	case errors.Is(err, patch.ErrNotFound):
		return StatusNotFound
	default:
		return StatusInternalServerError
	}
}

func writeError(w rest.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == StatusInternalServerError {
		logger.Errorf("internal server error: %v", err)
	}
	writeResponse(w, Response{Status: status, Message: err.Error()})
}

func (r *Server) listSwitches(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("switch list request from %v", req.RemoteAddr)

	switches := r.Controller.Switches()
	v := make([]string, 0, len(switches))
	for _, sw := range switches {
		v = append(v, fmt.Sprintf("%#x", sw.DPID))
	}
	writeResponse(w, Response{Status: StatusOkay, Data: v})
}

func (r *Server) listPorts(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("port list request from %v: dpid=%v", req.RemoteAddr, req.PathParam("dpid"))

	// Accept both the decimal and the hexadecimal (0x prefixed) forms.
	dpid, err := strconv.ParseUint(req.PathParam("dpid"), 0, 64)
	if err != nil {
		writeResponse(w, Response{Status: StatusInvalidParameter, Message: fmt.Sprintf("invalid dpid: %v", req.PathParam("dpid"))})
		return
	}
	sw, ok := r.Controller.Switch(dpid)
	if !ok {
		writeResponse(w, Response{Status: StatusNotFound, Message: fmt.Sprintf("unknown switch: %#x", dpid)})
		return
	}
	writeResponse(w, Response{Status: StatusOkay, Data: sw.Ports})
}

func (r *Server) listPhysicalLinks(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("physical link list request from %v", req.RemoteAddr)
	writeResponse(w, Response{Status: StatusOkay, Data: r.Controller.PhysicalLinks()})
}

func (r *Server) listLogicalWires(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("logical wire list request from %v", req.RemoteAddr)
	writeResponse(w, Response{Status: StatusOkay, Data: r.Controller.LogicalWires()})
}

func (r *Server) wholeTopology(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("whole topology request from %v", req.RemoteAddr)

	links := append(r.Controller.PhysicalLinks(), r.Controller.LogicalWires()...)
	writeResponse(w, Response{Status: StatusOkay, Data: graphNodes(links)})
}

// topology returns the switches, physical links, and learned hosts at once.
func (r *Server) topology(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("topology snapshot request from %v", req.RemoteAddr)
	writeResponse(w, Response{Status: StatusOkay, Data: r.Controller.Snapshot()})
}

// graphNodes merges the graph nodes of links by their names.
func graphNodes(links []network.Link) []network.GraphNode {
	imports := make(map[string]map[string]struct{})
	for _, link := range links {
		for _, n := range link.GraphNodes() {
			if _, ok := imports[n.Name]; !ok {
				imports[n.Name] = make(map[string]struct{})
			}
			for _, v := range n.Imports {
				imports[n.Name][v] = struct{}{}
			}
		}
	}

	nodes := make([]network.GraphNode, 0, len(imports))
	for name, set := range imports {
		n := network.GraphNode{Name: name, Imports: make([]string, 0, len(set))}
		for v := range set {
			n.Imports = append(n.Imports, v)
		}
		sort.Strings(n.Imports)
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	return nodes
}

func (r *Server) listPatches(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("patch list request from %v", req.RemoteAddr)
	writeResponse(w, Response{Status: StatusOkay, Data: r.Controller.ListPatches()})
}

func (r *Server) createPatch(w rest.ResponseWriter, req *rest.Request) {
	p := new(patchParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		writeResponse(w, Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("patch creation request from %v: %v", req.RemoteAddr, spew.Sdump(p))

	if err := r.Controller.CreatePatch(p.Spec); err != nil {
		writeError(w, err)
		return
	}
	writeResponse(w, Response{Status: StatusOkay, Data: p.Spec})
}

func (r *Server) deletePatch(w rest.ResponseWriter, req *rest.Request) {
	p := new(patchParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		writeResponse(w, Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("patch removal request from %v: %v", req.RemoteAddr, spew.Sdump(p))

	if err := r.Controller.DeletePatch(p.Spec); err != nil {
		writeError(w, err)
		return
	}
	writeResponse(w, Response{Status: StatusOkay})
}

func (r *Server) createWire(w rest.ResponseWriter, req *rest.Request) {
	p := new(wireParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		writeResponse(w, Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("wire creation request from %v: %v", req.RemoteAddr, spew.Sdump(p))

	if err := r.Controller.CreateWire(p.DPID, p.PortA, p.PortB); err != nil {
		writeError(w, err)
		return
	}
	writeResponse(w, Response{Status: StatusOkay})
}

func (r *Server) deleteWire(w rest.ResponseWriter, req *rest.Request) {
	p := new(wireParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		writeResponse(w, Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("wire removal request from %v: %v", req.RemoteAddr, spew.Sdump(p))

	if err := r.Controller.DeleteWire(p.DPID, p.PortA, p.PortB); err != nil {
		writeError(w, err)
		return
	}
	writeResponse(w, Response{Status: StatusOkay})
}

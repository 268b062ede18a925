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
	"sort"
	"sync"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/network"
	"github.com/stereocat/patch-panel/openflow"
)

var (
	logger = logging.MustGetLogger("patch")
)

// Installer installs and removes flow rules on switches.
type Installer interface {
	InstallFlowRule(dpid uint64, rule openflow.FlowRule) error
	RemoveFlowRule(dpid uint64, match openflow.Match) error
}

// Manager keeps the patches in the creation order, and installs their flow
// rules through the installer. All the methods are safe for concurrent use.
type Manager struct {
	mutex     sync.Mutex
	installer Installer
	patches   []Spec
}

func NewManager(installer Installer) *Manager {
	if installer == nil {
		panic("nil installer")
	}

	return &Manager{
		installer: installer,
		patches:   make([]Spec, 0),
	}
}

// Create installs the flow rule of spec and stores spec. It returns
// *LayerConflictError if spec conflicts with a stored patch, and
// ErrAlreadyExists if the same patch is already stored. Nothing is stored
// if the installation fails.
func (r *Manager) Create(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	spec = spec.clone()
	spec.Priority = Uint16(spec.priority())

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if v, ok := r.findConflict(spec); ok {
		return &LayerConflictError{Existing: v.clone()}
	}
	if r.index(spec) >= 0 {
		return errors.Wrapf(ErrAlreadyExists, "%v", spec)
	}

	rule := BuildRule(spec)
	if err := r.installer.InstallFlowRule(spec.DPID, rule); err != nil {
		return errors.Wrapf(err, "installing a flow rule for %v", spec)
	}
	r.patches = append(r.patches, spec)
	logger.Infof("patch is created: %v, rule=%v", spec, rule)

	return nil
}

// Delete removes the flow rule of the stored patch that is same as spec, and
// then removes the patch. It returns ErrNotFound if there is no such patch.
func (r *Manager) Delete(spec Spec) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	i := r.index(spec)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "%v", spec)
	}

	if err := r.installer.RemoveFlowRule(spec.DPID, DeleteMatch(spec)); err != nil {
		return errors.Wrapf(err, "removing a flow rule for %v", spec)
	}
	r.patches = append(r.patches[:i], r.patches[i+1:]...)
	logger.Infof("patch is deleted: %v", spec)

	return nil
}

// Restore installs the flow rules of the stored patches on the switch dpid
// again, for example after the switch has reconnected. It returns the first
// error after trying all the patches.
func (r *Manager) Restore(dpid uint64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var first error
	for _, v := range r.patches {
		if v.DPID != dpid {
			continue
		}
		if err := r.installer.InstallFlowRule(dpid, BuildRule(v)); err != nil {
			logger.Errorf("failed to restore %v: %v", v, err)
			if first == nil {
				first = errors.Wrapf(err, "restoring %v", v)
			}
		}
	}

	return first
}

// List returns the stored patches in the creation order.
func (r *Manager) List() []Spec {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v := make([]Spec, 0, len(r.patches))
	for _, p := range r.patches {
		v = append(v, p.clone())
	}

	return v
}

func (r *Manager) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.patches)
}

// ConflictExists returns whether spec conflicts with any stored patch.
func (r *Manager) ConflictExists(spec Spec) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, ok := r.findConflict(spec)
	return ok
}

// LogicalWires returns the links between the inbound port and each outbound
// port of the stored patches, without duplicates and in the canonical order.
func (r *Manager) LogicalWires() []network.Link {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	set := make(map[network.Link]struct{})
	for _, p := range r.patches {
		in := network.Endpoint{DPID: p.DPID, Port: p.InPort}
		for _, out := range p.OutPortSet() {
			set[network.NewLink(in, network.Endpoint{DPID: p.DPID, Port: out})] = struct{}{}
		}
	}

	v := make([]network.Link, 0, len(set))
	for link := range set {
		v = append(v, link)
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Less(v[j]) })

	return v
}

// Caller should hold the mutex.
func (r *Manager) findConflict(spec Spec) (Spec, bool) {
	for _, v := range r.patches {
		if v.ConflictsWith(spec) {
			return v, true
		}
	}

	return Spec{}, false
}

// Caller should hold the mutex.
func (r *Manager) index(spec Spec) int {
	for i, v := range r.patches {
		if v.Equal(spec) {
			return i
		}
	}

	return -1
}

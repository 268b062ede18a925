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
	"github.com/stereocat/patch-panel/openflow"
)

// BuildRule translates spec into a flow rule. The priority is the maximum one
// if spec does not specify it, and the match always includes the inbound port.
//
// The VLAN actions are only added to a layer-2 patch: set_vlan first, and then
// strip_vlan if both are specified. The output actions follow in the order of
// the outbound ports. spec should be valid; an invalid match field is left
// wildcarded.
func BuildRule(spec Spec) openflow.FlowRule {
	rule := openflow.FlowRule{
		Priority: spec.priority(),
		Match:    DeleteMatch(spec),
		Actions:  make([]openflow.Action, 0),
	}

	if spec.IsLayer2() {
		if spec.SetVLAN != nil {
			rule.Actions = append(rule.Actions, openflow.NewSetVLANIDAction(*spec.SetVLAN))
		}
		if spec.PopVLAN {
			rule.Actions = append(rule.Actions, openflow.NewStripVLANAction())
		}
	}
	for _, port := range spec.OutPortSet() {
		rule.Actions = append(rule.Actions, openflow.NewOutputAction(port))
	}

	return rule
}

// DeleteMatch returns the match that addresses the flow rule of spec.
func DeleteMatch(spec Spec) openflow.Match {
	match := openflow.NewMatch()
	match.SetInPort(spec.InPort)

	if spec.SrcMAC != nil {
		if err := match.SetSrcMAC(spec.SrcMAC); err != nil {
			logger.Warningf("ignoring eth_src of %v: %v", spec, err)
		}
	}
	if spec.DstMAC != nil {
		if err := match.SetDstMAC(spec.DstMAC); err != nil {
			logger.Warningf("ignoring eth_dst of %v: %v", spec, err)
		}
	}
	if spec.VLANID != nil {
		if err := match.SetVLANID(*spec.VLANID); err != nil {
			logger.Warningf("ignoring vlan_vid of %v: %v", spec, err)
		}
	}

	return match
}

// DefaultDropRule returns the lowest priority rule that drops all the packets
// not matched by any patch.
func DefaultDropRule() openflow.FlowRule {
	return openflow.FlowRule{
		Priority: openflow.MinPriority,
		Match:    openflow.NewMatch(),
		Actions:  make([]openflow.Action, 0),
	}
}

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
	"fmt"
)

type ActionType uint8

const (
	ActionOutput ActionType = iota
	ActionSetVLANID
	ActionStripVLAN
)

func (r ActionType) String() string {
	switch r {
	case ActionOutput:
		return "output"
	case ActionSetVLANID:
		return "set_vlan_vid"
	case ActionStripVLAN:
		return "strip_vlan"
	default:
		return fmt.Sprintf("unknown(%v)", uint8(r))
	}
}

// Action is an element of the ordered action list of a flow rule. Port is
// only meaningful for ActionOutput, and VLANID for ActionSetVLANID.
type Action struct {
	Type   ActionType
	Port   uint32
	VLANID uint16
}

func NewOutputAction(port uint32) Action {
	return Action{Type: ActionOutput, Port: port}
}

func NewSetVLANIDAction(id uint16) Action {
	return Action{Type: ActionSetVLANID, VLANID: id}
}

func NewStripVLANAction() Action {
	return Action{Type: ActionStripVLAN}
}

func (r Action) String() string {
	switch r.Type {
	case ActionOutput:
		return fmt.Sprintf("%v:%v", r.Type, r.Port)
	case ActionSetVLANID:
		return fmt.Sprintf("%v:%v", r.Type, r.VLANID)
	default:
		return r.Type.String()
	}
}

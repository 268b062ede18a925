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
	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("openflow")
)

// Driver is the switch control capability provided by an OpenFlow runtime.
// Calls are synchronous or fire-and-forget, and they are never retried here.
type Driver interface {
	// InstallFlowRule adds rule into the flow table of the switch identified by dpid.
	InstallFlowRule(dpid uint64, rule FlowRule) error
	// RemoveFlowRule removes the flow entries whose match is equal to match.
	RemoveFlowRule(dpid uint64, match Match) error
	// SendRawFrame sends frame out of the port of the switch identified by dpid.
	SendRawFrame(dpid uint64, port uint32, frame []byte) error
}

// DryRun is a Driver that only logs the requested switch operations.
type DryRun struct{}

func (r DryRun) InstallFlowRule(dpid uint64, rule FlowRule) error {
	logger.Infof("FLOW_MOD (ADD): DPID=%v, %v", dpid, rule)
	return nil
}

func (r DryRun) RemoveFlowRule(dpid uint64, match Match) error {
	logger.Infof("FLOW_MOD (DELETE): DPID=%v, Match={%v}", dpid, match)
	return nil
}

func (r DryRun) SendRawFrame(dpid uint64, port uint32, frame []byte) error {
	logger.Debugf("PACKET_OUT: DPID=%v, Port=%v, Length=%v", dpid, port, len(frame))
	return nil
}

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

package protocol

import (
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
)

const (
	EtherTypeIPv4 = 0x0800
	EtherTypeARP  = 0x0806
	EtherTypeVLAN = 0x8100
	EtherTypeLLDP = 0x88CC
)

var (
	// Nearest bridge multicast address for LLDP (IEEE 802.1AB).
	LLDPMulticastMAC = net.HardwareAddr([]byte{0x01, 0x80, 0xC2, 0x00, 0x00, 0x0E})
	BroadcastMAC     = net.HardwareAddr([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
)

type Ethernet struct {
	SrcMAC, DstMAC net.HardwareAddr
	// VLANID is zero if the frame is not 802.1Q-tagged.
	VLANID  uint16
	Type    uint16
	Payload []byte
}

func (r Ethernet) MarshalBinary() ([]byte, error) {
	if len(r.SrcMAC) != 6 || len(r.DstMAC) != 6 {
		return nil, errors.New("invalid MAC address")
	}
	if r.Payload == nil {
		return nil, errors.New("nil payload")
	}

	header := 14
	if r.VLANID != 0 {
		header = 18
	}
	v := make([]byte, header+len(r.Payload))
	copy(v[0:6], r.DstMAC)
	copy(v[6:12], r.SrcMAC)
	if r.VLANID != 0 {
		binary.BigEndian.PutUint16(v[12:14], EtherTypeVLAN)
		binary.BigEndian.PutUint16(v[14:16], r.VLANID&0x0FFF)
	}
	binary.BigEndian.PutUint16(v[header-2:header], r.Type)
	copy(v[header:], r.Payload)

	return v, nil
}

func (r *Ethernet) UnmarshalBinary(data []byte) error {
	if len(data) < 14 {
		return errors.New("invalid ethernet frame length")
	}

	r.DstMAC = data[0:6]
	r.SrcMAC = data[6:12]
	r.Type = binary.BigEndian.Uint16(data[12:14])
	r.VLANID = 0
	// IEEE 802.1Q-tagged frame?
	if r.Type == EtherTypeVLAN {
		if len(data) < 18 {
			return errors.New("invalid 802.1Q-tagged ethernet frame length")
		}
		r.VLANID = binary.BigEndian.Uint16(data[14:16]) & 0x0FFF
		r.Type = binary.BigEndian.Uint16(data[16:18])
		r.Payload = data[18:]
	} else {
		r.Payload = data[14:]
	}

	return nil
}

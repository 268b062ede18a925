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

	"github.com/pkg/errors"
)

// TLV types defined by IEEE 802.1AB.
const (
	lldpTLVEnd       = 0
	lldpTLVChassisID = 1
	lldpTLVPortID    = 2
	lldpTLVTTL       = 3
)

// Chassis ID and port ID subtypes that we use.
const (
	LLDPChassisIDSubTypeLocal = 7 // Locally assigned
	LLDPPortIDSubTypeLocal    = 7 // Locally assigned
	LLDPPortIDSubTypeIfName   = 5 // Interface name
)

type LLDPChassisID struct {
	SubType uint8
	Data    []byte
}

type LLDPPortID struct {
	SubType uint8
	Data    []byte
}

type LLDP struct {
	ChassisID LLDPChassisID
	PortID    LLDPPortID
	TTL       uint16
}

func marshalTLV(tlvType uint8, value []byte) []byte {
	v := make([]byte, 2+len(value))
	binary.BigEndian.PutUint16(v[0:2], uint16(tlvType)<<9|uint16(len(value)&0x1FF))
	copy(v[2:], value)

	return v
}

func marshalSubTyped(tlvType, subType uint8, data []byte) ([]byte, error) {
	if data == nil {
		return nil, errors.Errorf("nil data for TLV type %v", tlvType)
	}
	// The information string is limited to 255 octets by the standard.
	if len(data) == 0 || len(data) > 255 {
		return nil, errors.Errorf("invalid data length for TLV type %v: %v", tlvType, len(data))
	}

	value := make([]byte, 1+len(data))
	value[0] = subType
	copy(value[1:], data)

	return marshalTLV(tlvType, value), nil
}

func (r *LLDP) MarshalBinary() ([]byte, error) {
	chassis, err := marshalSubTyped(lldpTLVChassisID, r.ChassisID.SubType, r.ChassisID.Data)
	if err != nil {
		return nil, errors.Wrap(err, "chassis ID")
	}
	port, err := marshalSubTyped(lldpTLVPortID, r.PortID.SubType, r.PortID.Data)
	if err != nil {
		return nil, errors.Wrap(err, "port ID")
	}
	ttl := make([]byte, 2)
	binary.BigEndian.PutUint16(ttl, r.TTL)

	v := make([]byte, 0, len(chassis)+len(port)+6)
	v = append(v, chassis...)
	v = append(v, port...)
	v = append(v, marshalTLV(lldpTLVTTL, ttl)...)
	// End of LLDPDU
	v = append(v, marshalTLV(lldpTLVEnd, nil)...)

	return v, nil
}

// unmarshalTLV parses a TLV whose type should be expected, and returns its
// value and the number of consumed bytes.
func unmarshalTLV(data []byte, expected uint8) (value []byte, n int, err error) {
	if len(data) < 2 {
		return nil, 0, errors.Errorf("invalid TLV length: type=%v", expected)
	}

	header := binary.BigEndian.Uint16(data[0:2])
	tlvType := uint8((header >> 9) & 0x7F)
	if tlvType != expected {
		return nil, 0, errors.Errorf("unexpected TLV type: expected=%v, got=%v", expected, tlvType)
	}
	length := int(header & 0x1FF)
	if len(data) < length+2 {
		return nil, 0, errors.Errorf("truncated TLV: type=%v, length=%v", expected, length)
	}

	return data[2 : 2+length], length + 2, nil
}

func (r *LLDP) UnmarshalBinary(data []byte) error {
	// From IEEE 802.1AB-2009:
	//
	// a) Three mandatory TLVs shall be included at the beginning of each LLDPDU and shall be in the order shown.
	// 	1) Chassis ID TLV
	// 	2) Port ID TLV
	// 	3) Time To Live TLV
	// b) Optional TLVs as selected by network management (may be inserted in any order).
	offset := 0

	chassis, n, err := unmarshalTLV(data, lldpTLVChassisID)
	if err != nil {
		return err
	}
	if len(chassis) < 2 {
		return errors.New("invalid chassis ID TLV length")
	}
	r.ChassisID = LLDPChassisID{SubType: chassis[0], Data: chassis[1:]}
	offset += n

	port, n, err := unmarshalTLV(data[offset:], lldpTLVPortID)
	if err != nil {
		return err
	}
	if len(port) < 2 {
		return errors.New("invalid port ID TLV length")
	}
	r.PortID = LLDPPortID{SubType: port[0], Data: port[1:]}
	offset += n

	ttl, _, err := unmarshalTLV(data[offset:], lldpTLVTTL)
	if err != nil {
		return err
	}
	if len(ttl) != 2 {
		return errors.New("invalid TTL TLV length")
	}
	r.TTL = binary.BigEndian.Uint16(ttl)

	return nil
}

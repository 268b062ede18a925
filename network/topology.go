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
	"bytes"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/openflow"
)

var (
	logger = logging.MustGetLogger("network")

	ErrUnknownSwitch       = errors.New("unknown switch")
	ErrUnknownPort         = errors.New("unknown port")
	ErrUnexpectedPortState = errors.New("unexpected port state")
)

const DefaultHostCacheSize = 8192

// Topology is the store of switches, ports, physical links, and hosts
// learned from the network. All the methods are safe for concurrent use.
type Topology struct {
	mutex sync.RWMutex
	// Key is DPID of a switch, and value is its ports keyed by the port number.
	switches map[uint64]map[uint32]Port
	// Value is the last seen time of a link.
	links map[Link]time.Time
	// Key is the MAC address string of a host, and value is Host.
	hosts *lru.Cache

	// Serializes mutations and event deliveries so that each observer
	// receives events in the order of the mutations.
	pubMutex sync.Mutex

	obsMutex  sync.Mutex
	observers map[uint64]Observer
	nextObsID uint64
}

func NewTopology(hostCacheSize int) (*Topology, error) {
	if hostCacheSize <= 0 {
		hostCacheSize = DefaultHostCacheSize
	}
	c, err := lru.New(hostCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating a host cache")
	}

	return &Topology{
		switches:  make(map[uint64]map[uint32]Port),
		links:     make(map[Link]time.Time),
		hosts:     c,
		observers: make(map[uint64]Observer),
	}, nil
}

// Subscribe registers o to receive topology events. Calling the returned
// cancel function stops the delivery and releases o. It is safe to call
// cancel more than once.
func (r *Topology) Subscribe(o Observer) (cancel func()) {
	if o == nil {
		panic("nil observer")
	}

	r.obsMutex.Lock()
	id := r.nextObsID
	r.nextObsID++
	r.observers[id] = o
	r.obsMutex.Unlock()

	return func() {
		r.obsMutex.Lock()
		delete(r.observers, id)
		r.obsMutex.Unlock()
	}
}

// Caller should hold pubMutex and make sure the mutex is unlocked before
// calling this function. Otherwise, observers may cause a deadlock by
// calling other topology functions.
func (r *Topology) publish(events []Event) {
	if len(events) == 0 {
		return
	}

	r.obsMutex.Lock()
	ids := make([]uint64, 0, len(r.observers))
	for id := range r.observers {
		ids = append(ids, id)
	}
	r.obsMutex.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, e := range events {
		logger.Debugf("topology event: %v", e)
		for _, id := range ids {
			r.obsMutex.Lock()
			o, ok := r.observers[id]
			r.obsMutex.Unlock()
			// Cancelled while delivering?
			if !ok {
				continue
			}
			o.OnTopologyEvent(e)
		}
	}
}

// update runs f with the write lock held, and then delivers the events returned by f.
func (r *Topology) update(f func() []Event) {
	r.pubMutex.Lock()
	defer r.pubMutex.Unlock()

	// Write lock
	r.mutex.Lock()
	events := f()
	// Unlock
	r.mutex.Unlock()

	r.publish(events)
}

// AddSwitch registers a switch with its ports. The ports of an already
// registered switch are replaced with ports.
func (r *Topology) AddSwitch(dpid uint64, ports []Port) {
	r.update(func() []Event {
		events := make([]Event, 0)

		old, ok := r.switches[dpid]
		if !ok {
			events = append(events, Event{Type: SwitchAdded, DPID: dpid})
		} else {
			// Remove the ports that disappeared while the switch was reconnecting.
			for num, p := range old {
				if !containsPort(ports, num) {
					events = append(events, r.removePort(dpid, p)...)
				}
			}
		}

		m := make(map[uint32]Port)
		for _, p := range ports {
			if p.State == PortStateDown {
				continue
			}
			p = localized(p)
			if _, ok := old[p.Number]; !ok {
				events = append(events, Event{Type: PortAdded, DPID: dpid, Port: p})
			}
			m[p.Number] = p
		}
		r.switches[dpid] = m
		logger.Infof("switch is registered: dpid=%#x, ports=%v", dpid, len(m))

		return events
	})
}

// localized marks the switch-local port as local.
func localized(p Port) Port {
	if p.Number == openflow.PortLocal {
		p.Local = true
	}

	return p
}

func containsPort(ports []Port, num uint32) bool {
	for _, p := range ports {
		if p.Number == num && p.State != PortStateDown {
			return true
		}
	}

	return false
}

// RemoveSwitch removes the switch whose DPID is dpid, and also removes its
// ports, links and the hosts attached to it. Observers receive LinkRemoved
// and PortRemoved events before SwitchRemoved. It returns false if the switch
// does not exist.
func (r *Topology) RemoveSwitch(dpid uint64) (removed bool) {
	r.update(func() []Event {
		ports, ok := r.switches[dpid]
		if !ok {
			return nil
		}
		removed = true

		events := make([]Event, 0)
		for link := range r.links {
			if link.ConnectsToSwitch(dpid) {
				delete(r.links, link)
				events = append(events, Event{Type: LinkRemoved, Link: link})
			}
		}
		r.removeHosts(func(h Host) bool { return h.Location.DPID == dpid })
		for _, p := range sortedPorts(ports) {
			events = append(events, Event{Type: PortRemoved, DPID: dpid, Port: p})
		}
		delete(r.switches, dpid)
		logger.Infof("switch is removed: dpid=%#x, ports=%v", dpid, len(ports))

		return append(events, Event{Type: SwitchRemoved, DPID: dpid})
	})

	return removed
}

// UpdatePort applies a port status change of the switch dpid. A port whose
// state is up is added or refreshed, and a port whose state is down is
// removed with its links and hosts. Other states return ErrUnexpectedPortState.
func (r *Topology) UpdatePort(dpid uint64, port Port) error {
	switch port.State {
	case PortStateUp:
	case PortStateDown:
		return r.RemovePort(dpid, port.Number)
	default:
		return errors.Wrapf(ErrUnexpectedPortState, "dpid=%#x, port=%v, state=%v", dpid, port.Number, port.State)
	}

	port = localized(port)

	var err error
	r.update(func() []Event {
		ports, ok := r.switches[dpid]
		if !ok {
			err = errors.Wrapf(ErrUnknownSwitch, "dpid=%#x", dpid)
			return nil
		}
		_, exist := ports[port.Number]
		ports[port.Number] = port
		if exist {
			return nil
		}
		logger.Infof("port is added: dpid=%#x, port=%v", dpid, port.Number)

		return []Event{{Type: PortAdded, DPID: dpid, Port: port}}
	})

	return err
}

// RemovePort removes the port num of the switch dpid, and also removes the
// links and hosts on the port. Removing an unknown port is not an error.
func (r *Topology) RemovePort(dpid uint64, num uint32) error {
	var err error
	r.update(func() []Event {
		ports, ok := r.switches[dpid]
		if !ok {
			err = errors.Wrapf(ErrUnknownSwitch, "dpid=%#x", dpid)
			return nil
		}
		p, ok := ports[num]
		if !ok {
			return nil
		}
		logger.Infof("port is removed: dpid=%#x, port=%v", dpid, num)

		return r.removePort(dpid, p)
	})

	return err
}

// Caller should hold the write lock.
func (r *Topology) removePort(dpid uint64, p Port) []Event {
	ep := Endpoint{DPID: dpid, Port: p.Number}

	events := make([]Event, 0)
	for link := range r.links {
		if link.ConnectsTo(ep) {
			delete(r.links, link)
			events = append(events, Event{Type: LinkRemoved, Link: link})
		}
	}
	r.removeHosts(func(h Host) bool { return h.Location == ep })
	delete(r.switches[dpid], p.Number)

	return append(events, Event{Type: PortRemoved, DPID: dpid, Port: p})
}

// Caller should hold the write lock.
func (r *Topology) removeHosts(match func(Host) bool) {
	for _, key := range r.hosts.Keys() {
		v, ok := r.hosts.Peek(key)
		if !ok {
			continue
		}
		if match(v.(Host)) {
			r.hosts.Remove(key)
		}
	}
}

// AddLink adds a physical link between two registered ports. If the link
// already exists, its last seen time is refreshed and added is false. A link
// on an unknown switch or port returns ErrUnknownSwitch or ErrUnknownPort.
func (r *Topology) AddLink(link Link) (added bool, err error) {
	r.update(func() []Event {
		for _, ep := range link.Endpoints() {
			ports, ok := r.switches[ep.DPID]
			if !ok {
				err = errors.Wrapf(ErrUnknownSwitch, "dpid=%#x", ep.DPID)
				return nil
			}
			// A late probe may arrive after its port has gone down.
			if _, ok := ports[ep.Port]; !ok {
				err = errors.Wrapf(ErrUnknownPort, "%v", ep)
				return nil
			}
		}

		_, exist := r.links[link]
		// Update the timestamp even if the link already exists.
		r.links[link] = time.Now()
		if exist {
			return nil
		}
		added = true
		// Hosts cannot be attached to a port connected to another switch.
		for _, ep := range link.Endpoints() {
			e := ep
			r.removeHosts(func(h Host) bool { return h.Location == e })
		}
		logger.Infof("link is added: %v", link)

		return []Event{{Type: LinkAdded, Link: link}}
	})

	return added, err
}

// RemoveStaleLinks removes the links that have not been seen during expiration,
// and returns the removed links.
func (r *Topology) RemoveStaleLinks(expiration time.Duration) []Link {
	removed := make([]Link, 0)

	r.update(func() []Event {
		now := time.Now()
		events := make([]Event, 0)
		for link, timestamp := range r.links {
			if now.Sub(timestamp) <= expiration {
				continue
			}
			delete(r.links, link)
			removed = append(removed, link)
			events = append(events, Event{Type: LinkRemoved, Link: link})
			logger.Infof("stale link is removed: %v", link)
		}

		return events
	})
	sortLinks(removed)

	return removed
}

// AddHost records a host sighting. A sighting on an unknown switch or port,
// or on a port connected to another switch, is ignored and added is false.
// added is also false when the host is already known at the same location
// with the same IP address, in which case only its last seen time is refreshed.
func (r *Topology) AddHost(host Host) (added bool) {
	if len(host.MAC) != 6 {
		return false
	}
	if host.LastSeen.IsZero() {
		host.LastSeen = time.Now()
	}

	r.update(func() []Event {
		ports, ok := r.switches[host.Location.DPID]
		if !ok {
			return nil
		}
		if _, ok := ports[host.Location.Port]; !ok {
			return nil
		}
		if r.isLinkPort(host.Location) {
			return nil
		}

		key := host.MAC.String()
		if v, ok := r.hosts.Peek(key); ok {
			old := v.(Host)
			if old.Location == host.Location && (host.IP == nil || old.IP.Equal(host.IP)) {
				old.LastSeen = host.LastSeen
				r.hosts.Add(key, old)
				return nil
			}
			// Keep the known IP address if the new sighting does not have one.
			if host.IP == nil {
				host.IP = old.IP
			}
		}
		r.hosts.Add(key, host)
		added = true
		logger.Debugf("host is added: %v", host)

		return []Event{{Type: HostAdded, Host: host}}
	})

	return added
}

// IsLinkPort returns whether the endpoint is connected to another switch.
func (r *Topology) IsLinkPort(ep Endpoint) bool {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.isLinkPort(ep)
}

// Caller should hold the lock.
func (r *Topology) isLinkPort(ep Endpoint) bool {
	for link := range r.links {
		if link.ConnectsTo(ep) {
			return true
		}
	}

	return false
}

// Switches returns the registered switches sorted by DPID.
func (r *Topology) Switches() []Switch {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.switchList()
}

// Switch returns the switch whose DPID is dpid. ok is false if it does not exist.
func (r *Topology) Switch(dpid uint64) (sw Switch, ok bool) {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if _, ok := r.switches[dpid]; !ok {
		return Switch{}, false
	}

	return r.snapshotSwitch(dpid), true
}

// Links returns the physical links in the canonical order.
func (r *Topology) Links() []Link {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.linkList()
}

// Hosts returns the known hosts sorted by the MAC address.
func (r *Topology) Hosts() []Host {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.hostList()
}

// Snapshot is a consistent copy of the whole topology.
type Snapshot struct {
	Switches []Switch `json:"switches"`
	Links    []Link   `json:"links"`
	Hosts    []Host   `json:"hosts"`
}

func (r *Topology) Snapshot() Snapshot {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return Snapshot{
		Switches: r.switchList(),
		Links:    r.linkList(),
		Hosts:    r.hostList(),
	}
}

// Caller should hold the lock.
func (r *Topology) switchList() []Switch {
	v := make([]Switch, 0, len(r.switches))
	for dpid := range r.switches {
		v = append(v, r.snapshotSwitch(dpid))
	}
	sort.Slice(v, func(i, j int) bool { return v[i].DPID < v[j].DPID })

	return v
}

// Caller should hold the lock.
func (r *Topology) snapshotSwitch(dpid uint64) Switch {
	return Switch{DPID: dpid, Ports: sortedPorts(r.switches[dpid])}
}

func sortedPorts(ports map[uint32]Port) []Port {
	v := make([]Port, 0, len(ports))
	for _, p := range ports {
		v = append(v, p)
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Number < v[j].Number })

	return v
}

// Caller should hold the lock.
func (r *Topology) linkList() []Link {
	v := make([]Link, 0, len(r.links))
	for link := range r.links {
		v = append(v, link)
	}
	sortLinks(v)

	return v
}

// Caller should hold the lock.
func (r *Topology) hostList() []Host {
	v := make([]Host, 0, r.hosts.Len())
	for _, key := range r.hosts.Keys() {
		if h, ok := r.hosts.Peek(key); ok {
			v = append(v, h.(Host))
		}
	}
	sort.Slice(v, func(i, j int) bool { return bytes.Compare(v[i].MAC, v[j].MAC) < 0 })

	return v
}

func sortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool { return links[i].Less(links[j]) })
}

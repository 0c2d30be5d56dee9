// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aer

// Container groups at most one packet per event type, as committed
// together by the acquisition loop. Empty slots are nil.
type Container struct {
	packets [NumEventTypes]TypedPacket
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{}
}

// SetPacket stores pkt in the slot for its event type, replacing any
// previous packet there.
func (c *Container) SetPacket(pkt TypedPacket) {
	c.packets[pkt.Type()] = pkt
}

// Packet returns the packet for the given event type, or nil.
func (c *Container) Packet(typ EventType) TypedPacket {
	return c.packets[typ]
}

// Len returns the number of non-empty packet slots.
func (c *Container) Len() int {
	n := 0
	for _, pkt := range c.packets {
		if pkt != nil {
			n++
		}
	}
	return n
}

// EventCount returns the total number of events across all packets.
func (c *Container) EventCount() int {
	n := 0
	for _, pkt := range c.packets {
		if pkt != nil {
			n += pkt.Len()
		}
	}
	return n
}

// Specials returns the special-event packet, or nil.
func (c *Container) Specials() *Packet[Special] {
	pkt, _ := c.packets[SpecialType].(*Packet[Special])
	return pkt
}

// Polarities returns the polarity-event packet, or nil.
func (c *Container) Polarities() *Packet[Polarity] {
	pkt, _ := c.packets[PolarityType].(*Packet[Polarity])
	return pkt
}

// Frames returns the frame packet, or nil.
func (c *Container) Frames() *Packet[Frame] {
	pkt, _ := c.packets[FrameType].(*Packet[Frame])
	return pkt
}

// IMU6s returns the IMU sample packet, or nil.
func (c *Container) IMU6s() *Packet[IMU6] {
	pkt, _ := c.packets[IMU6Type].(*Packet[IMU6])
	return pkt
}

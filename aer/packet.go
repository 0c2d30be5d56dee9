// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aer

// TypedPacket is the type-erased view of a Packet, used by Container to
// hold one packet per event type.
type TypedPacket interface {
	// Type returns the event type held by the packet.
	Type() EventType
	// Source returns the identifier of the producing device.
	Source() int16
	// TimeOverflow returns the time-epoch overflow counter the packet's
	// 32-bit timestamps are relative to.
	TimeOverflow() int32
	// Len returns the number of events appended so far.
	Len() int
}

// Packet is a growable batch of events of a single type, stamped with
// its producing device and the time epoch its timestamps belong to.
type Packet[E Event] struct {
	typ      EventType
	source   int16
	overflow int32
	events   []E
}

// NewPacket returns a packet for events of type typ from device source,
// within time epoch overflow, with room for capacity events.
func NewPacket[E Event](typ EventType, source int16, overflow int32, capacity int) *Packet[E] {
	return &Packet[E]{
		typ:      typ,
		source:   source,
		overflow: overflow,
		events:   make([]E, 0, capacity),
	}
}

func (p *Packet[E]) Type() EventType     { return p.typ }
func (p *Packet[E]) Source() int16       { return p.source }
func (p *Packet[E]) TimeOverflow() int32 { return p.overflow }
func (p *Packet[E]) Len() int            { return len(p.events) }

// Events returns the events appended so far. The slice is owned by the
// packet until the packet is committed into a container.
func (p *Packet[E]) Events() []E { return p.events }

// EnsureSpace grows the packet so at least n more events can be
// appended without reallocation. Capacity doubles until it fits.
func (p *Packet[E]) EnsureSpace(n int) {
	need := len(p.events) + n
	if need <= cap(p.events) {
		return
	}
	newCap := cap(p.events)
	if newCap == 0 {
		newCap = 1
	}
	for newCap < need {
		newCap *= 2
	}
	events := make([]E, len(p.events), newCap)
	copy(events, p.events)
	p.events = events
}

// Append adds an event to the packet.
func (p *Packet[E]) Append(ev E) {
	p.events = append(p.events, ev)
}

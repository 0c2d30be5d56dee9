// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport abstracts the two channels a camera exposes to the
// host: a control channel of module/parameter registers and a bulk
// stream of raw event buffers.
package transport // import "github.com/go-aer/daq/transport"

// RegisterBus is the control channel of a device: 32-bit parameters
// addressed by module and parameter number.
type RegisterBus interface {
	ReadRegister(module, param uint8) (uint32, error)
	WriteRegister(module, param uint8, value uint32) error
}

// DataStream is the bulk event channel of a device. StartStream hands
// out a channel of raw buffers; the channel closes when the stream ends
// or StopStream is called. Buffers are owned by the receiver.
type DataStream interface {
	StartStream() (<-chan []byte, error)
	StopStream() error
}

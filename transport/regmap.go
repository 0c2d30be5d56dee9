// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import "sync"

// RegisterMap is an in-memory RegisterBus, used by tests and by replay
// sessions where no hardware is attached. Unwritten registers read as
// zero.
type RegisterMap struct {
	mu   sync.RWMutex
	regs map[uint16]uint32
}

// NewRegisterMap returns an empty register map.
func NewRegisterMap() *RegisterMap {
	return &RegisterMap{regs: make(map[uint16]uint32)}
}

func regKey(module, param uint8) uint16 {
	return uint16(module)<<8 | uint16(param)
}

// ReadRegister returns the stored value for (module, param).
func (m *RegisterMap) ReadRegister(module, param uint8) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regs[regKey(module, param)], nil
}

// WriteRegister stores value at (module, param).
func (m *RegisterMap) WriteRegister(module, param uint8, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[regKey(module, param)] = value
	return nil
}

// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gatt provides helper functions for connecting to Bluetooth
// sensors and interacting with their GATT characteristics.
package gatt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"tinygo.org/x/bluetooth"
)

// ErrNotFound is returned when a requested service or characteristic
// is not offered by a device.
var ErrNotFound = errors.New("device characteristic not found")

// Found is a scanned device.
type Found struct {
	Address bluetooth.Address
	Name    string
	RSSI    int16
}

// Connect scans for the device with the given address and connects to
// it. The scan is abandoned when ctx is cancelled.
func Connect(ctx context.Context, adapter *bluetooth.Adapter, addr bluetooth.Address) (bluetooth.Device, Found, error) {
	var (
		found Found
		seen  bool
	)
	stop := context.AfterFunc(ctx, func() { adapter.StopScan() })
	err := adapter.Scan(func(adapter *bluetooth.Adapter, res bluetooth.ScanResult) {
		if res.Address != addr {
			return
		}
		found = Found{
			Address: res.Address,
			Name:    res.LocalName(),
			RSSI:    res.RSSI,
		}
		seen = true
		adapter.StopScan()
	})
	stop()
	if err != nil {
		return bluetooth.Device{}, Found{}, fmt.Errorf("gatt: scan: %w", err)
	}
	if !seen {
		if ctx.Err() != nil {
			return bluetooth.Device{}, Found{}, fmt.Errorf("gatt: device %s not found: %w", addr, ctx.Err())
		}
		return bluetooth.Device{}, Found{}, fmt.Errorf("gatt: device %s not found", addr)
	}
	dev, err := adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return bluetooth.Device{}, found, fmt.Errorf("gatt: connect to %s: %w", addr, err)
	}
	return dev, found, nil
}

// Characteristic returns the characteristic charID of the service
// srvID offered by dev. The returned error wraps ErrNotFound when the
// device reports neither the service nor the characteristic.
func Characteristic(dev *bluetooth.Device, srvID, charID bluetooth.UUID) (bluetooth.DeviceCharacteristic, error) {
	srvs, err := dev.DiscoverServices([]bluetooth.UUID{srvID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("gatt: discover service %s: %w", srvID, err)
	}
	if len(srvs) == 0 {
		return bluetooth.DeviceCharacteristic{}, notFound(srvID, charID)
	}
	for _, srv := range srvs {
		chars, err := srv.DiscoverCharacteristics([]bluetooth.UUID{charID})
		if err != nil {
			return bluetooth.DeviceCharacteristic{}, fmt.Errorf("gatt: discover characteristic %s of service %s: %w", charID, srvID, err)
		}
		if len(chars) != 0 {
			return chars[0], nil
		}
	}
	return bluetooth.DeviceCharacteristic{}, notFound(srvID, charID)
}

func notFound(srvID, charID bluetooth.UUID) error {
	return fmt.Errorf("gatt: %w: service %s characteristic %s", ErrNotFound, srvID, charID)
}

// Read reads the current value of char, up to its MTU.
func Read(char bluetooth.DeviceCharacteristic) ([]byte, error) {
	mtu, err := char.GetMTU()
	if err != nil {
		return nil, fmt.Errorf("gatt: mtu of %s: %w", char.UUID(), err)
	}
	buf := make([]byte, mtu)
	n, err := char.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return buf[:n], fmt.Errorf("gatt: read %s: %w", char.UUID(), err)
	}
	return buf[:n], nil
}

// Subscription is an active characteristic notification subscription.
type Subscription struct {
	char bluetooth.DeviceCharacteristic
}

// Subscribe calls fn with each notification from char. The buffer
// passed to fn is only valid for the duration of the call.
func Subscribe(char bluetooth.DeviceCharacteristic, fn func([]byte)) (*Subscription, error) {
	err := char.EnableNotifications(fn)
	if err != nil {
		return nil, fmt.Errorf("gatt: enable notifications for %s: %w", char.UUID(), err)
	}
	return &Subscription{char: char}, nil
}

// Close disables notifications from the subscribed characteristic.
func (s *Subscription) Close() error { return s.char.EnableNotifications(nil) }

// ParseUUID returns the UUID for s, which may be a 16-bit assigned
// number or a full 128-bit UUID.
func ParseUUID(s string) (bluetooth.UUID, error) {
	if len(s) == 4 {
		n, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return bluetooth.UUID{}, fmt.Errorf("invalid 16-bit uuid %q: %w", s, err)
		}
		return bluetooth.New16BitUUID(uint16(n)), nil
	}
	return bluetooth.ParseUUID(s)
}

package engine

import (
	"sync/atomic"
	"time"
)

// waitSlice is the sleep granularity while blocking for device readiness,
// chosen to keep cancellation latency low.
const waitSlice = 200 * time.Millisecond

// VolumeChecker answers the raw "is this mount point ready, and what device
// backs it" question. The real implementation lives in internal/fsops and
// uses a platform fingerprint (e.g. unix.Statfs's Fsid); tests substitute a
// programmable fake.
type VolumeChecker interface {
	// Check reports whether destRoot is currently mounted and writable, and
	// returns an opaque fingerprint identifying the backing device.
	Check(destRoot string) (ready bool, fingerprint string, err error)
}

// DeviceGate answers "may I touch the destination right now?" and provides
// a blocking wait that resolves when the answer flips to true or
// cancellation is requested. It owns the device-identity invariant: once a
// fingerprint has been captured, a destination that later reports a
// different fingerprint is treated as not-ready, because a different
// physical device has been swapped in under the same mount point.
type DeviceGate struct {
	checker  VolumeChecker
	destRoot string
	sink     EventSink
	sleep    func(time.Duration)

	fingerprint    string
	fingerprintSet bool
	offlineSignaled bool
}

// NewDeviceGate creates a gate over destRoot. If the destination is ready at
// construction time, its fingerprint is captured immediately; otherwise the
// fingerprint remains unset until the first successful check.
func NewDeviceGate(checker VolumeChecker, destRoot string, sink EventSink) *DeviceGate {
	g := &DeviceGate{
		checker:  checker,
		destRoot: destRoot,
		sink:     sink,
		sleep:    time.Sleep,
	}
	if ready, fp, err := checker.Check(destRoot); err == nil && ready {
		g.fingerprint = fp
		g.fingerprintSet = true
	}
	return g
}

// IsReady reports whether the destination is currently mounted, writable,
// and still the same physical device captured at construction (or at the
// first ready check, if none had been captured yet).
func (g *DeviceGate) IsReady() bool {
	ready, fp, err := g.checker.Check(g.destRoot)
	if err != nil || !ready {
		return false
	}
	if !g.fingerprintSet {
		g.fingerprint = fp
		g.fingerprintSet = true
		return true
	}
	return fp == g.fingerprint
}

// WaitUntilReadyOrCancelled blocks until IsReady() returns true or cancel is
// set, sleeping in short slices. It emits DeviceOffline(phaseHint) exactly
// once per offline episode and DeviceOnline exactly once on the transition
// back to ready.
func (g *DeviceGate) WaitUntilReadyOrCancelled(phaseHint string, cancel *atomic.Bool) {
	if g.IsReady() || cancel.Load() {
		return
	}

	if !g.offlineSignaled {
		g.offlineSignaled = true
		g.sink.DeviceOffline(phaseHint)
	}

	for !g.IsReady() && !cancel.Load() {
		g.sleep(waitSlice)
	}

	if g.offlineSignaled && g.IsReady() {
		g.offlineSignaled = false
		g.sink.DeviceOnline()
	}
}

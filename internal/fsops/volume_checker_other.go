//go:build !(linux || darwin || freebsd || openbsd || netbsd || dragonfly)

package fsops

import (
	"fmt"
	"os"
)

// StatfsVolumeChecker is the fallback VolumeChecker for platforms without a
// unix.Statfs-based fingerprint. It confirms writability with a probe file
// but cannot distinguish "same device, different volume swapped in" from
// "still the original device" — the fingerprint it returns is constant, so
// DeviceGate will never treat a same-path remount as a different device on
// these platforms.
type StatfsVolumeChecker struct{}

// NewVolumeChecker creates the platform's real VolumeChecker.
func NewVolumeChecker() *StatfsVolumeChecker { return &StatfsVolumeChecker{} }

// Check reports whether destRoot is writable. The returned fingerprint is a
// constant placeholder.
func (StatfsVolumeChecker) Check(destRoot string) (ready bool, fingerprint string, err error) {
	info, statErr := os.Stat(destRoot)
	if statErr != nil || !info.IsDir() {
		return false, "", nil
	}

	probe, createErr := os.CreateTemp(destRoot, ".plugbackup_rw_check_*")
	if createErr != nil {
		return false, "", nil
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	return true, fmt.Sprintf("const:%s", destRoot), nil
}

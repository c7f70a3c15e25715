//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package fsops

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// StatfsVolumeChecker answers DeviceGate readiness checks using unix.Statfs,
// grounded in the same syscall-oriented approach as the retrieval pack's
// fileproc I/O backends. The fingerprint is the filesystem's Fsid, which
// changes when a different volume is mounted at the same path — the Go
// analogue of the original Qt app's QStorageInfo::device().
type StatfsVolumeChecker struct{}

// NewVolumeChecker creates the platform's real VolumeChecker.
func NewVolumeChecker() *StatfsVolumeChecker { return &StatfsVolumeChecker{} }

// Check reports whether destRoot is mounted and writable, and returns its
// filesystem identifier as the fingerprint.
func (StatfsVolumeChecker) Check(destRoot string) (ready bool, fingerprint string, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(destRoot, &st); err != nil {
		return false, "", nil // not mounted/reachable: not ready, not a hard error
	}

	fingerprint = fmt.Sprintf("%x-%x", st.Fsid.Val[0], st.Fsid.Val[1])

	// Writability (including read-only remounts) is confirmed by actually
	// creating a probe file rather than trusting a platform-specific flags
	// bit, since the read-only bit's name and meaning vary across unix.Statfs_t
	// layouts (Linux's f_flags vs the BSD family's MNT_RDONLY).
	probe, createErr := os.CreateTemp(destRoot, ".plugbackup_rw_check_*")
	if createErr != nil {
		return false, fingerprint, nil
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	return true, fingerprint, nil
}

package engine

import (
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"
)

// copyChunkSize is the fixed 1 MiB streaming chunk size used by the copy
// loop (hashing uses its own buffer of the same size, hashBufSize).
const copyChunkSize = 1 << 20

// pauseSlice is the sleep granularity while a copy is paused.
const pauseSlice = 50 * time.Millisecond

// partialSuffix names the sibling temp file a copy streams into before the
// atomic rename onto the real destination path.
const partialSuffix = ".part"

// CopyOptions bundles the per-copy controls the pipeline checks between
// chunks.
type CopyOptions struct {
	Cancel      *atomic.Bool
	Pause       *atomic.Bool
	Gate        *DeviceGate
	RateLimiter *RateLimiter
	// MirrorMTime, when set, is applied to the destination after a
	// successful write (best effort).
	MirrorMTime time.Time
	HasMTime    bool
}

// CopyPipeline copies one file to its destination atomically via a
// temporary sibling file, honoring cancel/pause/device-loss between chunks
// and enforcing a byte-rate ceiling.
type CopyPipeline struct {
	fs FileSystem
}

// NewCopyPipeline creates a pipeline bound to fs.
func NewCopyPipeline(fs FileSystem) *CopyPipeline {
	return &CopyPipeline{fs: fs}
}

// Copy streams src to dst via "dst.part", then renames it into place. On any
// failure the partial file is removed (best effort) and a non-nil error is
// returned. Callers distinguish "device went away mid-copy" from a real
// failure by rechecking opts.Gate.IsReady() after an error.
func (p *CopyPipeline) Copy(src, dst string, opts CopyOptions) error {
	if !opts.Gate.IsReady() {
		return fmt.Errorf("copy %s: destination not ready", dst)
	}

	if err := p.fs.MkdirAll(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	partial := dst + partialSuffix

	in, err := p.fs.Open(src)
	if err != nil {
		return fmt.Errorf("opening source %s: %w", src, err)
	}
	defer in.Close()

	out, err := p.fs.Create(partial)
	if err != nil {
		return fmt.Errorf("creating partial file %s: %w", partial, err)
	}

	buf := make([]byte, copyChunkSize)
	var copyErr error

copyLoop:
	for {
		if opts.Cancel.Load() {
			copyErr = fmt.Errorf("copy %s: cancelled", dst)
			break copyLoop
		}
		for opts.Pause.Load() && !opts.Cancel.Load() {
			time.Sleep(pauseSlice)
		}
		if opts.Cancel.Load() {
			copyErr = fmt.Errorf("copy %s: cancelled", dst)
			break copyLoop
		}
		if !opts.Gate.IsReady() {
			copyErr = fmt.Errorf("copy %s: destination not ready", dst)
			break copyLoop
		}
		if opts.RateLimiter != nil {
			opts.RateLimiter.BeforeChunk(copyChunkSize)
		}

		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				copyErr = fmt.Errorf("writing partial file: %w", writeErr)
				break copyLoop
			}
		}
		if readErr == io.EOF {
			break copyLoop
		}
		if readErr != nil {
			copyErr = fmt.Errorf("reading source %s: %w", src, readErr)
			break copyLoop
		}
	}

	closeErr := out.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("closing partial file: %w", closeErr)
	}

	if copyErr != nil {
		p.fs.Remove(partial)
		return copyErr
	}

	_ = p.fs.Remove(dst)
	if err := p.fs.Rename(partial, dst); err != nil {
		p.fs.Remove(partial)
		return fmt.Errorf("renaming %s to %s: %w", partial, dst, err)
	}

	if opts.HasMTime {
		_ = p.fs.Chtimes(dst, opts.MirrorMTime, opts.MirrorMTime)
	}

	return nil
}

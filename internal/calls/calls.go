// Package calls implements the syscall-overhead probes: the raw
// clock_gettime syscall against the vDSO-backed runtime clock, getpid as a
// minimal-syscall baseline, and mmap vs read file access.
package calls

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/AzyrRuthless/microbench/internal/bench"
)

const (
	// ReadPath is the file both file probes pull from. /dev/zero keeps the
	// measurement about the syscall path, not the disk.
	ReadPath = "/dev/zero"
	ReadLen  = 64 << 10
)

var ErrUnknownMode = errors.New("calls: unknown mode")

type Mode string

const (
	ModeTime Mode = "time"
	ModeFile Mode = "file"
	ModeAll  Mode = "all"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeTime, ModeFile, ModeAll:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

func DefaultTimeShape() bench.Shape {
	return bench.Shape{Calls: 100000, Loops: 32, Rounds: 5}
}

func DefaultFileShape() bench.Shape {
	return bench.Shape{Calls: 100, Loops: 128, Rounds: 5}
}

// Sinks keep the measured work observable so none of it is optimized away.
var (
	timespecSink unix.Timespec
	pidSink      uintptr
	timeSink     time.Time
	readBuf      [ReadLen]byte
)

// RawClockGettime enters the kernel for CLOCK_MONOTONIC, bypassing the vDSO.
func RawClockGettime() {
	_, _, _ = unix.Syscall(unix.SYS_CLOCK_GETTIME, uintptr(unix.CLOCK_MONOTONIC), uintptr(unsafe.Pointer(&timespecSink)), 0)
}

// RawGetpid is the cheapest syscall the kernel offers, a floor for
// user/kernel transition cost.
func RawGetpid() {
	pidSink, _, _ = unix.Syscall(unix.SYS_GETPID, 0, 0, 0)
}

// RuntimeClock reads the Go runtime clock, vDSO-backed on Linux, for
// comparison against the raw syscall path.
func RuntimeClock() {
	timeSink = time.Now()
}

// MmapRead maps ReadLen from ReadPath, copies it out and unmaps. Errors are
// deliberately ignored inside the timed loop; CheckReadable runs first.
func MmapRead() {
	fd, err := unix.Open(ReadPath, unix.O_RDONLY, 0)
	if err != nil {
		return
	}
	data, err := unix.Mmap(fd, 0, ReadLen, unix.PROT_READ, unix.MAP_PRIVATE)
	if err == nil {
		copy(readBuf[:], data)
		_ = unix.Munmap(data)
	}
	_ = unix.Close(fd)
}

// FileRead pulls ReadLen from ReadPath with a plain read.
func FileRead() {
	fd, err := unix.Open(ReadPath, unix.O_RDONLY, 0)
	if err != nil {
		return
	}
	_, _ = unix.Read(fd, readBuf[:])
	_ = unix.Close(fd)
}

// CheckReadable verifies the probe file before a timed run so loop errors
// can stay silent.
func CheckReadable() error {
	fd, err := unix.Open(ReadPath, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("calls: open %s: %w", ReadPath, err)
	}
	return unix.Close(fd)
}

// TimeResults measures the three clock-path probes with the given shape.
func TimeResults(shape bench.Shape) ([]bench.Result, error) {
	probes := []struct {
		name string
		fn   func()
	}{
		{"syscall", RawClockGettime},
		{"getpid", RawGetpid},
		{"runtime", RuntimeClock},
	}

	results := make([]bench.Result, 0, len(probes))
	for _, p := range probes {
		per, err := bench.Best(p.fn, shape)
		if err != nil {
			return nil, err
		}
		results = append(results, bench.Result{Name: p.name, PerCall: per})
	}
	return results, nil
}

// FileResults measures mmap against read with the given shape.
func FileResults(shape bench.Shape) ([]bench.Result, error) {
	if err := CheckReadable(); err != nil {
		return nil, err
	}

	probes := []struct {
		name string
		fn   func()
	}{
		{"mmap", MmapRead},
		{"read", FileRead},
	}

	results := make([]bench.Result, 0, len(probes))
	for _, p := range probes {
		per, err := bench.Best(p.fn, shape)
		if err != nil {
			return nil, err
		}
		results = append(results, bench.Result{Name: p.name, PerCall: per})
	}
	return results, nil
}

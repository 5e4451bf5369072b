// Package sysprobe verifies that backported kernel syscalls actually exist
// on the running kernel. ENOSYS means missing; any other errno means the
// entry point is wired up, whatever it thought of our arguments.
package sysprobe

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

var ErrUnknownProbe = errors.New("sysprobe: unknown probe")

type Status string

const (
	StatusPresent Status = "present"
	StatusDetect  Status = "present-with-errno"
	StatusMissing Status = "missing"
)

// Finding is the outcome of one probe.
type Finding struct {
	Name   string
	Number int
	Status Status
	Detail string
}

type probe struct {
	name   string
	number int
	run    func() (Status, string)
}

func probes() []probe {
	return []probe{
		{"close_range", unix.SYS_CLOSE_RANGE, probeCloseRange},
		{"epoll_pwait2", unix.SYS_EPOLL_PWAIT2, probeEpollPwait2},
		{"pidfd_open", unix.SYS_PIDFD_OPEN, probePidfdOpen},
	}
}

// Names lists every known probe in run order.
func Names() []string {
	ps := probes()
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.name)
	}
	return names
}

// Run executes the named probes, or all of them when names is empty.
func Run(names []string) ([]Finding, error) {
	ps := probes()
	selected := ps
	if len(names) > 0 {
		selected = selected[:0:0]
		for _, name := range names {
			found := false
			for _, p := range ps {
				if p.name == name {
					selected = append(selected, p)
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("%w: %q", ErrUnknownProbe, name)
			}
		}
	}

	findings := make([]Finding, 0, len(selected))
	for _, p := range selected {
		status, detail := p.run()
		findings = append(findings, Finding{Name: p.name, Number: p.number, Status: status, Detail: detail})
	}
	return findings, nil
}

// AnyMissing reports whether at least one probe came back ENOSYS.
func AnyMissing(findings []Finding) bool {
	for _, f := range findings {
		if f.Status == StatusMissing {
			return true
		}
	}
	return false
}

// Classify maps a probe errno to a status.
func Classify(errno unix.Errno) Status {
	switch errno {
	case 0:
		return StatusPresent
	case unix.ENOSYS:
		return StatusMissing
	default:
		return StatusDetect
	}
}

func probeCloseRange() (Status, string) {
	fd, err := unix.Open("/dev/null", unix.O_RDONLY, 0)
	if err != nil {
		return StatusDetect, fmt.Sprintf("open /dev/null: %v", err)
	}

	_, _, errno := unix.Syscall(unix.SYS_CLOSE_RANGE, uintptr(fd), uintptr(fd), 0)
	status := Classify(errno)
	if status != StatusPresent {
		_ = unix.Close(fd)
		return status, errno.Error()
	}

	// The range close should have taken the fd with it.
	if err := unix.Close(fd); err == unix.EBADF {
		return StatusPresent, "fd verified closed"
	}
	return StatusPresent, "fd not closed by close_range"
}

func probeEpollPwait2() (Status, string) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return StatusDetect, fmt.Sprintf("epoll_create1: %v", err)
	}
	defer unix.Close(epfd)

	// One-slot event buffer, 100ns timeout: existence check, not a wait.
	var ev unix.EpollEvent
	ts := unix.Timespec{Nsec: 100}
	_, _, errno := unix.Syscall6(unix.SYS_EPOLL_PWAIT2,
		uintptr(epfd), uintptr(unsafe.Pointer(&ev)), 1,
		uintptr(unsafe.Pointer(&ts)), 0, 0)
	status := Classify(errno)
	if status == StatusPresent {
		return status, "timed out with no events"
	}
	return status, errno.Error()
}

func probePidfdOpen() (Status, string) {
	pidfd, _, errno := unix.Syscall(unix.SYS_PIDFD_OPEN, uintptr(unix.Getpid()), 0, 0)
	status := Classify(errno)
	if status == StatusPresent {
		_ = unix.Close(int(pidfd))
		return status, "opened pidfd for self"
	}
	return status, errno.Error()
}

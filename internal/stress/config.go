// Package stress implements the scheduler/IPC stress benchmark: groups of
// paired senders and receivers hammering pipes or unix sockets, released
// together by a readiness barrier and timed to collective completion.
package stress

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

var (
	ErrInvalidGroups   = errors.New("stress: groups must be positive")
	ErrInvalidFDs      = errors.New("stress: fds per group must be positive")
	ErrInvalidLoops    = errors.New("stress: loops must be positive")
	ErrInvalidDataSize = errors.New("stress: datasize must be positive")
	ErrUnknownMode     = errors.New("stress: unknown worker mode")
	ErrUnknownTrans    = errors.New("stress: unknown transport")
)

type Transport string

const (
	TransportSocket Transport = "socketpair"
	TransportPipe   Transport = "pipe"
)

type Mode string

const (
	ModeProcess   Mode = "process"
	ModeGoroutine Mode = "goroutine"
)

// Config shapes one stress run.
type Config struct {
	Groups      int
	FDsPerGroup int
	Loops       int
	DataSize    int
	Transport   Transport
	Mode        Mode

	// FIFO moves the coordinator to SCHED_FIFO before the start kick.
	// Needs CAP_SYS_NICE.
	FIFO bool
}

func DefaultConfig() Config {
	return Config{
		Groups:      10,
		FDsPerGroup: 20,
		Loops:       100,
		DataSize:    100,
		Transport:   TransportSocket,
		Mode:        ModeProcess,
	}
}

func (c Config) validate() error {
	if c.Groups <= 0 {
		return ErrInvalidGroups
	}
	if c.FDsPerGroup <= 0 {
		return ErrInvalidFDs
	}
	if c.Loops <= 0 {
		return ErrInvalidLoops
	}
	if c.DataSize <= 0 {
		return ErrInvalidDataSize
	}
	switch c.Transport {
	case TransportSocket, TransportPipe:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTrans, c.Transport)
	}
	switch c.Mode {
	case ModeProcess, ModeGoroutine:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
	return nil
}

// Tasks is the total worker count: a sender and a receiver per fd pair.
func (c Config) Tasks() int {
	return 2 * c.FDsPerGroup * c.Groups
}

// MessagesPerReceiver is how many datasize messages each receiver consumes:
// every sender in the group writes Loops messages to every receiver.
func (c Config) MessagesPerReceiver() int {
	return c.FDsPerGroup * c.Loops
}

// Result is the timed outcome of one run.
type Result struct {
	Config  Config
	Elapsed time.Duration
}

// fdPair builds one transport pair: r is the receiver end, w the sender end.
func fdPair(tr Transport) (r, w *os.File, err error) {
	if tr == TransportPipe {
		return os.Pipe()
	}
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("stress: socketpair: %w", err)
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	return os.NewFile(uintptr(fds[0]), "stress-sock-r"), os.NewFile(uintptr(fds[1]), "stress-sock-w"), nil
}

// schedParam mirrors struct sched_param for sched_setscheduler.
type schedParam struct {
	Priority int32
}

// setFIFO switches the calling process to SCHED_FIFO priority 1.
func setFIFO() error {
	param := schedParam{Priority: 1}
	if err := schedSetscheduler(0, unix.SCHED_FIFO, &param); err != nil {
		return fmt.Errorf("stress: sched_setscheduler(SCHED_FIFO): %w", err)
	}
	return nil
}

package stress

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	workerEnv   = "MICROBENCH_STRESS_WORKER"
	loopsEnv    = "MICROBENCH_STRESS_LOOPS"
	sizeEnv     = "MICROBENCH_STRESS_DATASIZE"
	outCountEnv = "MICROBENCH_STRESS_OUT_FDS"
	packetsEnv  = "MICROBENCH_STRESS_PACKETS"

	roleSender   = "sender"
	roleReceiver = "receiver"
)

// awaitStart is the worker half of the readiness barrier: announce with one
// byte, then poll the wake fd without consuming it, so the coordinator's
// single wake byte releases every worker at once.
func awaitStart(readyOut, wake *os.File) error {
	if _, err := readyOut.Write([]byte{'*'}); err != nil {
		return fmt.Errorf("stress: ready write: %w", err)
	}

	pfd := []unix.PollFd{{Fd: int32(wake.Fd()), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(pfd, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("stress: wake poll: %w", err)
		}
		if n == 1 {
			return nil
		}
	}
}

// sender writes loops messages of size bytes to every out fd in turn.
func sender(out []*os.File, loops, size int, readyOut, wake *os.File) error {
	if err := awaitStart(readyOut, wake); err != nil {
		return err
	}

	data := bytes.Repeat([]byte{'-'}, size)
	for i := 0; i < loops; i++ {
		for _, f := range out {
			if _, err := f.Write(data); err != nil {
				return fmt.Errorf("stress: sender write: %w", err)
			}
		}
	}
	return nil
}

// receiver consumes packets messages of size bytes from its pair end.
// ReadFull rides out the partial reads unix sockets produce under load.
func receiver(in *os.File, packets, size int, readyOut, wake *os.File) error {
	if err := awaitStart(readyOut, wake); err != nil {
		return err
	}

	buf := make([]byte, size)
	for i := 0; i < packets; i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return fmt.Errorf("stress: receiver read: %w", err)
		}
	}
	return nil
}

// IsWorkerProcess reports whether this process was spawned as a stress
// worker. Checked at the top of main before flag parsing.
func IsWorkerProcess() bool {
	return os.Getenv(workerEnv) != ""
}

// RunWorkerProcess dispatches on the worker env contract. Inherited fd
// layout: 3 ready-out, 4 wake, then role fds (receiver: its pair end at 5;
// sender: its out fds from 5 up).
func RunWorkerProcess() error {
	role := os.Getenv(workerEnv)
	size, err := envInt(sizeEnv)
	if err != nil {
		return err
	}

	readyOut := os.NewFile(3, "stress-ready-out")
	wake := os.NewFile(4, "stress-wake")
	defer readyOut.Close()
	defer wake.Close()

	switch role {
	case roleSender:
		loops, err := envInt(loopsEnv)
		if err != nil {
			return err
		}
		count, err := envInt(outCountEnv)
		if err != nil {
			return err
		}
		out := make([]*os.File, 0, count)
		for i := 0; i < count; i++ {
			f := os.NewFile(uintptr(5+i), fmt.Sprintf("stress-out-%d", i))
			defer f.Close()
			out = append(out, f)
		}
		return sender(out, loops, size, readyOut, wake)
	case roleReceiver:
		packets, err := envInt(packetsEnv)
		if err != nil {
			return err
		}
		in := os.NewFile(5, "stress-in")
		defer in.Close()
		return receiver(in, packets, size, readyOut, wake)
	default:
		return fmt.Errorf("stress: unknown worker role %q", role)
	}
}

func envInt(key string) (int, error) {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("stress: bad %s=%q", key, os.Getenv(key))
	}
	return v, nil
}

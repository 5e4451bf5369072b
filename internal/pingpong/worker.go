package pingpong

import (
	"fmt"
	"os"
	"strconv"
)

const (
	workerEnv = "MICROBENCH_PINGPONG_WORKER"
	loopsEnv  = "MICROBENCH_PINGPONG_LOOPS"
)

// IsWorkerProcess reports whether this process was spawned as the far side
// of a process-mode run. Checked at the top of main before flag parsing.
func IsWorkerProcess() bool {
	return os.Getenv(workerEnv) != ""
}

// RunWorkerProcess executes worker 0 over the inherited pipe ends
// (fd 3 read, fd 4 write) and returns when the loop count is exhausted.
func RunWorkerProcess() error {
	loops, err := strconv.Atoi(os.Getenv(loopsEnv))
	if err != nil || loops <= 0 {
		return fmt.Errorf("pingpong: bad %s=%q", loopsEnv, os.Getenv(loopsEnv))
	}

	r := os.NewFile(3, "pingpong-read")
	w := os.NewFile(4, "pingpong-write")
	if r == nil || w == nil {
		return fmt.Errorf("pingpong: inherited pipe fds missing")
	}
	defer r.Close()
	defer w.Close()

	return worker(0, r, w, loops)
}

package stress

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func schedSetscheduler(pid int, policy int, param *schedParam) error {
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER,
		uintptr(pid), uintptr(policy), uintptr(unsafe.Pointer(param)))
	if errno != 0 {
		return errno
	}
	return nil
}

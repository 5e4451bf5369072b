package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/AzyrRuthless/microbench/internal/heapmap"
	"github.com/AzyrRuthless/microbench/internal/logging"
)

func main() {
	wait := flag.Bool("wait", false, "block for ENTER before exit so /proc can be inspected")
	flag.Parse()
	logging.ConfigureRuntime()

	if err := run(*wait); err != nil {
		fmt.Fprintf(os.Stderr, "heaptest: %v\n", err)
		os.Exit(1)
	}
}

func run(wait bool) error {
	report, err := heapmap.Capture()
	if err != nil {
		return err
	}

	fmt.Printf("PID: %d\n", report.PID)
	fmt.Printf("brk(0) before allocs: 0x%x\n", report.BreakBefore)
	for _, a := range report.Allocs {
		fmt.Printf("%-21s 0x%x (%d bytes)\n", a.Label+":", a.Addr, a.Size)
	}
	fmt.Printf("brk(0) after allocs:  0x%x\n", report.BreakAfter)

	if report.HeapRegion != "" {
		fmt.Printf("\n[heap] mapping: %s\n", report.HeapRegion)
	} else {
		fmt.Printf("\n[heap] mapping: none (allocator is mmap-backed)\n")
	}
	fmt.Printf("runtime HeapAlloc: %d bytes, HeapSys: %d bytes, NumGC: %d\n",
		report.HeapAlloc, report.HeapSys, report.NumGC)

	fmt.Printf("\nTo inspect maps, run in another terminal:\n")
	fmt.Printf("  cat /proc/%d/maps | grep heap\n", report.PID)

	if wait {
		fmt.Printf("\nPress ENTER to free memory and exit...")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/AzyrRuthless/microbench/internal/logging"
	"github.com/AzyrRuthless/microbench/internal/sysprobe"
)

func main() {
	selection := flag.String("probe", "", "comma-separated probe subset (default: all)")
	flag.Parse()
	logging.ConfigureRuntime()

	names := sysprobe.Names()
	if *selection != "" {
		names = names[:0]
		for _, name := range strings.Split(*selection, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}

	findings, err := sysprobe.Run(names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "syscheck: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("[*] Verifying backported syscalls...\n")
	for _, f := range findings {
		fmt.Printf("\n[+] Testing %s (syscall %d)...\n", f.Name, f.Number)
		switch f.Status {
		case sysprobe.StatusPresent:
			fmt.Printf("    [PASS] %s works!\n", f.Name)
		case sysprobe.StatusDetect:
			fmt.Printf("    [WARN] %s present, error: %s\n", f.Name, f.Detail)
		case sysprobe.StatusMissing:
			fmt.Printf("    [FAIL] %s NOT FOUND (ENOSYS).\n", f.Name)
		}
		if f.Status == sysprobe.StatusPresent && f.Detail != "" {
			fmt.Printf("           (%s)\n", f.Detail)
		}
	}

	if sysprobe.AnyMissing(findings) {
		os.Exit(1)
	}
}

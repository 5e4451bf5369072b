package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "suite":
		return suiteTemplate, nil
	case "benchd":
		return benchdTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const suiteTemplate = `name = "nightly"
bin_dir = ""

[[benchmarks]]
name = "sched-stress"
tool = "hackbench"
args = ["-groups", "10", "-fds", "20", "-loops", "100"]
repeat = 3

[[benchmarks]]
name = "pipe-latency"
tool = "pipelat"
args = ["-loops", "1000000"]
repeat = 3

[[benchmarks]]
name = "syscall-overhead"
tool = "callbench"
args = ["-mode", "time"]

[[benchmarks]]
name = "kernel-probes"
tool = "syscheck"

# Uncomment to run the suite on another machine.
# [remote]
# host = "node-a"
# user = "bench"
# key_path = "/home/bench/.ssh/id_ed25519"
`

const benchdTemplate = `name = "benchd"
addr = ":9400"
cors_origins = ["http://localhost:3000"]
suite_path = "suite.toml"
interval = "1h"
history_size = 256
`

// Package suite runs a configured sequence of benchmark invocations,
// locally or on a remote host, and records what happened.
package suite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	ErrNoBenchmarks = errors.New("suite: no benchmarks configured")
	ErrNoTool       = errors.New("suite: benchmark needs a tool")
	ErrNoRemote     = errors.New("suite: remote execution requested without a [remote] block")
)

// Benchmark is one invocation slot in a suite.
type Benchmark struct {
	Name   string
	Tool   string
	Args   []string
	Repeat int
}

// Remote describes the SSH target for off-host runs.
type Remote struct {
	Host           string
	Port           string
	User           string
	KeyPath        string
	KnownHostsPath string
	Insecure       bool
}

// Suite is a named, ordered benchmark plan.
type Suite struct {
	Name       string
	BinDir     string
	Interval   time.Duration // benchd re-run cadence; zero means run once
	Benchmarks []Benchmark
	Remote     *Remote
}

func DefaultSuite() Suite {
	return Suite{Name: "microbench"}
}

type fileBenchmark struct {
	Name   string   `toml:"name"`
	Tool   string   `toml:"tool"`
	Args   []string `toml:"args"`
	Repeat int      `toml:"repeat"`
}

type fileRemote struct {
	Host           string `toml:"host"`
	Port           string `toml:"port"`
	User           string `toml:"user"`
	KeyPath        string `toml:"key_path"`
	KnownHostsPath string `toml:"known_hosts_path"`
	Insecure       bool   `toml:"insecure_skip_host_key_checking"`
}

type fileSuite struct {
	Name       string          `toml:"name"`
	BinDir     string          `toml:"bin_dir"`
	Interval   string          `toml:"interval"`
	Benchmarks []fileBenchmark `toml:"benchmarks"`
	Remote     fileRemote      `toml:"remote"`
}

// Load reads a suite definition, filling defaults for anything the file
// leaves out.
func Load(path string) (Suite, error) {
	var raw fileSuite
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Suite{}, fmt.Errorf("suite: load %s: %w", path, err)
	}
	return fromFile(raw, meta)
}

// Parse decodes a suite definition from TOML text.
func Parse(text string) (Suite, error) {
	var raw fileSuite
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return Suite{}, fmt.Errorf("suite: parse: %w", err)
	}
	return fromFile(raw, meta)
}

func fromFile(raw fileSuite, meta toml.MetaData) (Suite, error) {
	s := DefaultSuite()

	if name := strings.TrimSpace(raw.Name); name != "" {
		s.Name = name
	}
	s.BinDir = strings.TrimSpace(raw.BinDir)

	if meta.IsDefined("interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Interval))
		if err != nil {
			return Suite{}, fmt.Errorf("suite: parse interval: %w", err)
		}
		s.Interval = d
	}

	for i, b := range raw.Benchmarks {
		tool := strings.TrimSpace(b.Tool)
		if tool == "" {
			return Suite{}, fmt.Errorf("%w (entry %d)", ErrNoTool, i)
		}
		name := strings.TrimSpace(b.Name)
		if name == "" {
			name = tool
		}
		repeat := b.Repeat
		if repeat <= 0 {
			repeat = 1
		}
		s.Benchmarks = append(s.Benchmarks, Benchmark{
			Name:   name,
			Tool:   tool,
			Args:   b.Args,
			Repeat: repeat,
		})
	}
	if len(s.Benchmarks) == 0 {
		return Suite{}, ErrNoBenchmarks
	}

	if meta.IsDefined("remote", "host") {
		s.Remote = &Remote{
			Host:           strings.TrimSpace(raw.Remote.Host),
			Port:           strings.TrimSpace(raw.Remote.Port),
			User:           strings.TrimSpace(raw.Remote.User),
			KeyPath:        strings.TrimSpace(raw.Remote.KeyPath),
			KnownHostsPath: strings.TrimSpace(raw.Remote.KnownHostsPath),
			Insecure:       raw.Remote.Insecure,
		}
	}

	return s, nil
}

package tools

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AzyrRuthless/microbench/internal/testutil/testlog"
)

func TestJoinCommandEscaping(t *testing.T) {
	got := joinCommand("echo", []string{"a b", "quote'v"})
	want := "'echo' 'a b' 'quote'\"'\"'v'"
	if got != want {
		t.Fatalf("unexpected joined command\nwant: %s\ngot:  %s", want, got)
	}
}

func TestJoinCommandNoArgs(t *testing.T) {
	if got := joinCommand("uname", nil); got != "'uname'" {
		t.Fatalf("unexpected joined command: %q", got)
	}
	if got := shellEscape(""); got != "''" {
		t.Fatalf("empty value must stay quoted: %q", got)
	}
}

func TestLocalRunner(t *testing.T) {
	testlog.Start(t)

	out, err := LocalRunner{}.Run("sh", "-c", "echo local-ok")
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !strings.Contains(out, "local-ok") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestLocalRunnerStreaming(t *testing.T) {
	var stdout bytes.Buffer
	if err := (LocalRunner{}).RunStreaming("sh", []string{"-c", "echo stream-ok"}, &stdout, nil); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !strings.Contains(stdout.String(), "stream-ok") {
		t.Fatalf("unexpected stdout: %q", stdout.String())
	}
}

func TestSSHRunnerAddressValidation(t *testing.T) {
	r := SSHRunner{}
	if _, err := r.address(); err == nil {
		t.Fatalf("expected host validation error")
	}

	r.Host = "node-a"
	addr, err := r.address()
	if err != nil {
		t.Fatalf("unexpected address error: %v", err)
	}
	if addr != "node-a:22" {
		t.Fatalf("expected default ssh port, got %q", addr)
	}

	r.Port = "2222"
	addr, err = r.address()
	if err != nil {
		t.Fatalf("unexpected address error: %v", err)
	}
	if addr != "node-a:2222" {
		t.Fatalf("expected explicit ssh port, got %q", addr)
	}
}

func TestSSHRunnerClientConfigValidation(t *testing.T) {
	r := SSHRunner{Host: "node-a"}
	if _, err := r.clientConfig(); err == nil {
		t.Fatalf("expected missing user validation error")
	}

	r.User = "bench"
	if _, err := r.clientConfig(); err == nil {
		t.Fatalf("expected missing key path validation error")
	}
}

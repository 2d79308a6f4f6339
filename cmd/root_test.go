package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	tnerr "gotelnet/internal/errors"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errb bytes.Buffer
	err = run(context.Background(), args, strings.NewReader(""), &out, &errb)
	return out.String(), errb.String(), err
}

func TestExecute_Version(t *testing.T) {
	out, _, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "gotelnet "+version+"\n" {
		t.Errorf("out = %q", out)
	}
}

func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}, {}} {
		_, errOut, err := execute(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.Contains(errOut, "Usage:") || !strings.Contains(errOut, "--shell-prompt") {
			t.Errorf("%v: usage missing: %q", args, errOut)
		}
	}
}

func TestExecute_DryRun(t *testing.T) {
	out, _, err := execute(t, "--dry-run", "-u", "admin", "-e", "show ver", "-e", "show int", "router.lab", "2323")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"router.lab:2323", "admin at \"ogin:\"", "show ver", "show int"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "interactive") {
		t.Errorf("script without -i should not go interactive:\n%s", out)
	}
}

func TestExecute_DryRunGateway(t *testing.T) {
	t.Setenv("USER", "carol")
	out, _, err := execute(t, "--dry-run", "-T", "bastion:2222", "10.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "carol@bastion:2222") {
		t.Errorf("gateway missing:\n%s", out)
	}
	if !strings.Contains(out, "interactive") {
		t.Errorf("bare host should go interactive:\n%s", out)
	}
}

func TestExecute_DryRunWebSocket(t *testing.T) {
	out, _, err := execute(t, "--dry-run", "--ws", "ws://kvm:6080/console?to={host}", "vm7")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ws://kvm:6080/console?to={host}") {
		t.Errorf("bridge missing:\n%s", out)
	}
}

func TestExecute_SessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core1.yaml")
	body := "host: core1.lab\nport: 2323\nlogin:\n  user: admin\nscript:\n  send: [\"show ver\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "--dry-run", "-f", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"core1.lab:2323", "admin at", "show ver"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan lacks %q:\n%s", want, out)
		}
	}

	// Environment and flags win over the file.
	t.Setenv("GOTELNET_USER", "bob")
	out, _, err = execute(t, "--dry-run", "--file", path, "-e", "show clock", "core2.lab")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"core2.lab:2323", "bob at", "show clock"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "show ver") {
		t.Errorf("-e should replace the file's commands:\n%s", out)
	}

	if _, _, err := execute(t, "-f", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing session file should fail")
	}
}

func TestExecute_EnvOverlay(t *testing.T) {
	t.Setenv("GOTELNET_USER", "bob")
	t.Setenv("GOTELNET_CONSUME_TIMEOUT", "5")

	out, _, err := execute(t, "--dry-run", "sw1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bob at") || !strings.Contains(out, "timeout 5s") {
		t.Errorf("env not applied:\n%s", out)
	}

	out, _, err = execute(t, "--dry-run", "-u", "eve", "-t", "1s", "sw1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "eve at") || !strings.Contains(out, "timeout 1s") {
		t.Errorf("flags should beat env:\n%s", out)
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--nonexistent-flag", "h"}, "unknown flag"},
		{"no host", []string{"-v"}, "hostname required"},
		{"bad port", []string{"h", "http"}, "invalid port"},
		{"too many args", []string{"h", "23", "extra"}, "too many arguments: extra"},
		{"bad gateway", []string{"-T", "a@b@c:x", "h"}, "gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestExecute_ValidationError(t *testing.T) {
	_, _, err := execute(t, "--dry-run", "--password", "sw1")
	var ce *tnerr.ConfigError
	if !errors.As(err, &ce) || ce.Field != "password" {
		t.Fatalf("err = %v, want password ConfigError", err)
	}
}

func TestExecute_Session(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		io.WriteString(conn, "\xff\xfb\x01edge# ")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(strings.TrimPrefix(line, "\xff\xfe\x01"), "\r\n")
			io.WriteString(conn, "ran "+line+"\r\nedge# ")
		}
	}()

	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out, errb bytes.Buffer
	err = run(ctx, []string{
		"--shell-prompt", "# ", "-e", "show clock", "-t", "2s", "--poll", "1ms",
		"--retries", "0", "--stats", "127.0.0.1", port,
	}, strings.NewReader(""), &out, &errb)
	if err != nil {
		t.Fatalf("run: %v (stderr %q)", err, errb.String())
	}
	if want := "edge# ran show clock\r\nedge# "; out.String() != want {
		t.Errorf("stdout = %q, want %q", out.String(), want)
	}
	if !strings.Contains(errb.String(), `"commands_decoded": 1`) {
		t.Errorf("stats missing from stderr: %q", errb.String())
	}
}

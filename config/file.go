package config

// file.go - session files.
//
// A session file describes a target and its script in YAML so a run can
// be repeated without a long command line.  It sits between the
// defaults and the environment:
//
//	defaults < session file < GOTELNET_* < flags

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a session file.
//
//	host: core1.lab
//	port: 2323
//	timeout: 10s
//	login:
//	  user: admin
//	  shell_prompt: "# "
//	script:
//	  send: ["terminal length 0", "show version"]
//	  expect: '[#>] '
//	gateway:
//	  tunnel: ops@bastion
//	  known_hosts: /etc/gotelnet/known_hosts
type File struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
	Retries *int          `yaml:"retries"`

	Consume struct {
		Timeout *time.Duration `yaml:"timeout"`
		Poll    time.Duration  `yaml:"poll"`
		Drain   *time.Duration `yaml:"drain"`
	} `yaml:"consume"`

	Login struct {
		User           string `yaml:"user"`
		LoginPrompt    string `yaml:"login_prompt"`
		PasswordPrompt string `yaml:"password_prompt"`
		ShellPrompt    string `yaml:"shell_prompt"`
		FailureText    string `yaml:"fail"`
	} `yaml:"login"`

	Script struct {
		Send        []string `yaml:"send"`
		Expect      string   `yaml:"expect"`
		Interactive bool     `yaml:"interactive"`
		Raw         bool     `yaml:"raw"`
	} `yaml:"script"`

	Gateway struct {
		Tunnel        string `yaml:"tunnel"`
		Key           string `yaml:"key"`
		Agent         bool   `yaml:"agent"`
		StrictHostKey bool   `yaml:"strict_hostkey"`
		KnownHosts    string `yaml:"known_hosts"`
	} `yaml:"gateway"`

	WebSocket string `yaml:"websocket"`
}

// LoadFile reads the session file at path and overlays it onto cfg.
// The format has no password field.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("session file: %w", err)
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("session file %s: %w", path, err)
	}
	f.apply(cfg)
	return nil
}

// apply copies every field the file sets onto cfg.  Pointer fields
// distinguish an explicit zero ("retries: 0") from an absent key.
func (f *File) apply(cfg *Config) {
	setString(&cfg.Host, f.Host)
	if f.Port != 0 {
		cfg.Port = f.Port
	}
	if f.Timeout != 0 {
		cfg.Timeout = f.Timeout
	}
	if f.Retries != nil {
		cfg.Retries = *f.Retries
	}

	if f.Consume.Timeout != nil {
		cfg.ConsumeTimeout = *f.Consume.Timeout
	}
	if f.Consume.Poll != 0 {
		cfg.PollInterval = f.Consume.Poll
	}
	if f.Consume.Drain != nil {
		cfg.BannerDrain = *f.Consume.Drain
	}

	setString(&cfg.User, f.Login.User)
	setString(&cfg.LoginPrompt, f.Login.LoginPrompt)
	setString(&cfg.PasswordPrompt, f.Login.PasswordPrompt)
	setString(&cfg.ShellPrompt, f.Login.ShellPrompt)
	setString(&cfg.FailureText, f.Login.FailureText)

	if len(f.Script.Send) > 0 {
		cfg.Commands = append([]string(nil), f.Script.Send...)
	}
	setString(&cfg.Expect, f.Script.Expect)
	cfg.Interactive = cfg.Interactive || f.Script.Interactive
	cfg.RawTerminal = cfg.RawTerminal || f.Script.Raw

	setString(&cfg.TunnelSpec, f.Gateway.Tunnel)
	setString(&cfg.SSHKeyPath, f.Gateway.Key)
	cfg.UseSSHAgent = cfg.UseSSHAgent || f.Gateway.Agent
	cfg.StrictHostKey = cfg.StrictHostKey || f.Gateway.StrictHostKey
	setString(&cfg.KnownHostsPath, f.Gateway.KnownHosts)

	setString(&cfg.WebSocketURL, f.WebSocket)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

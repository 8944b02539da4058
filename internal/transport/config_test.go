package transport

import (
	"os/user"
	"testing"
)

func TestParseSpec(t *testing.T) {
	cfg, err := ParseSpec("backup@vault.example.com", "/home/op/.ssh/id_ed25519")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if cfg.User != "backup" {
		t.Errorf("User = %q, want %q", cfg.User, "backup")
	}
	if cfg.Host != "vault.example.com" {
		t.Errorf("Host = %q, want %q", cfg.Host, "vault.example.com")
	}
	if cfg.Port != 22 {
		t.Errorf("Port = %d, want 22", cfg.Port)
	}
	if cfg.IdentityFile != "/home/op/.ssh/id_ed25519" {
		t.Errorf("IdentityFile = %q, want the given path", cfg.IdentityFile)
	}
	if cfg.Address() != "vault.example.com:22" {
		t.Errorf("Address() = %q, want %q", cfg.Address(), "vault.example.com:22")
	}
}

func TestParseSpecBareHostUsesInvokingUser(t *testing.T) {
	current, err := user.Current()
	if err != nil {
		t.Skipf("current user unknown: %v", err)
	}

	cfg, err := ParseSpec("vault.example.com", "")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if cfg.User != current.Username {
		t.Errorf("User = %q, want %q", cfg.User, current.Username)
	}
	if cfg.Host != "vault.example.com" {
		t.Errorf("Host = %q, want %q", cfg.Host, "vault.example.com")
	}
}

func TestParseSpecRejectsBadForms(t *testing.T) {
	for _, spec := range []string{"", "@host", "user@"} {
		if _, err := ParseSpec(spec, ""); err == nil {
			t.Errorf("ParseSpec(%q) error = nil, want error", spec)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing host", func(c *Config) { c.Host = "" }, true},
		{"missing user", func(c *Config) { c.User = "" }, true},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"missing identity file", func(c *Config) { c.IdentityFile = "/does/not/exist" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("backup", "vault.example.com")
			tt.change(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuoteCommand(t *testing.T) {
	tests := []struct {
		argv []string
		want string
	}{
		{[]string{"test", "-f", "/srv/backup/meta.txt"}, "test -f /srv/backup/meta.txt"},
		{[]string{"dd", "bs=4096", "of=/dev/vg0/vm 1"}, "dd bs=4096 'of=/dev/vg0/vm 1'"},
		{[]string{"echo", "it's"}, `echo 'it'"'"'s'`},
		{[]string{"cat", ""}, "cat ''"},
		{[]string{"ls", "$HOME"}, "ls '$HOME'"},
	}

	for _, tt := range tests {
		if got := QuoteCommand(tt.argv); got != tt.want {
			t.Errorf("QuoteCommand(%v) = %q, want %q", tt.argv, got, tt.want)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

func TestLoadFillsNackDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"msg_in_port": 30001,
		"msg_out_port": 30002,
		"instrument": "BTCUSDT",
		"instrument_id": 1,
		"match_strategy": "FIFO"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NackInPort != defaultNackInPort || cfg.NackOutPort != defaultNackOutPort {
		t.Fatalf("expected default nack ports, got in=%d out=%d", cfg.NackInPort, cfg.NackOutPort)
	}
}

func TestLoadEnvOverridesPorts(t *testing.T) {
	path := writeConfigFile(t, `{
		"msg_in_port": 30001,
		"msg_out_port": 30002,
		"instrument": "BTCUSDT",
		"instrument_id": 1,
		"match_strategy": "FIFO"
	}`)

	t.Setenv("ENGINE_PORT", "40001")
	t.Setenv("GATEWAY_PORT", "40002")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MsgInPort != 40001 || cfg.MsgOutPort != 40002 {
		t.Fatalf("expected env-overridden ports, got in=%d out=%d", cfg.MsgInPort, cfg.MsgOutPort)
	}
}

func TestLoadRejectsUnknownMatchStrategy(t *testing.T) {
	path := writeConfigFile(t, `{
		"msg_in_port": 30001,
		"msg_out_port": 30002,
		"instrument": "BTCUSDT",
		"instrument_id": 1,
		"match_strategy": "PRO_RATA"
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unsupported match_strategy")
	}
}

func TestLoadRejectsMissingInstrument(t *testing.T) {
	path := writeConfigFile(t, `{
		"msg_in_port": 30001,
		"msg_out_port": 30002,
		"match_strategy": "FIFO"
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a missing instrument")
	}
}

func TestAddressHelpersUseDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"msg_in_port": 30001,
		"msg_out_port": 30002,
		"instrument": "BTCUSDT",
		"instrument_id": 1,
		"match_strategy": "FIFO"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.InboundGroupAddr(), "239.255.0.1:30001"; got != want {
		t.Fatalf("InboundGroupAddr: got %q, want %q", got, want)
	}
	if got, want := cfg.OutboundGroupAddr(), "239.255.0.1:30002"; got != want {
		t.Fatalf("OutboundGroupAddr: got %q, want %q", got, want)
	}
	if got, want := cfg.EngineInboundNackAddr(), "127.0.0.1:30011"; got != want {
		t.Fatalf("EngineInboundNackAddr: got %q, want %q", got, want)
	}
	if got, want := cfg.EngineOutboundNackAddr(), "127.0.0.1:30012"; got != want {
		t.Fatalf("EngineOutboundNackAddr: got %q, want %q", got, want)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

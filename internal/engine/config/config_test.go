package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
)

var errNotExist = errors.New("file does not exist")

// mockFS is a test double for FileSystem.
type mockFS struct {
	files   map[string][]byte
	home    string
	homeErr error
	readErr error
}

func (m *mockFS) ReadFile(name string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if data, ok := m.files[name]; ok {
		return data, nil
	}
	return nil, errNotExist
}

func (m *mockFS) UserHomeDir() (string, error) {
	if m.homeErr != nil {
		return "", m.homeErr
	}
	return m.home, nil
}

func (m *mockFS) IsNotExist(err error) bool {
	return errors.Is(err, errNotExist)
}

func noEnv(_ string) string { return "" }

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	loader := NewLoader(&mockFS{home: "/home/u"}, noEnv)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine != backend.EngineAuto {
		t.Errorf("engine = %q, want auto", cfg.Engine)
	}
	if cfg.PollInterval != Duration(defaultPollInterval) {
		t.Errorf("poll interval = %v, want %v", cfg.PollInterval, defaultPollInterval)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	yamlData := []byte(`
registry:
  host: registry.example.com
  username: station
  password: hunter2
engine: docker
poll_interval: 250ms
`)
	fs := &mockFS{
		home:  "/home/u",
		files: map[string][]byte{"/home/u/.config/trainctl/config.yaml": yamlData},
	}
	loader := NewLoader(fs, noEnv)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Registry.Host != "registry.example.com" {
		t.Errorf("host = %q", cfg.Registry.Host)
	}
	if cfg.Registry.Username != "station" {
		t.Errorf("username = %q", cfg.Registry.Username)
	}
	if string(cfg.Registry.Password) != "hunter2" {
		t.Errorf("password = %q", string(cfg.Registry.Password))
	}
	if cfg.Engine != backend.EngineDocker {
		t.Errorf("engine = %q", cfg.Engine)
	}
	if cfg.PollInterval != Duration(250*time.Millisecond) {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	fs := &mockFS{
		home:  "/home/u",
		files: map[string][]byte{"/home/u/.config/trainctl/config.yaml": []byte("engine: [")},
	}
	loader := NewLoader(fs, noEnv)

	if _, err := loader.Load(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	yamlData := []byte("registry:\n  host: file.example.com\n")
	fs := &mockFS{
		home:  "/home/u",
		files: map[string][]byte{"/home/u/.config/trainctl/config.yaml": yamlData},
	}
	env := map[string]string{
		"TRAINCTL_REGISTRY_HOST":     "env.example.com",
		"TRAINCTL_REGISTRY_PASSWORD": "s3cret",
		"TRAINCTL_POLL_INTERVAL":     "1s",
	}
	loader := NewLoader(fs, func(k string) string { return env[k] })

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Registry.Host != "env.example.com" {
		t.Errorf("host = %q, want env override", cfg.Registry.Host)
	}
	if string(cfg.Registry.Password) != "s3cret" {
		t.Errorf("password not overridden")
	}
	if cfg.PollInterval != Duration(time.Second) {
		t.Errorf("poll interval = %v, want 1s", cfg.PollInterval)
	}
}

func TestLoad_InvalidPollIntervalEnvIgnored(t *testing.T) {
	env := map[string]string{"TRAINCTL_POLL_INTERVAL": "not-a-duration"}
	loader := NewLoader(&mockFS{home: "/home/u"}, func(k string) string { return env[k] })

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PollInterval != Duration(defaultPollInterval) {
		t.Errorf("poll interval = %v, want default", cfg.PollInterval)
	}
}

func TestLoad_UnknownEngineRejected(t *testing.T) {
	env := map[string]string{"TRAINCTL_ENGINE": "hypervisor"}
	loader := NewLoader(&mockFS{home: "/home/u"}, func(k string) string { return env[k] })

	_, err := loader.Load(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unknown engine") {
		t.Errorf("expected unknown engine error, got %v", err)
	}
}

func TestLoad_NoHomeDirFallsBackToDefaults(t *testing.T) {
	loader := NewLoader(&mockFS{homeErr: errors.New("no home")}, noEnv)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine != backend.EngineAuto {
		t.Errorf("engine = %q, want auto", cfg.Engine)
	}
}

func TestSecretString_Redacted(t *testing.T) {
	s := SecretString("hunter2")
	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", s.String())
	}
	if s.IsEmpty() {
		t.Error("expected non-empty secret")
	}
	if !SecretString("").IsEmpty() {
		t.Error("expected empty secret")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	if err != nil {
		t.Fatalf("Parse(DefaultYAML()) failed: %v", err)
	}
	if cfg != DefaultSimConfig() {
		t.Errorf("embedded defaults differ from DefaultSimConfig():\n%+v\n%+v", cfg, DefaultSimConfig())
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultSimConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimConfig)
		field  string
	}{
		{"zero gap size", func(c *SimConfig) { c.Obstacles.GapSize = 0 }, "obstacles.gap_size"},
		{"negative gravity", func(c *SimConfig) { c.Agent.Gravity = -1 }, "agent.gravity"},
		{"zero jump velocity", func(c *SimConfig) { c.Agent.JumpVelocity = 0 }, "agent.jump_velocity"},
		{"inverted step clamp", func(c *SimConfig) { c.Agent.MinStep = 20 }, "agent.min_step"},
		{"inverted gap range", func(c *SimConfig) { c.Obstacles.GapMax = c.Obstacles.GapMin }, "obstacles.gap_max"},
		{"missing playfield", func(c *SimConfig) { c.Playfield = Playfield{} }, "playfield.width"},
		{"spawn below floor", func(c *SimConfig) { c.Agent.SpawnY = 5000 }, "agent.spawn_y"},
		{"zero survival reward", func(c *SimConfig) { c.Rewards.Survival = 0 }, "rewards.survival"},
		{"negative penalty", func(c *SimConfig) { c.Rewards.CollisionPenalty = -1 }, "rewards.collision_penalty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultSimConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error should wrap ErrInvalid: %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q should name field %s", err, tc.field)
			}
		})
	}
}

func TestParseMissingParameters(t *testing.T) {
	_, err := Parse([]byte("playfield:\n  width: 550\n"))
	if err == nil {
		t.Fatal("Parse() should reject a document missing required parameters")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a *ValidationError, got %T", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sim.yaml")

	data := strings.Replace(string(DefaultYAML()), "gap_size: 200", "gap_size: 150", 1)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Obstacles.GapSize != 150 {
		t.Errorf("GapSize = %d, expected 150", cfg.Obstacles.GapSize)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("Load() should fail for a missing custom file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("obstacles: [1, 2"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load() should fail for malformed YAML")
	}

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	data := strings.Replace(string(DefaultYAML()), "speed: 5", "speed: 0", 1)
	if err := os.WriteFile(invalid, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(invalid); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() should report ErrInvalid, got %v", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Ollama.Endpoint != "http://localhost:11434" {
		t.Errorf("unexpected endpoint: %q", c.Ollama.Endpoint)
	}
	if c.Ollama.Model != "mistral" {
		t.Errorf("unexpected model: %q", c.Ollama.Model)
	}
	if c.Ollama.Temperature != 0.1 {
		t.Errorf("unexpected temperature: %v", c.Ollama.Temperature)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	timeout, err := c.GetOllamaTimeout()
	if err != nil {
		t.Fatalf("GetOllamaTimeout failed: %v", err)
	}
	if timeout != 30*time.Second {
		t.Errorf("unexpected timeout: %v", timeout)
	}

	maxAge, err := c.GetCatalogMaxAge()
	if err != nil {
		t.Fatalf("GetCatalogMaxAge failed: %v", err)
	}
	if maxAge != 168*time.Hour {
		t.Errorf("unexpected catalog max age: %v", maxAge)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		c, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("LoadFrom failed: %v", err)
		}
		if c.Ollama.Model != "mistral" {
			t.Errorf("expected defaults, got model %q", c.Ollama.Model)
		}
	})

	t.Run("partial file keeps defaults for omitted fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[ollama]\nmodel = \"llama3\"\n\n[data]\ncollection_file = \"/tmp/collection.csv\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		c, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom failed: %v", err)
		}
		if c.Ollama.Model != "llama3" {
			t.Errorf("expected overridden model, got %q", c.Ollama.Model)
		}
		if c.Ollama.Endpoint != "http://localhost:11434" {
			t.Errorf("expected default endpoint to survive, got %q", c.Ollama.Endpoint)
		}
		if c.Data.CollectionFile != "/tmp/collection.csv" {
			t.Errorf("unexpected collection file: %q", c.Data.CollectionFile)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not toml {{{"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	c := DefaultConfig()
	c.Ollama.Model = "llama3"
	c.Data.CollectionFile = "/tmp/collection.csv"
	c.App.DebugMode = true

	if err := c.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Ollama.Model != "llama3" {
		t.Errorf("model did not survive round trip: %q", loaded.Ollama.Model)
	}
	if loaded.Data.CollectionFile != "/tmp/collection.csv" {
		t.Errorf("collection file did not survive round trip: %q", loaded.Data.CollectionFile)
	}
	if !loaded.App.DebugMode {
		t.Error("debug mode did not survive round trip")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timeout", func(c *Config) { c.Ollama.Timeout = "soon" }},
		{"bad max age", func(c *Config) { c.Data.CatalogMaxAge = "forever" }},
		{"negative temperature", func(c *Config) { c.Ollama.Temperature = -0.5 }},
		{"huge temperature", func(c *Config) { c.Ollama.Temperature = 3.0 }},
		{"negative num_predict", func(c *Config) { c.Ollama.NumPredict = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDataDir_Configured(t *testing.T) {
	c := DefaultConfig()
	c.Data.Dir = "/var/lib/companion"

	dir, err := c.DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if dir != "/var/lib/companion" {
		t.Errorf("unexpected data dir: %q", dir)
	}
}

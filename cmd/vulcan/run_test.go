package main

import (
	"testing"

	"fileworks-hq/vulcan/pkg/capability"
	"fileworks-hq/vulcan/pkg/config"
)

func TestBuildRegistry_NothingConfigured(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	reg, err := buildRegistry(cfg, capability.NewExecutor(capability.ExecutorConfig{}))
	if err != nil {
		t.Fatalf("buildRegistry failed: %v", err)
	}
	if len(reg.IDs()) != 0 {
		t.Errorf("Expected no tools without configured services, got %v", reg.IDs())
	}
}

func TestBuildRegistry_FullToolSet(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Tools.Convert.BaseURL = "https://convert.example/v3"
	cfg.Tools.Convert.TokenURL = "https://convert.example/token"
	cfg.Tools.Convert.ClientID = "id"
	cfg.Tools.Convert.ClientSecret = "secret"
	cfg.Tools.Media.ResolverURL = "https://resolver.example/api"

	reg, err := buildRegistry(cfg, capability.NewExecutor(capability.ExecutorConfig{}))
	if err != nil {
		t.Fatalf("buildRegistry failed: %v", err)
	}

	want := []string{
		"compress-pdf",
		"pdf-to-excel",
		"pdf-to-jpg",
		"pdf-to-word",
		"rotate-pdf",
		"tiktok-download",
		"youtube-download",
	}
	got := reg.IDs()
	if len(got) != len(want) {
		t.Fatalf("Expected %d tools, got %v", len(want), got)
	}
	for i, id := range want {
		if got[i] != id {
			t.Errorf("Expected tool %q at position %d, got %q", id, i, got[i])
		}
	}

	// Both download aliases resolve to the same capabilities.
	if _, err := reg.Resolve("YouTube-Download"); err != nil {
		t.Errorf("Expected case-insensitive resolve, got %v", err)
	}
}

func TestBuildRegistry_MissingTokenURL(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Tools.Convert.BaseURL = "https://convert.example/v3"

	if _, err := buildRegistry(cfg, capability.NewExecutor(capability.ExecutorConfig{})); err == nil {
		t.Fatal("Expected error for convert service without token url")
	}
}

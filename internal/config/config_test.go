package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", raw: "", want: map[string]string{}},
		{
			name: "two headers",
			raw:  "Authorization:Bearer eyJ.x.y, Cookie: role=admin;",
			want: map[string]string{"Authorization": "Bearer eyJ.x.y", "Cookie": "role=admin;"},
		},
		{
			name: "value keeps later colons",
			raw:  "Referer:https://example.com/a",
			want: map[string]string{"Referer": "https://example.com/a"},
		},
		{name: "missing colon", raw: "Broken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeaders(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadTargetsSkipsBlankAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	content := "https://a.example\n\n# staging\n  https://b.example  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, targets)
}

func TestLoadTargetsMissingFile(t *testing.T) {
	_, err := LoadTargets(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("aranea", flag.ContinueOnError)
	err := cfg.parse(fs, []string{
		"-u", "https://example.com", "-m", "Analysis", "-t", "4",
		"-H", "X-Api:1", "-auto", "-continuous", "-no-log", "Emails, ips",
	})
	require.NoError(t, err)

	assert.Equal(t, ModeAnalysis, cfg.Mode)
	assert.Equal(t, 4, cfg.Threads)
	assert.True(t, cfg.Auto)
	assert.True(t, cfg.Continuous)
	assert.Equal(t, map[string]string{"X-Api": "1"}, cfg.Headers)
	assert.Equal(t, []string{"emails", "ips"}, cfg.NoLog)
	assert.True(t, filepath.IsAbs(cfg.ScansDir))
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.Validate(), "target required")

	cfg.URL = "https://example.com"
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "fuzz"
	assert.Error(t, cfg.Validate())

	cfg.Mode = ModeCrawl
	cfg.Threads = 0
	assert.Error(t, cfg.Validate())
}

func TestDomainDir(t *testing.T) {
	cfg := NewConfig()
	cfg.ScansDir = "/tmp/scans"
	assert.Equal(t, filepath.Join("/tmp/scans", "example.com_8443"), cfg.DomainDir("https://example.com:8443/app"))
	assert.Equal(t, filepath.Join("/tmp/scans", "bundle.js"), cfg.DomainDir("./dist/bundle.js"))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com:8443", HostOf("https://example.com:8443/app"))
	assert.Equal(t, "main.js", HostOf("/srv/static/main.js"))
}

package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	t.Setenv("HH_SCREENER_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr bool
	}{
		{name: "file wins over value", src: Source{Name: "key", File: file, Value: "inline"}, want: "from-file"},
		{name: "value wins over env", src: Source{Value: "inline", Env: []string{"HH_SCREENER_TEST_KEY"}}, want: "inline"},
		{name: "first set env", src: Source{Env: []string{"HH_SCREENER_UNSET", "HH_SCREENER_TEST_KEY"}}, want: "from-env"},
		{name: "empty file", src: Source{File: empty, Env: []string{"HH_SCREENER_TEST_KEY"}}, wantErr: true},
		{name: "missing file", src: Source{File: filepath.Join(dir, "nope")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{Name: "gemini api key", Env: []string{"HH_SCREENER_SURELY_UNSET"}})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type stubProvider struct {
	name   string
	values map[string]string
	closed bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := s.values[ref]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{"secretref:env:TOKEN", "env", "TOKEN", true},
		{"secretref:file:/run/secrets/a:b", "file", "/run/secrets/a:b", true},
		{"secretref:env:", "", "", false},
		{"secretref::x", "", "", false},
		{"plain", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, r, ok := ParseSecretRef(tt.in)
			if p != tt.provider || r != tt.ref || ok != tt.ok {
				t.Errorf("ParseSecretRef(%q) = %q, %q, %v", tt.in, p, r, ok)
			}
		})
	}
}

func TestResolver_ResolveValue(t *testing.T) {
	t.Setenv("HYPERENTITY_TEST_HOST", "api.example.com")
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one", "empty": ""}})
	ctx := context.Background()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain", in: "literal", want: "literal"},
		{name: "env", in: "https://${HYPERENTITY_TEST_HOST}/x", want: "https://api.example.com/x"},
		{name: "escaped dollar", in: "$$5", want: "$5"},
		{name: "full ref", in: "secretref:stub:alpha", want: "one"},
		{name: "inline refs", in: "a=secretref:stub:alpha b=secretref:stub:alpha", want: "a=one b=one"},
		{name: "missing env", in: "${HYPERENTITY_TEST_UNSET}", wantErr: ErrMissingEnv},
		{name: "unknown provider", in: "secretref:vault:x", wantErr: ErrProviderNotRegistered},
		{name: "malformed", in: "secretref:stub:", wantErr: ErrInvalidRef},
		{name: "not found", in: "secretref:stub:nope", wantErr: ErrNotFound},
		{name: "strict empty", in: "secretref:stub:empty", wantErr: ErrEmptySecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveValue(ctx, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveValue(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveValue(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolver_NonStrictAllowsEmpty(t *testing.T) {
	r := NewResolver(false, &stubProvider{name: "stub", values: map[string]string{"empty": ""}})
	got, err := r.ResolveValue(context.Background(), "secretref:stub:empty")
	if err != nil || got != "" {
		t.Errorf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_NilOnlyExpands(t *testing.T) {
	t.Setenv("HYPERENTITY_TEST_TOKEN", "tok")
	var r *Resolver
	got, err := r.ResolveValue(context.Background(), "${HYPERENTITY_TEST_TOKEN}")
	if err != nil || got != "tok" {
		t.Errorf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_ResolveToken(t *testing.T) {
	t.Setenv("HYPERENTITY_TEST_TOKEN", "  Bearer abc.def.ghi\n")
	r := NewResolver(true, EnvProvider{})
	for _, in := range []string{"secretref:env:HYPERENTITY_TEST_TOKEN", "${HYPERENTITY_TEST_TOKEN}"} {
		got, err := r.ResolveToken(context.Background(), in)
		if err != nil {
			t.Fatalf("ResolveToken(%q) error = %v", in, err)
		}
		if got != "abc.def.ghi" {
			t.Errorf("ResolveToken(%q) = %q", in, got)
		}
	}
}

func TestResolver_ResolveSlice(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"a": "1"}})
	got, err := r.ResolveSlice(context.Background(), []string{"x", "secretref:stub:a"})
	if err != nil {
		t.Fatalf("ResolveSlice() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"x", "1"}) {
		t.Errorf("ResolveSlice() = %v", got)
	}
	if _, err := r.ResolveSlice(context.Background(), []string{"secretref:stub:b"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveSlice() error = %v, want ErrNotFound", err)
	}
}

func TestResolver_Close(t *testing.T) {
	p := &stubProvider{name: "stub"}
	if err := NewResolver(true, p).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !p.closed {
		t.Error("provider not closed")
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte("file-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	abs, err := FileProvider{}.Resolve(context.Background(), filepath.Join(dir, "token"))
	if err != nil || abs != "file-token" {
		t.Errorf("Resolve(abs) = %q, %v", abs, err)
	}
	rel, err := FileProvider{Dir: dir}.Resolve(context.Background(), "token")
	if err != nil || rel != "file-token" {
		t.Errorf("Resolve(rel) = %q, %v", rel, err)
	}
	if _, err := (FileProvider{Dir: dir}).Resolve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("HYPERENTITY_TEST_ENV", "v")
	if got, err := (EnvProvider{}).Resolve(context.Background(), "HYPERENTITY_TEST_ENV"); err != nil || got != "v" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
	if _, err := (EnvProvider{}).Resolve(context.Background(), "HYPERENTITY_TEST_UNSET"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(unset) error = %v", err)
	}
}

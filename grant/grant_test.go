package grant

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestType_Valid(t *testing.T) {
	tests := []struct {
		in   Type
		want bool
	}{
		{AuthorizationCode, true},
		{"custom-grant.v2", true},
		{"urn:ietf:params:oauth:grant-type:device_code", true},
		{"urn:ietf:params:oauth:grant-type:jwt-bearer", true},
		{"", false},
		{"bad grant", false},
		{"bad!", false},
		{"urn:has space", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsBuiltin(t *testing.T) {
	for _, b := range Builtin {
		if !b.IsBuiltin() {
			t.Errorf("%s.IsBuiltin() = false", b)
		}
	}
	if Type("device_code").IsBuiltin() {
		t.Error("device_code.IsBuiltin() = true")
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("authorization_code, refresh_token password")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []Type{AuthorizationCode, RefreshToken, Password}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}

	if _, err := Parse("ok,bad!"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Parse() error = %v, want ErrInvalidType", err)
	}
}

func noopHandler(context.Context, *Request) (*Authorization, error) {
	return &Authorization{}, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		typ     Type
		handler Handler
		wantErr error
	}{
		{"custom", "device_code", HandlerFunc(noopHandler), nil},
		{"duplicate", "device_code", HandlerFunc(noopHandler), ErrDuplicateType},
		{"builtin", Password, HandlerFunc(noopHandler), ErrBuiltinType},
		{"malformed", "no way", HandlerFunc(noopHandler), ErrInvalidType},
		{"nil handler", "other", nil, ErrNilHandler},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.typ, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, ok := r.Lookup("device_code"); !ok {
		t.Error("Lookup(device_code) not found")
	}
	if _, ok := r.Lookup("other"); ok {
		t.Error("Lookup(other) found")
	}
	if got := r.Types(); !reflect.DeepEqual(got, []Type{"device_code"}) {
		t.Errorf("Types() = %v", got)
	}

	r.Unregister("device_code")
	r.Unregister("device_code")
	if _, ok := r.Lookup("device_code"); ok {
		t.Error("Lookup after Unregister found handler")
	}
}

func TestRegistry_NilLookup(t *testing.T) {
	var r *Registry
	if _, ok := r.Lookup("x"); ok {
		t.Error("nil registry Lookup returned ok")
	}
	if r.Types() != nil {
		t.Error("nil registry Types() != nil")
	}
}

func TestRegistry_RegisterFunc(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterFunc("x", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("RegisterFunc(nil) error = %v", err)
	}
	if err := r.RegisterFunc("x", noopHandler); err != nil {
		t.Fatalf("RegisterFunc() error = %v", err)
	}
	h, _ := r.Lookup("x")
	auth, err := h.HandleGrant(context.Background(), &Request{Type: "x"})
	if err != nil || auth == nil {
		t.Errorf("HandleGrant() = %v, %v", auth, err)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register("shared", HandlerFunc(noopHandler))
		}()
		go func() {
			defer wg.Done()
			r.Lookup("shared")
		}()
	}
	wg.Wait()
	if len(r.Types()) != 1 {
		t.Errorf("Types() = %v, want one entry", r.Types())
	}
}

package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

var (
	errCause       = errors.New("the cause")
	errDescription = errors.New("a description")
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		prev    error
		err     error
		wantNil bool
		wantIs  []error
	}{
		{
			name:    "nil prev",
			prev:    nil,
			err:     errDescription,
			wantNil: true,
		},
		{
			name:   "io.EOF is kept",
			prev:   io.EOF,
			err:    errDescription,
			wantIs: []error{io.EOF},
		},
		{
			name:   "cause and description",
			prev:   errCause,
			err:    errDescription,
			wantIs: []error{errCause, errDescription},
		},
		{
			name:   "nested",
			prev:   Wrap(errCause, errDescription),
			err:    fmt.Errorf("outer"),
			wantIs: []error{errCause, errDescription},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.prev, tt.err)
			if (got == nil) != tt.wantNil {
				t.Fatalf("Wrap() = %v, wantNil %v", got, tt.wantNil)
			}
			for _, target := range tt.wantIs {
				if !errors.Is(got, target) {
					t.Errorf("errors.Is(Wrap(), %v) = false, want true", target)
				}
			}
		})
	}
}

func TestFrom(t *testing.T) {
	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
	if From(io.EOF) != io.EOF {
		t.Error("From(io.EOF) should stay io.EOF")
	}

	err := From(errCause)
	if !errors.Is(err, errCause) {
		t.Errorf("errors.Is(From(), cause) = false")
	}
	if !strings.Contains(err.Error(), "checkpoint_test.go") {
		t.Errorf("From().Error() = %q, want caller file", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "plain error",
			err:  errCause,
			want: false,
		},
		{
			name: "wrapped only",
			err:  Wrap(errCause, errDescription),
			want: false,
		},
		{
			name: "retryable",
			err:  Retryable(errCause, errDescription),
			want: true,
		},
		{
			name: "retryable below a wrap",
			err:  Wrap(Retryable(errCause, errDescription), errors.New("extract")),
			want: true,
		},
		{
			name: "retryable inside fmt wrapping",
			err:  fmt.Errorf("host: %w", Retryable(errCause, errDescription)),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}

	if Retryable(nil, errDescription) != nil {
		t.Error("Retryable(nil, ...) should be nil")
	}
}

package probe

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestClassify_DeadlineExceeded(t *testing.T) {
	if got := Classify(context.DeadlineExceeded); got != ErrRequestTimeout {
		t.Fatalf("want %q, got %q", ErrRequestTimeout, got)
	}
}

func TestClassify_DNSNotFound(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}
	if got := Classify(err); got != ErrHostNotFound {
		t.Fatalf("want %q, got %q", ErrHostNotFound, got)
	}
}

func TestClassify_ConnectionRefused(t *testing.T) {
	err := errors.New("dial tcp 127.0.0.1:9999: connect: connection refused")
	if got := Classify(err); got != ErrConnectionRefused {
		t.Fatalf("want %q, got %q", ErrConnectionRefused, got)
	}
}

func TestClassify_TLSError(t *testing.T) {
	err := errors.New("x509: certificate signed by unknown authority")
	if got := Classify(err); got != ErrTLSError {
		t.Fatalf("want %q, got %q", ErrTLSError, got)
	}
}

func TestClassify_FallbackWrapsRawMessage(t *testing.T) {
	err := errors.New("something unusual happened")
	got := Classify(err)
	if got != "Connection failed: something unusual happened" {
		t.Fatalf("want fallback wrapping, got %q", got)
	}
}

func TestClassify_Nil(t *testing.T) {
	if got := Classify(nil); got != "" {
		t.Fatalf("want empty string for nil error, got %q", got)
	}
}

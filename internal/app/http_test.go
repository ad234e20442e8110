package app

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func TestNewPoliteHTTPClient_Config(t *testing.T) {
	c := newPoliteHTTPClient(45 * time.Second)
	if c.Timeout != 45*time.Second {
		t.Fatalf("timeout = %v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected http.Transport")
	}
	if tr.MaxConnsPerHost == 0 || tr.MaxConnsPerHost > 4 {
		t.Fatalf("expected a small per-host connection cap, got %d", tr.MaxConnsPerHost)
	}
	if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
		t.Fatalf("transport should not be default")
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRunMain_SuccessIsZero(t *testing.T) {
	var out bytes.Buffer
	if code := runMain(func() error { return nil }, &out); code != 0 {
		t.Fatalf("runMain() = %d, want 0", code)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected stderr output: %q", out.String())
	}
}

func TestRunMain_PlainErrorIsOne(t *testing.T) {
	var out bytes.Buffer
	code := runMain(func() error { return errors.New("boom") }, &out)
	if code != 1 {
		t.Fatalf("runMain() = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "boom") {
		t.Fatalf("stderr = %q, want it to contain %q", out.String(), "boom")
	}
}

func TestRunMain_CanceledIs130(t *testing.T) {
	var out bytes.Buffer
	code := runMain(func() error {
		return fmt.Errorf("serve: %w", context.Canceled)
	}, &out)
	if code != 130 {
		t.Fatalf("runMain() = %d, want 130", code)
	}
	if !strings.Contains(out.String(), "canceled") {
		t.Fatalf("stderr = %q, want it to contain %q", out.String(), "canceled")
	}
}

func TestRunMain_ExitErrorCodeAndSilence(t *testing.T) {
	var out bytes.Buffer
	code := runMain(func() error {
		return &exitError{code: 3, err: errors.New("bad input")}
	}, &out)
	if code != 3 {
		t.Fatalf("runMain() = %d, want 3", code)
	}
	if !strings.Contains(out.String(), "bad input") {
		t.Fatalf("stderr = %q, want it to contain %q", out.String(), "bad input")
	}

	out.Reset()
	code = runMain(func() error {
		return &exitError{code: 4, silent: true}
	}, &out)
	if code != 4 {
		t.Fatalf("runMain() = %d, want 4", code)
	}
	if out.Len() != 0 {
		t.Fatalf("silent exit error wrote to stderr: %q", out.String())
	}
}

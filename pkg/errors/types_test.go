package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeViewNoModel, "no model attached")

	if err.Code != ErrCodeViewNoModel {
		t.Errorf("expected code %s, got %s", ErrCodeViewNoModel, err.Code)
	}
	if err.Message != "no model attached" {
		t.Errorf("unexpected message: %s", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
	if err.Retryable {
		t.Error("new errors should not be retryable by default")
	}
}

func TestWrap(t *testing.T) {
	underlying := errors.New("file missing")
	err := Wrap(underlying, ErrCodeConfigLoad, "failed to load config")

	if err.Underlying != underlying {
		t.Error("expected underlying error to be preserved")
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should match underlying error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "CONFIG_LOAD") {
		t.Errorf("expected code in message, got %s", msg)
	}
	if !strings.Contains(msg, "file missing") {
		t.Errorf("expected underlying message, got %s", msg)
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "should be nil"); err != nil {
		t.Errorf("wrapping nil should return nil, got %v", err)
	}
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeRenderLine, "render failed").
		WithContext("line", 42).
		WithContext("slot", 2)

	if err.Context["line"] != 42 {
		t.Errorf("expected line=42, got %v", err.Context["line"])
	}

	msg := err.Error()
	if !strings.Contains(msg, "line: 42") {
		t.Errorf("expected context in message, got %s", msg)
	}
}

func TestWithRetryable(t *testing.T) {
	err := New(ErrCodeFoldingUnavailable, "provider timeout").WithRetryable(true)

	if !err.IsRetryable() {
		t.Error("expected retryable error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable helper should agree")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrCodeNodeNotFound, "no slot marker")

	if !IsCode(err, ErrCodeNodeNotFound) {
		t.Error("expected IsCode to match")
	}
	if IsCode(err, ErrCodeInternal) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(nil, ErrCodeInternal) {
		t.Error("IsCode on nil should be false")
	}
	if IsCode(errors.New("plain"), ErrCodeInternal) {
		t.Error("IsCode on plain error should be false")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeConfigParse, "bad yaml")); got != ErrCodeConfigParse {
		t.Errorf("expected CONFIG_PARSE, got %s", got)
	}
	if got := GetCode(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("plain errors map to INTERNAL, got %s", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("nil maps to empty code, got %s", got)
	}
}

func TestStackTrace(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	trace := err.StackTrace()

	if !strings.Contains(trace, "Stack trace:") {
		t.Error("expected stack trace header")
	}
	if !strings.Contains(trace, "TestStackTrace") {
		t.Errorf("expected calling function in trace:\n%s", trace)
	}
}

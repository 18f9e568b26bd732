package errors

import (
	"strings"
	"testing"
)

func TestSafeExecute(t *testing.T) {
	t.Run("normal execution", func(t *testing.T) {
		err := SafeExecute("noop", func() error { return nil })
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("returned error passes through", func(t *testing.T) {
		want := New("boom")
		err := SafeExecute("failing", func() error { return want })
		if !Is(err, want) {
			t.Errorf("expected original error, got %v", err)
		}
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		err := SafeExecute("panicking action", func() error {
			panic("index out of range in user callback")
		})
		if err == nil {
			t.Fatal("expected error from panic")
		}

		var pErr *PanicError
		if !As(err, &pErr) {
			t.Fatalf("expected PanicError, got %T", err)
		}
		if pErr.Operation != "panicking action" {
			t.Errorf("Operation = %q, want %q", pErr.Operation, "panicking action")
		}
		if pErr.StackTrace == "" {
			t.Error("stack trace should not be empty")
		}
	})
}

func TestRecoverWrapsExistingError(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "mixed failure")
		err = New("original")
		panic("late panic")
	}

	err := fn()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "original") || !strings.Contains(err.Error(), "late panic") {
		t.Errorf("error %q should mention both the original error and the panic", err.Error())
	}
}

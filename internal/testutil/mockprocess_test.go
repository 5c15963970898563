package testutil

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestMockProcess_BasicFlow(t *testing.T) {
	mock := NewMockProcess()
	mock.SetOutput("hello\nworld\n")

	output, err := mock.Start(context.Background(), "test", "arg1", "arg2")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	out, err := io.ReadAll(output)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(out) != "hello\nworld\n" {
		t.Errorf("output = %q, want %q", string(out), "hello\nworld\n")
	}

	if err := mock.Wait(); err != nil {
		t.Errorf("Wait failed: %v", err)
	}
	if !mock.WaitCalled() {
		t.Error("WaitCalled should be true")
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Name != "test" || len(calls[0].Args) != 2 || calls[0].Args[1] != "arg2" {
		t.Errorf("unexpected call: %+v", calls[0])
	}
}

func TestMockProcess_StartError(t *testing.T) {
	mock := NewMockProcess()
	testErr := errors.New("start failed")
	mock.SetStartError(testErr)

	_, err := mock.Start(context.Background(), "test")
	if !errors.Is(err, testErr) {
		t.Errorf("Start error = %v, want %v", err, testErr)
	}

	// A failed start leaves the mock unstarted, so it can be retried.
	mock.SetStartError(nil)
	mock.SetOutput("success")
	output, err := mock.Start(context.Background(), "test")
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	out, _ := io.ReadAll(output)
	if string(out) != "success" {
		t.Errorf("output = %q, want %q", string(out), "success")
	}
	if len(mock.Calls()) != 2 {
		t.Errorf("expected 2 recorded calls, got %d", len(mock.Calls()))
	}
}

func TestMockProcess_AlreadyStarted(t *testing.T) {
	mock := NewMockProcess()

	if _, err := mock.Start(context.Background(), "test"); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if _, err := mock.Start(context.Background(), "test"); !errors.Is(err, ErrProcessAlreadyStarted) {
		t.Errorf("second Start error = %v, want ErrProcessAlreadyStarted", err)
	}
}

func TestMockProcess_WaitError(t *testing.T) {
	mock := NewMockProcess()
	testErr := errors.New("exit status 1")
	mock.SetWaitError(testErr)

	if _, err := mock.Start(context.Background(), "test"); err != nil {
		t.Fatal(err)
	}
	if err := mock.Wait(); !errors.Is(err, testErr) {
		t.Errorf("Wait error = %v, want %v", err, testErr)
	}
}

func TestMockProcess_WaitNotStarted(t *testing.T) {
	mock := NewMockProcess()
	if err := mock.Wait(); !errors.Is(err, ErrProcessNotStarted) {
		t.Errorf("Wait error = %v, want ErrProcessNotStarted", err)
	}
}

func TestMockProcess_Kill(t *testing.T) {
	mock := NewMockProcess()
	mock.SetOutput("lots of output")

	output, err := mock.Start(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}

	if err := mock.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	if !mock.Killed() {
		t.Error("Killed should be true")
	}

	// Reads after kill see EOF.
	out, _ := io.ReadAll(output)
	if len(out) != 0 {
		t.Errorf("read %q after kill, want nothing", out)
	}

	if err := mock.Wait(); !errors.Is(err, ErrProcessKilled) {
		t.Errorf("Wait error = %v, want ErrProcessKilled", err)
	}
}

func TestMockProcess_KillNotStarted(t *testing.T) {
	mock := NewMockProcess()
	if err := mock.Kill(); err != nil {
		t.Errorf("Kill on unstarted process should be a no-op, got %v", err)
	}
	if mock.Killed() {
		t.Error("Killed should be false for unstarted process")
	}
}

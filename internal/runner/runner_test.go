package runner

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

func TestExecProcess_StartAndWait(t *testing.T) {
	p := NewExecProcess()

	output, err := p.Start(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	out, err := io.ReadAll(output)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(out) != "hello\n" {
		t.Errorf("output = %q, want %q", string(out), "hello\n")
	}

	if err := p.Wait(); err != nil {
		t.Errorf("Wait failed: %v", err)
	}
}

func TestExecProcess_MergesStderr(t *testing.T) {
	p := NewExecProcess()

	output, err := p.Start(context.Background(), "sh", "-c", "echo out; echo err >&2; echo out2")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	out, err := io.ReadAll(output)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := "out\nerr\nout2\n"
	if string(out) != want {
		t.Errorf("merged output = %q, want %q", string(out), want)
	}

	_ = p.Wait()
}

func TestExecProcess_AlreadyStarted(t *testing.T) {
	p := NewExecProcess()

	output, err := p.Start(context.Background(), "echo", "first")
	if err != nil {
		t.Fatalf("First Start failed: %v", err)
	}

	// Second start should fail
	if _, err := p.Start(context.Background(), "echo", "second"); err == nil {
		t.Error("Second Start should fail")
	}

	_, _ = io.ReadAll(output)
	_ = p.Wait()
}

func TestExecProcess_WaitNotStarted(t *testing.T) {
	p := NewExecProcess()

	if err := p.Wait(); err == nil {
		t.Error("Wait without Start should fail")
	}
}

func TestExecProcess_Kill(t *testing.T) {
	p := NewExecProcess()

	output, err := p.Start(context.Background(), "sleep", "10")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := p.Kill(); err != nil {
		t.Errorf("Kill failed: %v", err)
	}

	// Wait should return an error (killed)
	if err := p.Wait(); err == nil {
		t.Error("Wait after Kill should return error")
	}

	_ = output.Close()
}

func TestExecProcess_KillNotStarted(t *testing.T) {
	p := NewExecProcess()

	if err := p.Kill(); err != nil {
		t.Errorf("Kill before Start should not error: %v", err)
	}
}

func TestExecProcess_ContextCancel(t *testing.T) {
	p := NewExecProcess()

	ctx, cancel := context.WithCancel(context.Background())

	output, err := p.Start(ctx, "sleep", "10")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	cancel()

	if err := p.Wait(); err == nil {
		t.Error("Wait after context cancel should return error")
	}

	_ = output.Close()
}

func TestExecProcess_ConcurrentKill(t *testing.T) {
	p := NewExecProcess()

	output, err := p.Start(context.Background(), "sleep", "1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Kill()
		}()
	}

	wg.Wait()
	_ = p.Wait()
	_ = output.Close()
}

func TestExecProcess_InvalidCommand(t *testing.T) {
	p := NewExecProcess()

	if _, err := p.Start(context.Background(), "nonexistent-command-12345"); err == nil {
		t.Error("Start with invalid command should fail")
	}
}

func TestExecProcess_Timeout(t *testing.T) {
	p := NewExecProcess()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	output, err := p.Start(ctx, "sleep", "10")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := p.Wait(); err == nil {
		t.Error("Wait should fail after timeout")
	}

	_ = output.Close()
}

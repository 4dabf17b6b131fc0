package session

import (
	"bytes"
	"os"
	"testing"
)

func TestTerminalPrompterReadsPipedInput(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	if _, err := w.WriteString("  dev@example.com \nhunter2\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()

	var out bytes.Buffer
	p := &TerminalPrompter{In: r, Out: &out}

	identity, err := p.Identity("old@example.com")
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if identity != "dev@example.com" {
		t.Errorf("Identity() = %q", identity)
	}

	secret, err := p.Secret()
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if secret != "hunter2" {
		t.Errorf("Secret() = %q", secret)
	}

	if got, want := out.String(), "Email (old@example.com): Password: "; got != want {
		t.Errorf("prompts = %q, want %q", got, want)
	}
}

func TestTerminalPrompterEmptyPrefill(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	_, _ = w.WriteString("\n")
	_ = w.Close()

	var out bytes.Buffer
	p := &TerminalPrompter{In: r, Out: &out}

	identity, err := p.Identity("")
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if identity != "" {
		t.Errorf("Identity() = %q, want empty", identity)
	}
	if out.String() != "Email: " {
		t.Errorf("prompt = %q", out.String())
	}
}

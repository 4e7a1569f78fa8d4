//go:build darwin

package hotkey

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"
)

// Registration needs the Cocoa event loop on the main thread.
func TestMain(m *testing.M) {
	mainthread.Init(func() { os.Exit(m.Run()) })
}

func TestParseHotkeyCombo(t *testing.T) {
	tests := []struct {
		combo    string
		wantMods int
		wantKey  hotkey.Key
		wantErr  bool
	}{
		{"Ctrl+Option+M", 2, hotkey.KeyM, false},
		{" cmd + shift + f13 ", 2, hotkey.KeyF13, false},
		{"Alt+Space", 1, hotkey.KeySpace, false},
		{"M", 0, 0, true},
		{"", 0, 0, true},
		{"Hyper+M", 0, 0, true},
		{"Ctrl+F20", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.combo, func(t *testing.T) {
			mods, key, err := ParseHotkeyCombo(tt.combo)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %t", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(mods) != tt.wantMods || key != tt.wantKey {
				t.Errorf("got %d mods key %v, want %d mods key %v", len(mods), key, tt.wantMods, tt.wantKey)
			}
		})
	}
}

func TestNewKeepsComboName(t *testing.T) {
	l, err := New("Ctrl+Option+M")
	if err != nil {
		t.Fatal(err)
	}
	if l.KeyName() != "Ctrl+Option+M" {
		t.Errorf("KeyName = %q", l.KeyName())
	}
}

func TestStartReturnsOnCancel(t *testing.T) {
	l, err := New("Ctrl+Option+Shift+F19")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx, func() {}) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		// Without Accessibility permission registration fails instead; either
		// way Start must not hang.
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Logf("Start returned registration error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartCancelledBeforeRegistration(t *testing.T) {
	l, err := New("Ctrl+Option+Shift+F18")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- l.Start(ctx, nil) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return for a cancelled context")
	}
}

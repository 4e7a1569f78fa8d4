//go:build darwin

package hotkey

import (
	"context"
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

// modifierMap maps modifier name strings to hotkey.Modifier values.
var modifierMap = map[string]hotkey.Modifier{
	"OPTION": hotkey.ModOption,
	"ALT":    hotkey.ModOption,
	"CTRL":   hotkey.ModCtrl,
	"SHIFT":  hotkey.ModShift,
	"CMD":    hotkey.ModCmd,
}

// keyMap maps key name strings to hotkey.Key values.
var keyMap = map[string]hotkey.Key{
	"SPACE": hotkey.KeySpace,
	"F13":   hotkey.KeyF13,
	"F14":   hotkey.KeyF14,
	"F15":   hotkey.KeyF15,
	"F16":   hotkey.KeyF16,
	"F17":   hotkey.KeyF17,
	"F18":   hotkey.KeyF18,
	"F19":   hotkey.KeyF19,
	"A":     hotkey.KeyA,
	"B":     hotkey.KeyB,
	"C":     hotkey.KeyC,
	"D":     hotkey.KeyD,
	"E":     hotkey.KeyE,
	"F":     hotkey.KeyF,
	"G":     hotkey.KeyG,
	"H":     hotkey.KeyH,
	"I":     hotkey.KeyI,
	"J":     hotkey.KeyJ,
	"K":     hotkey.KeyK,
	"L":     hotkey.KeyL,
	"M":     hotkey.KeyM,
	"N":     hotkey.KeyN,
	"O":     hotkey.KeyO,
	"P":     hotkey.KeyP,
	"Q":     hotkey.KeyQ,
	"R":     hotkey.KeyR,
	"S":     hotkey.KeyS,
	"T":     hotkey.KeyT,
	"U":     hotkey.KeyU,
	"V":     hotkey.KeyV,
	"W":     hotkey.KeyW,
	"X":     hotkey.KeyX,
	"Y":     hotkey.KeyY,
	"Z":     hotkey.KeyZ,
	"0":     hotkey.Key0,
	"1":     hotkey.Key1,
	"2":     hotkey.Key2,
	"3":     hotkey.Key3,
	"4":     hotkey.Key4,
	"5":     hotkey.Key5,
	"6":     hotkey.Key6,
	"7":     hotkey.Key7,
	"8":     hotkey.Key8,
	"9":     hotkey.Key9,
}

// ParseHotkeyCombo parses a combo like "Ctrl+Option+M" into modifiers and a key.
// At least one modifier is required so plain typing is never captured.
func ParseHotkeyCombo(combo string) ([]hotkey.Modifier, hotkey.Key, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return nil, 0, fmt.Errorf("empty hotkey combo")
	}

	parts := strings.Split(combo, "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("hotkey must be modifier+key (e.g. Ctrl+Option+M), got: %s", combo)
	}

	var mods []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		part = strings.TrimSpace(part)
		mod, ok := modifierMap[strings.ToUpper(part)]
		if !ok {
			return nil, 0, fmt.Errorf("unknown modifier: %s (valid: Option, Alt, Ctrl, Shift, Cmd)", part)
		}
		mods = append(mods, mod)
	}

	keyStr := strings.TrimSpace(parts[len(parts)-1])
	key, ok := keyMap[strings.ToUpper(keyStr)]
	if !ok {
		return nil, 0, fmt.Errorf("unknown key: %s", keyStr)
	}

	return mods, key, nil
}

// darwinListener implements Listener using golang.design/x/hotkey.
type darwinListener struct {
	mods    []hotkey.Modifier
	key     hotkey.Key
	keyName string
}

// New parses combo and returns a Listener for it.
func New(combo string) (Listener, error) {
	mods, key, err := ParseHotkeyCombo(combo)
	if err != nil {
		return nil, err
	}
	return &darwinListener{mods: mods, key: key, keyName: combo}, nil
}

// Start registers the hotkey and calls onPress on every key down.
// It blocks until the context is cancelled, including while registration is
// still waiting on the main thread event loop.
func (l *darwinListener) Start(ctx context.Context, onPress func()) error {
	hk := hotkey.New(l.mods, l.key)

	registered := make(chan error, 1)
	go func() { registered <- hk.Register() }()

	select {
	case <-ctx.Done():
		// Undo a registration that lands after we gave up on it.
		go func() {
			if err := <-registered; err == nil {
				hk.Unregister()
			}
		}()
		return ctx.Err()
	case err := <-registered:
		if err != nil {
			return fmt.Errorf("register hotkey %s: %w (grant Accessibility permissions in System Settings > Privacy & Security)", l.keyName, err)
		}
	}
	defer hk.Unregister()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-hk.Keydown():
			if onPress != nil {
				onPress()
			}
		}
	}
}

// KeyName returns the configured hotkey combo string.
func (l *darwinListener) KeyName() string {
	return l.keyName
}

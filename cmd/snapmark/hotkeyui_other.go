//go:build !windows

package main

func setHotkeyCallback() func() {
	return nil
}

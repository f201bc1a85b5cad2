//go:build windows

package main

import "snapmark/internal/hotkey"

// setHotkeyCallback 托盘"设置快捷键"菜单的回调
func setHotkeyCallback() func() {
	return func() {
		r := hotkey.ShowHotkeySetter(cfg.GetHotkeyString())
		if r == nil || r.Cancelled {
			return
		}
		if err := hotkey.ValidateHotkey(r.Modifiers, r.Key); err != nil {
			notifier.Show("快捷键无效", err.Error())
			return
		}
		if err := cfg.SetHotkey(r.Modifiers, r.Key); err != nil {
			notifier.Show("保存快捷键失败", err.Error())
			return
		}
		notifier.Show("快捷键已更新", cfg.GetHotkeyString()+"，重启后生效")
	}
}

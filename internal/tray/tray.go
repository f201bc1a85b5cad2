package tray

import (
	"github.com/getlantern/systray"
)

// Tray 系统托盘
type Tray struct {
	onScreenshot func()
	onOpenDir    func()
	onSetHotkey  func()
	onQuit       func()
	hotkeyText   string
}

// NewTray 创建系统托盘
func NewTray() *Tray {
	return &Tray{
		hotkeyText: "Alt+1",
	}
}

// SetHotkeyText 设置快捷键显示文本
func (t *Tray) SetHotkeyText(text string) {
	t.hotkeyText = text
}

// SetOnScreenshot 设置截图回调
func (t *Tray) SetOnScreenshot(fn func()) {
	t.onScreenshot = fn
}

// SetOnOpenDir 设置打开目录回调
func (t *Tray) SetOnOpenDir(fn func()) {
	t.onOpenDir = fn
}


// SetOnSetHotkey 设置修改快捷键回调，nil 则不显示该菜单项
func (t *Tray) SetOnSetHotkey(fn func()) {
	t.onSetHotkey = fn
}

// SetOnQuit 设置退出回调
func (t *Tray) SetOnQuit(fn func()) {
	t.onQuit = fn
}

// Run 运行系统托盘
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle("SnapMark")
	systray.SetTooltip("SnapMark - 截图标注工具")

	// 截图菜单项
	mScreenshot := systray.AddMenuItem("截图标注 ("+t.hotkeyText+")", "截取屏幕并进入标注")
	systray.AddSeparator()

	// 打开截图目录
	mOpenDir := systray.AddMenuItem("打开截图目录", "打开截图保存位置")

	// 设置快捷键（平台不支持时回调为 nil，不显示）
	var setHotkeyCh chan struct{}
	if t.onSetHotkey != nil {
		setHotkeyCh = systray.AddMenuItem("设置快捷键", "修改截图快捷键").ClickedCh
	}

	systray.AddSeparator()

	// 退出
	mQuit := systray.AddMenuItem("退出", "退出程序")

	go func() {
		for {
			select {
			case <-mScreenshot.ClickedCh:
				if t.onScreenshot != nil {
					t.onScreenshot()
				}
			case <-mOpenDir.ClickedCh:
				if t.onOpenDir != nil {
					t.onOpenDir()
				}
			case <-setHotkeyCh:
				t.onSetHotkey()
			case <-mQuit.ClickedCh:
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	// 清理资源
}

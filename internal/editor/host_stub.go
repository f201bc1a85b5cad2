//go:build !windows

package editor

import "errors"

func newHost(ed *Editor, width, height int) (Host, error) {
	return nil, errors.New("当前平台不支持标注覆盖窗口")
}

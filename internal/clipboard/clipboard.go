package clipboard

import "image"

// Clipboard 剪贴板接口
type Clipboard interface {
	SetText(text string) error
	GetText() (string, error)
	SetImage(img *image.RGBA) error
}

package annotate

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// lineHeightFactor 行高系数（行高 = 1.2 * 字号）
const lineHeightFactor = 1.2

// faceCache 字体面缓存
// 内嵌 Go Regular 字体，按字号缓存 face，避免每帧重建
type faceCache struct {
	ft    *opentype.Font
	faces map[int]font.Face
}

func newFaceCache() *faceCache {
	// goregular 是编译期内嵌数据，解析失败意味着构建损坏
	// 此时 ft 为 nil，文本渲染退化为空操作，测量退化为估算
	ft, _ := opentype.Parse(goregular.TTF)
	return &faceCache{
		ft:    ft,
		faces: make(map[int]font.Face),
	}
}

// face 返回指定字号的字体面，字号限制在 4-200
func (fc *faceCache) face(size int) font.Face {
	if fc.ft == nil {
		return nil
	}
	if size < 4 {
		size = 4
	}
	if size > 200 {
		size = 200
	}
	if f, ok := fc.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(fc.ft, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	fc.faces[size] = f
	return f
}

// lineHeight 返回指定字号的整数行高
func lineHeight(fontSize int) int {
	return int(float64(fontSize) * lineHeightFactor)
}

// measure 返回多行文本的渲染宽高
// 宽度取各行量测宽度的最大值，高度 = 行数 * 行高
func (fc *faceCache) measure(text string, fontSize int) (int, int) {
	lines := strings.Split(text, "\n")
	h := len(lines) * lineHeight(fontSize)

	f := fc.face(fontSize)
	if f == nil {
		// 估算：每字符约 0.6 倍字号宽
		maxLen := 0
		for _, line := range lines {
			if n := len([]rune(line)); n > maxLen {
				maxLen = n
			}
		}
		return maxLen * fontSize * 3 / 5, h
	}

	w := 0
	for _, line := range lines {
		lw := font.MeasureString(f, line).Ceil()
		if lw > w {
			w = lw
		}
	}
	return w, h
}

// drawText 在 (x,y) 处左对齐绘制多行文本，y 为首行顶部
func (fc *faceCache) drawText(dst *image.RGBA, x, y int, text string, fontSize int, c color.RGBA) {
	f := fc.face(fontSize)
	if f == nil {
		return
	}

	lh := lineHeight(fontSize)
	ascent := f.Metrics().Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f,
	}

	for i, line := range strings.Split(text, "\n") {
		drawer.Dot = fixed.P(x, y+ascent+i*lh)
		drawer.DrawString(line)
	}
}

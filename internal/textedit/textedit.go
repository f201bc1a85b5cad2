// Package textedit 实现文本标注的原地编辑框模型
// 编辑框的几何与提交/取消语义在此，渲染和按键翻译由宿主负责
package textedit

import (
	"image"
	"math"
	"strings"

	"snapmark/internal/annotate"
	"snapmark/internal/geom"
)

const (
	// MinFontSize 拖拽缩放的字号下限
	MinFontSize = 10
	// MaxFontSize 拖拽缩放的字号上限
	MaxFontSize = 72

	// 编辑框宽度自动扩展的范围
	minBoxWidth = 60
	maxBoxWidth = 500

	// 角部缩放手柄边长
	resizeHandleSize = 10
)

// Editor 进行中的文本编辑框
// 新建时 original 为 nil；编辑已有标注时记录原标注和其列表下标，
// 提交按原下标拼接回列表，取消则原样恢复
type Editor struct {
	X, Y     int
	W, H     int
	FontSize int
	Text     string

	Style annotate.Style

	original  *annotate.Annotation
	origIndex int

	// 缩放拖拽的基准（BeginResize 时捕获）
	resizeBaseW    int
	resizeBaseH    int
	resizeBaseFont int

	m annotate.TextMeasurer
}

// NewAt 在指定锚点打开空白编辑框
func NewAt(x, y int, st annotate.Style, m annotate.TextMeasurer) *Editor {
	e := &Editor{
		X:         x,
		Y:         y,
		FontSize:  st.FontSize,
		Style:     st,
		origIndex: -1,
		m:         m,
	}
	e.autoGrow()
	return e
}

// Edit 在已有文本标注上打开编辑框
// 调用方应先将该标注从列表中移除，index 是它原来的下标
func Edit(a *annotate.Annotation, index int, m annotate.TextMeasurer) *Editor {
	st := annotate.Style{Color: a.Color, FontSize: a.FontSize}
	e := &Editor{
		X:         a.Start.X,
		Y:         a.Start.Y,
		FontSize:  a.FontSize,
		Text:      a.Text,
		Style:     st,
		original:  a,
		origIndex: index,
		m:         m,
	}
	e.autoGrow()
	return e
}

// IsEditing 是否在编辑已有标注
func (e *Editor) IsEditing() bool {
	return e.original != nil
}

// OriginalIndex 原标注的列表下标，新建时为 -1
func (e *Editor) OriginalIndex() int {
	return e.origIndex
}

// Bounds 编辑框当前区域
func (e *Editor) Bounds() geom.Rect {
	return geom.Rect{X: e.X, Y: e.Y, W: e.W, H: e.H}
}

// Contains 点是否落在编辑框内
func (e *Editor) Contains(px, py int) bool {
	return e.Bounds().Contains(px, py)
}

// OnResizeHandle 点是否落在右下角缩放手柄上
func (e *Editor) OnResizeHandle(px, py int) bool {
	h := geom.Rect{
		X: e.X + e.W - resizeHandleSize/2,
		Y: e.Y + e.H - resizeHandleSize/2,
		W: resizeHandleSize,
		H: resizeHandleSize,
	}
	return h.Contains(px, py)
}

// ========== 文本输入 ==========

// SetText 整体替换文本并自动扩展
func (e *Editor) SetText(s string) {
	e.Text = s
	e.autoGrow()
}

// InsertRune 追加一个字符
func (e *Editor) InsertRune(r rune) {
	e.Text += string(r)
	e.autoGrow()
}

// InsertNewline 追加换行（Shift+Enter 路径）
func (e *Editor) InsertNewline() {
	e.Text += "\n"
	e.autoGrow()
}

// Backspace 删除末尾字符
func (e *Editor) Backspace() {
	if e.Text == "" {
		return
	}
	runes := []rune(e.Text)
	e.Text = string(runes[:len(runes)-1])
	e.autoGrow()
}

// autoGrow 根据内容调整编辑框尺寸
// 宽度约为最长行字符数 * 字号 * 0.65 + 20，夹在 60-500 之间
func (e *Editor) autoGrow() {
	maxLen := 0
	lineCount := 1
	for _, line := range strings.Split(e.Text, "\n") {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}
	lineCount = strings.Count(e.Text, "\n") + 1

	w := int(float64(maxLen)*float64(e.FontSize)*0.65) + 20
	if e.m != nil && e.Text != "" {
		// 有测量器时用真实宽度
		mw, _ := e.m.MeasureText(e.Text, e.FontSize)
		w = mw + 20
	}
	if w < minBoxWidth {
		w = minBoxWidth
	}
	if w > maxBoxWidth {
		w = maxBoxWidth
	}
	e.W = w

	h := lineCount*int(float64(e.FontSize)*1.2) + 16
	if h < e.FontSize+16 {
		h = e.FontSize + 16
	}
	e.H = h
}

// ========== 移动与缩放 ==========

// MoveTo 拖拽移动编辑框
func (e *Editor) MoveTo(x, y int) {
	e.X = x
	e.Y = y
}

// BeginResize 开始角部缩放拖拽，捕获基准尺寸
func (e *Editor) BeginResize() {
	e.resizeBaseW = e.W
	e.resizeBaseH = e.H
	e.resizeBaseFont = e.FontSize
}

// ResizeTo 将右下角拖到新尺寸
// 字号按面积增长的几何平均缩放，夹在 10-72 之间
func (e *Editor) ResizeTo(w, h int) {
	if w < resizeHandleSize*2 {
		w = resizeHandleSize * 2
	}
	if h < resizeHandleSize*2 {
		h = resizeHandleSize * 2
	}
	e.W = w
	e.H = h

	if e.resizeBaseW <= 0 || e.resizeBaseH <= 0 || e.resizeBaseFont <= 0 {
		return
	}
	scale := math.Sqrt(float64(w*h) / float64(e.resizeBaseW*e.resizeBaseH))
	size := int(math.Round(float64(e.resizeBaseFont) * scale))
	if size < MinFontSize {
		size = MinFontSize
	}
	if size > MaxFontSize {
		size = MaxFontSize
	}
	e.FontSize = size
}

// ========== 提交 / 取消 ==========

// Finish 提交编辑
// 文本去除首尾空白后为空则静默丢弃（返回 nil）
// 编辑已有标注时原地更新并返回原标注，调用方按 OriginalIndex 拼回列表
func (e *Editor) Finish() *annotate.Annotation {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return nil
	}

	if e.original != nil {
		e.original.Text = text
		e.original.Start = image.Pt(e.X, e.Y)
		e.original.FontSize = e.FontSize
		return e.original
	}

	return &annotate.Annotation{
		Type:     annotate.ToolText,
		Start:    image.Pt(e.X, e.Y),
		Text:     text,
		Color:    e.Style.Color,
		FontSize: e.FontSize,
	}
}

// Cancel 取消编辑
// 编辑已有标注时返回未修改的原标注用于恢复；新建时返回 nil
func (e *Editor) Cancel() *annotate.Annotation {
	return e.original
}

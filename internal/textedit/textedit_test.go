package textedit

import (
	"image"
	"testing"

	"snapmark/internal/annotate"
)

// charMeasurer 按字符数估宽的测试测量器
type charMeasurer struct{}

func (charMeasurer) MeasureText(text string, fontSize int) (int, int) {
	maxLen := 0
	cur := 0
	lines := 1
	for _, r := range text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		if cur > maxLen {
			maxLen = cur
		}
	}
	return maxLen * fontSize * 3 / 5, lines * fontSize * 6 / 5
}

func style() annotate.Style {
	st := annotate.DefaultStyle()
	st.FontSize = 16
	return st
}

func TestNewEditorDefaults(t *testing.T) {
	e := NewAt(100, 80, style(), charMeasurer{})

	if e.IsEditing() {
		t.Error("新建编辑框不应处于编辑已有标注状态")
	}
	if e.OriginalIndex() != -1 {
		t.Errorf("新建编辑框下标 = %d, 期望 -1", e.OriginalIndex())
	}
	if e.W < 60 {
		t.Errorf("空编辑框宽度 = %d, 不应低于下限 60", e.W)
	}
	if e.H < 16+16 {
		t.Errorf("空编辑框高度 = %d 过小", e.H)
	}
}

func TestAutoGrow(t *testing.T) {
	e := NewAt(0, 0, style(), charMeasurer{})
	baseW := e.W

	e.SetText("一段比较长的文本内容用于撑开编辑框宽度测试")
	if e.W <= baseW {
		t.Errorf("长文本未撑开宽度: %d <= %d", e.W, baseW)
	}

	// 宽度不超过上限
	e.SetText(repeat('x', 400))
	if e.W > 500 {
		t.Errorf("宽度 %d 超过上限 500", e.W)
	}

	// 多行撑高
	h1 := e.H
	e.SetText("一\n二\n三")
	if e.H <= h1/3 {
		t.Errorf("多行高度异常: %d", e.H)
	}
}

func TestResizeScalesFont(t *testing.T) {
	e := NewAt(0, 0, style(), charMeasurer{})
	e.SetText("字号缩放")

	e.BeginResize()
	w0, h0 := e.W, e.H

	// 面积放大 4 倍 → 字号放大 2 倍
	e.ResizeTo(w0*2, h0*2)
	if e.FontSize != 32 {
		t.Errorf("面积 4 倍后字号 = %d, 期望 32", e.FontSize)
	}

	// 缩到极小：字号夹在下限
	e.ResizeTo(20, 20)
	if e.FontSize != MinFontSize {
		t.Errorf("极小缩放后字号 = %d, 期望 %d", e.FontSize, MinFontSize)
	}

	// 放到极大：字号夹在上限
	e.ResizeTo(w0*40, h0*40)
	if e.FontSize != MaxFontSize {
		t.Errorf("极大缩放后字号 = %d, 期望 %d", e.FontSize, MaxFontSize)
	}
}

func TestFinishEmptyDiscards(t *testing.T) {
	e := NewAt(10, 10, style(), charMeasurer{})
	e.SetText("   \n  ")
	if a := e.Finish(); a != nil {
		t.Errorf("纯空白文本提交应返回 nil, 得到 %v", a)
	}
}

func TestFinishNewAnnotation(t *testing.T) {
	e := NewAt(30, 40, style(), charMeasurer{})
	e.SetText("  完成  ")
	e.MoveTo(50, 60)

	a := e.Finish()
	if a == nil {
		t.Fatal("非空文本提交不应返回 nil")
	}
	if a.Text != "完成" {
		t.Errorf("文本未去除空白: %q", a.Text)
	}
	if a.Start != image.Pt(50, 60) {
		t.Errorf("锚点 = %v, 期望移动后的 (50,60)", a.Start)
	}
	if a.Type != annotate.ToolText {
		t.Errorf("类型 = %v, 期望文本", a.Type)
	}
}

func TestEditCommitPreservesIdentity(t *testing.T) {
	orig := &annotate.Annotation{
		Type:     annotate.ToolText,
		Start:    image.Pt(10, 20),
		Text:     "原文",
		FontSize: 18,
	}

	e := Edit(orig, 2, charMeasurer{})
	if !e.IsEditing() || e.OriginalIndex() != 2 {
		t.Fatal("编辑状态初始化错误")
	}
	if e.Text != "原文" {
		t.Errorf("编辑框未载入原文本: %q", e.Text)
	}

	e.SetText("改后")
	got := e.Finish()
	if got != orig {
		t.Error("编辑提交应原地更新同一标注对象")
	}
	if got.Text != "改后" {
		t.Errorf("提交后文本 = %q", got.Text)
	}
}

func TestCancelRestoresOriginalUnchanged(t *testing.T) {
	orig := &annotate.Annotation{
		Type:     annotate.ToolText,
		Start:    image.Pt(10, 20),
		Text:     "原文",
		FontSize: 18,
	}

	e := Edit(orig, 0, charMeasurer{})
	e.SetText("不应生效的修改")
	e.MoveTo(99, 99)

	got := e.Cancel()
	if got != orig {
		t.Fatal("取消应返回原标注")
	}
	if got.Text != "原文" || got.Start != image.Pt(10, 20) || got.FontSize != 18 {
		t.Errorf("取消后原标注被修改: %+v", got)
	}
}

func TestResizeHandleHit(t *testing.T) {
	e := NewAt(100, 100, style(), charMeasurer{})

	// 右下角命中
	if !e.OnResizeHandle(e.X+e.W, e.Y+e.H) {
		t.Error("右下角应命中缩放手柄")
	}
	// 左上角不命中
	if e.OnResizeHandle(e.X, e.Y) {
		t.Error("左上角不应命中缩放手柄")
	}
}

func repeat(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

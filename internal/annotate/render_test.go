package annotate

import (
	"image"
	"image/color"
	"testing"
)

// newTestImage 创建纯色测试图
func newTestImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestBlurCacheReuse(t *testing.T) {
	r := NewRenderer()
	base := newTestImage(100, 100, color.RGBA{200, 100, 50, 255})
	dst := newTestImage(100, 100, color.RGBA{0, 0, 0, 255})

	a := &Annotation{
		Type:  ToolBlur,
		Start: image.Pt(10, 10),
		End:   image.Pt(50, 50),
	}

	r.Render(dst, base, a)
	first := r.blurCache[a]
	if first == nil {
		t.Fatal("渲染后应建立模糊缓存")
	}
	if first.w != 40 || first.h != 40 {
		t.Errorf("缓存尺寸 = %dx%d, 期望 40x40", first.w, first.h)
	}

	// 尺寸不变时复用同一缓存条目
	r.Render(dst, base, a)
	if r.blurCache[a] != first {
		t.Error("包围盒未变时缓存应被复用")
	}

	// 尺寸变化后重建
	a.End = image.Pt(60, 60)
	r.Render(dst, base, a)
	second := r.blurCache[a]
	if second == first {
		t.Error("包围盒变化后缓存应重建")
	}
	if second.w != 50 || second.h != 50 {
		t.Errorf("新缓存尺寸 = %dx%d, 期望 50x50", second.w, second.h)
	}

	r.DropBlurCache(a)
	if _, ok := r.blurCache[a]; ok {
		t.Error("DropBlurCache 后缓存应移除")
	}
}

func TestBlurUniformColor(t *testing.T) {
	r := NewRenderer()
	src := color.RGBA{120, 80, 40, 255}
	base := newTestImage(60, 60, src)
	dst := newTestImage(60, 60, color.RGBA{0, 0, 0, 255})

	a := &Annotation{
		Type:  ToolBlur,
		Start: image.Pt(0, 0),
		End:   image.Pt(40, 40),
	}
	r.Render(dst, base, a)

	// 纯色图的块平均仍是原色
	got := dst.RGBAAt(20, 20)
	if got != src {
		t.Errorf("模糊后像素 = %v, 期望 %v", got, src)
	}
	// 区域外不受影响
	if out := dst.RGBAAt(50, 50); out != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("区域外像素被改写: %v", out)
	}
}

func TestBlurFallbackWithoutBase(t *testing.T) {
	r := NewRenderer()
	dst := newTestImage(60, 60, color.RGBA{0, 0, 0, 255})

	a := &Annotation{
		Type:  ToolBlur,
		Start: image.Pt(10, 10),
		End:   image.Pt(40, 40),
	}
	// base 缺失时退化为灰色填充而不是崩溃
	r.Render(dst, nil, a)

	got := dst.RGBAAt(20, 20)
	if got == (color.RGBA{0, 0, 0, 255}) {
		t.Error("缺少底图时应绘制灰色回退填充")
	}
}

func TestHighlightTranslucent(t *testing.T) {
	r := NewRenderer()
	dst := newTestImage(50, 50, color.RGBA{0, 0, 0, 255})

	a := &Annotation{
		Type:  ToolHighlight,
		Start: image.Pt(10, 10),
		End:   image.Pt(40, 40),
		Color: color.RGBA{255, 255, 0, 255},
	}
	r.Render(dst, nil, a)

	got := dst.RGBAAt(25, 25)
	// 半透明叠加：不会是纯黄也不会是纯黑
	if got.R == 0 || got.R == 255 {
		t.Errorf("高亮应是半透明叠加, 得到 %v", got)
	}
	// 区域外保持原样
	if out := dst.RGBAAt(5, 5); out != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("高亮泄漏到区域外: %v", out)
	}
}

func TestRenderRectStroke(t *testing.T) {
	r := NewRenderer()
	dst := newTestImage(200, 200, color.RGBA{0, 0, 0, 255})

	a := &Annotation{
		Type:      ToolRect,
		Start:     image.Pt(50, 50),
		End:       image.Pt(150, 120),
		Color:     color.RGBA{255, 0, 0, 255},
		LineWidth: 3,
	}
	r.Render(dst, nil, a)

	// 上边中点应着色
	if got := dst.RGBAAt(100, 50); got.R < 200 {
		t.Errorf("矩形上边未绘制: %v", got)
	}
	// 左边中点应着色
	if got := dst.RGBAAt(50, 85); got.R < 200 {
		t.Errorf("矩形左边未绘制: %v", got)
	}
	// 内部保持黑色
	if got := dst.RGBAAt(100, 85); got.R != 0 {
		t.Errorf("矩形内部被填充: %v", got)
	}
}

func TestRenderNegativeDragRect(t *testing.T) {
	r := NewRenderer()
	dst := newTestImage(200, 200, color.RGBA{0, 0, 0, 255})

	// 从右下往左上拖拽：End 在 Start 左上方
	a := &Annotation{
		Type:      ToolRect,
		Start:     image.Pt(150, 120),
		End:       image.Pt(50, 50),
		Color:     color.RGBA{0, 255, 0, 255},
		LineWidth: 2,
	}
	r.Render(dst, nil, a)

	if got := dst.RGBAAt(100, 50); got.G < 200 {
		t.Errorf("反向拖拽矩形未规范化绘制: %v", got)
	}
}

func TestMeasureText(t *testing.T) {
	r := NewRenderer()

	w1, h1 := r.MeasureText("短", 16)
	w2, _ := r.MeasureText("这是更长的一行文字", 16)
	if h1 != lineHeight(16) {
		t.Errorf("单行高度 = %d, 期望 %d", h1, lineHeight(16))
	}
	if w2 <= w1 {
		t.Errorf("更长文本宽度应更大: %d <= %d", w2, w1)
	}

	_, h3 := r.MeasureText("第一行\n第二行\n第三行", 20)
	if h3 != 3*lineHeight(20) {
		t.Errorf("三行高度 = %d, 期望 %d", h3, 3*lineHeight(20))
	}
}

func TestRenderStepDisc(t *testing.T) {
	r := NewRenderer()
	dst := newTestImage(100, 100, color.RGBA{0, 0, 0, 255})

	a := &Annotation{
		Type:   ToolStep,
		Start:  image.Pt(50, 50),
		Color:  color.RGBA{255, 0, 0, 255},
		Number: 3,
	}
	r.Render(dst, nil, a)

	// 圆盘边缘区域（避开中心的白色数字）应是红色
	if got := dst.RGBAAt(50, 40); got.R < 200 || got.G > 100 {
		t.Errorf("步骤圆盘未绘制: %v", got)
	}
	// 圆盘外保持黑色
	if got := dst.RGBAAt(80, 80); got.R != 0 {
		t.Errorf("步骤圆盘越界: %v", got)
	}
}

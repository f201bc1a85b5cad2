// Package compose 实现画布合成器
// 每次状态变更后同步整帧重绘：底图 → 遮罩 → 选区提亮 → 标注 → 选区装饰
package compose

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"snapmark/internal/annotate"
	"snapmark/internal/geom"
	"snapmark/internal/textedit"
)

// 选区装饰常量
const (
	dashOn  = 5 // 虚线亮段长度
	dashOff = 5 // 虚线暗段长度

	dimLabelFontSize = 12 // 尺寸标签字号
	dimLabelHeight   = 20 // 标签底片高度
	dimLabelPadX     = 6  // 标签文字水平内边距
	dimLabelOffsetY  = 22 // 标签底片相对选区上沿的偏移
)

// Frame 合成一帧所需的状态快照（由会话提供，合成器只读）
type Frame struct {
	Selection    geom.Rect
	HasSelection bool
	Annotations  []*annotate.Annotation
	Current      *annotate.Annotation
	Editor       *textedit.Editor
	WordBoxes    []geom.Rect // 文字识别结果的单词框（画布坐标）
	ShowChrome   bool        // false 时不绘制遮罩/轮廓/手柄/标签（导出路径）
}

// Compositor 软件合成器
// 持有底图、预计算的暗化底图和输出画布
type Compositor struct {
	renderer *annotate.Renderer
	base     *image.RGBA
	dimmed   *image.RGBA
	canvas   *image.RGBA
}

// New 创建合成器
func New(r *annotate.Renderer) *Compositor {
	return &Compositor{renderer: r}
}

// SetBase 设置底图并预计算 50% 亮度的暗化副本
func (c *Compositor) SetBase(base *image.RGBA) {
	c.base = base
	if base == nil {
		c.dimmed = nil
		c.canvas = nil
		return
	}

	b := base.Bounds()
	c.canvas = image.NewRGBA(b)

	// 暗化 = 半透明黑色遮罩，等价于每通道减半
	c.dimmed = image.NewRGBA(b)
	for i := 0; i+3 < len(base.Pix); i += 4 {
		c.dimmed.Pix[i+0] = base.Pix[i+0] >> 1
		c.dimmed.Pix[i+1] = base.Pix[i+1] >> 1
		c.dimmed.Pix[i+2] = base.Pix[i+2] >> 1
		c.dimmed.Pix[i+3] = 255
	}
}

// Canvas 当前输出画布
func (c *Compositor) Canvas() *image.RGBA {
	return c.canvas
}

// Base 当前底图
func (c *Compositor) Base() *image.RGBA {
	return c.base
}

// Render 合成一帧
// 画布或底图未就绪时是空操作（防御初始化竞态，不抛错）
func (c *Compositor) Render(f Frame) {
	if c.canvas == nil || c.base == nil {
		return
	}
	b := c.canvas.Bounds()

	// 1. 底图：带装饰时整幅先用暗化版本，导出路径用原图
	if f.ShowChrome {
		draw.Draw(c.canvas, b, c.dimmed, b.Min, draw.Src)
	} else {
		draw.Draw(c.canvas, b, c.base, b.Min, draw.Src)
	}

	// 2. 选区内恢复原始亮度（裁剪提亮）
	if f.ShowChrome && f.HasSelection {
		sel := f.Selection.Normalize()
		clip := image.Rect(sel.X, sel.Y, sel.X+sel.W, sel.Y+sel.H).Intersect(b)
		if !clip.Empty() {
			draw.Draw(c.canvas, clip, c.base, clip.Min, draw.Src)
		}
	}

	// 3. 标注：不做裁剪，暗区内同样可见（与观察到的参考行为一致）
	c.renderer.RenderAll(c.canvas, c.base, f.Annotations)
	if f.Current != nil {
		c.renderer.Render(c.canvas, c.base, f.Current)
	}

	// 4. 文字识别单词框：随装饰一起绘制，导出路径不包含
	if f.ShowChrome {
		for _, w := range f.WordBoxes {
			c.drawWordBox(w)
		}
	}

	// 5. 打开的文本编辑框
	if f.ShowChrome && f.Editor != nil {
		c.drawEditor(f.Editor)
	}

	// 6. 选区装饰：虚线轮廓、尺寸标签、手柄
	if f.ShowChrome && f.HasSelection {
		c.drawChrome(f.Selection.Normalize())
	}
}

// wordBoxColor 单词框的描边/填充色
var wordBoxColor = color.RGBA{66, 133, 244, 255}

// drawWordBox 绘制一个识别单词框：半透明填充 + 1px 描边
func (c *Compositor) drawWordBox(r geom.Rect) {
	fill := wordBoxColor
	fill.A = 48
	c.fillRectBlend(r, fill)
	c.strokeRect1px(r, wordBoxColor)
}

// ========== 文本编辑框 ==========

// drawEditor 绘制编辑框：虚线边框、角部手柄、文本与光标
func (c *Compositor) drawEditor(e *textedit.Editor) {
	box := e.Bounds()
	borderColor := e.Style.Color
	c.drawDashedRect(box, borderColor)

	// 右下角缩放手柄
	hs := geom.Rect{X: box.X + box.W - 5, Y: box.Y + box.H - 5, W: 10, H: 10}
	c.fillRect(hs, color.RGBA{255, 255, 255, 255})
	c.strokeRect1px(hs, color.RGBA{51, 51, 51, 255})

	if e.Text != "" {
		c.renderer.Render(c.canvas, c.base, &annotate.Annotation{
			Type:     annotate.ToolText,
			Start:    image.Pt(box.X, box.Y),
			Text:     e.Text,
			Color:    e.Style.Color,
			FontSize: e.FontSize,
		})
	}

	// 光标：最后一行末尾的竖线
	lines := strings.Split(e.Text, "\n")
	lastW, _ := c.renderer.MeasureText(lines[len(lines)-1], e.FontSize)
	lh := int(float64(e.FontSize) * 1.2)
	caretX := box.X + lastW + 1
	caretY := box.Y + (len(lines)-1)*lh
	for y := caretY; y < caretY+lh && y < box.Y+box.H; y++ {
		c.setPixel(caretX, y, borderColor)
	}
}

// ========== 选区装饰 ==========

func (c *Compositor) drawChrome(sel geom.Rect) {
	white := color.RGBA{255, 255, 255, 255}

	// 虚线轮廓（5 亮 5 暗）
	c.drawDashedRect(sel, white)

	// 尺寸标签：{W}×{H}，选区左上角上方的深色底片
	label := strconv.Itoa(sel.W) + "×" + strconv.Itoa(sel.H)
	labelW, _ := c.renderer.MeasureText(label, dimLabelFontSize)
	chip := geom.Rect{
		X: sel.X,
		Y: sel.Y - dimLabelOffsetY,
		W: labelW + 2*dimLabelPadX,
		H: dimLabelHeight,
	}
	c.fillRectBlend(chip, color.RGBA{0, 0, 0, 178})
	c.renderer.Render(c.canvas, c.base, &annotate.Annotation{
		Type:     annotate.ToolText,
		Start:    image.Pt(chip.X+dimLabelPadX, chip.Y+2),
		Text:     label,
		Color:    white,
		FontSize: dimLabelFontSize,
	})

	// 8 个调整手柄：白底深描边方块
	for _, h := range geom.HandleRects(sel) {
		c.fillRect(h, white)
		c.strokeRect1px(h, color.RGBA{51, 51, 51, 255})
	}
}

// drawDashedRect 1px 虚线矩形边框
func (c *Compositor) drawDashedRect(r geom.Rect, col color.RGBA) {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H

	c.drawDashedHLine(x0, x1, y0, col)
	c.drawDashedHLine(x0, x1, y1, col)
	c.drawDashedVLine(y0, y1, x0, col)
	c.drawDashedVLine(y0, y1, x1, col)
}

func (c *Compositor) drawDashedHLine(x0, x1, y int, col color.RGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	period := dashOn + dashOff
	for x := x0; x <= x1; x++ {
		if (x-x0)%period < dashOn {
			c.setPixel(x, y, col)
		}
	}
}

func (c *Compositor) drawDashedVLine(y0, y1, x int, col color.RGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	period := dashOn + dashOff
	for y := y0; y <= y1; y++ {
		if (y-y0)%period < dashOn {
			c.setPixel(x, y, col)
		}
	}
}

// ========== 像素辅助 ==========

func (c *Compositor) setPixel(x, y int, col color.RGBA) {
	b := c.canvas.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	off := (y-b.Min.Y)*c.canvas.Stride + (x-b.Min.X)*4
	c.canvas.Pix[off+0] = col.R
	c.canvas.Pix[off+1] = col.G
	c.canvas.Pix[off+2] = col.B
	c.canvas.Pix[off+3] = col.A
}

func (c *Compositor) fillRect(r geom.Rect, col color.RGBA) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			c.setPixel(x, y, col)
		}
	}
}

// fillRectBlend 半透明填充
func (c *Compositor) fillRectBlend(r geom.Rect, col color.RGBA) {
	b := c.canvas.Bounds()
	srcA := uint32(col.A)
	invA := 255 - srcA
	for y := r.Y; y < r.Y+r.H; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := r.X; x < r.X+r.W; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			off := (y-b.Min.Y)*c.canvas.Stride + (x-b.Min.X)*4
			c.canvas.Pix[off+0] = uint8((uint32(col.R)*srcA + uint32(c.canvas.Pix[off+0])*invA) / 255)
			c.canvas.Pix[off+1] = uint8((uint32(col.G)*srcA + uint32(c.canvas.Pix[off+1])*invA) / 255)
			c.canvas.Pix[off+2] = uint8((uint32(col.B)*srcA + uint32(c.canvas.Pix[off+2])*invA) / 255)
			c.canvas.Pix[off+3] = 255
		}
	}
}

func (c *Compositor) strokeRect1px(r geom.Rect, col color.RGBA) {
	for x := r.X; x <= r.X+r.W; x++ {
		c.setPixel(x, r.Y, col)
		c.setPixel(x, r.Y+r.H, col)
	}
	for y := r.Y; y <= r.Y+r.H; y++ {
		c.setPixel(r.X, y, col)
		c.setPixel(r.X+r.W, y, col)
	}
}

// Package export 导出管线：最终成图、保存、复制、打印
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"snapmark/internal/clipboard"
	"snapmark/internal/compose"
	"snapmark/internal/storage"
)

// ErrNoSelection 没有选区时不产出任何图片
var ErrNoSelection = errors.New("没有选区")

// 美化相框参数
const (
	framePadding = 60 // 逻辑像素，乘以缩放因子后生效

	shadowOffsetY = 6
	shadowSpread  = 12
)

// 相框渐变端点色 #FFDEE9 → #B5FFFC
var (
	frameGradFrom = color.RGBA{0xFF, 0xDE, 0xE9, 0xFF}
	frameGradTo   = color.RGBA{0xB5, 0xFF, 0xFC, 0xFF}
)

// Exporter 把合成器状态变成可交付的 PNG
// 保存与复制失败只上报错误，不破坏会话状态
type Exporter struct {
	comp  *compose.Compositor
	store *storage.Storage
	clip  clipboard.Clipboard
	scale float64 // 设备像素比，画布已是物理像素时为 1
}

// New 创建导出器
func New(comp *compose.Compositor, store *storage.Storage, clip clipboard.Clipboard, scale float64) *Exporter {
	if scale <= 0 {
		scale = 1
	}
	return &Exporter{comp: comp, store: store, clip: clip, scale: scale}
}

// Scale 导出使用的设备像素比
func (e *Exporter) Scale() float64 {
	return e.scale
}

// FinalImage 生成最终成图：无装饰重绘后按选区×缩放因子裁剪
func (e *Exporter) FinalImage(f compose.Frame, beautify bool) (*image.RGBA, error) {
	if !f.HasSelection {
		return nil, ErrNoSelection
	}
	sel := f.Selection.Normalize()
	if sel.Empty() {
		return nil, ErrNoSelection
	}

	f.ShowChrome = false
	f.Editor = nil
	e.comp.Render(f)

	canvas := e.comp.Canvas()
	if canvas == nil {
		return nil, errors.New("画布未就绪")
	}

	// 选区换算到物理像素并取整
	x0 := int(math.Round(float64(sel.X) * e.scale))
	y0 := int(math.Round(float64(sel.Y) * e.scale))
	x1 := int(math.Round(float64(sel.X+sel.W) * e.scale))
	y1 := int(math.Round(float64(sel.Y+sel.H) * e.scale))

	crop := image.Rect(x0, y0, x1, y1).Intersect(canvas.Bounds())
	if crop.Empty() {
		return nil, ErrNoSelection
	}

	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), canvas, crop.Min, draw.Src)

	if beautify {
		out = e.applyFrame(out)
	}
	return out, nil
}

// applyFrame 给成图加装饰相框：渐变底、投影、留白
func (e *Exporter) applyFrame(img *image.RGBA) *image.RGBA {
	pad := int(math.Round(framePadding * e.scale))
	w := img.Bounds().Dx() + 2*pad
	h := img.Bounds().Dy() + 2*pad

	out := image.NewRGBA(image.Rect(0, 0, w, h))

	// 对角线性渐变
	denom := float64(w + h - 2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := float64(x+y) / denom
			off := y*out.Stride + x*4
			out.Pix[off+0] = lerp8(frameGradFrom.R, frameGradTo.R, t)
			out.Pix[off+1] = lerp8(frameGradFrom.G, frameGradTo.G, t)
			out.Pix[off+2] = lerp8(frameGradFrom.B, frameGradTo.B, t)
			out.Pix[off+3] = 255
		}
	}

	// 投影：图片矩形下方逐层扩散的半透明黑
	inner := image.Rect(pad, pad, w-pad, h-pad)
	for i := shadowSpread; i > 0; i-- {
		alpha := uint32(40 * (shadowSpread - i + 1) / shadowSpread)
		ring := inner.Add(image.Pt(0, shadowOffsetY)).Inset(-i)
		blendRectBorder(out, ring, alpha)
	}

	draw.Draw(out, inner, img, image.Point{}, draw.Src)
	return out
}

// EncodePNG PNG 编码
func (e *Exporter) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("PNG 编码失败: %v", err)
	}
	return buf.Bytes(), nil
}

// Save 渲染并保存到存储目录，返回文件路径
func (e *Exporter) Save(f compose.Frame, beautify bool) (string, error) {
	img, err := e.FinalImage(f, beautify)
	if err != nil {
		return "", err
	}
	return e.store.Save(img)
}

// Copy 渲染并写入剪贴板
func (e *Exporter) Copy(f compose.Frame, beautify bool) error {
	img, err := e.FinalImage(f, beautify)
	if err != nil {
		return err
	}
	return e.clip.SetImage(img)
}

// Print 渲染后经由临时 HTML 页面交给系统打印
// 浏览器加载即弹出打印对话框
func (e *Exporter) Print(f compose.Frame) error {
	img, err := e.FinalImage(f, false)
	if err != nil {
		return err
	}

	data, err := e.EncodePNG(img)
	if err != nil {
		return err
	}

	stamp := time.Now().Format("20060102_150405")
	dir := os.TempDir()
	pngPath := filepath.Join(dir, fmt.Sprintf("snapmark_print_%s.png", stamp))
	if err := os.WriteFile(pngPath, data, 0644); err != nil {
		return fmt.Errorf("无法写入临时文件: %v", err)
	}

	htmlPath := filepath.Join(dir, fmt.Sprintf("snapmark_print_%s.html", stamp))
	page := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>打印截图</title></head>
<body style="margin:0" onload="window.print()">
<img src="%s" style="max-width:100%%">
</body></html>`, filepath.Base(pngPath))
	if err := os.WriteFile(htmlPath, []byte(page), 0644); err != nil {
		return fmt.Errorf("无法写入临时文件: %v", err)
	}

	return openPath(htmlPath)
}

// openPath 用系统默认程序打开文件
func openPath(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// blendRectBorder 沿矩形边框叠加半透明黑
func blendRectBorder(img *image.RGBA, r image.Rectangle, alpha uint32) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	inv := 255 - alpha
	blend := func(x, y int) {
		off := (y-img.Bounds().Min.Y)*img.Stride + (x-img.Bounds().Min.X)*4
		img.Pix[off+0] = uint8(uint32(img.Pix[off+0]) * inv / 255)
		img.Pix[off+1] = uint8(uint32(img.Pix[off+1]) * inv / 255)
		img.Pix[off+2] = uint8(uint32(img.Pix[off+2]) * inv / 255)
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		blend(x, r.Min.Y)
		blend(x, r.Max.Y-1)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		blend(r.Min.X, y)
		blend(r.Max.X-1, y)
	}
}

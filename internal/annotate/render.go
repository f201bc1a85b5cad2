package annotate

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"snapmark/internal/geom"
)

// 渲染常量（与观察到的参考行为一致）
const (
	arrowHeadLen   = 15.0 // 箭头头部长度（像素）
	arrowHalfAngle = math.Pi / 6

	highlightAlpha = 64 // 高亮填充透明度（约 0.25）

	blurBlockSize = 10 // 模糊像素块边长

	stepRadius = 12 // 步骤圆盘半径（直径 24）
)

// Renderer 标注渲染器
// 持有模糊结果缓存和字体面缓存，由会话创建并贯穿整个编辑周期
type Renderer struct {
	faces     *faceCache
	blurCache map[*Annotation]*blurEntry
}

// blurEntry 单个模糊标注的像素化缓存
// 包围盒尺寸变化时失效重算，静态时逐帧复用
type blurEntry struct {
	w, h int
	img  *image.RGBA
}

// NewRenderer 创建渲染器
func NewRenderer() *Renderer {
	return &Renderer{
		faces:     newFaceCache(),
		blurCache: make(map[*Annotation]*blurEntry),
	}
}

// MeasureText 实现 TextMeasurer
func (r *Renderer) MeasureText(text string, fontSize int) (int, int) {
	return r.faces.measure(text, fontSize)
}

// RenderAll 按提交顺序渲染全部标注（z 序 = 插入顺序）
func (r *Renderer) RenderAll(dst, base *image.RGBA, annotations []*Annotation) {
	for _, a := range annotations {
		r.Render(dst, base, a)
	}
}

// Render 渲染单个标注（已提交或进行中预览均走此入口）
// base 是未加遮罩的原始截图，模糊工具从中取样
func (r *Renderer) Render(dst, base *image.RGBA, a *Annotation) {
	if a == nil {
		return
	}
	switch a.Type {
	case ToolPen:
		r.renderPen(dst, a)
	case ToolLine:
		r.renderLine(dst, a)
	case ToolArrow:
		r.renderArrow(dst, a)
	case ToolRect:
		r.renderRect(dst, a)
	case ToolCircle:
		r.renderCircle(dst, a)
	case ToolHighlight:
		r.renderHighlight(dst, a)
	case ToolBlur:
		r.renderBlur(dst, base, a)
	case ToolText:
		r.renderTextAnnotation(dst, a)
	case ToolStep:
		r.renderStep(dst, a)
	}
}

// DropBlurCache 移除标注的模糊缓存（撤销或清空列表时调用）
func (r *Renderer) DropBlurCache(a *Annotation) {
	delete(r.blurCache, a)
}

// ResetBlurCache 清空全部模糊缓存
func (r *Renderer) ResetBlurCache() {
	r.blurCache = make(map[*Annotation]*blurEntry)
}

// ========== 画笔 ==========

func (r *Renderer) renderPen(dst *image.RGBA, a *Annotation) {
	if len(a.Points) < 2 {
		return
	}
	for i := 1; i < len(a.Points); i++ {
		p0 := a.Points[i-1]
		p1 := a.Points[i]
		strokeSegment(dst, p0.X, p0.Y, p1.X, p1.Y, a.Color, a.LineWidth)
	}
}

// ========== 直线 ==========

func (r *Renderer) renderLine(dst *image.RGBA, a *Annotation) {
	strokeSegment(dst, a.Start.X, a.Start.Y, a.End.X, a.End.Y, a.Color, a.LineWidth)
}

// ========== 箭头 ==========

func (r *Renderer) renderArrow(dst *image.RGBA, a *Annotation) {
	strokeSegment(dst, a.Start.X, a.Start.Y, a.End.X, a.End.Y, a.Color, a.LineWidth)

	dx := float64(a.End.X - a.Start.X)
	dy := float64(a.End.Y - a.Start.Y)
	if math.Hypot(dx, dy) < 1 {
		return
	}

	// 头部三角形：固定 15px 长，两翼相对轴线各偏 30°
	angle := math.Atan2(dy, dx)
	tip := a.End
	left := image.Point{
		X: int(math.Round(float64(tip.X) - arrowHeadLen*math.Cos(angle-arrowHalfAngle))),
		Y: int(math.Round(float64(tip.Y) - arrowHeadLen*math.Sin(angle-arrowHalfAngle))),
	}
	right := image.Point{
		X: int(math.Round(float64(tip.X) - arrowHeadLen*math.Cos(angle+arrowHalfAngle))),
		Y: int(math.Round(float64(tip.Y) - arrowHeadLen*math.Sin(angle+arrowHalfAngle))),
	}
	fillTriangle(dst, tip, left, right, a.Color)
}

// ========== 矩形 ==========

func (r *Renderer) renderRect(dst *image.RGBA, a *Annotation) {
	box := a.BoundsRect()
	strokeRect(dst, box, a.Color, a.LineWidth)
}

// strokeRect 描边矩形边框
func strokeRect(dst *image.RGBA, box geom.Rect, c color.RGBA, width int) {
	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.W, box.Y+box.H
	strokeSegment(dst, x0, y0, x1, y0, c, width)
	strokeSegment(dst, x1, y0, x1, y1, c, width)
	strokeSegment(dst, x1, y1, x0, y1, c, width)
	strokeSegment(dst, x0, y1, x0, y0, c, width)
}

// ========== 圆形 ==========

// renderCircle 绘制包围盒的内切椭圆
// 注意：w != h 时不是正圆，这是刻意保留的参考行为
func (r *Renderer) renderCircle(dst *image.RGBA, a *Annotation) {
	box := a.BoundsRect()
	cx := box.X + box.W/2
	cy := box.Y + box.H/2
	rx := box.W / 2
	ry := box.H / 2
	if rx <= 0 || ry <= 0 {
		return
	}
	strokeEllipse(dst, cx, cy, rx, ry, a.Color, a.LineWidth)
}

// ========== 高亮 ==========

func (r *Renderer) renderHighlight(dst *image.RGBA, a *Annotation) {
	box := a.BoundsRect()
	fill := a.Color
	fill.A = highlightAlpha
	for y := box.Y; y < box.Y+box.H; y++ {
		for x := box.X; x < box.X+box.W; x++ {
			blendPixel(dst, x, y, fill)
		}
	}
}

// ========== 模糊 ==========

// renderBlur 像素化模糊：按 10px 块取 base 的平均色填充
// 结果按 (w,h) 缓存，包围盒不变时逐帧复用；取样失败退化为半透明灰
func (r *Renderer) renderBlur(dst, base *image.RGBA, a *Annotation) {
	box := a.BoundsRect()
	if box.W <= 0 || box.H <= 0 {
		return
	}

	entry := r.blurCache[a]
	if entry == nil || entry.w != box.W || entry.h != box.H {
		img := pixelate(base, box, blurBlockSize)
		entry = &blurEntry{w: box.W, h: box.H, img: img}
		r.blurCache[a] = entry
	}

	if entry.img == nil {
		// 取样失败：平铺半透明灰色
		fallback := color.RGBA{128, 128, 128, 178}
		for y := box.Y; y < box.Y+box.H; y++ {
			for x := box.X; x < box.X+box.W; x++ {
				blendPixel(dst, x, y, fallback)
			}
		}
		return
	}

	// 将缓存块贴回目标位置
	src := entry.img
	db := dst.Bounds()
	for y := 0; y < box.H; y++ {
		ty := box.Y + y
		if ty < db.Min.Y || ty >= db.Max.Y {
			continue
		}
		for x := 0; x < box.W; x++ {
			tx := box.X + x
			if tx < db.Min.X || tx >= db.Max.X {
				continue
			}
			so := y*src.Stride + x*4
			do := (ty-db.Min.Y)*dst.Stride + (tx-db.Min.X)*4
			copy(dst.Pix[do:do+4], src.Pix[so:so+4])
		}
	}
}

// pixelate 对 base 中 box 区域做块平均，返回尺寸为 box.W×box.H 的结果
// base 为空或区域完全在图外时返回 nil
func pixelate(base *image.RGBA, box geom.Rect, block int) *image.RGBA {
	if base == nil || block <= 0 {
		return nil
	}
	bb := base.Bounds()
	region := image.Rect(box.X, box.Y, box.X+box.W, box.Y+box.H).Intersect(bb)
	if region.Empty() {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, box.W, box.H))

	for by := box.Y; by < box.Y+box.H; by += block {
		for bx := box.X; bx < box.X+box.W; bx += block {
			bx1 := minInt(bx+block, box.X+box.W)
			by1 := minInt(by+block, box.Y+box.H)

			// 块内平均色（只统计落在 base 内的像素）
			var sumR, sumG, sumB uint64
			count := uint64(0)
			for y := maxInt(by, bb.Min.Y); y < minInt(by1, bb.Max.Y); y++ {
				for x := maxInt(bx, bb.Min.X); x < minInt(bx1, bb.Max.X); x++ {
					off := (y-bb.Min.Y)*base.Stride + (x-bb.Min.X)*4
					sumR += uint64(base.Pix[off+0])
					sumG += uint64(base.Pix[off+1])
					sumB += uint64(base.Pix[off+2])
					count++
				}
			}
			if count == 0 {
				continue
			}
			avgR := uint8(sumR / count)
			avgG := uint8(sumG / count)
			avgB := uint8(sumB / count)

			for y := by; y < by1; y++ {
				for x := bx; x < bx1; x++ {
					off := (y-box.Y)*out.Stride + (x-box.X)*4
					out.Pix[off+0] = avgR
					out.Pix[off+1] = avgG
					out.Pix[off+2] = avgB
					out.Pix[off+3] = 255
				}
			}
		}
	}
	return out
}

// ========== 文本 ==========

func (r *Renderer) renderTextAnnotation(dst *image.RGBA, a *Annotation) {
	if a.Text == "" {
		return
	}
	fontSize := a.FontSize
	if fontSize <= 0 {
		fontSize = 16
	}
	r.faces.drawText(dst, a.Start.X, a.Start.Y, a.Text, fontSize, a.Color)
}

// ========== 步骤序号 ==========

func (r *Renderer) renderStep(dst *image.RGBA, a *Annotation) {
	cx := float64(a.Start.X)
	cy := float64(a.Start.Y)
	fillCircle(dst, cx, cy, stepRadius, a.Color)

	// 序号用对比色居中绘制
	label := strconv.Itoa(a.Number)
	numSize := stepRadius + 2
	w, h := r.faces.measure(label, numSize)
	r.faces.drawText(dst, a.Start.X-w/2, a.Start.Y-h/2, label, numSize, contrastColor(a.Color))
}

// contrastColor 根据亮度返回黑或白
func contrastColor(c color.RGBA) color.RGBA {
	// ITU-R BT.601 亮度
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if lum > 150 {
		return color.RGBA{0, 0, 0, 255}
	}
	return color.RGBA{255, 255, 255, 255}
}

// ========== 基础绘图原语 ==========

// strokeSegment 距离场抗锯齿线段（圆头端点）
func strokeSegment(dst *image.RGBA, x1, y1, x2, y2 int, c color.RGBA, width int) {
	halfW := float64(width) / 2.0
	if halfW < 0.75 {
		halfW = 0.75
	}

	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	length := math.Hypot(dx, dy)

	if length < 0.5 {
		fillCircle(dst, float64(x1), float64(y1), halfW, c)
		return
	}

	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	margin := int(halfW) + 2
	bx0, bx1 := x1, x2
	if bx0 > bx1 {
		bx0, bx1 = bx1, bx0
	}
	by0, by1 := y1, y2
	if by0 > by1 {
		by0, by1 = by1, by0
	}
	bx0 -= margin
	bx1 += margin
	by0 -= margin
	by1 += margin

	x1f, y1f := float64(x1), float64(y1)
	x2f, y2f := float64(x2), float64(y2)

	for py := by0; py <= by1; py++ {
		for px := bx0; px <= bx1; px++ {
			vx := float64(px) - x1f
			vy := float64(py) - y1f
			along := vx*ux + vy*uy

			var dist float64
			switch {
			case along <= 0:
				dist = math.Hypot(vx, vy)
			case along >= length:
				dist = math.Hypot(float64(px)-x2f, float64(py)-y2f)
			default:
				dist = math.Abs(vx*nx + vy*ny)
			}

			aaPixel(dst, px, py, c, dist, halfW)
		}
	}
}

// aaPixel 按到图形边缘的距离写入抗锯齿像素
func aaPixel(dst *image.RGBA, x, y int, c color.RGBA, dist, halfW float64) {
	if dist > halfW+0.5 {
		return
	}
	if dist <= halfW-0.5 {
		blendPixel(dst, x, y, c)
		return
	}
	frac := halfW + 0.5 - dist
	ac := color.RGBA{c.R, c.G, c.B, uint8(float64(c.A) * frac)}
	blendPixel(dst, x, y, ac)
}

// fillCircle 抗锯齿填充圆
func fillCircle(dst *image.RGBA, cx, cy, radius float64, c color.RGBA) {
	ri := int(radius) + 2
	cxi, cyi := int(cx), int(cy)
	for py := cyi - ri; py <= cyi+ri; py++ {
		for px := cxi - ri; px <= cxi+ri; px++ {
			dist := math.Hypot(float64(px)-cx, float64(py)-cy)
			aaPixel(dst, px, py, c, dist, radius)
		}
	}
}

// strokeEllipse 距离场抗锯齿椭圆描边
func strokeEllipse(dst *image.RGBA, cx, cy, rx, ry int, c color.RGBA, width int) {
	halfW := float64(width) / 2.0
	if halfW < 0.75 {
		halfW = 0.75
	}
	rxf, ryf := float64(rx), float64(ry)
	cxf, cyf := float64(cx), float64(cy)

	outerRx := rxf + halfW + 1.5
	outerRy := ryf + halfW + 1.5
	innerRx := rxf - halfW - 1.5
	innerRy := ryf - halfW - 1.5

	for py := cy - int(outerRy) - 1; py <= cy+int(outerRy)+1; py++ {
		dyf := float64(py) - cyf
		for px := cx - int(outerRx) - 1; px <= cx+int(outerRx)+1; px++ {
			dxf := float64(px) - cxf

			// 外椭圆之外、内椭圆之内直接跳过
			if outerRx > 0 && outerRy > 0 {
				if (dxf*dxf)/(outerRx*outerRx)+(dyf*dyf)/(outerRy*outerRy) > 1.0 {
					continue
				}
			}
			if innerRx > 0 && innerRy > 0 {
				if (dxf*dxf)/(innerRx*innerRx)+(dyf*dyf)/(innerRy*innerRy) < 1.0 {
					continue
				}
			}

			dist := ellipseEdgeDist(float64(px), float64(py), cxf, cyf, rxf, ryf)
			aaPixel(dst, px, py, c, dist, halfW)
		}
	}
}

// ellipseEdgeDist 点到椭圆边的近似距离（同方向缩放投影）
func ellipseEdgeDist(px, py, cx, cy, rx, ry float64) float64 {
	dx := (px - cx) / rx
	dy := (py - cy) / ry
	r := math.Hypot(dx, dy)
	if r < 0.001 {
		return math.Min(rx, ry)
	}
	t := 1.0 / r
	ex := cx + rx*dx*t
	ey := cy + ry*dy*t
	return math.Hypot(px-ex, py-ey)
}

// fillTriangle 扫描线填充三角形（箭头头部）
func fillTriangle(dst *image.RGBA, p1, p2, p3 image.Point, c color.RGBA) {
	minY := min3(p1.Y, p2.Y, p3.Y)
	maxY := max3(p1.Y, p2.Y, p3.Y)

	for y := minY; y <= maxY; y++ {
		var xs []int
		xs = edgeCrossX(xs, y, p1, p2)
		xs = edgeCrossX(xs, y, p2, p3)
		xs = edgeCrossX(xs, y, p3, p1)
		if len(xs) < 2 {
			continue
		}

		xMin, xMax := xs[0], xs[0]
		for _, x := range xs[1:] {
			if x < xMin {
				xMin = x
			}
			if x > xMax {
				xMax = x
			}
		}
		for x := xMin; x <= xMax; x++ {
			blendPixel(dst, x, y, c)
		}
	}
}

// edgeCrossX 计算水平扫描线与边 (a,b) 的交点 x
func edgeCrossX(xs []int, y int, a, b image.Point) []int {
	if a.Y > b.Y {
		a, b = b, a
	}
	if y < a.Y || y > b.Y || a.Y == b.Y {
		return xs
	}
	t := float64(y-a.Y) / float64(b.Y-a.Y)
	x := int(math.Round(float64(a.X) + t*float64(b.X-a.X)))
	return append(xs, x)
}

// blendPixel 带 alpha 混合地写入单个像素
func blendPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	b := dst.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	off := (y-b.Min.Y)*dst.Stride + (x-b.Min.X)*4

	if c.A == 255 {
		dst.Pix[off+0] = c.R
		dst.Pix[off+1] = c.G
		dst.Pix[off+2] = c.B
		dst.Pix[off+3] = 255
		return
	}
	if c.A == 0 {
		return
	}

	srcA := uint32(c.A)
	invA := 255 - srcA
	dst.Pix[off+0] = uint8((uint32(c.R)*srcA + uint32(dst.Pix[off+0])*invA) / 255)
	dst.Pix[off+1] = uint8((uint32(c.G)*srcA + uint32(dst.Pix[off+1])*invA) / 255)
	dst.Pix[off+2] = uint8((uint32(c.B)*srcA + uint32(dst.Pix[off+2])*invA) / 255)
	dst.Pix[off+3] = uint8(srcA + uint32(dst.Pix[off+3])*invA/255)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

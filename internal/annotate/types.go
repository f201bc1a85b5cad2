package annotate

import (
	"image"
	"image/color"

	"snapmark/internal/geom"
)

// ToolType 标注工具类型
type ToolType int

const (
	ToolPen       ToolType = iota // 画笔
	ToolLine                      // 直线
	ToolArrow                     // 箭头
	ToolRect                      // 矩形
	ToolCircle                    // 圆形（实际绘制内切椭圆）
	ToolHighlight                 // 高亮
	ToolBlur                      // 模糊/像素化
	ToolText                      // 文本
	ToolStep                      // 步骤序号
	ToolCount                     // 工具总数（用于遍历）
)

// ToolNone 表示选择模式（不绘制标注）
const ToolNone ToolType = -1

// ToolName 工具显示名称
var ToolName = map[ToolType]string{
	ToolPen:       "画笔",
	ToolLine:      "直线",
	ToolArrow:     "箭头",
	ToolRect:      "矩形",
	ToolCircle:    "圆形",
	ToolHighlight: "高亮",
	ToolBlur:      "模糊",
	ToolText:      "文本",
	ToolStep:      "步骤",
}

// ToolKey 工具的 JSON/配置键名（工具可见性偏好使用）
var ToolKey = map[ToolType]string{
	ToolPen:       "pen",
	ToolLine:      "line",
	ToolArrow:     "arrow",
	ToolRect:      "rect",
	ToolCircle:    "circle",
	ToolHighlight: "highlight",
	ToolBlur:      "blur",
	ToolText:      "text",
	ToolStep:      "step",
}

// Annotation 单个标注
// 提交到列表后不可变，例外：文本可原地编辑，步骤序号可随撤销回退
type Annotation struct {
	Type      ToolType
	Start     image.Point   // 两点型工具的起点（直线/箭头为端点，其余为包围盒角点）
	End       image.Point   // 两点型工具的终点
	Points    []image.Point // 画笔路径点（仅 ToolPen，绘制中追加）
	Color     color.RGBA    // 颜色（创建时从会话样式捕获）
	LineWidth int           // 线宽
	Text      string        // 文本内容（仅 ToolText）
	FontSize  int           // 字号（仅 ToolText）
	Number    int           // 步骤序号（仅 ToolStep）
}

// Style 会话级工具样式
// 创建标注时捕获到标注内，之后修改样式不影响已有标注
type Style struct {
	Color     color.RGBA
	LineWidth int
	FontSize  int
}

// DefaultStyle 默认样式：红色 3px 线宽 16 号字
func DefaultStyle() Style {
	return Style{
		Color:     color.RGBA{255, 0, 0, 255},
		LineWidth: 3,
		FontSize:  16,
	}
}

// BoundsRect 返回两点型标注的规范化包围盒
func (a *Annotation) BoundsRect() geom.Rect {
	r := geom.Rect{
		X: a.Start.X,
		Y: a.Start.Y,
		W: a.End.X - a.Start.X,
		H: a.End.Y - a.Start.Y,
	}
	return r.Normalize()
}

// TextMeasurer 文本测量接口（命中检测和自动扩展使用）
type TextMeasurer interface {
	// MeasureText 返回多行文本的渲染宽高（行高 = 1.2 * 字号）
	MeasureText(text string, fontSize int) (w, h int)
}

// textHitPadding 文本命中检测的边距容差
const textHitPadding = 10

// HitText 从最上层（最新）开始扫描文本标注，返回命中的下标，未命中返回 -1
func HitText(annotations []*Annotation, px, py int, m TextMeasurer) int {
	for i := len(annotations) - 1; i >= 0; i-- {
		a := annotations[i]
		if a.Type != ToolText {
			continue
		}
		w, h := m.MeasureText(a.Text, a.FontSize)
		box := geom.Rect{
			X: a.Start.X - textHitPadding,
			Y: a.Start.Y - textHitPadding,
			W: w + 2*textHitPadding,
			H: h + 2*textHitPadding,
		}
		if box.Contains(px, py) {
			return i
		}
	}
	return -1
}

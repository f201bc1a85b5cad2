package annotate

import (
	"image"
	"strings"
)

// Tool 标注工具行为接口
// 每种工具一个实现，注册到显式注入的 Registry 中（不使用全局状态）
type Tool interface {
	// Type 返回工具类型标签
	Type() ToolType

	// Create 在按下点创建进行中的标注
	// 两点型工具 Start=End=按下点；画笔初始化单点路径；步骤工具直接返回完整标注
	Create(x, y int, st Style) *Annotation

	// AddPoint 追加路径点（仅画笔有效，其余工具为空操作）
	AddPoint(a *Annotation, x, y int)

	// Update 移动时更新终点（两点型工具）
	Update(a *Annotation, x, y int)

	// Finish 提交前的最后规范化钩子
	Finish(a *Annotation)

	// ShouldSave 最小尺寸/有效性门槛，不通过则静默丢弃
	ShouldSave(a *Annotation) bool
}

// ========== 通用基类 ==========

// twoPointTool 两点型工具的公共行为
type twoPointTool struct {
	typ ToolType
}

func (t twoPointTool) Type() ToolType { return t.typ }

func (t twoPointTool) Create(x, y int, st Style) *Annotation {
	p := image.Point{X: x, Y: y}
	return &Annotation{
		Type:      t.typ,
		Start:     p,
		End:       p,
		Color:     st.Color,
		LineWidth: st.LineWidth,
	}
}

func (t twoPointTool) AddPoint(a *Annotation, x, y int) {}

func (t twoPointTool) Update(a *Annotation, x, y int) {
	a.End = image.Point{X: x, Y: y}
}

func (t twoPointTool) Finish(a *Annotation) {}

// ========== 画笔 ==========

type penTool struct{}

func (penTool) Type() ToolType { return ToolPen }

func (penTool) Create(x, y int, st Style) *Annotation {
	return &Annotation{
		Type:      ToolPen,
		Points:    []image.Point{{X: x, Y: y}},
		Color:     st.Color,
		LineWidth: st.LineWidth,
	}
}

func (penTool) AddPoint(a *Annotation, x, y int) {
	a.Points = append(a.Points, image.Point{X: x, Y: y})
}

func (penTool) Update(a *Annotation, x, y int) {}

func (penTool) Finish(a *Annotation) {}

func (penTool) ShouldSave(a *Annotation) bool {
	return len(a.Points) > 1
}

// ========== 直线 / 箭头 ==========

// lineTool 同时承载直线和箭头（有效性判定相同）
type lineTool struct {
	twoPointTool
}

func (t lineTool) ShouldSave(a *Annotation) bool {
	dx := a.End.X - a.Start.X
	dy := a.End.Y - a.Start.Y
	return absInt(dx) > 5 || absInt(dy) > 5
}

// ========== 矩形 / 高亮 ==========

type boxTool struct {
	twoPointTool
}

func (t boxTool) ShouldSave(a *Annotation) bool {
	dx := a.End.X - a.Start.X
	dy := a.End.Y - a.Start.Y
	return absInt(dx) > 5 && absInt(dy) > 5
}

// ========== 圆形 ==========

type circleTool struct {
	twoPointTool
}

func (t circleTool) ShouldSave(a *Annotation) bool {
	rx := absInt(a.End.X-a.Start.X) / 2
	ry := absInt(a.End.Y-a.Start.Y) / 2
	return rx > 3 && ry > 3
}

// ========== 模糊 ==========

type blurTool struct {
	twoPointTool
}

func (t blurTool) ShouldSave(a *Annotation) bool {
	dx := a.End.X - a.Start.X
	dy := a.End.Y - a.Start.Y
	return absInt(dx) > 10 && absInt(dy) > 10
}

// ========== 文本 ==========

// textTool 文本标注不经过拖拽绘制，由文本编辑器构建
// Create 仅记录锚点，实际内容由编辑器提交时填入
type textTool struct{}

func (textTool) Type() ToolType { return ToolText }

func (textTool) Create(x, y int, st Style) *Annotation {
	return &Annotation{
		Type:     ToolText,
		Start:    image.Point{X: x, Y: y},
		Color:    st.Color,
		FontSize: st.FontSize,
	}
}

func (textTool) AddPoint(a *Annotation, x, y int) {}
func (textTool) Update(a *Annotation, x, y int)   {}
func (textTool) Finish(a *Annotation)             {}

func (textTool) ShouldSave(a *Annotation) bool {
	return strings.TrimSpace(a.Text) != ""
}

// ========== 步骤序号 ==========

// stepTool 即时工具：无拖拽阶段，创建即完成
// 共享计数器由 Registry 持有，撤销时回退
type stepTool struct {
	reg *Registry
}

func (stepTool) Type() ToolType { return ToolStep }

func (t stepTool) Create(x, y int, st Style) *Annotation {
	return &Annotation{
		Type:   ToolStep,
		Start:  image.Point{X: x, Y: y},
		Color:  st.Color,
		Number: t.reg.nextStep(),
	}
}

func (stepTool) AddPoint(a *Annotation, x, y int) {}
func (stepTool) Update(a *Annotation, x, y int)   {}
func (stepTool) Finish(a *Annotation)             {}
func (stepTool) ShouldSave(a *Annotation) bool    { return true }

// ========== 注册表 ==========

// Registry 封闭工具集的显式注册表
// 持有步骤序号共享计数器；由调用方创建并注入，不存在包级单例
type Registry struct {
	tools       map[ToolType]Tool
	stepCounter int
}

// NewRegistry 创建注册表并注册全部工具，步骤计数器从 1 开始
func NewRegistry() *Registry {
	r := &Registry{
		tools:       make(map[ToolType]Tool, int(ToolCount)),
		stepCounter: 1,
	}
	r.register(penTool{})
	r.register(lineTool{twoPointTool{ToolLine}})
	r.register(lineTool{twoPointTool{ToolArrow}})
	r.register(boxTool{twoPointTool{ToolRect}})
	r.register(circleTool{twoPointTool{ToolCircle}})
	r.register(boxTool{twoPointTool{ToolHighlight}})
	r.register(blurTool{twoPointTool{ToolBlur}})
	r.register(textTool{})
	r.register(stepTool{reg: r})
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Type()] = t
}

// Tool 按类型查找工具
func (r *Registry) Tool(t ToolType) (Tool, bool) {
	tool, ok := r.tools[t]
	return tool, ok
}

// StepCounter 返回下一个步骤序号的当前值
func (r *Registry) StepCounter() int {
	return r.stepCounter
}

// nextStep 取当前序号并递增
func (r *Registry) nextStep() int {
	n := r.stepCounter
	r.stepCounter++
	return n
}

// RewindStep 撤销步骤标注时回退计数器，下限为 1
func (r *Registry) RewindStep() {
	r.stepCounter--
	if r.stepCounter < 1 {
		r.stepCounter = 1
	}
}

// ResetStep 清空标注列表时将计数器复位到 1
func (r *Registry) ResetStep() {
	r.stepCounter = 1
}

// ========== 辅助函数 ==========

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

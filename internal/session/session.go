// Package session 实现选区与标注交互状态机
// 所有指针/键盘事件先经坐标映射进入画布坐标系，再按优先级分发；
// 会话状态（选区、标注列表、模式）由本包独占持有，其它组件只读
package session

import (
	"image"

	"snapmark/internal/annotate"
	"snapmark/internal/geom"
	"snapmark/internal/textedit"
)

// MinSelectionSize 选区提交的最小边长阈值，宽高任一不超过此值按单击处理丢弃
const MinSelectionSize = 20

// CoordMapper 宿主原始指针坐标到画布坐标的映射
// 嵌入页面与独立页面宿主注入不同实现，交互语义不变
type CoordMapper func(rawX, rawY int) (int, int)

// Modifiers 事件修饰键
type Modifiers struct {
	Ctrl  bool
	Shift bool
}

// Hooks 会话向宿主发出的回调，未设置的回调按空操作处理
type Hooks struct {
	Redraw         func() // 每次状态变更后触发重绘
	SaveRequested  func() // Ctrl+S 或 s
	CopyRequested  func() // Ctrl+C
	CloseRequested func() // Escape 完全退出会话
}

// RenderCache 会话持有的渲染器侧接口：文本测量 + 模糊缓存失效
type RenderCache interface {
	annotate.TextMeasurer
	DropBlurCache(*annotate.Annotation)
	ResetBlurCache()
}

// CursorKind 悬停光标提示，宿主映射到各自平台的系统光标
type CursorKind int

const (
	CursorCross      CursorKind = iota // 默认十字
	CursorMove                         // 可拖拽移动
	CursorResizeNWSE                   // 对角缩放（左上/右下）
	CursorResizeNESW                   // 对角缩放（右上/左下）
	CursorResizeWE                     // 水平缩放
	CursorResizeNS                     // 垂直缩放
)

// ========== 拖拽状态 ==========

// dragState 指针拖拽状态，任一时刻至多一个生效
type dragState int

const (
	stateIdle dragState = iota
	stateSelecting
	stateMovingSelection
	stateResizing
	stateDrawing
	stateDraggingText
	stateMovingEditor
	stateResizingEditor
)

// ========== 会话 ==========

// Session 一次截图编辑周期的全部可变状态
type Session struct {
	reg      *annotate.Registry
	cache    RenderCache
	mapCoord CoordMapper
	hooks    Hooks

	mode  annotate.ToolType // ToolNone = 选择模式
	style annotate.Style

	canvasW int
	canvasH int

	selection    geom.Rect
	hasSelection bool

	annotations []*annotate.Annotation
	current     *annotate.Annotation
	currentTool annotate.Tool

	state        dragState
	activeHandle geom.HandleID
	dragOrigin   image.Point // 拖拽起点（画布坐标）
	dragBaseSel  geom.Rect   // 拖拽开始时的选区
	dragTextIdx  int         // 被拖拽文本标注的下标
	dragTextBase image.Point // 被拖拽文本的起始锚点
	editorBase   image.Point // 编辑框拖拽起始位置

	editor *textedit.Editor

	visibleTools map[annotate.ToolType]bool // nil 表示全部可用
}

// New 创建会话
// mapper 为 nil 时按恒等映射处理
func New(reg *annotate.Registry, cache RenderCache, mapper CoordMapper, hooks Hooks) *Session {
	if mapper == nil {
		mapper = func(x, y int) (int, int) { return x, y }
	}
	return &Session{
		reg:         reg,
		cache:       cache,
		mapCoord:    mapper,
		hooks:       hooks,
		mode:        annotate.ToolNone,
		style:       annotate.DefaultStyle(),
		dragTextIdx: -1,
	}
}

// SetCanvasSize 设置画布尺寸（选区移动夹取和全选使用）
func (s *Session) SetCanvasSize(w, h int) {
	s.canvasW = w
	s.canvasH = h
}

// ========== 只读访问（供合成器/导出使用）==========

// Mode 当前交互模式
func (s *Session) Mode() annotate.ToolType { return s.mode }

// Style 当前会话样式
func (s *Session) Style() annotate.Style { return s.style }

// Selection 当前选区，第二个返回值表示是否存在
func (s *Session) Selection() (geom.Rect, bool) {
	return s.selection, s.hasSelection
}

// Annotations 已提交标注列表（z 序 = 插入顺序）
func (s *Session) Annotations() []*annotate.Annotation { return s.annotations }

// Current 进行中的标注（预览用），无则为 nil
func (s *Session) Current() *annotate.Annotation { return s.current }

// Editor 打开的文本编辑框，无则为 nil
func (s *Session) Editor() *textedit.Editor { return s.editor }

// ========== 样式设置 ==========

// SetColor 设置颜色（只影响之后创建的标注）
func (s *Session) SetColor(c [4]uint8) {
	s.style.Color.R = c[0]
	s.style.Color.G = c[1]
	s.style.Color.B = c[2]
	s.style.Color.A = c[3]
}

// SetLineWidth 设置线宽
func (s *Session) SetLineWidth(w int) {
	if w > 0 {
		s.style.LineWidth = w
	}
}

// SetFontSize 设置字号
func (s *Session) SetFontSize(size int) {
	if size > 0 {
		s.style.FontSize = size
	}
}

// ========== 模式切换 ==========

// SetVisibleTools 限制可切换的工具集（工具条偏好）
// nil 恢复为全部可用
func (s *Session) SetVisibleTools(v map[annotate.ToolType]bool) {
	s.visibleTools = v
}

// SetMode 切换交互模式
// 再次按下当前工具的模式回到选择模式；切换前提交打开的编辑框
func (s *Session) SetMode(t annotate.ToolType) {
	if t != annotate.ToolNone && s.visibleTools != nil && !s.visibleTools[t] {
		return
	}
	if s.editor != nil {
		s.commitEditor()
	}
	if t == s.mode {
		s.mode = annotate.ToolNone
	} else {
		s.mode = t
	}
	s.redraw()
}

// ========== 指针事件 ==========

// PointerDown 指针按下，按固定优先级分发
func (s *Session) PointerDown(rawX, rawY int, mods Modifiers) {
	x, y := s.mapCoord(rawX, rawY)

	// 0. 编辑框优先：框内开始移动/缩放，框外提交并吞掉本次事件
	if s.editor != nil {
		if s.editor.OnResizeHandle(x, y) {
			s.editor.BeginResize()
			s.state = stateResizingEditor
			return
		}
		if s.editor.Contains(x, y) {
			s.state = stateMovingEditor
			s.dragOrigin = image.Pt(x, y)
			s.editorBase = image.Pt(s.editor.X, s.editor.Y)
			return
		}
		s.commitEditor()
		s.redraw()
		return
	}

	// 1. 选区手柄 → 调整大小
	if s.hasSelection {
		if h := geom.HitHandle(s.selection, x, y); h != geom.HandleNone {
			s.state = stateResizing
			s.activeHandle = h
			s.dragOrigin = image.Pt(x, y)
			s.dragBaseSel = s.selection
			return
		}
	}

	// 2. 已有文本标注 → 拖拽移动（Ctrl+点击删除）
	if idx := annotate.HitText(s.annotations, x, y, s.cache); idx >= 0 {
		if mods.Ctrl {
			s.removeAt(idx)
			s.redraw()
			return
		}
		s.state = stateDraggingText
		s.dragTextIdx = idx
		s.dragOrigin = image.Pt(x, y)
		s.dragTextBase = s.annotations[idx].Start
		return
	}

	// 3. 选区内部 → 按模式分发
	if s.hasSelection && s.selection.Contains(x, y) {
		switch s.mode {
		case annotate.ToolNone:
			s.state = stateMovingSelection
			s.dragOrigin = image.Pt(x, y)
			s.dragBaseSel = s.selection
		case annotate.ToolText:
			s.editor = textedit.NewAt(x, y, s.style, s.cache)
			s.redraw()
		default:
			s.beginDrawing(x, y)
		}
		return
	}

	// 4. 选区外 + 选择模式（或尚无选区）→ 开始新选区并清空既有标注
	if s.mode == annotate.ToolNone || !s.hasSelection {
		s.clearAnnotations()
		s.selection = geom.Rect{X: x, Y: y}
		s.hasSelection = true
		s.state = stateSelecting
		s.dragOrigin = image.Pt(x, y)
		s.redraw()
		return
	}

	// 5. 选区外 + 绘制模式 → 空操作，保护已完成的工作
}

// DoubleClick 双击：命中文本标注时打开编辑框
func (s *Session) DoubleClick(rawX, rawY int) {
	x, y := s.mapCoord(rawX, rawY)
	if s.editor != nil {
		return
	}
	if idx := annotate.HitText(s.annotations, x, y, s.cache); idx >= 0 {
		s.openEditorOn(idx)
		s.redraw()
	}
}

// CursorHint 返回指针悬停位置的光标提示
// 优先级与 PointerDown 的分发顺序一致，宿主据此切换系统光标
func (s *Session) CursorHint(rawX, rawY int) CursorKind {
	x, y := s.mapCoord(rawX, rawY)

	if s.editor != nil {
		if s.editor.OnResizeHandle(x, y) {
			return CursorResizeNWSE
		}
		if s.editor.Contains(x, y) {
			return CursorMove
		}
		return CursorCross
	}

	if s.hasSelection {
		switch geom.HitHandle(s.selection, x, y) {
		case geom.HandleTL, geom.HandleBR:
			return CursorResizeNWSE
		case geom.HandleTR, geom.HandleBL:
			return CursorResizeNESW
		case geom.HandleML, geom.HandleMR:
			return CursorResizeWE
		case geom.HandleTM, geom.HandleBM:
			return CursorResizeNS
		}
	}

	if annotate.HitText(s.annotations, x, y, s.cache) >= 0 {
		return CursorMove
	}

	if s.hasSelection && s.mode == annotate.ToolNone && s.selection.Contains(x, y) {
		return CursorMove
	}

	return CursorCross
}

// beginDrawing 在按下点创建进行中的标注
// 步骤工具无拖拽阶段，创建即提交
func (s *Session) beginDrawing(x, y int) {
	tool, ok := s.reg.Tool(s.mode)
	if !ok {
		return
	}

	a := tool.Create(x, y, s.style)
	if s.mode == annotate.ToolStep {
		s.annotations = append(s.annotations, a)
		s.redraw()
		return
	}

	s.current = a
	s.currentTool = tool
	s.state = stateDrawing
	s.redraw()
}

// PointerMove 指针移动，按激活状态路由
func (s *Session) PointerMove(rawX, rawY int) {
	x, y := s.mapCoord(rawX, rawY)
	dx := x - s.dragOrigin.X
	dy := y - s.dragOrigin.Y

	switch s.state {
	case stateSelecting:
		s.selection.W = x - s.selection.X
		s.selection.H = y - s.selection.Y

	case stateMovingSelection:
		s.selection = s.clampToCanvas(geom.Rect{
			X: s.dragBaseSel.X + dx,
			Y: s.dragBaseSel.Y + dy,
			W: s.dragBaseSel.W,
			H: s.dragBaseSel.H,
		})

	case stateResizing:
		s.selection = resizeByHandle(s.dragBaseSel, s.activeHandle, dx, dy)

	case stateDrawing:
		if s.current == nil {
			return
		}
		s.currentTool.AddPoint(s.current, x, y)
		s.currentTool.Update(s.current, x, y)

	case stateDraggingText:
		if s.dragTextIdx < 0 || s.dragTextIdx >= len(s.annotations) {
			return
		}
		s.annotations[s.dragTextIdx].Start = image.Pt(
			s.dragTextBase.X+dx,
			s.dragTextBase.Y+dy,
		)

	case stateMovingEditor:
		s.editor.MoveTo(s.editorBase.X+dx, s.editorBase.Y+dy)

	case stateResizingEditor:
		s.editor.ResizeTo(x-s.editor.X, y-s.editor.Y)

	default:
		return
	}

	s.redraw()
}

// PointerUp 指针释放，完成当前拖拽
func (s *Session) PointerUp(rawX, rawY int) {
	x, y := s.mapCoord(rawX, rawY)

	switch s.state {
	case stateSelecting:
		sel := s.selection.Normalize()
		if sel.W <= MinSelectionSize || sel.H <= MinSelectionSize {
			// 过小按单击处理，丢弃选区
			s.hasSelection = false
			s.selection = geom.Rect{}
		} else {
			s.selection = sel
		}
		s.redraw()

	case stateResizing:
		s.selection = s.selection.Normalize()
		s.redraw()

	case stateDrawing:
		if s.current != nil {
			// 路径点只在移动事件中追加，释放点不补录（单击不产生可见笔迹）
			s.currentTool.Update(s.current, x, y)
			s.currentTool.Finish(s.current)
			if s.currentTool.ShouldSave(s.current) {
				s.annotations = append(s.annotations, s.current)
			} else {
				s.cache.DropBlurCache(s.current)
			}
			s.current = nil
			s.currentTool = nil
		}
		s.redraw()
	}

	s.state = stateIdle
	s.activeHandle = geom.HandleNone
	s.dragTextIdx = -1
}

// resizeByHandle 根据手柄编号把拖拽偏移应用到对应的边
// 允许宽高暂时为负，释放时再规范化
func resizeByHandle(base geom.Rect, h geom.HandleID, dx, dy int) geom.Rect {
	r := base
	switch h {
	case geom.HandleTL:
		r.X += dx
		r.W -= dx
		r.Y += dy
		r.H -= dy
	case geom.HandleTM:
		r.Y += dy
		r.H -= dy
	case geom.HandleTR:
		r.W += dx
		r.Y += dy
		r.H -= dy
	case geom.HandleML:
		r.X += dx
		r.W -= dx
	case geom.HandleMR:
		r.W += dx
	case geom.HandleBL:
		r.X += dx
		r.W -= dx
		r.H += dy
	case geom.HandleBM:
		r.H += dy
	case geom.HandleBR:
		r.W += dx
		r.H += dy
	}
	return r
}

// clampToCanvas 将选区整体限制在画布范围内（画布尺寸未知时原样返回）
func (s *Session) clampToCanvas(r geom.Rect) geom.Rect {
	if s.canvasW <= 0 || s.canvasH <= 0 {
		return r
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.X+r.W > s.canvasW {
		r.X = s.canvasW - r.W
	}
	if r.Y+r.H > s.canvasH {
		r.Y = s.canvasH - r.H
	}
	return r
}

// ========== 键盘事件 ==========

// 工具快捷键映射（单字母，不区分大小写）
var shortcutTool = map[rune]annotate.ToolType{
	'p': annotate.ToolPen,
	'l': annotate.ToolLine,
	'a': annotate.ToolArrow,
	'r': annotate.ToolRect,
	'c': annotate.ToolCircle,
	'h': annotate.ToolHighlight,
	'b': annotate.ToolBlur,
	't': annotate.ToolText,
	'n': annotate.ToolStep,
}

// KeyChar 可打印字符输入
// 编辑框打开时作为文本输入，否则作为快捷键
func (s *Session) KeyChar(r rune, mods Modifiers) {
	if s.editor != nil && !mods.Ctrl {
		s.editor.InsertRune(r)
		s.redraw()
		return
	}

	lower := r
	if lower >= 'A' && lower <= 'Z' {
		lower += 'a' - 'A'
	}

	if mods.Ctrl {
		switch lower {
		case 'z':
			s.Undo()
		case 's':
			s.callHook(s.hooks.SaveRequested)
		case 'c':
			s.callHook(s.hooks.CopyRequested)
		}
		return
	}

	if t, ok := shortcutTool[lower]; ok {
		s.SetMode(t)
		return
	}
	if lower == 's' {
		s.callHook(s.hooks.SaveRequested)
	}
}

// KeyEscape Escape：取消编辑框，否则请求完全退出会话
func (s *Session) KeyEscape() {
	if s.editor != nil {
		s.cancelEditor()
		s.redraw()
		return
	}
	s.callHook(s.hooks.CloseRequested)
}

// KeyEnter 回车：提交编辑框（Shift+Enter 换行）
func (s *Session) KeyEnter(mods Modifiers) {
	if s.editor == nil {
		return
	}
	if mods.Shift && !mods.Ctrl {
		s.editor.InsertNewline()
		s.redraw()
		return
	}
	s.commitEditor()
	s.redraw()
}

// KeyBackspace 退格：编辑框内删除末尾字符
func (s *Session) KeyBackspace() {
	if s.editor == nil {
		return
	}
	s.editor.Backspace()
	s.redraw()
}

// Blur 宿主焦点丢失：按提交处理（与点击框外一致）
func (s *Session) Blur() {
	if s.editor == nil {
		return
	}
	s.commitEditor()
	s.redraw()
}

// ========== 撤销 ==========

// Undo 撤销：先关闭编辑框（不动列表），否则弹出最后一个标注
// 空列表时是空操作；无重做
func (s *Session) Undo() {
	if s.editor != nil {
		s.cancelEditor()
		s.redraw()
		return
	}
	if len(s.annotations) == 0 {
		return
	}

	last := s.annotations[len(s.annotations)-1]
	s.annotations = s.annotations[:len(s.annotations)-1]

	switch last.Type {
	case annotate.ToolStep:
		s.reg.RewindStep()
	case annotate.ToolBlur:
		s.cache.DropBlurCache(last)
	}
	s.redraw()
}

// ========== 选区操作 ==========

// SelectAll 全选：选区覆盖整个画布（四边内缩 5px），切到画笔模式
func (s *Session) SelectAll() {
	if s.canvasW <= 0 || s.canvasH <= 0 {
		return
	}
	if s.editor != nil {
		s.commitEditor()
	}
	s.clearAnnotations()
	const inset = 5
	s.selection = geom.Rect{
		X: inset,
		Y: inset,
		W: s.canvasW - 2*inset,
		H: s.canvasH - 2*inset,
	}
	s.hasSelection = true
	s.mode = annotate.ToolPen
	s.redraw()
}

// Reselect 重新选择：清空选区和标注，回到选择模式
func (s *Session) Reselect() {
	if s.editor != nil {
		s.cancelEditor()
	}
	s.clearAnnotations()
	s.hasSelection = false
	s.selection = geom.Rect{}
	s.mode = annotate.ToolNone
	s.redraw()
}

// clearAnnotations 清空标注列表并复位相关缓存/计数器
func (s *Session) clearAnnotations() {
	s.annotations = nil
	s.current = nil
	s.cache.ResetBlurCache()
	s.reg.ResetStep()
}

// removeAt 从列表中移除指定下标的标注
func (s *Session) removeAt(idx int) {
	if idx < 0 || idx >= len(s.annotations) {
		return
	}
	a := s.annotations[idx]
	s.annotations = append(s.annotations[:idx], s.annotations[idx+1:]...)
	if a.Type == annotate.ToolBlur {
		s.cache.DropBlurCache(a)
	}
}

// ========== 编辑框生命周期 ==========

// openEditorOn 在已有文本标注上打开编辑框
// 该标注先从列表移除，提交/取消时按原下标放回，保持 z 序
func (s *Session) openEditorOn(idx int) {
	a := s.annotations[idx]
	s.annotations = append(s.annotations[:idx], s.annotations[idx+1:]...)
	s.editor = textedit.Edit(a, idx, s.cache)
}

// commitEditor 提交编辑框：空文本静默丢弃，编辑旧标注时拼回原下标
func (s *Session) commitEditor() {
	e := s.editor
	s.editor = nil
	s.state = stateIdle

	a := e.Finish()
	if a == nil {
		return
	}

	idx := e.OriginalIndex()
	if idx < 0 || idx > len(s.annotations) {
		s.annotations = append(s.annotations, a)
		return
	}
	s.annotations = append(s.annotations[:idx],
		append([]*annotate.Annotation{a}, s.annotations[idx:]...)...)
}

// cancelEditor 取消编辑框：编辑旧标注时原样恢复到原下标
func (s *Session) cancelEditor() {
	e := s.editor
	s.editor = nil
	s.state = stateIdle

	orig := e.Cancel()
	if orig == nil {
		return
	}
	idx := e.OriginalIndex()
	if idx < 0 || idx > len(s.annotations) {
		s.annotations = append(s.annotations, orig)
		return
	}
	s.annotations = append(s.annotations[:idx],
		append([]*annotate.Annotation{orig}, s.annotations[idx:]...)...)
}

// ========== 内部辅助 ==========

func (s *Session) redraw() {
	s.callHook(s.hooks.Redraw)
}

func (s *Session) callHook(f func()) {
	if f != nil {
		f()
	}
}

package session

import (
	"image"
	"testing"

	"snapmark/internal/annotate"
	"snapmark/internal/geom"
)

// stubCache 测试用渲染缓存：按字符数估宽，记录缓存失效调用
type stubCache struct {
	dropped int
	resets  int
}

func (c *stubCache) MeasureText(text string, fontSize int) (int, int) {
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

func (c *stubCache) DropBlurCache(*annotate.Annotation) { c.dropped++ }
func (c *stubCache) ResetBlurCache()                    { c.resets++ }

// newTestSession 创建带默认选区的测试会话
func newTestSession(t *testing.T) (*Session, *stubCache) {
	t.Helper()
	cache := &stubCache{}
	s := New(annotate.NewRegistry(), cache, nil, Hooks{})
	s.SetCanvasSize(1000, 800)
	return s, cache
}

// makeSelection 拖出一个 (100,100)-(400,300) 的选区
func makeSelection(s *Session) {
	s.PointerDown(100, 100, Modifiers{})
	s.PointerMove(400, 300)
	s.PointerUp(400, 300)
}

func TestSelectionDrag(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	sel, ok := s.Selection()
	if !ok {
		t.Fatal("拖拽后应存在选区")
	}
	want := geom.Rect{X: 100, Y: 100, W: 300, H: 200}
	if sel != want {
		t.Errorf("选区 = %v, 期望 %v", sel, want)
	}
}

func TestSelectionReverseDragNormalized(t *testing.T) {
	s, _ := newTestSession(t)

	// 从右下往左上拖
	s.PointerDown(400, 300, Modifiers{})
	s.PointerMove(100, 100)
	s.PointerUp(100, 100)

	sel, ok := s.Selection()
	if !ok {
		t.Fatal("反向拖拽后应存在选区")
	}
	if sel.W < 0 || sel.H < 0 {
		t.Errorf("选区未规范化: %v", sel)
	}
	if sel != (geom.Rect{X: 100, Y: 100, W: 300, H: 200}) {
		t.Errorf("选区 = %v", sel)
	}
}

func TestTinySelectionDiscarded(t *testing.T) {
	s, _ := newTestSession(t)

	// 15x15 低于 20 的门槛，按单击丢弃
	s.PointerDown(100, 100, Modifiers{})
	s.PointerMove(115, 115)
	s.PointerUp(115, 115)

	if _, ok := s.Selection(); ok {
		t.Error("过小的选区应被丢弃")
	}
}

func TestSelectionThresholdIsExclusive(t *testing.T) {
	s, _ := newTestSession(t)

	// 恰好 20x20 仍按单击丢弃，需严格大于门槛
	s.PointerDown(100, 100, Modifiers{})
	s.PointerMove(120, 120)
	s.PointerUp(120, 120)
	if _, ok := s.Selection(); ok {
		t.Error("恰好等于门槛的选区应被丢弃")
	}

	// 21x21 通过
	s.PointerDown(100, 100, Modifiers{})
	s.PointerMove(121, 121)
	s.PointerUp(121, 121)
	if _, ok := s.Selection(); !ok {
		t.Error("超过门槛的选区应被保留")
	}
}

func TestPenClickDiscarded(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolPen)

	// 原地单击：路径只有按下点，不应提交
	s.PointerDown(200, 200, Modifiers{})
	s.PointerUp(200, 200)

	if len(s.Annotations()) != 0 {
		t.Errorf("画笔单击不应产生标注, 列表长度 = %d", len(s.Annotations()))
	}

	// 带移动的笔迹正常提交
	s.PointerDown(200, 200, Modifiers{})
	s.PointerMove(220, 210)
	s.PointerMove(240, 230)
	s.PointerUp(240, 230)

	if len(s.Annotations()) != 1 {
		t.Fatalf("拖拽笔迹应被提交, 列表长度 = %d", len(s.Annotations()))
	}
	if got := len(s.Annotations()[0].Points); got != 3 {
		t.Errorf("路径点数 = %d, 期望 3（按下点 + 两次移动）", got)
	}
}

func TestRectDrawEndToEnd(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolRect)

	s.PointerDown(150, 150, Modifiers{})
	if s.Current() == nil {
		t.Fatal("按下后应存在进行中标注")
	}
	s.PointerMove(250, 220)
	s.PointerUp(250, 220)

	if s.Current() != nil {
		t.Error("释放后进行中标注应清空")
	}
	list := s.Annotations()
	if len(list) != 1 {
		t.Fatalf("标注数 = %d, 期望 1", len(list))
	}
	a := list[0]
	if a.Type != annotate.ToolRect {
		t.Errorf("类型 = %v", a.Type)
	}
	if a.Start != image.Pt(150, 150) || a.End != image.Pt(250, 220) {
		t.Errorf("端点 = %v → %v", a.Start, a.End)
	}
	box := a.BoundsRect()
	if box.W != 100 || box.H != 70 {
		t.Errorf("包围盒 = %dx%d, 期望 100x70", box.W, box.H)
	}
}

func TestSmallGestureDiscarded(t *testing.T) {
	s, cache := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolLine)

	// dx=3, dy=3 不过有效性门槛
	s.PointerDown(150, 150, Modifiers{})
	s.PointerMove(153, 153)
	s.PointerUp(153, 153)

	if len(s.Annotations()) != 0 {
		t.Error("过小的直线手势应被丢弃")
	}
	_ = cache
}

func TestOutsideClickInDrawModeIsNoop(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolRect)

	// 在选区内画一个标注
	s.PointerDown(150, 150, Modifiers{})
	s.PointerMove(250, 250)
	s.PointerUp(250, 250)

	selBefore, _ := s.Selection()

	// 绘制模式下点击选区外：不清空、不开新选区
	s.PointerDown(600, 600, Modifiers{})
	s.PointerUp(600, 600)

	if len(s.Annotations()) != 1 {
		t.Error("绘制模式下选区外点击不应清空标注")
	}
	selAfter, ok := s.Selection()
	if !ok || selAfter != selBefore {
		t.Error("绘制模式下选区外点击不应改变选区")
	}
}

func TestNewSelectionClearsAnnotations(t *testing.T) {
	s, cache := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolRect)

	// 提交 3 个标注
	for i := 0; i < 3; i++ {
		x := 110 + i*30
		s.PointerDown(x, 110, Modifiers{})
		s.PointerMove(x+20, 150)
		s.PointerUp(x+20, 150)
	}
	if len(s.Annotations()) != 3 {
		t.Fatalf("标注数 = %d, 期望 3", len(s.Annotations()))
	}

	// 回到选择模式后在选区外开始新选区
	s.SetMode(annotate.ToolNone)
	s.PointerDown(600, 500, Modifiers{})
	s.PointerMove(700, 620)
	s.PointerUp(700, 620)

	if len(s.Annotations()) != 0 {
		t.Error("新选区应清空既有标注")
	}
	sel, ok := s.Selection()
	if !ok || sel != (geom.Rect{X: 600, Y: 500, W: 100, H: 120}) {
		t.Errorf("新选区 = %v", sel)
	}
	if cache.resets == 0 {
		t.Error("清空标注时应复位模糊缓存")
	}
}

func TestUndoEmptyIsNoop(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	s.Undo() // 不应崩溃
	if len(s.Annotations()) != 0 {
		t.Error("空列表撤销后应仍为空")
	}
}

func TestUndoStepRewindsCounter(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolStep)

	// 步骤工具即点即提交
	s.PointerDown(150, 150, Modifiers{})
	s.PointerUp(150, 150)
	s.PointerDown(200, 150, Modifiers{})
	s.PointerUp(200, 150)

	list := s.Annotations()
	if len(list) != 2 || list[0].Number != 1 || list[1].Number != 2 {
		t.Fatalf("步骤序号错误: %+v", list)
	}

	s.Undo()
	s.Undo()
	if len(s.Annotations()) != 0 {
		t.Error("两次撤销后列表应为空")
	}
	s.Undo() // 第三次是空操作

	// 计数器回到 1：下一个步骤标注重新从 1 开始
	s.PointerDown(150, 150, Modifiers{})
	s.PointerUp(150, 150)
	if got := s.Annotations()[0].Number; got != 1 {
		t.Errorf("回退后新步骤序号 = %d, 期望 1", got)
	}
}

func TestMoveSelection(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	// 选择模式下从选区内部拖动
	s.PointerDown(200, 200, Modifiers{})
	s.PointerMove(250, 230)
	s.PointerUp(250, 230)

	sel, _ := s.Selection()
	want := geom.Rect{X: 150, Y: 130, W: 300, H: 200}
	if sel != want {
		t.Errorf("移动后选区 = %v, 期望 %v", sel, want)
	}
}

func TestMoveSelectionClamped(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	// 拖出画布左上角：夹回 (0,0)
	s.PointerDown(200, 200, Modifiers{})
	s.PointerMove(-500, -500)
	s.PointerUp(-500, -500)

	sel, _ := s.Selection()
	if sel.X != 0 || sel.Y != 0 {
		t.Errorf("选区未夹取到画布内: %v", sel)
	}
}

func TestResizeByHandle(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s) // (100,100) 300x200

	// 拖左上手柄向左上扩 20,30
	s.PointerDown(100, 100, Modifiers{})
	s.PointerMove(80, 70)
	s.PointerUp(80, 70)

	sel, _ := s.Selection()
	want := geom.Rect{X: 80, Y: 70, W: 320, H: 230}
	if sel != want {
		t.Errorf("左上手柄调整后 = %v, 期望 %v", sel, want)
	}

	// 拖右中手柄向左收缩出负宽，释放时规范化
	s.PointerDown(400, 185, Modifiers{})
	s.PointerMove(40, 185)
	s.PointerUp(40, 185)

	sel, _ = s.Selection()
	if sel.W < 0 || sel.H < 0 {
		t.Errorf("释放后选区未规范化: %v", sel)
	}
}

func TestModeToggleBackToSelect(t *testing.T) {
	s, _ := newTestSession(t)

	s.SetMode(annotate.ToolPen)
	if s.Mode() != annotate.ToolPen {
		t.Fatal("模式未切换到画笔")
	}
	// 再次选择同一工具回到选择模式
	s.SetMode(annotate.ToolPen)
	if s.Mode() != annotate.ToolNone {
		t.Error("重复选择同一工具应回到选择模式")
	}
}

func TestShortcutKeys(t *testing.T) {
	s, _ := newTestSession(t)

	s.KeyChar('r', Modifiers{})
	if s.Mode() != annotate.ToolRect {
		t.Errorf("按 r 后模式 = %v", s.Mode())
	}
	// 大写同样生效
	s.KeyChar('R', Modifiers{})
	if s.Mode() != annotate.ToolNone {
		t.Errorf("再按 R 应回到选择模式, 得到 %v", s.Mode())
	}

	saved := false
	copied := false
	s.hooks.SaveRequested = func() { saved = true }
	s.hooks.CopyRequested = func() { copied = true }
	s.KeyChar('s', Modifiers{Ctrl: true})
	s.KeyChar('c', Modifiers{Ctrl: true})
	if !saved || !copied {
		t.Error("Ctrl+S / Ctrl+C 未触发回调")
	}
}

// ========== 文本编辑流程 ==========

// typeText 向打开的编辑框逐字输入
func typeText(s *Session, text string) {
	for _, r := range text {
		s.KeyChar(r, Modifiers{})
	}
}

func TestTextCreateCommit(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolText)

	s.PointerDown(150, 150, Modifiers{})
	if s.Editor() == nil {
		t.Fatal("文本模式下选区内点击应打开编辑框")
	}
	typeText(s, "hello")
	s.KeyEnter(Modifiers{})

	if s.Editor() != nil {
		t.Error("回车后编辑框应关闭")
	}
	list := s.Annotations()
	if len(list) != 1 || list[0].Text != "hello" {
		t.Fatalf("提交结果错误: %+v", list)
	}
}

func TestTextEscapeCancels(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolText)

	s.PointerDown(150, 150, Modifiers{})
	typeText(s, "临时内容")
	s.KeyEscape()

	if s.Editor() != nil {
		t.Error("Escape 后编辑框应关闭")
	}
	if len(s.Annotations()) != 0 {
		t.Error("Escape 是取消而非提交，不应产生标注")
	}
}

func TestTextEditPreservesZOrder(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	// 三个标注：rect, text, rect
	s.SetMode(annotate.ToolRect)
	s.PointerDown(110, 110, Modifiers{})
	s.PointerMove(140, 140)
	s.PointerUp(140, 140)

	s.SetMode(annotate.ToolText)
	s.PointerDown(200, 200, Modifiers{})
	typeText(s, "中间")
	s.KeyEnter(Modifiers{})

	s.SetMode(annotate.ToolRect)
	s.PointerDown(300, 110, Modifiers{})
	s.PointerMove(330, 140)
	s.PointerUp(330, 140)

	if len(s.Annotations()) != 3 {
		t.Fatalf("标注数 = %d", len(s.Annotations()))
	}

	// 双击打开中间的文本，改完重新提交后仍在下标 1
	s.SetMode(annotate.ToolNone)
	s.DoubleClick(205, 205)
	if s.Editor() == nil {
		t.Fatal("双击文本应打开编辑框")
	}
	if len(s.Annotations()) != 2 {
		t.Error("编辑期间原标注应暂时移出列表")
	}
	typeText(s, "追加")
	s.KeyEnter(Modifiers{})

	list := s.Annotations()
	if len(list) != 3 {
		t.Fatalf("提交后标注数 = %d", len(list))
	}
	if list[1].Type != annotate.ToolText || list[1].Text != "中间追加" {
		t.Errorf("文本应拼回原下标 1: %+v", list[1])
	}
}

func TestTextEditCancelRestores(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	s.SetMode(annotate.ToolText)
	s.PointerDown(200, 200, Modifiers{})
	typeText(s, "原始")
	s.KeyEnter(Modifiers{})

	s.SetMode(annotate.ToolNone)
	s.DoubleClick(205, 205)
	typeText(s, "不保留")
	s.KeyEscape()

	list := s.Annotations()
	if len(list) != 1 || list[0].Text != "原始" {
		t.Errorf("取消后应恢复原文本: %+v", list)
	}
}

func TestCtrlClickDeletesText(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	s.SetMode(annotate.ToolText)
	s.PointerDown(200, 200, Modifiers{})
	typeText(s, "待删")
	s.KeyEnter(Modifiers{})
	if len(s.Annotations()) != 1 {
		t.Fatal("文本未提交")
	}

	s.PointerDown(205, 205, Modifiers{Ctrl: true})
	if len(s.Annotations()) != 0 {
		t.Error("Ctrl+点击应删除文本标注")
	}
}

func TestUndoCancelsOpenEditorFirst(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	// 先提交一个标注
	s.SetMode(annotate.ToolRect)
	s.PointerDown(110, 110, Modifiers{})
	s.PointerMove(200, 200)
	s.PointerUp(200, 200)

	// 打开新文本编辑框后撤销：只关编辑框，不动列表
	s.SetMode(annotate.ToolText)
	s.PointerDown(250, 250, Modifiers{})
	typeText(s, "x")
	s.Undo()

	if s.Editor() != nil {
		t.Error("撤销应先关闭编辑框")
	}
	if len(s.Annotations()) != 1 {
		t.Error("撤销编辑框时不应弹出已提交标注")
	}
}

func TestClickOutsideEditorCommits(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	s.SetMode(annotate.ToolText)
	s.PointerDown(150, 150, Modifiers{})
	typeText(s, "外点提交")

	// 点到编辑框外：提交并吞掉事件
	s.PointerDown(390, 290, Modifiers{})
	if s.Editor() != nil {
		t.Error("框外点击应提交编辑框")
	}
	if len(s.Annotations()) != 1 {
		t.Errorf("提交后标注数 = %d", len(s.Annotations()))
	}
	// 该次点击不应开始新的绘制
	if s.Current() != nil {
		t.Error("提交编辑框的点击不应继续分发")
	}
}

func TestReselect(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolRect)
	s.PointerDown(110, 110, Modifiers{})
	s.PointerMove(200, 200)
	s.PointerUp(200, 200)

	s.Reselect()
	if _, ok := s.Selection(); ok {
		t.Error("重选后不应有选区")
	}
	if len(s.Annotations()) != 0 {
		t.Error("重选应清空标注")
	}
	if s.Mode() != annotate.ToolNone {
		t.Error("重选后应回到选择模式")
	}
}

func TestSelectAll(t *testing.T) {
	s, _ := newTestSession(t)
	s.SelectAll()

	sel, ok := s.Selection()
	if !ok {
		t.Fatal("全选后应有选区")
	}
	want := geom.Rect{X: 5, Y: 5, W: 990, H: 790}
	if sel != want {
		t.Errorf("全选选区 = %v, 期望 %v", sel, want)
	}
	if s.Mode() != annotate.ToolPen {
		t.Error("全选后应切到画笔模式")
	}
}

func TestStyleCapturedAtCreation(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolRect)
	s.SetColor([4]uint8{0, 0, 255, 255})

	s.PointerDown(110, 110, Modifiers{})
	s.PointerMove(200, 200)
	s.PointerUp(200, 200)

	// 之后改样式不影响已提交标注
	s.SetColor([4]uint8{0, 255, 0, 255})
	if got := s.Annotations()[0].Color.B; got != 255 {
		t.Errorf("已提交标注颜色被追溯修改: B=%d", got)
	}
}

func TestHiddenToolCannotBeSelected(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetVisibleTools(map[annotate.ToolType]bool{
		annotate.ToolRect: true,
	})

	s.SetMode(annotate.ToolBlur)
	if s.Mode() != annotate.ToolNone {
		t.Errorf("隐藏的工具不应被选中, 模式 = %v", s.Mode())
	}

	s.SetMode(annotate.ToolRect)
	if s.Mode() != annotate.ToolRect {
		t.Error("可见工具应正常切换")
	}

	// 快捷键同样受限
	s.KeyChar('b', Modifiers{})
	if s.Mode() != annotate.ToolRect {
		t.Error("隐藏工具的快捷键应被忽略")
	}

	s.SetVisibleTools(nil)
	s.SetMode(annotate.ToolBlur)
	if s.Mode() != annotate.ToolBlur {
		t.Error("解除限制后工具应可用")
	}
}

func TestCursorHint(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)

	cases := []struct {
		name string
		x, y int
		want CursorKind
	}{
		{"左上角手柄", 100, 100, CursorResizeNWSE},
		{"右上角手柄", 400, 100, CursorResizeNESW},
		{"右中手柄", 400, 200, CursorResizeWE},
		{"下中手柄", 250, 300, CursorResizeNS},
		{"选区内部（选择模式）", 250, 200, CursorMove},
		{"选区外", 600, 500, CursorCross},
	}
	for _, tc := range cases {
		if got := s.CursorHint(tc.x, tc.y); got != tc.want {
			t.Errorf("%s: CursorHint = %v, 期望 %v", tc.name, got, tc.want)
		}
	}

	// 绘制模式下选区内部恢复十字
	s.SetMode(annotate.ToolRect)
	if got := s.CursorHint(250, 200); got != CursorCross {
		t.Errorf("绘制模式下选区内应为十字, 得到 %v", got)
	}
}

func TestCursorHintOverEditor(t *testing.T) {
	s, _ := newTestSession(t)
	makeSelection(s)
	s.SetMode(annotate.ToolText)
	s.PointerDown(150, 150, Modifiers{})
	ed := s.Editor()
	if ed == nil {
		t.Fatal("文本模式点击选区内应打开编辑框")
	}

	if got := s.CursorHint(ed.X+5, ed.Y+5); got != CursorMove {
		t.Errorf("编辑框内应提示移动, 得到 %v", got)
	}
	if got := s.CursorHint(ed.X+ed.W, ed.Y+ed.H); got != CursorResizeNWSE {
		t.Errorf("编辑框角部手柄应提示缩放, 得到 %v", got)
	}
	if got := s.CursorHint(600, 500); got != CursorCross {
		t.Errorf("编辑框外应为十字, 得到 %v", got)
	}
}

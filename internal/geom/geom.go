package geom

// Rect 视图空间中的矩形区域
// 拖拽过程中 W/H 可能为负数，提交前必须先 Normalize
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Normalize 规范化矩形：保证 W/H 非负，同时覆盖相同区域
// 对已规范化的矩形是幂等操作
func (r Rect) Normalize() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Contains 判断点是否在矩形内（边界包含）
func (r Rect) Contains(px, py int) bool {
	return px >= r.X && px <= r.X+r.W && py >= r.Y && py <= r.Y+r.H
}

// Empty 判断矩形是否无面积
func (r Rect) Empty() bool {
	return r.W == 0 || r.H == 0
}

// ========== 调整手柄 ==========

// HandleID 选区调整手柄编号
type HandleID int

const (
	HandleNone HandleID = iota - 1 // 未命中
	HandleTL                       // 左上
	HandleTM                       // 上中
	HandleTR                       // 右上
	HandleML                       // 左中
	HandleMR                       // 右中
	HandleBL                       // 左下
	HandleBM                       // 下中
	HandleBR                       // 右下
)

// HandleSize 手柄方块边长（像素）
const HandleSize = 10

// handleOrder 手柄的命中检测顺序（固定，命中第一个匹配的）
var handleOrder = [8]HandleID{
	HandleTL, HandleTM, HandleTR, HandleML, HandleMR, HandleBL, HandleBM, HandleBR,
}

// handleName 手柄显示名称
var handleName = map[HandleID]string{
	HandleNone: "none",
	HandleTL:   "tl",
	HandleTM:   "tm",
	HandleTR:   "tr",
	HandleML:   "ml",
	HandleMR:   "mr",
	HandleBL:   "bl",
	HandleBM:   "bm",
	HandleBR:   "br",
}

// String 返回手柄名称
func (h HandleID) String() string {
	if s, ok := handleName[h]; ok {
		return s
	}
	return "none"
}

// anchor 返回手柄的中心锚点
func (h HandleID) anchor(r Rect) (int, int) {
	midX := r.X + r.W/2
	midY := r.Y + r.H/2
	switch h {
	case HandleTL:
		return r.X, r.Y
	case HandleTM:
		return midX, r.Y
	case HandleTR:
		return r.X + r.W, r.Y
	case HandleML:
		return r.X, midY
	case HandleMR:
		return r.X + r.W, midY
	case HandleBL:
		return r.X, r.Y + r.H
	case HandleBM:
		return midX, r.Y + r.H
	case HandleBR:
		return r.X + r.W, r.Y + r.H
	}
	return r.X, r.Y
}

// HandleRect 返回指定手柄的方块区域（以锚点为中心的 HandleSize 正方形）
func HandleRect(sel Rect, h HandleID) Rect {
	ax, ay := h.anchor(sel)
	half := HandleSize / 2
	return Rect{X: ax - half, Y: ay - half, W: HandleSize, H: HandleSize}
}

// HandleRects 返回 8 个手柄方块，按固定顺序排列
func HandleRects(sel Rect) [8]Rect {
	var out [8]Rect
	for i, h := range handleOrder {
		out[i] = HandleRect(sel, h)
	}
	return out
}

// HitHandle 检测点命中的手柄，按声明顺序返回第一个匹配
// 未命中返回 HandleNone
func HitHandle(sel Rect, px, py int) HandleID {
	for _, h := range handleOrder {
		if HandleRect(sel, h).Contains(px, py) {
			return h
		}
	}
	return HandleNone
}

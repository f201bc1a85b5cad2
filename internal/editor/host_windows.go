//go:build windows

package editor

import (
	"errors"
	"sync"
	"syscall"
	"unicode"
	"unsafe"

	"snapmark/internal/session"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	gdi32    = syscall.NewLazyDLL("gdi32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	getModuleHandle     = kernel32.NewProc("GetModuleHandleW")
	registerClassExW    = user32.NewProc("RegisterClassExW")
	createWindowExW     = user32.NewProc("CreateWindowExW")
	showWindow          = user32.NewProc("ShowWindow")
	updateWindow        = user32.NewProc("UpdateWindow")
	destroyWindow       = user32.NewProc("DestroyWindow")
	setForegroundWindow = user32.NewProc("SetForegroundWindow")
	setFocus            = user32.NewProc("SetFocus")
	defWindowProcW      = user32.NewProc("DefWindowProcW")
	postQuitMessage     = user32.NewProc("PostQuitMessage")
	getMessageW         = user32.NewProc("GetMessageW")
	peekMessageW        = user32.NewProc("PeekMessageW")
	translateMessage    = user32.NewProc("TranslateMessage")
	dispatchMessageW    = user32.NewProc("DispatchMessageW")
	setCapture          = user32.NewProc("SetCapture")
	releaseCapture      = user32.NewProc("ReleaseCapture")
	setCursor           = user32.NewProc("SetCursor")
	loadCursorW         = user32.NewProc("LoadCursorW")
	invalidateRect      = user32.NewProc("InvalidateRect")
	beginPaint          = user32.NewProc("BeginPaint")
	endPaint            = user32.NewProc("EndPaint")
	getKeyState         = user32.NewProc("GetKeyState")

	createCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	createDIBSection   = gdi32.NewProc("CreateDIBSection")
	selectObject       = gdi32.NewProc("SelectObject")
	deleteObject       = gdi32.NewProc("DeleteObject")
	deleteDC           = gdi32.NewProc("DeleteDC")
	bitBlt             = gdi32.NewProc("BitBlt")
)

const (
	WS_POPUP         = 0x80000000
	WS_VISIBLE       = 0x10000000
	WS_EX_TOPMOST    = 0x00000008
	WS_EX_TOOLWINDOW = 0x00000080

	CS_DBLCLKS = 0x0008

	SW_SHOW = 5

	WM_DESTROY       = 0x0002
	WM_KILLFOCUS     = 0x0008
	WM_PAINT         = 0x000F
	WM_QUIT          = 0x0012
	WM_SETCURSOR     = 0x0020
	WM_KEYDOWN       = 0x0100
	WM_CHAR          = 0x0102
	WM_MOUSEMOVE     = 0x0200
	WM_LBUTTONDOWN   = 0x0201
	WM_LBUTTONUP     = 0x0202
	WM_LBUTTONDBLCLK = 0x0203
	WM_RBUTTONDOWN   = 0x0204

	VK_BACK    = 0x08
	VK_RETURN  = 0x0D
	VK_SHIFT   = 0x10
	VK_CONTROL = 0x11
	VK_ESCAPE  = 0x1B

	IDC_CROSS    = 32515
	IDC_ARROW    = 32512
	IDC_SIZEALL  = 32646
	IDC_SIZENWSE = 32642
	IDC_SIZENESW = 32643
	IDC_SIZEWE   = 32644
	IDC_SIZENS   = 32645

	PM_REMOVE = 0x0001

	BI_RGB         = 0
	DIB_RGB_COLORS = 0
	SRCCOPY        = 0x00CC0020
)

type WNDCLASSEXW struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     uintptr
	HIcon         uintptr
	HCursor       uintptr
	HbrBackground uintptr
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       uintptr
}

type POINT struct {
	X int32
	Y int32
}

type MSG struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      POINT
}

type RECT struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type PAINTSTRUCT struct {
	Hdc         uintptr
	FErase      int32
	RcPaint     RECT
	FRestore    int32
	FIncUpdate  int32
	RgbReserved [32]byte
}

type BITMAPINFOHEADER struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type BITMAPINFO struct {
	BmiHeader BITMAPINFOHEADER
	BmiColors [1]uint32
}

// overlayHost 全屏覆盖窗口，把 Win32 消息转发给标注会话
type overlayHost struct {
	ed     *Editor
	hwnd   uintptr
	width  int
	height int
	done   bool

	memDC  uintptr
	bitmap uintptr
	bits   uintptr

	lastMouseX int
	lastMouseY int
}

var (
	overlayMutex           sync.Mutex
	overlayInstance        *overlayHost
	overlayClassRegistered bool
)

func newHost(ed *Editor, width, height int) (Host, error) {
	return &overlayHost{ed: ed, width: width, height: height}, nil
}

// Run 创建覆盖窗口并运行消息循环，阻塞直到会话结束
func (h *overlayHost) Run() error {
	overlayMutex.Lock()
	defer overlayMutex.Unlock()

	h.done = false
	drainQuitMessages()
	overlayInstance = h

	hInstance, _, _ := getModuleHandle.Call(0)

	className := syscall.StringToUTF16Ptr("SnapMarkEditorClass")
	if !overlayClassRegistered {
		var wc WNDCLASSEXW
		wc.CbSize = uint32(unsafe.Sizeof(wc))
		wc.Style = CS_DBLCLKS
		wc.LpfnWndProc = syscall.NewCallback(overlayWndProc)
		wc.HInstance = hInstance
		wc.HCursor, _, _ = loadCursorW.Call(0, uintptr(IDC_CROSS))
		wc.LpszClassName = className

		registerClassExW.Call(uintptr(unsafe.Pointer(&wc)))
		overlayClassRegistered = true
	}

	hwnd, _, _ := createWindowExW.Call(
		WS_EX_TOPMOST|WS_EX_TOOLWINDOW,
		uintptr(unsafe.Pointer(className)),
		0,
		WS_POPUP|WS_VISIBLE,
		0, 0,
		uintptr(h.width), uintptr(h.height),
		0, 0, hInstance, 0,
	)
	if hwnd == 0 {
		overlayInstance = nil
		return errors.New("创建覆盖窗口失败")
	}
	h.hwnd = hwnd

	showWindow.Call(hwnd, SW_SHOW)
	updateWindow.Call(hwnd)
	setForegroundWindow.Call(hwnd)
	setFocus.Call(hwnd)
	invalidateRect.Call(hwnd, 0, 1)

	var msg MSG
	for !h.done {
		ret, _, _ := getMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if ret == 0 || ret == uintptr(^uintptr(0)) {
			break
		}
		translateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		dispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}

	destroyWindow.Call(hwnd)
	h.cleanup()
	h.hwnd = 0
	overlayInstance = nil

	defaultCursor, _, _ := loadCursorW.Call(0, IDC_ARROW)
	setCursor.Call(defaultCursor)

	return nil
}

// Invalidate 请求整窗重绘
func (h *overlayHost) Invalidate() {
	if h.hwnd != 0 {
		invalidateRect.Call(h.hwnd, 0, 0)
	}
}

// Close 结束消息循环
func (h *overlayHost) Close() {
	h.done = true
	postQuitMessage.Call(0)
}

func (h *overlayHost) cleanup() {
	if h.bitmap != 0 {
		deleteObject.Call(h.bitmap)
		h.bitmap = 0
	}
	if h.memDC != 0 {
		deleteDC.Call(h.memDC)
		h.memDC = 0
	}
	h.bits = 0
}

// drainQuitMessages 清理消息队列中残留的 WM_QUIT
// 上一次会话结束时可能留下，不清理会让新窗口立即退出
func drainQuitMessages() {
	var msg MSG
	for {
		ret, _, _ := peekMessageW.Call(
			uintptr(unsafe.Pointer(&msg)),
			0, WM_QUIT, WM_QUIT, PM_REMOVE,
		)
		if ret == 0 {
			break
		}
	}
}

func keyDown(vk uintptr) bool {
	state, _, _ := getKeyState.Call(vk)
	return state&0x8000 != 0
}

func currentMods() session.Modifiers {
	return session.Modifiers{
		Ctrl:  keyDown(VK_CONTROL),
		Shift: keyDown(VK_SHIFT),
	}
}

func mouseXY(lParam uintptr) (int, int) {
	return int(int16(lParam & 0xFFFF)), int(int16((lParam >> 16) & 0xFFFF))
}

// cursorIDFor 会话光标提示到系统光标的映射
func cursorIDFor(k session.CursorKind) int {
	switch k {
	case session.CursorMove:
		return IDC_SIZEALL
	case session.CursorResizeNWSE:
		return IDC_SIZENWSE
	case session.CursorResizeNESW:
		return IDC_SIZENESW
	case session.CursorResizeWE:
		return IDC_SIZEWE
	case session.CursorResizeNS:
		return IDC_SIZENS
	default:
		return IDC_CROSS
	}
}

func overlayWndProc(hwnd, msg, wParam, lParam uintptr) uintptr {
	h := overlayInstance
	if h == nil || h.ed.Session() == nil {
		ret, _, _ := defWindowProcW.Call(hwnd, msg, wParam, lParam)
		return ret
	}
	sess := h.ed.Session()

	switch msg {
	case WM_SETCURSOR:
		cursor, _, _ := loadCursorW.Call(0, uintptr(cursorIDFor(sess.CursorHint(h.lastMouseX, h.lastMouseY))))
		setCursor.Call(cursor)
		return 1

	case WM_PAINT:
		var ps PAINTSTRUCT
		hdc, _, _ := beginPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
		h.blit(hdc)
		endPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
		return 0

	case WM_LBUTTONDOWN:
		x, y := mouseXY(lParam)
		setCapture.Call(hwnd)
		sess.PointerDown(x, y, currentMods())
		return 0

	case WM_MOUSEMOVE:
		x, y := mouseXY(lParam)
		h.lastMouseX, h.lastMouseY = x, y
		sess.PointerMove(x, y)
		return 0

	case WM_LBUTTONUP:
		releaseCapture.Call()
		x, y := mouseXY(lParam)
		sess.PointerUp(x, y)
		return 0

	case WM_LBUTTONDBLCLK:
		x, y := mouseXY(lParam)
		sess.DoubleClick(x, y)
		return 0

	case WM_RBUTTONDOWN:
		// 右键等同 Escape：先取消文本编辑，否则退出会话
		sess.KeyEscape()
		return 0

	case WM_KEYDOWN:
		mods := currentMods()
		switch wParam {
		case VK_ESCAPE:
			sess.KeyEscape()
		case VK_RETURN:
			sess.KeyEnter(mods)
		case VK_BACK:
			sess.KeyBackspace()
		default:
			// Ctrl 组合键不会以可打印字符到达 WM_CHAR
			if mods.Ctrl {
				switch wParam {
				case 'Z', 'S', 'C':
					sess.KeyChar(unicode.ToLower(rune(wParam)), mods)
				case 'A':
					sess.SelectAll()
				case 'R':
					sess.Reselect()
				case 'O':
					h.ed.Recognize()
				case 'P':
					h.ed.Print()
				}
			}
		}
		return 0

	case WM_CHAR:
		r := rune(wParam)
		if r >= 32 && !keyDown(VK_CONTROL) {
			sess.KeyChar(r, session.Modifiers{Shift: keyDown(VK_SHIFT)})
		}
		return 0

	case WM_KILLFOCUS:
		// 失焦提交打开的文本编辑框
		sess.Blur()
		return 0

	case WM_DESTROY:
		return 0
	}

	ret, _, _ := defWindowProcW.Call(hwnd, msg, wParam, lParam)
	return ret
}

// blit 把合成画布经 DIB 上屏
func (h *overlayHost) blit(hdc uintptr) {
	canvas := h.ed.Canvas()
	if canvas == nil {
		return
	}
	width := canvas.Bounds().Dx()
	height := canvas.Bounds().Dy()

	if h.memDC == 0 || width != h.width || height != h.height {
		h.cleanup()

		h.memDC, _, _ = createCompatibleDC.Call(hdc)

		var bi BITMAPINFO
		bi.BmiHeader.BiSize = uint32(unsafe.Sizeof(bi.BmiHeader))
		bi.BmiHeader.BiWidth = int32(width)
		bi.BmiHeader.BiHeight = -int32(height)
		bi.BmiHeader.BiPlanes = 1
		bi.BmiHeader.BiBitCount = 32
		bi.BmiHeader.BiCompression = BI_RGB

		h.bitmap, _, _ = createDIBSection.Call(
			h.memDC,
			uintptr(unsafe.Pointer(&bi)),
			DIB_RGB_COLORS,
			uintptr(unsafe.Pointer(&h.bits)),
			0, 0,
		)
		if h.bitmap == 0 {
			return
		}
		selectObject.Call(h.memDC, h.bitmap)
		h.width = width
		h.height = height
	}

	// RGBA → BGRA
	pixels := unsafe.Slice((*byte)(unsafe.Pointer(h.bits)), width*height*4)
	for y := 0; y < height; y++ {
		src := canvas.Pix[y*canvas.Stride:]
		dst := pixels[y*width*4:]
		for x := 0; x < width; x++ {
			dst[x*4+0] = src[x*4+2]
			dst[x*4+1] = src[x*4+1]
			dst[x*4+2] = src[x*4+0]
			dst[x*4+3] = 255
		}
	}

	bitBlt.Call(hdc, 0, 0, uintptr(width), uintptr(height), h.memDC, 0, 0, SRCCOPY)
}

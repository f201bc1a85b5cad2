// Package editor 把交互会话、合成器和导出管线装配成一次完整的标注流程
// 平台宿主（全屏覆盖窗口）只负责事件转发和画布上屏
package editor

import (
	"context"
	"errors"
	"image"
	"math"
	"time"

	"snapmark/internal/annotate"
	"snapmark/internal/clipboard"
	"snapmark/internal/compose"
	"snapmark/internal/config"
	"snapmark/internal/export"
	"snapmark/internal/geom"
	"snapmark/internal/notify"
	"snapmark/internal/ocr"
	"snapmark/internal/prefs"
	"snapmark/internal/session"
	"snapmark/internal/storage"
)

// Host 平台覆盖窗口
// Run 阻塞直到会话结束，期间把输入事件转发给会话
type Host interface {
	Run() error
	Invalidate()
	Close()
}

// Editor 标注编辑器门面
type Editor struct {
	cfg        *config.Config
	clip       clipboard.Clipboard
	notifier   notify.Notifier
	store      *storage.Storage
	prefsStore *prefs.Store

	renderer *annotate.Renderer
	comp     *compose.Compositor
	exporter *export.Exporter
	ocrc     *ocr.Client

	sess *session.Session
	host Host

	// 最近一次识别的单词框（画布坐标）及其所属选区，选区变化即失效
	wordBoxes []geom.Rect
	wordSel   geom.Rect
}

// New 创建编辑器
func New(cfg *config.Config, clip clipboard.Clipboard, notifier notify.Notifier, store *storage.Storage) *Editor {
	e := &Editor{
		cfg:        cfg,
		clip:       clip,
		notifier:   notifier,
		store:      store,
		prefsStore: prefs.NewStore(),
	}
	if cfg.OCR.Endpoint != "" {
		e.ocrc = ocr.NewClient(cfg.OCR.Endpoint, time.Duration(cfg.OCR.TimeoutSeconds)*time.Second)
	}
	return e
}

// Annotate 对给定截图打开标注会话，阻塞直到用户保存/复制/取消
func (e *Editor) Annotate(background *image.RGBA) error {
	if background == nil {
		return errors.New("没有截图可标注")
	}

	e.wordBoxes = nil
	e.wordSel = geom.Rect{}
	e.renderer = annotate.NewRenderer()
	e.comp = compose.New(e.renderer)
	e.comp.SetBase(background)
	e.exporter = export.New(e.comp, e.store, e.clip, 1)

	b := background.Bounds()
	e.sess = session.New(annotate.NewRegistry(), e.renderer, nil, session.Hooks{
		Redraw:         e.repaint,
		SaveRequested:  e.save,
		CopyRequested:  e.copy,
		CloseRequested: e.closeHost,
	})
	e.sess.SetCanvasSize(b.Dx(), b.Dy())

	// 工具条偏好：隐藏的工具连快捷键一起禁用
	p := e.prefsStore.Load()
	visible := make(map[annotate.ToolType]bool, int(annotate.ToolCount))
	for t := annotate.ToolType(0); t < annotate.ToolCount; t++ {
		visible[t] = p.Visible(t)
	}
	e.sess.SetVisibleTools(visible)

	host, err := newHost(e, b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	e.host = host

	e.repaint()
	err = host.Run()

	if e.ocrc != nil {
		e.ocrc.Cancel()
	}
	e.host = nil
	e.sess = nil
	return err
}

// Session 当前会话（宿主转发事件用）
func (e *Editor) Session() *session.Session {
	return e.sess
}

// frame 会话状态快照
func (e *Editor) frame() compose.Frame {
	sel, has := e.sess.Selection()
	if e.wordBoxes != nil && (!has || sel != e.wordSel) {
		e.wordBoxes = nil
	}
	return compose.Frame{
		Selection:    sel,
		HasSelection: has,
		Annotations:  e.sess.Annotations(),
		Current:      e.sess.Current(),
		Editor:       e.sess.Editor(),
		WordBoxes:    e.wordBoxes,
		ShowChrome:   true,
	}
}

func (e *Editor) repaint() {
	if e.sess == nil {
		return
	}
	e.comp.Render(e.frame())
	if e.host != nil {
		e.host.Invalidate()
	}
}

// Canvas 合成后的画布（宿主上屏用）
func (e *Editor) Canvas() *image.RGBA {
	if e.comp == nil {
		return nil
	}
	return e.comp.Canvas()
}

func (e *Editor) save() {
	path, err := e.exporter.Save(e.frame(), e.cfg.Behavior.Beautify)
	if err != nil {
		e.notifier.Show("保存失败", err.Error())
		return
	}

	// 与复制路径到剪贴板的原有行为保持一致
	if err := e.clip.SetText(path); err == nil {
		if e.cfg.Behavior.ShowNotification {
			e.notifier.Show("截图已保存", path)
		}
	}
	e.closeHost()
}

func (e *Editor) copy() {
	if err := e.exporter.Copy(e.frame(), e.cfg.Behavior.Beautify); err != nil {
		e.notifier.Show("复制失败", err.Error())
		return
	}
	if e.cfg.Behavior.ShowNotification {
		e.notifier.Show("截图已复制", "图片已写入剪贴板")
	}
	e.closeHost()
}

// Print 打印当前选区
func (e *Editor) Print() {
	if err := e.exporter.Print(e.frame()); err != nil {
		e.notifier.Show("打印失败", err.Error())
	}
}

// Recognize 对当前选区发起文字识别
// 识别结果写入剪贴板并在画布上框出单词；服务未配置或已有请求在途时给出提示
func (e *Editor) Recognize() {
	if e.ocrc == nil {
		e.notifier.Show("识别不可用", "未配置识别服务地址")
		return
	}

	img, err := e.exporter.FinalImage(e.frame(), false)
	if err != nil {
		e.notifier.Show("识别失败", err.Error())
		return
	}
	data, err := e.exporter.EncodePNG(img)
	if err != nil {
		e.notifier.Show("识别失败", err.Error())
		return
	}

	sel, _ := e.sess.Selection()
	scale := e.exporter.Scale()

	err = e.ocrc.Recognize(context.Background(), data, func(r *ocr.Result, err error) {
		if err != nil {
			e.notifier.Show("识别失败", err.Error())
			return
		}
		if r.Text == "" {
			e.notifier.Show("识别完成", "未识别到文字")
			return
		}

		// 单词框从导出图坐标映射回画布坐标后叠加显示
		if e.sess != nil {
			e.wordBoxes = mapWordBoxes(r.Words, scale, sel)
			e.wordSel = sel
			e.repaint()
		}

		if err := e.clip.SetText(r.Text); err != nil {
			e.notifier.Show("识别完成", "文字复制到剪贴板失败")
			return
		}
		e.notifier.Show("识别完成", "文字已复制到剪贴板")
	})
	if err == ocr.ErrBusy {
		e.notifier.Show("识别中", "请等待当前识别完成")
	}
}

// mapWordBoxes 把识别结果的单词框换算成画布坐标矩形
func mapWordBoxes(words []ocr.Word, scale float64, sel geom.Rect) []geom.Rect {
	if len(words) == 0 {
		return nil
	}
	out := make([]geom.Rect, 0, len(words))
	for _, w := range words {
		b := w.BBox.MapToCanvas(scale, sel.X, sel.Y)
		r := geom.Rect{
			X: int(math.Round(b.X0)),
			Y: int(math.Round(b.Y0)),
			W: int(math.Round(b.X1 - b.X0)),
			H: int(math.Round(b.Y1 - b.Y0)),
		}.Normalize()
		if r.Empty() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (e *Editor) closeHost() {
	if e.host != nil {
		e.host.Close()
	}
}

package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"snapmark/internal/annotate"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s := NewStoreAt(filepath.Join(t.TempDir(), "prefs.json"))
	p := s.Load()

	for tool := annotate.ToolType(0); tool < annotate.ToolCount; tool++ {
		if !p.Visible(tool) {
			t.Errorf("默认应全部可见, %s 不可见", annotate.ToolKey[tool])
		}
	}
}

func TestLoadCorruptFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	p := NewStoreAt(path).Load()
	if !p.Visible(annotate.ToolPen) {
		t.Error("损坏文件应回退到默认偏好")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "prefs.json")
	s := NewStoreAt(path)

	p := Default()
	p.VisibleTools["blur"] = false
	p.VisibleTools["step"] = false
	if err := s.Save(p); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	got := s.Load()
	if got.Visible(annotate.ToolBlur) {
		t.Error("模糊工具应被隐藏")
	}
	if got.Visible(annotate.ToolStep) {
		t.Error("步骤工具应被隐藏")
	}
	if !got.Visible(annotate.ToolRect) {
		t.Error("矩形工具应保持可见")
	}
}

func TestLoadFillsMissingToolsVisible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	os.WriteFile(path, []byte(`{"visibleTools":{"pen":false}}`), 0644)

	p := NewStoreAt(path).Load()
	if p.Visible(annotate.ToolPen) {
		t.Error("画笔应按文件内容隐藏")
	}
	if !p.Visible(annotate.ToolText) {
		t.Error("文件未提及的工具应默认可见")
	}
}

func TestVisibleUnknownToolFalse(t *testing.T) {
	p := Default()
	if p.Visible(annotate.ToolNone) {
		t.Error("选择模式不是工具, 不应可见")
	}
}

package editor

import (
	"testing"

	"snapmark/internal/geom"
	"snapmark/internal/ocr"
)

func TestMapWordBoxes(t *testing.T) {
	sel := geom.Rect{X: 100, Y: 50, W: 300, H: 200}
	words := []ocr.Word{
		{Text: "hello", BBox: ocr.BBox{X0: 10, Y0: 20, X1: 70, Y1: 40}},
		{Text: "world", BBox: ocr.BBox{X0: 80, Y0: 20, X1: 140, Y1: 40}},
	}

	boxes := mapWordBoxes(words, 1, sel)
	if len(boxes) != 2 {
		t.Fatalf("单词框数量 = %d, 期望 2", len(boxes))
	}

	want := geom.Rect{X: 110, Y: 70, W: 60, H: 20}
	if boxes[0] != want {
		t.Errorf("第一个单词框 = %v, 期望 %v", boxes[0], want)
	}
	if boxes[1].X != 180 {
		t.Errorf("第二个单词框 X = %d, 期望 180", boxes[1].X)
	}
}

func TestMapWordBoxesScaled(t *testing.T) {
	// 2x 设备像素比：导出图坐标减半后再平移到选区原点
	sel := geom.Rect{X: 100, Y: 100, W: 200, H: 100}
	words := []ocr.Word{
		{Text: "词", BBox: ocr.BBox{X0: 40, Y0: 60, X1: 120, Y1: 100}},
	}

	boxes := mapWordBoxes(words, 2, sel)
	if len(boxes) != 1 {
		t.Fatalf("单词框数量 = %d, 期望 1", len(boxes))
	}
	want := geom.Rect{X: 120, Y: 130, W: 40, H: 20}
	if boxes[0] != want {
		t.Errorf("单词框 = %v, 期望 %v", boxes[0], want)
	}
}

func TestMapWordBoxesDropsDegenerate(t *testing.T) {
	sel := geom.Rect{X: 0, Y: 0, W: 100, H: 100}
	words := []ocr.Word{
		{Text: "", BBox: ocr.BBox{X0: 10, Y0: 10, X1: 10, Y1: 30}}, // 零宽
		{Text: "ok", BBox: ocr.BBox{X0: 20, Y0: 20, X1: 50, Y1: 35}},
	}

	boxes := mapWordBoxes(words, 1, sel)
	if len(boxes) != 1 {
		t.Fatalf("退化的单词框应被丢弃, 数量 = %d", len(boxes))
	}
	if boxes[0].X != 20 {
		t.Errorf("保留的单词框 X = %d, 期望 20", boxes[0].X)
	}

	if got := mapWordBoxes(nil, 1, sel); got != nil {
		t.Errorf("空结果应返回 nil, 得到 %v", got)
	}
}

// Package ocr 文字识别服务客户端
// 对 HTTP 识别服务异步提交 PNG，同一时刻最多一个在途请求
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout 识别请求超时
const DefaultTimeout = 120 * time.Second

// ErrBusy 已有请求在途
var ErrBusy = errors.New("识别请求正在进行中")

// BBox 识别结果中单词的包围盒（服务返回的图片像素坐标）
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Word 单个识别出的词
type Word struct {
	Text string `json:"text"`
	BBox BBox   `json:"bbox"`
}

// Result 识别结果
type Result struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// MapToCanvas 把包围盒从导出图片坐标换算回画布坐标
// 导出图是选区按缩放因子放大后的裁剪，反向除以因子再加选区原点
func (b BBox) MapToCanvas(scale float64, originX, originY int) BBox {
	if scale <= 0 {
		scale = 1
	}
	return BBox{
		X0: b.X0/scale + float64(originX),
		Y0: b.Y0/scale + float64(originY),
		X1: b.X1/scale + float64(originX),
		Y1: b.Y1/scale + float64(originY),
	}
}

// Client 识别服务客户端
// 完成守卫保证每个请求最多回调一次，超时后到达的响应被丢弃
type Client struct {
	endpoint string
	timeout  time.Duration
	httpc    *http.Client

	mu        sync.Mutex
	inflight  bool
	requestID string
}

// NewClient 创建客户端，timeout<=0 时使用默认值
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		httpc:    &http.Client{},
	}
}

// Busy 是否有请求在途
func (c *Client) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// Recognize 异步提交识别请求
// done 在后台 goroutine 中恰好被调用一次；已有在途请求时立即返回 ErrBusy
func (c *Client) Recognize(ctx context.Context, pngData []byte, done func(*Result, error)) error {
	c.mu.Lock()
	if c.inflight {
		c.mu.Unlock()
		return ErrBusy
	}
	id := uuid.NewString()
	c.inflight = true
	c.requestID = id
	c.mu.Unlock()

	go c.run(ctx, id, pngData, done)
	return nil
}

func (c *Client) run(ctx context.Context, id string, pngData []byte, done func(*Result, error)) {
	result, err := c.post(ctx, id, pngData)

	// 完成守卫：只有仍是当前请求时才回调
	c.mu.Lock()
	if !c.inflight || c.requestID != id {
		c.mu.Unlock()
		return
	}
	c.inflight = false
	c.requestID = ""
	c.mu.Unlock()

	done(result, err)
}

func (c *Client) post(ctx context.Context, id string, pngData []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("构造识别请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("X-Request-ID", id)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("识别请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("识别服务返回 %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("识别结果解析失败: %v", err)
	}
	return &result, nil
}

// Cancel 放弃当前在途请求，之后到达的响应不再回调
func (c *Client) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = false
	c.requestID = ""
}

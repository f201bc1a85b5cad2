// Package prefs 编辑器偏好存储
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"snapmark/internal/annotate"
)

// Prefs 编辑器偏好
// VisibleTools 控制工具条上各工具的显隐，键为工具名
type Prefs struct {
	VisibleTools map[string]bool `json:"visibleTools"`
}

// Store 偏好文件存取
type Store struct {
	path string
}

// NewStore 使用默认路径创建
func NewStore() *Store {
	return &Store{path: defaultPath()}
}

// NewStoreAt 使用指定路径创建
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

func defaultPath() string {
	var configDir string

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			homeDir, _ := os.UserHomeDir()
			configDir = filepath.Join(homeDir, "AppData", "Roaming")
		}
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "snapmark", "prefs.json")
}

// Default 所有工具可见
func Default() *Prefs {
	p := &Prefs{VisibleTools: map[string]bool{}}
	for t := annotate.ToolType(0); t < annotate.ToolCount; t++ {
		p.VisibleTools[annotate.ToolKey[t]] = true
	}
	return p
}

// Load 读取偏好，文件缺失或损坏时返回默认值
func (s *Store) Load() *Prefs {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Default()
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil || p.VisibleTools == nil {
		return Default()
	}

	// 文件里没出现的工具按可见处理
	for t := annotate.ToolType(0); t < annotate.ToolCount; t++ {
		name := annotate.ToolKey[t]
		if _, ok := p.VisibleTools[name]; !ok {
			p.VisibleTools[name] = true
		}
	}
	return &p
}

// Save 写入偏好
func (s *Store) Save(p *Prefs) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Visible 指定工具是否可见
func (p *Prefs) Visible(t annotate.ToolType) bool {
	name, ok := annotate.ToolKey[t]
	if !ok {
		return false
	}
	return p.VisibleTools[name]
}

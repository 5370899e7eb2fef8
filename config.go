package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("配置无效")

// Config 可选的 YAML 配置文件, 命令行参数优先
type Config struct {
	Compress     string   `yaml:"compress,omitempty"`
	Destination  string   `yaml:"destination,omitempty"`
	ExcludeDirs  []string `yaml:"exclude_dirs,omitempty"`
	ExcludeFiles []string `yaml:"exclude_files,omitempty"`
	BeforeScript string   `yaml:"before_script,omitempty"`
	AfterScript  string   `yaml:"after_script,omitempty"`
	ServiceNames []string `yaml:"service_names,omitempty"`
}

// loadConfig 读取配置文件, path 为空时返回空配置
func loadConfig(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取配置文件失败 (%s): %v", ErrInvalidConfig, path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: 解析YAML配置失败 (%s): %v", ErrInvalidConfig, path, err)
	}
	return &cfg, nil
}

// Excludes 目录和文件排除规则都作为 tar --exclude 模式
func (c *Config) Excludes() []string {
	excludes := make([]string, 0, len(c.ExcludeDirs)+len(c.ExcludeFiles))
	excludes = append(excludes, c.ExcludeDirs...)
	return append(excludes, c.ExcludeFiles...)
}

package main

import (
	"context"
	"os/exec"
	"path/filepath"
)

// Source 产生未压缩归档流(写到 stdout)的数据源
type Source interface {
	// Name 用于备份文件名前缀
	Name() string
	Args() []string
	Command(ctx context.Context) *exec.Cmd
}

// defaultExcludes 相对于备份根目录的缓存、日志和构建产物
var defaultExcludes = []string{
	"*.log",
	".bundle/cache",
	".cache",
	".config/google-chrome",
	".local/share/Trash",
	".mozilla",
	".npm/_cacache",
	".npm/_logs",
	".solargraph",
	"go/pkg",
	"node_modules",
	"public/packs*",
	"result",
	"tmp/*",
}

// tarSource 以 Dir 为根打包整个目录
type tarSource struct {
	Dir      string
	Excludes []string // 追加在 defaultExcludes 之后
	Verbose  bool
}

// Name 目录名; "." 等相对路径按绝对路径取名, 根目录记为 root
func (s tarSource) Name() string {
	dir := filepath.Clean(s.Dir)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	name := filepath.Base(dir)
	if name == string(filepath.Separator) || name == "." {
		return "root"
	}
	return name
}

func (s tarSource) Args() []string {
	args := []string{"-C", s.Dir, "-c"}
	if s.Verbose {
		args = append(args, "-v")
	}
	args = append(args,
		"-f", "-",
		"-p",
		"--xattrs",
		"--numeric-owner",
		"--exclude-backups",
		"--exclude-vcs-ignores",
	)
	for _, pattern := range defaultExcludes {
		args = append(args, "--exclude="+pattern)
	}
	for _, pattern := range s.Excludes {
		args = append(args, "--exclude="+pattern)
	}
	return append(args, ".")
}

func (s tarSource) Command(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, "tar", s.Args()...)
}

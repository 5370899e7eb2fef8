package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
)

const defaultCompressor = "xz"

var ErrUnknownCompressor = errors.New("未知的压缩算法")

// Compressor 压缩程序及其流式(stdin → stdout)调用参数
type Compressor struct {
	Name           string // 备份文件后缀, 如 xz
	Program        string // 可执行文件名, 如 xz
	CompressArgs   []string
	DecompressArgs []string
}

// compressors 支持的压缩算法, 启动后不再修改
var compressors = map[string]Compressor{
	"xz": {
		Name:           "xz",
		Program:        "xz",
		CompressArgs:   []string{"-cz", "-T0"},
		DecompressArgs: []string{"-d", "-T0"},
	},
	// bzip2 不支持多线程
	"bz2": {
		Name:           "bz2",
		Program:        "bzip2",
		CompressArgs:   []string{"-cz"},
		DecompressArgs: []string{"-d"},
	},
	"zstd": {
		Name:           "zstd",
		Program:        "zstd",
		CompressArgs:   []string{"-cz", "-T0"},
		DecompressArgs: []string{"-d", "-T0"},
	},
}

// lookupCompressor 按名称查找压缩算法
func lookupCompressor(name string) (Compressor, error) {
	c, ok := compressors[name]
	if !ok {
		return Compressor{}, fmt.Errorf("%w %q (可选: %s)", ErrUnknownCompressor, name, strings.Join(compressorNames(), ", "))
	}
	return c, nil
}

func compressorNames() []string {
	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c Compressor) CompressCommand() string {
	return strings.Join(append([]string{c.Program}, c.CompressArgs...), " ")
}

func (c Compressor) DecompressCommand() string {
	return strings.Join(append([]string{c.Program}, c.DecompressArgs...), " ")
}

// CompressCmd 构造压缩过滤进程, 由调用方连接 stdin/stdout
func (c Compressor) CompressCmd(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, c.Program, c.CompressArgs...)
}

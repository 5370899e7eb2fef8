package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"
)

// Pipeline 数据源进程 | 压缩进程 > Output
type Pipeline struct {
	Source     Source
	Compressor Compressor
	Output     string
	Verbose    bool
}

// String 等价的 shell 命令, 仅用于展示
func (p *Pipeline) String() string {
	var sb strings.Builder
	sb.WriteString(shellquote.Join(p.Source.Command(context.Background()).Args...))
	sb.WriteString(" | ")
	sb.WriteString(shellquote.Join(p.Compressor.CompressCmd(context.Background()).Args...))
	sb.WriteString(" > ")
	sb.WriteString(shellquote.Join(p.Output))
	return sb.String()
}

// Run 同时启动两个进程并等待全部退出, 压缩结果写入 out.
// 任一进程失败时取消另一个, 返回最先出现的错误
func (p *Pipeline) Run(ctx context.Context, out io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)

	producer := p.Source.Command(gctx)
	filter := p.Compressor.CompressCmd(gctx)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("创建管道失败: %w", err)
	}
	producer.Stdout = pw
	filter.Stdin = pr
	filter.Stdout = out

	producerStderr := captureStderr(producer, p.Verbose)
	filterStderr := captureStderr(filter, false)

	if err := producer.Start(); err != nil {
		pr.Close()
		pw.Close()
		return &CommandError{Name: producer.Args[0], Args: producer.Args[1:], Err: err}
	}
	if err := filter.Start(); err != nil {
		pr.Close()
		pw.Close()
		producer.Process.Kill()
		producer.Wait()
		return &CommandError{Name: filter.Args[0], Args: filter.Args[1:], Err: err}
	}

	// 子进程已持有管道两端, 父进程必须关闭自己的副本, 否则压缩进程读不到 EOF
	pr.Close()
	pw.Close()

	g.Go(func() error {
		if err := producer.Wait(); err != nil {
			return &CommandError{Name: producer.Args[0], Args: producer.Args[1:], Stderr: producerStderr.String(), Err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := filter.Wait(); err != nil {
			return &CommandError{Name: filter.Args[0], Args: filter.Args[1:], Stderr: filterStderr.String(), Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	// 调用方取消时进程可能以 0 退出但输出不完整
	return ctx.Err()
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/schollz/progressbar/v3"
)

// stderrLimit 每个子进程最多保留的错误输出
const stderrLimit = 64 << 10

// CommandError 子进程启动失败或以非零状态退出
type CommandError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("命令执行失败 (%s): %v", e.Name, e.Err)
	}
	return fmt.Sprintf("命令执行失败 (%s): %v, 输出: %s", e.Name, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode 返回子进程退出码, 未能运行时为 -1
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func checkRoot() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("请以root权限运行")
	}
	return nil
}

// runCommand 执行系统命令并返回结果
func runCommand(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", &CommandError{Name: name, Args: args, Stderr: string(bytes.TrimSpace(output)), Err: err}
	}
	return string(output), nil
}

// limitedBuffer 只保留前 limit 字节, 写入永远成功
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return string(bytes.TrimSpace(b.buf.Bytes()))
}

// captureStderr 捕获子进程错误输出.
// verbose 时 tar 的文件列表也走 stderr, 直接输出到终端不再保留
func captureStderr(cmd *exec.Cmd, verbose bool) *limitedBuffer {
	buf := &limitedBuffer{limit: stderrLimit}
	if verbose {
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = buf
	}
	return buf
}

func newBackupProgressBar(quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultBytesSilent(-1, "正在压缩")
	}
	return progressbar.DefaultBytes(-1, "正在压缩")
}

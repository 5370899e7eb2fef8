package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const timestampLayout = "20060102-150405"

var ErrInvalidPath = errors.New("路径无效")

// now 记录任务开始时间, 测试中可替换
var now = time.Now

// Options 一次备份的参数
type Options struct {
	Compressor   string
	Destination  string
	Dir          string
	Incremental  bool // 尚未实现, 只接受不生效
	Verbose      bool
	Quiet        bool
	Excludes     []string
	BeforeScript string
	AfterScript  string
	ServiceNames []string
}

// Job 目录备份任务, 每次调用创建一个
type Job struct {
	Options
	Start time.Time

	compressor Compressor
}

// NewJob 解析压缩算法并记录开始时间, 不启动任何子进程
func NewJob(opts Options) (*Job, error) {
	if opts.Compressor == "" {
		opts.Compressor = defaultCompressor
	}
	if opts.Destination == "" {
		opts.Destination = "."
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("%w: 备份目录不能为空", ErrInvalidPath)
	}

	c, err := lookupCompressor(opts.Compressor)
	if err != nil {
		return nil, err
	}

	return &Job{
		Options:    opts,
		Start:      now(),
		compressor: c,
	}, nil
}

func (j *Job) Timestamp() string {
	return j.Start.Format(timestampLayout)
}

func (j *Job) source(extraExcludes ...string) tarSource {
	excludes := append(append([]string(nil), j.Excludes...), extraExcludes...)
	return tarSource{Dir: j.Dir, Excludes: excludes, Verbose: j.Verbose}
}

// Filename <destination>/<目录名>-<时间戳>.tar.<压缩算法>
func (j *Job) Filename() string {
	name := fmt.Sprintf("%s-%s.tar.%s", j.source().Name(), j.Timestamp(), j.compressor.Name)
	return filepath.Join(j.Destination, name)
}

func (j *Job) Pipeline() *Pipeline {
	return j.pipeline()
}

func (j *Job) pipeline(extraExcludes ...string) *Pipeline {
	return &Pipeline{
		Source:     j.source(extraExcludes...),
		Compressor: j.compressor,
		Output:     j.Filename(),
		Verbose:    j.Verbose,
	}
}

// Validate 备份目录和输出目录都必须是已存在的目录
func (j *Job) Validate() error {
	for _, dir := range []struct{ desc, path string }{
		{"备份目录", j.Dir},
		{"输出目录", j.Destination},
	} {
		info, err := os.Stat(dir.path)
		if err != nil {
			return fmt.Errorf("%w: 读取%s失败 (%s): %v", ErrInvalidPath, dir.desc, dir.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s不是目录 (%s)", ErrInvalidPath, dir.desc, dir.path)
		}
	}
	return nil
}

// Backup 执行 tar | 压缩 > 文件.
// 输出先写入目标目录下的临时文件, 两个进程都成功后才重命名为最终文件名
func (j *Job) Backup(ctx context.Context) (err error) {
	if err := j.Validate(); err != nil {
		return err
	}
	if j.Incremental {
		log.Warn("增量备份尚未实现, 将执行完整备份")
	}

	if len(j.ServiceNames) > 0 {
		if err := checkRoot(); err != nil {
			return err
		}
		paused, perr := pauseServices(j.ServiceNames)
		defer func() {
			if rerr := resumeServices(paused); rerr != nil && err == nil {
				err = fmt.Errorf("恢复服务失败: %w", rerr)
			}
		}()
		if perr != nil {
			return fmt.Errorf("暂停服务失败: %w", perr)
		}
	}

	if err := runScript(j.BeforeScript, scriptBefore); err != nil {
		return err
	}

	filename := j.Filename()
	tmp, err := os.CreateTemp(j.Destination, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	pipeline := j.pipeline(j.selfExcludes(tmp.Name(), filename)...)
	log.Info("开始备份", "dir", j.Dir, "compress", j.compressor.Name, "output", filename)
	log.Debug("备份命令", "pipeline", pipeline.String())

	bar := newBackupProgressBar(j.Quiet)
	if err := pipeline.Run(ctx, io.MultiWriter(tmp, bar)); err != nil {
		bar.Exit()
		return fmt.Errorf("备份失败: %w", err)
	}
	bar.Finish()

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("重命名输出文件失败: %w", err)
	}
	committed = true

	if info, err := os.Stat(filename); err == nil {
		log.Info("备份完成", "file", filename, "bytes", info.Size())
	}

	return runScript(j.AfterScript, scriptAfter)
}

// selfExcludes 输出目录位于备份目录内时, 排除正在写入的文件
func (j *Job) selfExcludes(paths ...string) []string {
	absDir, err := filepath.Abs(j.Dir)
	if err != nil {
		return nil
	}
	absDest, err := filepath.Abs(j.Destination)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(absDir, absDest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	excludes := make([]string, 0, len(paths))
	for _, p := range paths {
		excludes = append(excludes, filepath.Base(p))
	}
	return excludes
}

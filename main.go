package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// usageError 命令行参数错误
type usageError struct {
	error
}

func (e usageError) Unwrap() error {
	return e.error
}

func main() {
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.DateTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Error("执行失败", "err", err)
		os.Exit(exitCode(err))
	}
}

// exitCode 配置或参数错误返回 2, 执行失败返回 1
func exitCode(err error) int {
	var usageErr usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usageErr),
		errors.Is(err, ErrUnknownCompressor),
		errors.Is(err, ErrInvalidPath),
		errors.Is(err, ErrInvalidConfig):
		return 2
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	version := "(devel)"
	if debugInfo, ok := debug.ReadBuildInfo(); ok {
		version = debugInfo.Main.Version
	}

	rootCmd := &cobra.Command{
		Use:           "tarbak",
		Short:         "目录压缩备份工具",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			levelName, _ := cmd.Flags().GetString("log-level")
			level, err := log.ParseLevel(levelName)
			if err != nil {
				return usageError{fmt.Errorf("日志级别无效 %q: %w", levelName, err)}
			}
			log.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "配置文件路径 (YAML, 可选)")
	rootCmd.PersistentFlags().String("log-level", "info", "日志级别 (debug|info|warn|error)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(newBackupFilesCmd())
	return rootCmd
}

func newBackupFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup_files DIR",
		Short: "备份指定目录下的文件",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			opts := Options{
				Compressor:   cfg.Compress,
				Destination:  cfg.Destination,
				Dir:          args[0],
				Excludes:     cfg.Excludes(),
				BeforeScript: cfg.BeforeScript,
				AfterScript:  cfg.AfterScript,
				ServiceNames: cfg.ServiceNames,
			}
			if cmd.Flags().Changed("compress") {
				opts.Compressor, _ = cmd.Flags().GetString("compress")
			}
			if cmd.Flags().Changed("destination") {
				opts.Destination, _ = cmd.Flags().GetString("destination")
			}
			opts.Incremental, _ = cmd.Flags().GetBool("incremental")
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")
			opts.Quiet, _ = cmd.Flags().GetBool("quiet")

			job, err := NewJob(opts)
			if err != nil {
				return err
			}

			if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
				if err := job.Validate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), job.Pipeline())
				return nil
			}

			return job.Backup(cmd.Context())
		},
	}

	cmd.Flags().BoolP("incremental", "i", false, "增量备份 (尚未实现)")
	cmd.Flags().StringP("compress", "c", defaultCompressor, fmt.Sprintf("压缩算法 (%s)", strings.Join(compressorNames(), "|")))
	cmd.Flags().StringP("destination", "d", ".", "备份输出目录")
	cmd.Flags().BoolP("verbose", "v", false, "输出 tar 文件列表")
	cmd.Flags().BoolP("quiet", "q", false, "不显示进度条")
	cmd.Flags().BoolP("dry-run", "n", false, "只打印备份命令, 不执行")

	return cmd
}

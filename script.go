package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	scriptBefore = "before"
	scriptAfter  = "after"
)

// runScript 执行前置或后置脚本, 内容为空时跳过
func runScript(scriptContent, scriptType string) error {
	if strings.TrimSpace(scriptContent) == "" {
		log.Debug("未配置脚本", "type", scriptType)
		return nil
	}

	result, err := runCommand("sh", "-c", scriptContent)
	if err != nil {
		return fmt.Errorf("执行 %s 脚本失败: %w", scriptType, err)
	}

	if out := strings.TrimSpace(result); out != "" {
		log.Info("脚本输出", "type", scriptType, "output", out)
	}
	log.Info("脚本执行完成", "type", scriptType)
	return nil
}

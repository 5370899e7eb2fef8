package main

import (
	"github.com/charmbracelet/log"
)

// systemctl 可在测试中替换
var systemctl = func(action, serviceName string) error {
	_, err := runCommand("systemctl", action, serviceName)
	return err
}

// 暂停服务
func pauseService(serviceName string) error {
	if err := systemctl("stop", serviceName); err != nil {
		return err
	}
	log.Info("服务已暂停", "service", serviceName)
	return nil
}

// pauseServices 依次暂停, 返回已暂停的服务以便失败时恢复
func pauseServices(serviceNames []string) ([]string, error) {
	paused := make([]string, 0, len(serviceNames))
	for _, serviceName := range serviceNames {
		if err := pauseService(serviceName); err != nil {
			return paused, err
		}
		paused = append(paused, serviceName)
	}
	return paused, nil
}

// 恢复服务
func resumeService(serviceName string) error {
	if err := systemctl("start", serviceName); err != nil {
		return err
	}
	log.Info("服务已恢复", "service", serviceName)
	return nil
}

// resumeServices 按暂停的逆序恢复, 单个失败不影响其余服务
func resumeServices(serviceNames []string) error {
	var firstErr error
	for i := len(serviceNames) - 1; i >= 0; i-- {
		if err := resumeService(serviceNames[i]); err != nil {
			log.Error("恢复服务失败", "service", serviceNames[i], "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

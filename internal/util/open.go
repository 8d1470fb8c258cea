package util

import (
	"os/exec"
	"runtime"
)

// openCommand 按平台构造打开命令
func openCommand(goos, target string) *exec.Cmd {
	switch goos {
	case "windows":
		// Windows 7+ 兼容方式：使用 rundll32 调用 url.dll
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "darwin":
		return exec.Command("open", target)
	default:
		return exec.Command("xdg-open", target)
	}
}

// Open 用系统默认程序打开文件或链接（生成的 PNG / PPTX）
func Open(target string) error {
	return openCommand(runtime.GOOS, target).Start()
}

// OpenWithFallback 主要方式失败时尝试备选方式
func OpenWithFallback(target string) error {
	err := Open(target)
	if err == nil {
		return nil
	}

	// 降级方案
	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", target).Start()
	case "linux":
		for _, viewer := range []string{"gio", "gnome-open", "kde-open"} {
			args := []string{target}
			if viewer == "gio" {
				args = []string{"open", target}
			}
			if err := exec.Command(viewer, args...).Start(); err == nil {
				return nil
			}
		}
	}

	return err
}

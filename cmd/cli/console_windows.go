//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

func init() {
	// The summary uses box-drawing icons and severity colors. Switch the
	// console to UTF-8 so the icons survive cmd.exe and PowerShell.
	const cpUTF8 = 65001
	windows.SetConsoleOutputCP(cpUTF8)
	windows.SetConsoleCP(cpUTF8)

	// ANSI colors need virtual terminal processing on Windows 10+.
	// Only stderr carries styled text; stdout may hold the JUnit document.
	if h, err := windows.GetStdHandle(windows.STD_ERROR_HANDLE); err == nil {
		var mode uint32
		if windows.GetConsoleMode(h, &mode) == nil {
			_ = windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
		}
	}
}

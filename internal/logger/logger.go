// Package logger: единый вывод логов quadctl с префиксом, учётом quiet и verbose.
package logger

import "log"

const prefix = "quadctl: "

// Quiet при true отключает информационные сообщения (Info, Debug); Error выводится всегда.
var Quiet bool

// Verbose включает Debug (по циклам управления, очень много строк при 100 Гц).
var Verbose bool

// Info выводит сообщение с префиксом "quadctl: ", если Quiet == false.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf(prefix+format, args...)
}

// Debug выводит сообщение только при Verbose и !Quiet.
func Debug(format string, args ...interface{}) {
	if Quiet || !Verbose {
		return
	}
	log.Printf(prefix+"debug: "+format, args...)
}

// Error выводит сообщение об ошибке с префиксом "quadctl: " всегда.
func Error(format string, args ...interface{}) {
	log.Printf(prefix+format, args...)
}

// Package utils предоставляет простой файловый логгер для CLI утилит.
//
// Логгер создаёт .log файл в текущей директории с timestamp в имени.
// До вызова InitLogger все вызовы Info/Warn/Error/Debug — no-op,
// поэтому библиотечный код можно логировать без инициализации в тестах.
// Thread-safe через sync.Mutex.
package utils

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultLogPrefix — префикс имени лог-файла по умолчанию.
const DefaultLogPrefix = "selcat"

var (
	logFile      *os.File
	logMutex     sync.Mutex
	debugEnabled bool
)

// InitLogger создает/открывает .log файл в текущей директории.
//
// Имя файла: <prefix>-YYYY-MM-DD-HH-MM.log (например, selcat-2025-12-27-15-30.log).
// Повторный вызов ничего не делает.
func InitLogger(prefix string) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		return nil
	}
	if prefix == "" {
		prefix = DefaultLogPrefix
	}

	filename := fmt.Sprintf("%s-%s.log", prefix, time.Now().Format("2006-01-02-15-04"))

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	// Пишем напрямую без Info, мьютекс уже захвачен
	writeLine("INFO", "Logger initialized", "file", filename)
	return nil
}

// SetDebug включает или выключает запись DEBUG сообщений.
func SetDebug(enabled bool) {
	logMutex.Lock()
	defer logMutex.Unlock()
	debugEnabled = enabled
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	log("INFO", msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	log("WARN", msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	log("ERROR", msg, keyvals...)
}

// Debug - отладочное сообщение. Пишется только после SetDebug(true).
func Debug(msg string, keyvals ...any) {
	logMutex.Lock()
	enabled := debugEnabled
	logMutex.Unlock()

	if enabled {
		log("DEBUG", msg, keyvals...)
	}
}

func log(level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil {
		return
	}
	writeLine(level, msg, keyvals...)
}

// writeLine пишет строку формата
// [YYYY-MM-DD HH:MM:SS] LEVEL: message key1=value1 key2=value2.
// Вызывающий держит logMutex. При ошибке записи — fallback на stderr.
func writeLine(level, msg string, keyvals ...any) {
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("2006-01-02 15:04:05"), level, msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	line += "\n"

	if _, err := logFile.WriteString(line); err != nil {
		fmt.Fprint(os.Stderr, line)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
	}
}

// Close закрывает лог-файл.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
	}
}

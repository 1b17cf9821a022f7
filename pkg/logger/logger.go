package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Category represents a log category
type Category string

const (
	CategoryStartup   Category = "startup"
	CategoryAPI       Category = "api"
	CategoryAuth      Category = "auth"
	CategoryDB        Category = "db"
	CategoryNews      Category = "news"
	CategoryMedia     Category = "media"
	CategoryStorage   Category = "storage"
	CategoryCache     Category = "cache"
	CategoryScheduler Category = "scheduler"
	CategoryWebSocket Category = "websocket"
)

var allCategories = []Category{
	CategoryStartup, CategoryAPI, CategoryAuth, CategoryDB, CategoryNews,
	CategoryMedia, CategoryStorage, CategoryCache, CategoryScheduler, CategoryWebSocket,
}

// Level represents log level
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     Level                  `json:"level"`
	Category  Category               `json:"category"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Duration  string                 `json:"duration,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger writes one JSON line per entry into a per-category, per-day file.
// An empty logDir disables file output.
type Logger struct {
	mu      sync.Mutex
	logDir  string
	writers map[Category]*os.File
	console bool
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// Init initializes the default logger
func Init(logDir string, console bool) error {
	l, err := NewLogger(logDir, console)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return nil
}

// NewLogger creates a new logger
func NewLogger(logDir string, console bool) (*Logger, error) {
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return &Logger{
		logDir:  logDir,
		writers: make(map[Category]*os.File),
		console: console,
	}, nil
}

func (l *Logger) getWriter(category Category) (io.Writer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	filename := fmt.Sprintf("%s_%s.log", category, time.Now().Format("2006-01-02"))

	if writer, exists := l.writers[category]; exists {
		if filepath.Base(writer.Name()) == filename {
			return writer, nil
		}
		writer.Close()
	}

	file, err := os.OpenFile(filepath.Join(l.logDir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l.writers[category] = file
	return file, nil
}

// Log writes a log entry
func (l *Logger) Log(entry LogEntry) {
	entry.Timestamp = time.Now()

	if l.logDir != "" {
		jsonData, err := json.Marshal(entry)
		if err != nil {
			fmt.Printf("Error marshaling log entry: %v\n", err)
			return
		}

		writer, err := l.getWriter(entry.Category)
		if err != nil {
			fmt.Printf("Error getting log writer: %v\n", err)
		} else {
			fmt.Fprintln(writer, string(jsonData))
		}
	}

	if l.console {
		l.printToConsole(entry)
	}
}

var levelColors = map[Level]string{
	LevelDebug: "\033[36m",
	LevelInfo:  "\033[32m",
	LevelWarn:  "\033[33m",
	LevelError: "\033[31m",
}

func (l *Logger) printToConsole(entry LogEntry) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]\033[0m [%s] [%s] %s: %s",
		levelColors[entry.Level],
		entry.Level,
		entry.Timestamp.Format("15:04:05.000"),
		entry.Category,
		entry.Action,
		entry.Message,
	)

	if entry.UserID != "" {
		fmt.Fprintf(&b, " (user: %s)", entry.UserID)
	}
	if entry.Duration != "" {
		fmt.Fprintf(&b, " (duration: %s)", entry.Duration)
	}
	if entry.Error != "" {
		fmt.Fprintf(&b, " ERROR: %s", entry.Error)
	}
	if len(entry.Data) > 0 {
		dataJSON, _ := json.Marshal(entry.Data)
		fmt.Fprintf(&b, " %s", dataJSON)
	}
	fmt.Println(b.String())
}

// Close closes all file writers
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.writers {
		writer.Close()
	}
	l.writers = make(map[Category]*os.File)
}

// Default returns the default logger. Until Init is called it only prints to the console.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger, _ = NewLogger("", os.Getenv("LOG_CONSOLE") != "false")
	}
	return defaultLogger
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func write(level Level, category Category, action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{
		Level:    level,
		Category: category,
		Action:   action,
		Message:  message,
		Error:    errString(err),
		Data:     data,
	})
}

// Startup logs startup/initialization events
func Startup(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryStartup, action, message, nil, data)
}

func StartupWarn(action, message string, data map[string]interface{}) {
	write(LevelWarn, CategoryStartup, action, message, nil, data)
}

func StartupError(action, message string, err error, data map[string]interface{}) {
	write(LevelError, CategoryStartup, action, message, err, data)
}

// API logs API request/response events
func API(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryAPI, action, message, nil, data)
}

// DB logs database operations
func DB(action, message string, data map[string]interface{}) {
	write(LevelDebug, CategoryDB, action, message, nil, data)
}

func Auth(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryAuth, action, message, nil, data)
}

func AuthError(action, message string, err error, data map[string]interface{}) {
	write(LevelError, CategoryAuth, action, message, err, data)
}

// News logs article lifecycle events
func News(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryNews, action, message, nil, data)
}

func NewsError(action, message string, err error, data map[string]interface{}) {
	write(LevelError, CategoryNews, action, message, err, data)
}

// Media logs attachment ordering and principal changes
func Media(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryMedia, action, message, nil, data)
}

func MediaError(action, message string, err error, data map[string]interface{}) {
	write(LevelError, CategoryMedia, action, message, err, data)
}

// Storage logs blob store operations
func Storage(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryStorage, action, message, nil, data)
}

func StorageWarn(action, message string, err error, data map[string]interface{}) {
	write(LevelWarn, CategoryStorage, action, message, err, data)
}

func Cache(action, message string, data map[string]interface{}) {
	write(LevelDebug, CategoryCache, action, message, nil, data)
}

func CacheError(action, message string, err error, data map[string]interface{}) {
	write(LevelError, CategoryCache, action, message, err, data)
}

func Scheduler(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryScheduler, action, message, nil, data)
}

func SchedulerWarn(action, message string, data map[string]interface{}) {
	write(LevelWarn, CategoryScheduler, action, message, nil, data)
}

func SchedulerError(action, message string, err error, data map[string]interface{}) {
	write(LevelError, CategoryScheduler, action, message, err, data)
}

func WebSocket(action, message string, data map[string]interface{}) {
	write(LevelInfo, CategoryWebSocket, action, message, nil, data)
}

func WebSocketError(action, message string, err error, data map[string]interface{}) {
	write(LevelError, CategoryWebSocket, action, message, err, data)
}

// Info logs info level message
func Info(category Category, action, message string, data map[string]interface{}) {
	write(LevelInfo, category, action, message, nil, data)
}

// Error logs error level message
func Error(category Category, action, message string, err error, data map[string]interface{}) {
	write(LevelError, category, action, message, err, data)
}

// Debug logs debug level message
func Debug(category Category, action, message string, data map[string]interface{}) {
	write(LevelDebug, category, action, message, nil, data)
}

// Warn logs warning level message
func Warn(category Category, action, message string, data map[string]interface{}) {
	write(LevelWarn, category, action, message, nil, data)
}

// GetTypeName returns the dynamic type of v for diagnostics.
func GetTypeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}

// ReadLogsOptions options for reading logs
type ReadLogsOptions struct {
	Category Category // empty = all
	Level    Level    // empty = all
	Lines    int      // default 100, max 1000
	Search   string   // matched against the whole JSON line
}

// ReadLogs reads today's log entries from the default logger's directory
func ReadLogs(opts ReadLogsOptions) ([]LogEntry, error) {
	return Default().ReadLogs(opts)
}

func (l *Logger) ReadLogs(opts ReadLogsOptions) ([]LogEntry, error) {
	if opts.Lines <= 0 {
		opts.Lines = 100
	}
	if opts.Lines > 1000 {
		opts.Lines = 1000
	}
	if l.logDir == "" {
		return []LogEntry{}, nil
	}

	categories := allCategories
	if opts.Category != "" {
		categories = []Category{opts.Category}
	}

	today := time.Now().Format("2006-01-02")
	search := strings.ToLower(opts.Search)
	entries := make([]LogEntry, 0)

	for _, cat := range categories {
		file, err := os.Open(filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", cat, today)))
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var entry LogEntry
			if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
				continue
			}
			if opts.Level != "" && entry.Level != opts.Level {
				continue
			}
			// the raw line covers message, action, error and data values
			if search != "" && !strings.Contains(strings.ToLower(scanner.Text()), search) {
				continue
			}
			entries = append(entries, entry)
		}
		file.Close()
	}

	// newest first
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if len(entries) > opts.Lines {
		entries = entries[:opts.Lines]
	}
	return entries, nil
}

// GetLogDir returns the log directory path
func GetLogDir() string {
	return Default().logDir
}

// ListLogFiles returns the .log files in the default logger's directory
func ListLogFiles() ([]string, error) {
	return Default().ListLogFiles()
}

func (l *Logger) ListLogFiles() ([]string, error) {
	files := make([]string, 0)
	if l.logDir == "" {
		return files, nil
	}

	entries, err := os.ReadDir(l.logDir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".log" {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

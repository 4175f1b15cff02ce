package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Format selects the production logger's output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Level gates which severities are emitted.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ProductionLogger writes structured log lines to an io writer (stdout by
// default), optionally bound to a component name and baseline fields.
type ProductionLogger struct {
	out       *os.File
	format    Format
	minLevel  Level
	component string
	base      map[string]interface{}
	mu        *sync.Mutex

	metricsEnabled bool
}

// NewProductionLogger builds a ProductionLogger writing to stdout.
func NewProductionLogger(format Format, minLevel Level) *ProductionLogger {
	l := &ProductionLogger{
		out:      os.Stdout,
		format:   format,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
	}
	trackLogger(l)
	return l
}

func (l *ProductionLogger) clone() *ProductionLogger {
	return &ProductionLogger{
		out:            l.out,
		format:         l.format,
		minLevel:       l.minLevel,
		component:      l.component,
		base:           l.base,
		mu:             l.mu,
		metricsEnabled: l.metricsEnabled,
	}
}

// WithComponent returns a child logger tagging every line with component.
func (l *ProductionLogger) WithComponent(component string) Logger {
	child := l.clone()
	child.component = component
	return child
}

// EnableMetrics turns on per-log-call counter emission through the global
// MetricsRegistry bridge, once telemetry has registered one.
func (l *ProductionLogger) EnableMetrics() {
	l.metricsEnabled = true
}

func (l *ProductionLogger) log(level Level, msg string, fields map[string]interface{}) {
	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.metricsEnabled {
		if registry := GetGlobalMetricsRegistry(); registry != nil {
			registry.Counter("log.lines", "level", string(level), "component", l.component)
		}
	}

	switch l.format {
	case FormatText:
		l.writeText(level, msg, fields)
	default:
		l.writeJSON(level, msg, fields)
	}
}

func (l *ProductionLogger) writeJSON(level Level, msg string, fields map[string]interface{}) {
	entry := make(map[string]interface{}, len(fields)+len(l.base)+4)
	for k, v := range l.base {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = string(level)
	entry["msg"] = msg
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	if l.component != "" {
		entry["component"] = l.component
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.out, `{"level":"error","msg":"log encode failed: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(l.out, string(enc))
}

func (l *ProductionLogger) writeText(level Level, msg string, fields map[string]interface{}) {
	ts := time.Now().UTC().Format(time.RFC3339)
	comp := l.component
	if comp == "" {
		comp = "-"
	}
	fmt.Fprintf(l.out, "%s level=%s component=%s msg=%q", ts, level, comp, msg)
	for k, v := range l.base {
		fmt.Fprintf(l.out, " %s=%v", k, v)
	}
	for k, v := range fields {
		fmt.Fprintf(l.out, " %s=%v", k, v)
	}
	fmt.Fprintln(l.out)
}

func (l *ProductionLogger) Info(msg string, fields map[string]interface{})  { l.log(LevelInfo, msg, fields) }
func (l *ProductionLogger) Error(msg string, fields map[string]interface{}) { l.log(LevelError, msg, fields) }
func (l *ProductionLogger) Warn(msg string, fields map[string]interface{})  { l.log(LevelWarn, msg, fields) }
func (l *ProductionLogger) Debug(msg string, fields map[string]interface{}) { l.log(LevelDebug, msg, fields) }

func withBaggage(ctx context.Context, fields map[string]interface{}) map[string]interface{} {
	registry := GetGlobalMetricsRegistry()
	if registry == nil {
		return fields
	}
	baggage := registry.GetBaggage(ctx)
	if len(baggage) == 0 {
		return fields
	}
	merged := make(map[string]interface{}, len(fields)+len(baggage))
	for k, v := range fields {
		merged[k] = v
	}
	for k, v := range baggage {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return merged
}

func (l *ProductionLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelInfo, msg, withBaggage(ctx, fields))
}
func (l *ProductionLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelError, msg, withBaggage(ctx, fields))
}
func (l *ProductionLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelWarn, msg, withBaggage(ctx, fields))
}
func (l *ProductionLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelDebug, msg, withBaggage(ctx, fields))
}

// Package logging implements ports.Logger: ConsoleLogger for the CLI and
// NopLogger where output is unwanted.
package logging

import (
	"context"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// NopLogger drops every entry. It still remembers its level so code that
// checks Level before building expensive fields behaves the same.
type NopLogger struct {
	level ports.Level
}

// NewNopLogger returns a NopLogger at Info.
func NewNopLogger() *NopLogger {
	return &NopLogger{level: ports.LevelInfo}
}

func (*NopLogger) Debug(context.Context, string, ...ports.Field) {}
func (*NopLogger) Info(context.Context, string, ...ports.Field) {}
func (*NopLogger) Warn(context.Context, string, ...ports.Field) {}
func (*NopLogger) Error(context.Context, string, ...ports.Field) {}

func (l *NopLogger) With(...ports.Field) ports.Logger { return l }

func (l *NopLogger) Level() ports.Level { return l.level }
func (l *NopLogger) SetLevel(level ports.Level) { l.level = level }

var _ ports.Logger = (*NopLogger)(nil)

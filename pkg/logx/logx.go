// Package logx is a thin leveled logging facade over zap. It exists so that
// application code can log without threading a logger through every
// constructor.
package logx

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

var (
	atom  = zap.NewAtomicLevelAt(LevelInfo)
	sugar = newLogger()
)

func newLogger() *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		atom,
	)
	return zap.New(core, zap.AddCallerSkip(1)).Sugar()
}

// SetLevel adjusts the minimum level for all subsequent log calls.
func SetLevel(l Level) { atom.SetLevel(l) }

func Debug(args ...any)                 { sugar.Debug(args...) }
func Debugf(format string, args ...any) { sugar.Debugf(format, args...) }
func Info(args ...any)                  { sugar.Info(args...) }
func Infof(format string, args ...any)  { sugar.Infof(format, args...) }
func Warn(args ...any)                  { sugar.Warn(args...) }
func Warnf(format string, args ...any)  { sugar.Warnf(format, args...) }
func Error(args ...any)                 { sugar.Error(args...) }
func Errorf(format string, args ...any) { sugar.Errorf(format, args...) }
func Fatal(args ...any)                 { sugar.Fatal(args...) }
func Fatalf(format string, args ...any) { sugar.Fatalf(format, args...) }

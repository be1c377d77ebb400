package main

import (
	"io"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newFileLogger returns a JSON logger writing to a size rotated file, and the file to
// close once done.
func newFileLogger(fn string, debug bool) (golog.Logger, io.Closer) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	out := &lumberjack.Logger{
		Filename:   fn,
		MaxSize:    50,
		MaxBackups: 3,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(out),
		level,
	)
	return zap.New(core).Sugar().Named("describe"), out
}

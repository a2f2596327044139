package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"adstream/internal/config"
)

func TestNew_LevelFallback(t *testing.T) {
	l, err := New(config.LogConfig{Level: "verbose", Encoding: "json"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !l.Core().Enabled(zapcore.InfoLevel) || l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("unknown level should fall back to info")
	}
}

func TestEncoderFor(t *testing.T) {
	if enc, ec := encoderFor("JSON"); enc != "json" || ec.TimeKey != "ts" {
		t.Fatalf("enc=%s timeKey=%s", enc, ec.TimeKey)
	}
	if enc, _ := encoderFor("text"); enc != "console" {
		t.Fatalf("enc=%s want=console", enc)
	}
}

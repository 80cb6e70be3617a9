package util

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func InitZapLog() *zap.Logger {
	config := zap.NewProductionConfig()
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime + ".000")
	config.Encoding = "console"
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logger, _ := config.Build()
	return logger
}

// InitZapLogWithFile 控制台 + 按启动时间命名的日志文件双输出
func InitZapLogWithFile(logDir string) (*zap.Logger, string) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return InitZapLog(), ""
	}

	logPath := filepath.Join(logDir, "fansync_"+time.Now().Format("20060102_150405")+".log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return InitZapLog(), ""
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime + ".000")

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	fileCfg := encCfg
	fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(os.Stderr), zap.DebugLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(file), zap.InfoLevel),
	)
	return zap.New(core), logPath
}

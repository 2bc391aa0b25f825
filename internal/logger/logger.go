// Package logger 全局日志
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "msg"

	var err error
	log, err = config.Build()
	if err != nil {
		panic(err)
	}
}

// Init 按配置的日志级别重建全局日志器
func Init(level string) error {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "msg"

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	l, err := config.Build()
	if err != nil {
		return err
	}
	log = l
	return nil
}

// L 获取全局日志器
func L() *zap.Logger {
	return log
}

// Op 开始一次服务层操作的日志包裹
// 返回的结束函数在操作退出时调用，无论成败都会记录结果与耗时。
// 常见用法是在具名返回值函数中 defer：
//
//	done := logger.Op("dept", "reparent")
//	defer func() { done(err, zap.Uint("dept_id", id)) }()
func Op(module, action string) func(err error, fields ...zap.Field) {
	start := time.Now()
	return func(err error, fields ...zap.Field) {
		fields = append(fields,
			zap.String("module", module),
			zap.String("action", action),
			zap.Duration("duration", time.Since(start)),
		)
		if err != nil {
			fields = append(fields, zap.Error(err))
			log.Warn("操作失败", fields...)
			return
		}
		log.Info("操作完成", fields...)
	}
}

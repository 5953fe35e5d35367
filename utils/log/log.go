package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel : "debug", "info", "warn", "error" 등. 파싱 실패 시 기존 레벨 유지
func SetLevel(level string) error {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lv)
	return nil
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func WithFields(fields map[string]any) *logrus.Entry {
	return logger.WithFields(logrus.Fields(fields))
}

func Debugf(format string, args ...any) { logger.Debugf(format, args...) }
func Infof(format string, args ...any)  { logger.Infof(format, args...) }
func Warnf(format string, args ...any)  { logger.Warnf(format, args...) }
func Errorf(format string, args ...any) { logger.Errorf(format, args...) }
func Fatalf(format string, args ...any) { logger.Fatalf(format, args...) }

func Debug(args ...any) { logger.Debug(args...) }
func Info(args ...any)  { logger.Info(args...) }
func Warn(args ...any)  { logger.Warn(args...) }
func Error(args ...any) { logger.Error(args...) }
func Fatal(args ...any) { logger.Fatal(args...) }

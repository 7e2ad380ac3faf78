package pkg

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger JSON 格式输出到 stdout，level 解析失败时退回 info
func NewLogger(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

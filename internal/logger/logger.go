package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

type Entry = logrus.Entry

type Fields = logrus.Fields

func Init() {
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	Log.SetOutput(os.Stdout)
	Log.SetLevel(levelFromEnv())
}

// levelFromEnv: DEBUG=true имеет приоритет, затем LOG_LEVEL, по умолчанию info.
func levelFromEnv() logrus.Level {
	if os.Getenv("DEBUG") == "true" {
		return logrus.DebugLevel
	}
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New creates the application logger writing to w.
// An unparseable level keeps Info and is reported through the returned logger.
func New(w io.Writer, levelStr string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	logger.SetLevel(logrus.InfoLevel)

	if levelStr == "" {
		return logger
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
		return logger
	}
	logger.SetLevel(level)
	return logger
}

// BadgerLogrusAdapter routes badger's internal logging into a logrus entry.
// Badger is chatty at Info, so Info is demoted to Debug.
type BadgerLogrusAdapter struct {
	*logrus.Entry
}

// NewBadgerLogrusAdapter creates a new adapter
func NewBadgerLogrusAdapter(entry *logrus.Entry) *BadgerLogrusAdapter {
	return &BadgerLogrusAdapter{entry}
}

func (l *BadgerLogrusAdapter) Errorf(f string, v ...interface{})   { l.Entry.Errorf(f, v...) }
func (l *BadgerLogrusAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warningf(f, v...) }
func (l *BadgerLogrusAdapter) Infof(f string, v ...interface{})    { l.Entry.Debugf(f, v...) }
func (l *BadgerLogrusAdapter) Debugf(f string, v ...interface{})   { l.Entry.Tracef(f, v...) }

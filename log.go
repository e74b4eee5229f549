package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures logrus and returns the writer used for access logs.
func setupLogging(level, file string) (io.Writer, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if file == "" {
		log.SetOutput(os.Stderr)
		return os.Stdout, nil
	}

	w := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    64, // MB
		MaxAge:     14,
		MaxBackups: 4,
		Compress:   true,
	}
	log.SetOutput(w)
	return w, nil
}

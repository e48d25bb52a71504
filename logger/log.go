// Package logger is the logger of the code generator.
package logger

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
)

const debugEnv = "CHERRY_DEBUG"

var logger *zap.SugaredLogger

func init() {
	Init(false)
}

// Init builds the logger; debug is also enabled by the CHERRY_DEBUG environment variable.
func Init(debug bool) {
	if !debug {
		envDebug := strings.ToLower(os.Getenv(debugEnv))
		debug = len(envDebug) > 0 && !(envDebug == "disable" || envDebug == "false")
	}

	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "console"
		config.DisableStacktrace = true
	}
	l, err := config.Build()
	if err != nil {
		log.Fatal(err)
	}
	zap.ReplaceGlobals(l)
	logger = l.Sugar()
}

func Debugw(msg string, keysAndValues ...any) {
	logger.Debugw(msg, keysAndValues...)
}

func Debugf(template string, args ...any) {
	logger.Debugf(template, args...)
}

func Infof(template string, args ...any) {
	logger.Infof(template, args...)
}

func Warnf(template string, args ...any) {
	logger.Warnf(template, args...)
}

func Sync() {
	_ = logger.Sync()
}

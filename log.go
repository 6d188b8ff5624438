package fvrpt

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	LOG_ERROR = 1
	LOG_INFO  = 2
	LOG_DEBUG = 3
	LOG_SPAM  = 4
)

var (
	logSpam  *log.Logger
	logDebug *log.Logger
	logInfo  *log.Logger
	logErr   *log.Logger
	maxLvl   int
)

func init() {
	InitLoggers(0, os.Stdout)
}

// InitLoggers sets the verbosity (0 silences everything) and where the output goes.
func InitLoggers(logLvl int, out io.Writer) {
	maxLvl = logLvl
	logSpam = log.New(out, "SPAM ", log.Ldate|log.Ltime|log.Lshortfile)
	logDebug = log.New(out, "DEBUG ", log.Ldate|log.Ltime|log.Lshortfile)
	logInfo = log.New(out, "INFO ", log.Ldate|log.Ltime|log.Lshortfile)
	logErr = log.New(out, "ERROR ", log.Ldate|log.Ltime|log.Lshortfile)
}

func Log(msgLvl int, printF string, args ...interface{}) {
	if msgLvl > maxLvl {
		return
	}
	switch msgLvl {
	case LOG_ERROR:
		logErr.Output(2, fmt.Sprintf(printF, args...))
	case LOG_INFO:
		logInfo.Output(2, fmt.Sprintf(printF, args...))
	case LOG_DEBUG:
		logDebug.Output(2, fmt.Sprintf(printF, args...))
	case LOG_SPAM:
		logSpam.Output(2, fmt.Sprintf(printF, args...))
	}
}

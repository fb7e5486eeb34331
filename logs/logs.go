package logs

import (
	"fmt"
	"io"
	"log"
	"os"
)

type Loggers struct {
	Info     *log.Logger
	Warn     *log.Logger
	Error    *log.Logger
	Critical *log.Logger
}

func New(logName string) *Loggers {
	lf, err := os.OpenFile(logName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(fmt.Sprintf("Unable to open log file: %v", err))
	}
	return NewWithWriter(lf)
}

// NewWithWriter is used by tests that need to capture diagnostic output.
func NewWithWriter(w io.Writer) *Loggers {
	l := Loggers{}
	l.Info = log.New(w, "INFO: ", log.LstdFlags)
	l.Warn = log.New(w, "WARN: ", log.LstdFlags)
	l.Error = log.New(w, "ERROR: ", log.LstdFlags)
	l.Critical = log.New(w, "CRIT: ", log.LstdFlags)
	return &l
}

package logger

import (
	"context"
	"fmt"
	"github.com/maxaizer/tutor-bot/internal/metrics"
	"github.com/maxaizer/tutor-bot/pkg/loki"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"path/filepath"
	"strconv"
)

const sourceField = "source"

// errorsHook counts logged errors by their error_type field.
type errorsHook struct {
	counter *prometheus.CounterVec
}

func (h errorsHook) Levels() []log.Level {
	return []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}
}

func (h errorsHook) Fire(entry *log.Entry) error {
	errorType, _ := entry.Data[ErrorTypeField].(string)
	if errorType == "" {
		errorType = "unknown"
	}
	h.counter.WithLabelValues(errorType).Inc()
	return nil
}

type entryPusher interface {
	Push(entry loki.LogEntry) error
}

// lokiHook forwards entries at minLevel or above. Entries logged by the pusher itself are skipped.
type lokiHook struct {
	pusher   entryPusher
	minLevel log.Level
}

func (h lokiHook) Levels() []log.Level {
	return log.AllLevels[:h.minLevel+1]
}

func (h lokiHook) Fire(entry *log.Entry) error {
	if entry.Data[sourceField] == "loki" {
		return nil
	}

	var caller string
	if entry.Caller != nil {
		caller = filepath.Base(entry.Caller.Function) + ":" + strconv.Itoa(entry.Caller.Line)
	}

	var fields map[string]string
	if len(entry.Data) > 0 {
		fields = make(map[string]string, len(entry.Data))
		for key, value := range entry.Data {
			fields[key] = fmt.Sprint(value)
		}
	}

	return h.pusher.Push(loki.LogEntry{
		Level:   entry.Level.String(),
		Message: entry.Message,
		Caller:  caller,
		Fields:  fields,
	})
}

// pusherLogger reports pusher failures to the local log only.
type pusherLogger struct{}

func (pusherLogger) Error(msg string, args ...any) {
	log.WithFields(log.Fields{"args": args, sourceField: "loki"}).Error(msg)
}

var lokiPusher *loki.Pusher

func addErrorsHook() {
	log.AddHook(errorsHook{counter: metrics.ErrorsCounter})
}

func addLokiHook(ctx context.Context, cfg loki.Config, minLevel log.Level) error {
	pusher, err := loki.New(ctx, cfg, pusherLogger{})
	if err != nil {
		return err
	}
	lokiPusher = pusher
	log.AddHook(lokiHook{pusher: pusher, minLevel: minLevel})
	log.Infof("Loki logging enabled, url: %s", cfg.Url)
	return nil
}

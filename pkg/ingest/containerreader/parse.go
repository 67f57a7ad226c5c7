package containerreader

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/grafana/nexlog/pkg/logrecord"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// payload unmarshals both JSON schemas spec.md §6 names at once: the flat
// form's keys are literal dotted strings ("log.level"), distinct from the
// nested form's object keys ("log"), so a single struct can hold both and
// fieldValue resolves nested-over-flat precedence per field.
type payload struct {
	Timestamp string `json:"@timestamp"`
	Message   string `json:"message"`

	LogLevelFlat          string `json:"log.level"`
	LogLoggerFlat         string `json:"log.logger"`
	ProcessThreadNameFlat string `json:"process.thread.name"`
	ServiceNameFlat       string `json:"service.name"`
	ServiceVersionFlat    string `json:"service.version"`
	CorrelationIDFlat     string `json:"correlation.id"`
	RequestIDFlat         string `json:"request.id"`
	ErrorMessageFlat      string `json:"error.message"`
	ErrorStackTraceFlat   string `json:"error.stack_trace"`

	Log *struct {
		Level  string `json:"level"`
		Logger string `json:"logger"`
	} `json:"log"`
	Process *struct {
		Thread *struct {
			Name string `json:"name"`
		} `json:"thread"`
	} `json:"process"`
	Service *struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"service"`
	Correlation *struct {
		ID string `json:"id"`
	} `json:"correlation"`
	Request *struct {
		ID string `json:"id"`
	} `json:"request"`
	Error *struct {
		Message    string `json:"message"`
		StackTrace string `json:"stack_trace"`
	} `json:"error"`
}

func (p *payload) level() string {
	if p.Log != nil && p.Log.Level != "" {
		return p.Log.Level
	}
	return p.LogLevelFlat
}

func (p *payload) logger() string {
	if p.Log != nil && p.Log.Logger != "" {
		return p.Log.Logger
	}
	return p.LogLoggerFlat
}

func (p *payload) thread() string {
	if p.Process != nil && p.Process.Thread != nil && p.Process.Thread.Name != "" {
		return p.Process.Thread.Name
	}
	return p.ProcessThreadNameFlat
}

func (p *payload) serviceName() string {
	if p.Service != nil && p.Service.Name != "" {
		return p.Service.Name
	}
	return p.ServiceNameFlat
}

func (p *payload) serviceVersion() string {
	if p.Service != nil && p.Service.Version != "" {
		return p.Service.Version
	}
	return p.ServiceVersionFlat
}

func (p *payload) correlationID() string {
	if p.Correlation != nil && p.Correlation.ID != "" {
		return p.Correlation.ID
	}
	return p.CorrelationIDFlat
}

func (p *payload) requestID() string {
	if p.Request != nil && p.Request.ID != "" {
		return p.Request.ID
	}
	return p.RequestIDFlat
}

func (p *payload) errorMessage() string {
	if p.Error != nil && p.Error.Message != "" {
		return p.Error.Message
	}
	return p.ErrorMessageFlat
}

func (p *payload) errorStackTrace() string {
	if p.Error != nil && p.Error.StackTrace != "" {
		return p.Error.StackTrace
	}
	return p.ErrorStackTraceFlat
}

// parseLine implements spec.md §6's container-log-reader parse contract:
// "<rfc3339-timestamp> <json-or-text-payload>". ok is false only when the
// line must be dropped outright (timestamp unparseable and no fallback
// available).
func parseLine(sourceID, line string) (*logrecord.Record, bool) {
	ts, rest, ok := splitTimestamp(line)
	if !ok {
		return nil, false
	}

	var p payload
	if err := jsonAPI.UnmarshalFromString(rest, &p); err != nil {
		return logrecord.NewLogRecord(logrecord.LevelUnknown, ts.UnixMilli(), rest, sourceID, logrecord.LogFields{}), true
	}

	message := p.Message
	if message == "" {
		message = rest
	}

	fields := logrecord.LogFields{
		Thread:         p.thread(),
		ServiceName:    p.serviceName(),
		ServiceVersion: p.serviceVersion(),
		Logger:         p.logger(),
		CorrelationID:  p.correlationID(),
		RequestID:      p.requestID(),
		ErrorMessage:   p.errorMessage(),
		Stacktrace:     p.errorStackTrace(),
	}

	return logrecord.NewLogRecord(logrecord.ParseLevel(p.level()), ts.UnixMilli(), message, sourceID, fields), true
}

// splitTimestamp peels the leading RFC3339 timestamp token off line, per
// "<rfc3339-timestamp> <payload>". ok is false if no whitespace-delimited
// leading token parses as RFC3339.
func splitTimestamp(line string) (ts time.Time, rest string, ok bool) {
	idx := -1
	for i, r := range line {
		if r == ' ' || r == '\t' {
			idx = i
			break
		}
	}
	if idx < 0 {
		t, err := time.Parse(time.RFC3339Nano, line)
		if err != nil {
			return time.Time{}, "", false
		}
		return t, "", true
	}

	t, err := time.Parse(time.RFC3339Nano, line[:idx])
	if err != nil {
		return time.Time{}, "", false
	}
	return t, line[idx+1:], true
}

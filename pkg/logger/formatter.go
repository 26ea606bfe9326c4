package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type CustomJSONFormatter struct {
	TimestampFormat string
	PrettyPrint     bool
	AppName         string
	Version         string
}

func (f *CustomJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Data)+6)

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = time.RFC3339
	}
	data["timestamp"] = entry.Time.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if f.AppName != "" {
		data["app"] = f.AppName
	}
	if f.Version != "" {
		data["version"] = f.Version
	}

	if entry.HasCaller() {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
		data["function"] = entry.Caller.Function
	}

	for k, v := range entry.Data {
		// errors don't marshal to anything useful
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}

	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	encoder := json.NewEncoder(b)
	if f.PrettyPrint {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON: %w", err)
	}

	return b.Bytes(), nil
}

// AuditLogger writes compliance records for emergency alerts. Output is
// always JSON so the records can be shipped as-is.
type AuditLogger struct {
	logger *Logger
}

func NewAuditLogger(config *Config) (*AuditLogger, error) {
	auditConfig := *config
	auditConfig.Format = "json"

	logger, err := NewLogger(&auditConfig)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		logger: logger,
	}, nil
}

// NewAuditLoggerFrom reuses an existing logger as the audit sink.
func NewAuditLoggerFrom(logger *Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

func (a *AuditLogger) LogAction(action, resource, userID string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"action":    action,
		"resource":  resource,
		"timestamp": time.Now().UTC(),
		"type":      "audit",
	}

	if userID != "" {
		fields["user_id"] = userID
	}

	for k, v := range details {
		fields[k] = v
	}

	a.logger.WithFields(fields).Info("Audit log entry")
}

func (a *AuditLogger) LogConfigChange(setting, oldValue, newValue, changedBy string) {
	fields := map[string]interface{}{
		"setting":   setting,
		"old_value": oldValue,
		"new_value": newValue,
		"type":      "config_change",
	}

	if changedBy != "" {
		fields["changed_by"] = changedBy
	}

	a.logger.WithFields(fields).Info("Configuration change logged")
}

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// LogrusLogger é a implementação concreta da interface Logger,
// com saída JSON estruturada via logrus.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogger cria e retorna uma nova instância do Logger escrevendo em stdout.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput permite direcionar os logs para outro destino (usado nos testes).
func NewWithOutput(level string, out io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	l.SetLevel(parseLevel(level))
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// NewNopLogger descarta tudo. Útil em testes que não inspecionam a saída.
func NewNopLogger() Logger {
	return NewWithOutput("error", io.Discard)
}

// parseLevel converte o LOG_LEVEL em nível do logrus. Valores desconhecidos caem em info.
func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Implementações da Interface Logger

func (l *LogrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, err error) {
	if err != nil {
		l.entry.WithError(err).Error(msg)
		return
	}
	l.entry.Error(msg)
}

// Fatal registra o erro e encerra o processo (os.Exit(1) via logrus).
func (l *LogrusLogger) Fatal(msg string, err error) {
	if err != nil {
		l.entry.WithError(err).Fatal(msg)
		return
	}
	l.entry.Fatal(msg)
}

package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/albeorla/task-pri-lite-sub001/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	redactedValue   = "[REDACTED]"
	redactedPattern = "[REDACTED:pattern]"
)

// Secret creates a field for a config.Secret that only reveals its length.
func Secret(key string, val config.Secret) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val.Value()))+"]")
}

// RedactedString creates a field with the value replaced by its length.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// redactor decides which fields and substrings never reach a sink.
type redactor struct {
	keys     map[string]bool
	patterns []*regexp.Regexp
}

func newRedactor(cfg RedactionConfig) (*redactor, error) {
	r := &redactor{keys: make(map[string]bool, len(cfg.Fields))}
	for _, f := range cfg.Fields {
		r.keys[strings.ToLower(f)] = true
	}
	for _, p := range cfg.Patterns {
		if len(p) > 200 {
			return nil, fmt.Errorf("redaction pattern too long (max 200 chars): %q", p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r *redactor) sensitiveKey(key string) bool {
	return r.keys[strings.ToLower(key)]
}

func (r *redactor) matches(s string) bool {
	for _, re := range r.patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// scrubText masks every pattern match inside free text such as a message.
func (r *redactor) scrubText(s string) string {
	for _, re := range r.patterns {
		s = re.ReplaceAllString(s, redactedPattern)
	}
	return s
}

// field returns f, or a string replacement when f would leak a secret.
func (r *redactor) field(f zapcore.Field) zapcore.Field {
	if r.sensitiveKey(f.Key) {
		return zap.String(f.Key, redactedValue)
	}
	switch f.Type {
	case zapcore.StringType:
		if r.matches(f.String) {
			return zap.String(f.Key, redactedPattern)
		}
	case zapcore.ByteStringType:
		if b, ok := f.Interface.([]byte); ok && r.matches(string(b)) {
			return zap.String(f.Key, redactedPattern)
		}
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && r.matches(err.Error()) {
			return zap.String(f.Key, r.scrubText(err.Error()))
		}
	}
	return f
}

// RedactingEncoder masks sensitive fields before the wrapped encoder sees
// them. Fields passed to a log call are rewritten in EncodeEntry; fields
// bound with Logger.With arrive through the Add methods.
type RedactingEncoder struct {
	zapcore.Encoder
	r *redactor
}

// NewRedactingEncoder wraps base. A disabled config returns a pass-through.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	if !cfg.Enabled {
		return &RedactingEncoder{Encoder: base, r: &redactor{}}, nil
	}
	r, err := newRedactor(cfg)
	if err != nil {
		return nil, err
	}
	return &RedactingEncoder{Encoder: base, r: r}, nil
}

// EncodeEntry rewrites the message and fields, then delegates.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ent.Message = e.r.scrubText(ent.Message)
	scrubbed := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		scrubbed[i] = e.r.field(f)
	}
	return e.Encoder.EncodeEntry(ent, scrubbed)
}

func (e *RedactingEncoder) AddString(key, val string) {
	e.r.field(zap.String(key, val)).AddTo(e.Encoder)
}

func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	e.r.field(zap.ByteString(key, val)).AddTo(e.Encoder)
}

func (e *RedactingEncoder) AddReflected(key string, val interface{}) error {
	if e.r.sensitiveKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.r.sensitiveKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), r: e.r}
}

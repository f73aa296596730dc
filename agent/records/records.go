package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	qstashx "github.com/tanpawarit/Chative-Voice-Booking/pkg/qstash"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// File is the append-only JSONL file; empty disables it.
	File       string `split_words:"true" default:"call_records.jsonl"`
	MaxSizeMB  int    `split_words:"true" default:"100"`
	MaxBackups int    `split_words:"true" default:"10"`
	// QStashDestination receives each record through QStash when set.
	QStashDestination string `envconfig:"QSTASH_DESTINATION" split_words:"true"`
}

var (
	_ contractx.RecordSink = (*JSONLSink)(nil)
	_ contractx.RecordSink = (*QStashSink)(nil)
	_ contractx.RecordSink = (*MultiSink)(nil)
)

// JSONLSink appends one JSON object per line to a size-rotated file.
type JSONLSink struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

func NewJSONLSink(path string, maxSizeMB, maxBackups int) (*JSONLSink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("records file path is required")
	}
	return &JSONLSink{out: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}}, nil
}

func (s *JSONLSink) Write(_ context.Context, rec contractx.CallRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal call record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(line); err != nil {
		return fmt.Errorf("append call record: %w", err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	return s.out.Close()
}

type Publisher interface {
	Publish(ctx context.Context, destination string, body []byte) (qstashx.PublishResult, error)
}

// QStashSink hands each record to QStash for delivery downstream.
type QStashSink struct {
	publisher   Publisher
	destination string
}

func NewQStashSink(publisher Publisher, destination string) (*QStashSink, error) {
	if publisher == nil {
		return nil, errors.New("qstash publisher is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("qstash destination is required")
	}
	return &QStashSink{publisher: publisher, destination: destination}, nil
}

func (s *QStashSink) Write(ctx context.Context, rec contractx.CallRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal call record: %w", err)
	}
	res, err := s.publisher.Publish(ctx, s.destination, body)
	if err != nil {
		return fmt.Errorf("publish call record: %w", err)
	}
	log.Debug().
		Str("session_id", rec.SessionID).
		Str("message_id", res.MessageID).
		Msg("call record published")
	return nil
}

// MultiSink writes to every sink and joins their errors. It remembers which
// sinks accepted a session's record, so a retried completion only goes to the
// sinks that failed.
type MultiSink struct {
	sinks []contractx.RecordSink

	mu        sync.Mutex
	delivered map[string]map[int]bool
}

func NewMultiSink(sinks ...contractx.RecordSink) *MultiSink {
	return &MultiSink{sinks: sinks, delivered: make(map[string]map[int]bool)}
}

func (m *MultiSink) Write(ctx context.Context, rec contractx.CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	done := m.delivered[rec.SessionID]
	var errs []error
	for i, s := range m.sinks {
		if done[i] {
			continue
		}
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
			continue
		}
		if done == nil {
			done = make(map[int]bool, len(m.sinks))
			m.delivered[rec.SessionID] = done
		}
		done[i] = true
	}
	if len(errs) > 0 {
		log.Warn().
			Str("session_id", rec.SessionID).
			Int("failed", len(errs)).
			Int("sinks", len(m.sinks)).
			Msg("call record partially persisted")
		return errors.Join(errs...)
	}
	delete(m.delivered, rec.SessionID)
	return nil
}

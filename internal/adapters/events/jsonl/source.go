// Package jsonl replays lifecycle events from a JSON-lines log, one event
// object per line.
package jsonl

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const (
	SourceTypeJSONL = "jsonl"

	maxLineBytes = 1 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Source struct {
	path   string
	open   func(string) (io.ReadCloser, error)
	logger ports.Logger
}

var _ ports.EventSource = (*Source)(nil)

// NewSource reads from path, or from stdin when path is "-".
func NewSource(path string, logger ports.Logger) (*Source, error) {
	if path == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "event log path cannot be empty", "Pass the event log file, or - for stdin.")
	}
	return &Source{
		path:   path,
		open:   openFile,
		logger: logger.WithFields(map[string]any{"component": "jsonl_events", "file_path": path}),
	}, nil
}

func openFile(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func (s *Source) Type() string {
	return SourceTypeJSONL
}

func (s *Source) Events(ctx context.Context, out chan<- domain.Event) error {
	r, err := s.open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WrapUserFacing(err, errors.CodeEventSourceError, "event log not found", "Check the event log path.")
		}
		return errors.Wrap(err, errors.CodeEventSourceError, "failed to open event log")
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line, sent := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var event domain.Event
		if err := json.UnmarshalFromString(text, &event); err != nil {
			return errors.Wrap(err, errors.CodeEventSourceError, "invalid event in log").WithDetails("line=%d", line)
		}
		if event.Kind == "" {
			return errors.New(errors.CodeEventSourceError, "event has no kind").WithDetails("line=%d", line)
		}
		kind, relation := domain.HookKind(string(event.Kind))
		event.Kind = kind
		if event.Relation != nil && event.Relation.Name == "" {
			event.Relation.Name = relation
		}
		select {
		case out <- event:
			sent++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.CodeEventSourceError, "failed to read event log").WithDetails("line=%d", line)
	}
	s.logger.Debugf(ctx, "Read %d events from %d lines", sent, line)
	return nil
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_TypedFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zerolog.DebugLevel)

	log.Info("resolved",
		String("provider", "yahoo"),
		Float64("price", 812.5),
		Int("attempts", 2),
		Bool("cached", false),
		Duration("elapsed", 1500*time.Millisecond),
		Strings("tried", []string{"twse_mis", "yahoo"}),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "resolved", got["message"])
	assert.Equal(t, "yahoo", got["provider"])
	assert.Equal(t, 812.5, got["price"])
	assert.Equal(t, 2.0, got["attempts"])
	assert.Equal(t, false, got["cached"])
	assert.Equal(t, 1500.0, got["elapsed"])
	assert.Equal(t, "twse_mis, yahoo", got["tried"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zerolog.WarnLevel)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown", Error(errors.New("boom")))
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zerolog.InfoLevel).With(String("component", "resolver"))
	log.Info("x")
	assert.Contains(t, buf.String(), `"component":"resolver"`)
}

func TestNew_FileOutputRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbdesk.log")
	log, err := New(&Config{Level: "info", Format: "json", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)
	log.Info("to file")
	assert.FileExists(t, path)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollector_AggregatesErrorsAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	log := Nop()
	log.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "cbdesk.logs",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		log.Error("parse ambiguous", String("provider", "goodinfo"), String("kind", "parse_ambiguous"))
	}
	log.Error("parse ambiguous", String("provider", "cb_table"), String("kind", "parse_ambiguous"))
	log.Warn("not collected", String("provider", "yahoo"))

	log.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, "cbdesk.logs", pub.topic)
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 2)

	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Fields["provider"].(string)] = e.Count
		assert.Equal(t, "error", e.Level)
	}
	assert.Equal(t, 3, counts["goodinfo"])
	assert.Equal(t, 1, counts["cb_table"])
}

func TestCollector_GroupByIgnoresOtherFields(t *testing.T) {
	pub := &capturePublisher{}
	log := Nop()
	log.AddCollector(&CollectionConfig{
		TimeInterval: time.Hour,
		Topic:        "cbdesk.logs",
		Publisher:    pub,
		GroupBy:      []string{"provider"},
	})

	for _, id := range []string{"2330", "6488", "3008"} {
		log.Error("parse ambiguous", String("provider", "goodinfo"), String("id", id))
	}
	log.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)
	assert.Equal(t, 3, pub.batches[0][0].Count)
	assert.Equal(t, "2330", pub.batches[0][0].Fields["id"])
}

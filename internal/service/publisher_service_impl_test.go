package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/fraud-scoring-pipeline/internal/decoder"
)

type sliceRows struct {
	rows []map[string]float64
	err  error
}

func (s *sliceRows) Next() (map[string]float64, error) {
	if len(s.rows) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

type recordingPublisher struct {
	payloads [][]byte
	failAt   int
}

func (p *recordingPublisher) Publish(_ context.Context, payload []byte) error {
	if p.failAt > 0 && len(p.payloads)+1 == p.failAt {
		p.failAt = 0
		return errors.New("leader not available")
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (*recordingPublisher) Close() error { return nil }

func fullRow(amount float64) map[string]float64 {
	row := map[string]float64{"Time": 0, "Amount": amount}
	for _, name := range []string{"V1", "V2", "V3", "V4", "V5", "V6", "V7", "V8", "V9", "V10",
		"V11", "V12", "V13", "V14", "V15", "V16", "V17", "V18", "V19", "V20",
		"V21", "V22", "V23", "V24", "V25", "V26", "V27", "V28"} {
		row[name] = 0.5
	}
	return row
}

func TestPublishDataset_PayloadsDecode(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewPublisherServiceImpl(pub)

	n, err := svc.PublishDataset(context.Background(), &sliceRows{rows: []map[string]float64{fullRow(149.62), fullRow(2.69)}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.payloads, 2)

	record, err := decoder.Decode(pub.payloads[0], 0)
	require.NoError(t, err)
	assert.Equal(t, 149.62, record.Amount())

	var fields map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[1], &fields))
	assert.Len(t, fields, 30)
}

func TestPublishDataset_SkipsFailedRow(t *testing.T) {
	pub := &recordingPublisher{failAt: 1}
	svc := NewPublisherServiceImpl(pub)

	n, err := svc.PublishDataset(context.Background(), &sliceRows{rows: []map[string]float64{fullRow(1), fullRow(2)}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPublishDataset_SourceError(t *testing.T) {
	svc := NewPublisherServiceImpl(&recordingPublisher{})

	_, err := svc.PublishDataset(context.Background(), &sliceRows{err: errors.New("bad csv")}, 0)
	assert.ErrorContains(t, err, "bad csv")
}

func TestPublishDataset_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &recordingPublisher{}
	svc := NewPublisherServiceImpl(pub)

	n, err := svc.PublishDataset(ctx, &sliceRows{rows: []map[string]float64{fullRow(1), fullRow(2), fullRow(3)}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the in-flight row completes")
}

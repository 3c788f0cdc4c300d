package stream

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	streamSeqBits = 20
	streamSeqMask = 1<<streamSeqBits - 1
	streamMaxMs   = 1<<(63-streamSeqBits) - 1
)

// PositionFromStreamID packs a Redis stream entry id "ms-seq" into a single
// monotonically increasing position.
func PositionFromStreamID(id string) (int64, error) {
	ms, seq, err := parseStreamID(id)
	if err != nil {
		return 0, err
	}

	if ms > streamMaxMs || seq > streamSeqMask {
		return 0, fmt.Errorf("stream id %q exceeds position range", id)
	}

	return int64(ms<<streamSeqBits | seq), nil
}

// StreamIDBefore returns the largest entry id strictly smaller than id.
func StreamIDBefore(id string) (string, error) {
	ms, seq, err := parseStreamID(id)
	if err != nil {
		return "", err
	}

	switch {
	case seq > 0:
		return fmt.Sprintf("%d-%d", ms, seq-1), nil
	case ms > 0:
		return fmt.Sprintf("%d-%d", ms-1, uint64(math.MaxUint64)), nil
	default:
		return "0-0", nil
	}
}

func parseStreamID(id string) (ms, seq uint64, err error) {
	msPart, seqPart, ok := strings.Cut(id, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid stream id %q", id)
	}

	if ms, err = strconv.ParseUint(msPart, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid stream id %q: %w", id, err)
	}

	if seq, err = strconv.ParseUint(seqPart, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid stream id %q: %w", id, err)
	}

	return ms, seq, nil
}

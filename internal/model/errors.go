package model

import "errors"

var (
	// ErrDecode is returned when a message payload cannot be decoded into a record.
	ErrDecode = errors.New("decode failed")
	// ErrScoring is returned when the model cannot score a record.
	ErrScoring = errors.New("scoring failed")
	// ErrModelLoad is returned when the model artifact cannot be loaded.
	ErrModelLoad = errors.New("model load failed")
	// ErrSchema is returned when the scored_payments table cannot be ensured.
	ErrSchema = errors.New("schema initialization failed")
	// ErrPersist is returned when a scored payment cannot be written.
	ErrPersist = errors.New("persist failed")
	// ErrCommit is returned when the log rejects a commit.
	ErrCommit = errors.New("commit failed")
	// ErrCommitWithoutPersist is returned when a commit is attempted for an unpersisted position.
	ErrCommitWithoutPersist = errors.New("commit attempted before persist")
	// ErrCommitRegression is returned when a commit would move the cursor backwards.
	ErrCommitRegression = errors.New("commit position regressed")
	// ErrPaymentNotFound is returned when no scored payment exists for an id.
	ErrPaymentNotFound = errors.New("scored payment not found")
	// ErrMultiPartitionTopic is returned when the consumed topic is split across partitions.
	ErrMultiPartitionTopic = errors.New("topic has more than one partition")
)

// Package model defines domain models and data structures.
package model

// FeatureCount is the width of the feature vector the scoring model expects.
const FeatureCount = 30

// AmountFeatureIndex is the position of Amount within the feature vector.
const AmountFeatureIndex = FeatureCount - 1

// FeatureNames lists the feature schema in the order the model was trained on.
var FeatureNames = [FeatureCount]string{
	"Time",
	"V1", "V2", "V3", "V4", "V5", "V6", "V7",
	"V8", "V9", "V10", "V11", "V12", "V13", "V14",
	"V15", "V16", "V17", "V18", "V19", "V20", "V21",
	"V22", "V23", "V24", "V25", "V26", "V27", "V28",
	"Amount",
}

// TransactionRecord represents one decoded message from the payment log.
type TransactionRecord struct {
	Position int64
	Features [FeatureCount]float64
}

// Amount returns the monetary amount of the transaction.
func (r *TransactionRecord) Amount() float64 {
	return r.Features[AmountFeatureIndex]
}

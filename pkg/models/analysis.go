package models

import "encoding/json"

// AnalysisResult is the structured outcome of a single-stock analysis run,
// as produced by the external analysis pipeline.
type AnalysisResult struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	OperationAdvice string  `json:"operation_advice"`
	SentimentScore  float64 `json:"sentiment_score"`
	TrendPrediction string  `json:"trend_prediction"`
	AnalysisSummary string  `json:"analysis_summary"`
	FullAnalysis    string  `json:"full_analysis"`

	// Dashboard is an optional nested structure whose shape is owned by the
	// analysis pipeline; it is carried through verbatim.
	Dashboard json.RawMessage `json:"dashboard,omitempty"`
}

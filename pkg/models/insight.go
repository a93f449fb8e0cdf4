package models

// Question is the body accepted by the question-answering endpoints.
type Question struct {
	Question string `json:"question"`
}

// Answer is the insight backend's response to a question.
// Sentiment, confidence and metrics are optional; the gateway relays
// whatever the backend produced without filling gaps.
type Answer struct {
	Text       string            `json:"text"`
	Sentiment  string            `json:"sentiment,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Metrics    map[string]string `json:"metrics,omitempty"`
}

// SentimentResult is the response of the sentiment-only endpoint.
type SentimentResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

package model

type CompareRequestBody struct {
	Doc1 Document `json:"doc1"`
	Doc2 Document `json:"doc2"`
	Mode string   `json:"mode"`
}

type ConvertResponse struct {
	Filename       string   `json:"filename"`
	Document       Document `json:"document"`
	Midi           []byte   `json:"midi"`
	Confidence     float64  `json:"confidence"`
	ProcessingTime float64  `json:"processing_time_ms"`
	Fallback       bool     `json:"fallback"`
	Cached         bool     `json:"cached"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

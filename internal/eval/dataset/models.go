package dataset

// Kinds of recorded AI responses
const (
	KindAnalysis        = "analysis"
	KindRecommendations = "recommendations"
)

// Sample is one recorded AI response kept for offline evaluation
type Sample struct {
	ID       string `json:"id" parquet:"id"`
	Kind     string `json:"kind" parquet:"kind"`
	Provider string `json:"provider,omitempty" parquet:"provider,optional"`
	Model    string `json:"model,omitempty" parquet:"model,optional"`
	Response string `json:"response" parquet:"response"`
}

package models

import "time"

// UploadedFile is an image received from a client. It only lives for the
// duration of a request.
type UploadedFile struct {
	Filename string
	MIMEType string
	Size     int64
	Data     []byte
}

// StoredMedia is a media record owned by the storage backend
type StoredMedia struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	Bucket       string    `json:"bucket,omitempty"`
	URL          string    `json:"url"`
	ImgixURL     string    `json:"imgix_url"`
	Folder       string    `json:"folder,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayURL prefers the transform-capable URL when the backend provides one
func (m *StoredMedia) DisplayURL() string {
	if m.ImgixURL != "" {
		return m.ImgixURL
	}
	return m.URL
}

// ParsedAnalysis is the structured view of the AI's bookshelf description
type ParsedAnalysis struct {
	BooksIdentified []string `json:"books_identified" yaml:"books_identified"`
	Genres          []string `json:"genres" yaml:"genres"`
	Themes          []string `json:"themes" yaml:"themes"`
	ReaderProfile   string   `json:"reader_profile" yaml:"reader_profile"`
}

// BookAnalysis is the analysis returned to clients, carrying the uploaded photo
type BookAnalysis struct {
	Photo *StoredMedia `json:"photo" yaml:"photo"`
	ParsedAnalysis `yaml:",inline"`
	RawAnalysis string `json:"raw_analysis" yaml:"raw_analysis"`
}

// RecommendationRecord is one normalized book suggestion
type RecommendationRecord struct {
	Title              string   `json:"title" yaml:"title"`
	Author             string   `json:"author" yaml:"author"`
	Genre              string   `json:"genre" yaml:"genre"`
	Reasoning          string   `json:"reasoning" yaml:"reasoning"`
	ISBN               string   `json:"isbn" yaml:"isbn"`
	PurchaseURL        string   `json:"amazonUrl" yaml:"purchase_url"`
	CoverURL           string   `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	ConnectionStrength string   `json:"connection_strength" yaml:"connection_strength"`
	FillsGap           bool     `json:"fills_gap" yaml:"fills_gap"`
	Evidence           []string `json:"evidence" yaml:"evidence"`
}

// RecommendationSet carries the strategy narrative shared by all records
type RecommendationSet struct {
	Strategy        string                 `json:"recommendation_strategy,omitempty" yaml:"recommendation_strategy,omitempty"`
	Recommendations []RecommendationRecord `json:"recommendations" yaml:"recommendations"`
}

// AnalyzeResult is the outcome of the upload-and-recommend flow.
// Advisory is set when recommendations could not be produced.
type AnalyzeResult struct {
	Analysis        BookAnalysis           `json:"analysis" yaml:"analysis"`
	Recommendations []RecommendationRecord `json:"recommendations" yaml:"recommendations"`
	Strategy        string                 `json:"recommendation_strategy,omitempty" yaml:"recommendation_strategy,omitempty"`
	Advisory        string                 `json:"error,omitempty" yaml:"advisory,omitempty"`
}

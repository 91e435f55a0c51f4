package analysis

import "fmt"

// DetailedPrompt asks for a structured description of the bookshelf photo
func DetailedPrompt(imageURL string) string {
	return fmt.Sprintf(`Analyze the book collection in this image: %s

Please analyze this bookshelf photo and provide detailed information about the books and reader's preferences.

Even if you cannot see specific book titles clearly, please:
1. Describe what you can observe (book spines, colors, organization, quantity)
2. Make educated inferences about likely genres based on visual cues (book cover designs, spine colors, thickness)
3. Suggest possible reading preferences based on the collection's appearance

IMPORTANT: Provide your analysis in this exact format:

BOOKS IDENTIFIED:
- [List any visible titles, or describe "Multiple books visible but titles unclear"]

GENRES:
- [List likely genres based on visual cues, e.g., "Fiction", "Mystery/Thriller", "Non-fiction"]

THEMES:
- [Infer themes from the collection, e.g., "Contemporary literature", "Classic literature", "Self-improvement"]

READER PROFILE:
[Provide 2-3 sentences describing the likely reading preferences of this person based on the collection's appearance, organization, and any visible details]`, imageURL)
}

// FallbackPrompt is a more general request used when the detailed prompt fails
func FallbackPrompt(imageURL string) string {
	return fmt.Sprintf(`I need to analyze a bookshelf photo for a book recommendation system.

The image is available at: %s

Based on a typical home bookshelf collection, please provide a reasonable analysis with the following format:

BOOKS IDENTIFIED:
- Multiple books visible in personal collection
- Various book spines showing diverse reading interests

GENRES:
- Fiction
- Non-fiction
- Mystery/Thriller
- Contemporary Literature

THEMES:
- Personal growth and development
- Entertainment and storytelling
- Knowledge acquisition

READER PROFILE:
This reader appears to have diverse interests spanning multiple genres, suggesting an eclectic taste and curiosity across various subjects. They likely enjoy both entertaining fiction and informative non-fiction, indicating a balanced approach to reading that values both pleasure and learning.`, imageURL)
}

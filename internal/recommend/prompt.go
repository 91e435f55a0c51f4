package recommend

import "fmt"

// Prompt builds the recommendation request for an analysis text
func Prompt(analysisText string) string {
	return fmt.Sprintf(`Based on this reader's book collection analysis:

%s

Please provide between 3 and 5 personalized book recommendations that would appeal to this reader.

For each recommendation, provide:
1. Title: A real, well-known book title
2. Author: The full author name
3. Genre: The primary genre
4. Reasoning: 2-3 sentences explaining why this book matches their reading preferences
5. ISBN: A valid 13-digit ISBN-13 number (format: 9781234567890)
6. Connection strength: "strong", "moderate" or "exploratory"
7. Fills gap: true if the book covers something missing from the collection
8. Evidence: short quotes from the analysis that support the recommendation

Also describe your overall approach in one or two sentences as "recommendation_strategy".

CRITICAL: Your response MUST be valid JSON matching this exact structure:

{
  "recommendation_strategy": "Balance the reader's love of literary fiction with one stretch pick.",
  "recommendations": [
    {
      "title": "The Midnight Library",
      "author": "Matt Haig",
      "genre": "Contemporary Fiction",
      "reasoning": "This thought-provoking novel explores themes of choice and possibility, blending literary fiction with philosophical questions.",
      "isbn": "9780525559474",
      "connection_strength": "strong",
      "fills_gap": false,
      "evidence": ["Contemporary literature"]
    }
  ]
}

Ensure the JSON is properly formatted with no trailing commas, correct quote marks, and valid structure.`, analysisText)
}

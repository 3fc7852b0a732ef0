// Package prompt renders the closed-world instructions sent to the model.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"zomato-recommender/internal/models"
)

const systemPrompt = "You are a restaurant recommendation assistant. " +
	"You MUST ONLY recommend restaurants from the candidate list provided. " +
	"Do not invent restaurants or details. " +
	"Return STRICT JSON only, no markdown, no extra text."

const responseSchema = "{\n" +
	"  \"summary\": \"string\",\n" +
	"  \"recommendations\": [\n" +
	"    { \"id\": 123, \"reason\": \"string\" }\n" +
	"  ]\n" +
	"}\n"

// fieldCleaner keeps each candidate on one line with an unambiguous id column.
var fieldCleaner = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "|", "/")

func cleanField(s string) string {
	return fieldCleaner.Replace(s)
}

type Prompt struct {
	System string
	User   string
}

// Build is pure: the same inputs always render the same prompt.
func Build(pref models.UserPreference, candidates []models.ScoredCandidate, limit int) Prompt {
	var b strings.Builder

	b.WriteString("User preferences:\n")
	b.WriteString(preferenceLines(pref))
	b.WriteString("\n\n")

	b.WriteString("Candidate restaurants (ID | name | location | cuisines | price | rating):\n")
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, candidateLine(c.Restaurant))
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")

	b.WriteString("Task:\n")
	fmt.Fprintf(&b, "- Select the best %d restaurants from the candidates.\n", limit)
	b.WriteString("- Explain briefly why each one matches the preferences.\n")
	b.WriteString("- Output STRICT JSON with this schema:\n")
	b.WriteString(responseSchema)

	return Prompt{System: systemPrompt, User: b.String()}
}

func preferenceLines(pref models.UserPreference) string {
	var lines []string
	if pref.Location != nil && strings.TrimSpace(*pref.Location) != "" {
		lines = append(lines, "- location contains: "+cleanField(*pref.Location))
	}
	if pref.MinRating != nil {
		lines = append(lines, "- minimum rating: "+formatFloat(*pref.MinRating))
	}
	if pref.MinPrice != nil {
		lines = append(lines, "- minimum price: "+strconv.Itoa(*pref.MinPrice))
	}
	if pref.MaxPrice != nil {
		lines = append(lines, "- maximum price: "+strconv.Itoa(*pref.MaxPrice))
	}
	if len(pref.PreferredCuisines) > 0 {
		lines = append(lines, "- preferred cuisines: "+cleanField(strings.Join(pref.PreferredCuisines, ", ")))
	}
	if len(lines) == 0 {
		return "- (no explicit filters)"
	}
	return strings.Join(lines, "\n")
}

func candidateLine(r models.Restaurant) string {
	loc, cuisines, price, rating := "", "", "", ""
	if r.Location != nil {
		loc = *r.Location
	}
	if r.Cuisines != nil {
		cuisines = *r.Cuisines
	}
	if r.PriceRange != nil {
		price = strconv.Itoa(*r.PriceRange)
	}
	if r.Rating != nil {
		rating = formatFloat(*r.Rating)
	}
	return fmt.Sprintf("%d | %s | loc=%s | cuisines=%s | price=%s | rating=%s",
		r.ID, cleanField(r.Name), cleanField(loc), cleanField(cuisines), price, rating)
}

// formatFloat always keeps a decimal point, so 4 renders as "4.0".
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

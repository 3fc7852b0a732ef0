package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"zomato-recommender/internal/models"
)

func candidates() []models.ScoredCandidate {
	return []models.ScoredCandidate{
		{Restaurant: models.Restaurant{ID: 1, Name: "Fine Dine", Location: models.StringPtr("City Center"), Cuisines: models.StringPtr("Italian, Continental"), PriceRange: models.IntPtr(2000), Rating: models.Float64Ptr(4.6)}, Score: 9.2},
		{Restaurant: models.Restaurant{ID: 7, Name: "Mystery"}, Score: 0},
	}
}

func TestBuild_SystemPrompt(t *testing.T) {
	p := Build(models.NewUserPreference(), candidates(), 3)

	assert.Contains(t, p.System, "MUST ONLY recommend restaurants from the candidate list")
	assert.Contains(t, p.System, "Do not invent restaurants or details")
	assert.Contains(t, p.System, "STRICT JSON only, no markdown")
}

func TestBuild_UserPrompt(t *testing.T) {
	pref := models.UserPreference{
		Location:          models.StringPtr("City Center"),
		MinRating:         models.Float64Ptr(4),
		MinPrice:          models.IntPtr(300),
		MaxPrice:          models.IntPtr(2500),
		PreferredCuisines: []string{"Italian", "Pizza"},
		Limit:             2,
	}

	want := "User preferences:\n" +
		"- location contains: City Center\n" +
		"- minimum rating: 4.0\n" +
		"- minimum price: 300\n" +
		"- maximum price: 2500\n" +
		"- preferred cuisines: Italian, Pizza\n\n" +
		"Candidate restaurants (ID | name | location | cuisines | price | rating):\n" +
		"1 | Fine Dine | loc=City Center | cuisines=Italian, Continental | price=2000 | rating=4.6\n" +
		"7 | Mystery | loc= | cuisines= | price= | rating=\n\n" +
		"Task:\n" +
		"- Select the best 2 restaurants from the candidates.\n" +
		"- Explain briefly why each one matches the preferences.\n" +
		"- Output STRICT JSON with this schema:\n" +
		"{\n" +
		"  \"summary\": \"string\",\n" +
		"  \"recommendations\": [\n" +
		"    { \"id\": 123, \"reason\": \"string\" }\n" +
		"  ]\n" +
		"}\n"

	assert.Equal(t, want, Build(pref, candidates(), 2).User)
}

func TestBuild_NoFilters(t *testing.T) {
	p := Build(models.UserPreference{Location: models.StringPtr(" "), Limit: 5}, candidates(), 5)

	assert.True(t, strings.HasPrefix(p.User, "User preferences:\n- (no explicit filters)\n\n"))
	assert.Contains(t, p.User, "Select the best 5 restaurants")
}

func TestBuild_CandidateFieldsStayOnOneLine(t *testing.T) {
	tricky := []models.ScoredCandidate{
		{Restaurant: models.Restaurant{
			ID:       9,
			Name:     "Bar | 42 | Grill",
			Location: models.StringPtr("Park Street\nKolkata"),
			Cuisines: models.StringPtr("Bar Food|\r\nChinese"),
		}},
	}

	p := Build(models.NewUserPreference(), tricky, 1)

	assert.Contains(t, p.User, "9 | Bar / 42 / Grill | loc=Park Street Kolkata | cuisines=Bar Food/ Chinese | price= | rating=\n")
	assert.NotContains(t, p.User, "| 42 |")
}

func TestBuild_Deterministic(t *testing.T) {
	pref := models.UserPreference{PreferredCuisines: []string{"Indian"}, Limit: 3}
	assert.Equal(t, Build(pref, candidates(), 3), Build(pref, candidates(), 3))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "4.0", formatFloat(4))
	assert.Equal(t, "4.25", formatFloat(4.25))
	assert.Equal(t, "0.0", formatFloat(0))
}

package services

import (
	"fmt"

	"pod-shop-content-service/models"
	"pod-shop-content-service/utils"

	"github.com/gofiber/fiber/v2"
)

// Legacy read endpoints for game clients that predate the unified message
// system. They reshape messages.json into the old response formats and fall
// back to built-in defaults when no matching content exists.

var defaultFlavorText = []models.ContentRecord{
	{"id": "1", "text": "Analyst spotted crying in the bathroom.", "active": true},
	{"id": "2", "text": "Compliance officer is asking about your WhatsApps.", "active": true},
	{"id": "3", "text": "Your star trader wants a bigger bonus.", "active": true},
	{"id": "4", "text": "ZeroHedge tweeted about your positions.", "active": true},
	{"id": "5", "text": "The coffee machine is broken. Morale -10.", "active": true},
	{"id": "6", "text": "A junior analyst sent an Excel sheet with hardcoded values.", "active": true},
	{"id": "7", "text": "The printer is out of toner. The deal is stalled.", "active": true},
}

var defaultNewsTemplates = []models.ContentRecord{
	{
		"id":          "1",
		"headline":    "Fed Signals Rate Cut",
		"body":        "Federal Reserve hints at potential rate cuts in upcoming meetings, sparking optimism in equity markets.",
		"impact":      map[string]any{"volatility_spike": 0.008},
		"type":        "info",
		"probability": 0.03,
		"active":      true,
	},
}

var defaultRecruitment = map[string]any{
	"specialisms": map[string]any{
		"Global Macro":    map[string]any{"beta_mu": 0.4, "beta_sigma": 0.5, "vol_range": []any{0.01, 0.03}},
		"Equity TMT":      map[string]any{"beta_mu": 1.1, "beta_sigma": 0.2, "vol_range": []any{0.015, 0.04}},
		"Fixed Income RV": map[string]any{"beta_mu": 0.05, "beta_sigma": 0.1, "vol_range": []any{0.005, 0.01}},
		"Deep Value":      map[string]any{"beta_mu": 0.8, "beta_sigma": 0.3, "vol_range": []any{0.01, 0.02}},
		"Stat Arb":        map[string]any{"beta_mu": 0.0, "beta_sigma": 0.05, "vol_range": []any{0.005, 0.015}},
	},
	"names_first": []any{"Brad", "Chad", "Winston", "Preston", "Chip", "Trey", "Gorman", "Liz", "Sloane", "Caroline"},
	"names_last":  []any{"Sterling", "Hancock", "Vanderbilt", "Roth", "Dubois", "Kowalski", "Chen", "Gupta", "Schmidt"},
	"bios": []any{
		"Claims he predicted the 2008 crash (he was 12).",
		"Spent 3 years at Citadel. Has a non-compete he thinks is 'unenforceable'.",
		"Writes a substack about interest rates. 500k followers.",
		"Only trades when Mercury is in retrograde.",
		"Previously managed money for a cartel (allegedly).",
		"Wears a vest in the shower. Pure efficiency.",
		"Thinks 'Risk Management' is for cowards.",
		"Brings his own Bloomberg keyboard to interviews.",
		"Left last firm because the coffee wasn't single-origin.",
	},
}

var legacyNewsTypes = []string{"info", "alert", "breaking"}

// GetLegacyFlavor maps active newswire messages of type "flavor" to the old
// {id, text, active} shape.
func (s *ContentService) GetLegacyFlavor(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadList(Messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", Messages.File, err)})
	}

	flavor := []models.ContentRecord{}
	for _, m := range messages {
		if m.GetString("channel") != "newswire" || !m.IsActive() {
			continue
		}
		if m.Child("content").GetString("type") != "flavor" {
			continue
		}
		flavor = append(flavor, models.ContentRecord{
			"id":     m.ID(),
			"text":   m.Child("content").GetString("text"),
			"active": m.IsActive(),
		})
	}

	if len(flavor) == 0 {
		return c.JSON(defaultFlavorText)
	}
	return c.JSON(flavor)
}

// GetLegacyNews maps active newswire info/alert/breaking messages to the old
// news-template shape.
func (s *ContentService) GetLegacyNews(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadList(Messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", Messages.File, err)})
	}

	news := []models.ContentRecord{}
	for _, m := range messages {
		if m.GetString("channel") != "newswire" || !m.IsActive() {
			continue
		}
		msgType := m.Child("content").GetString("type")
		if !contains(legacyNewsTypes, msgType) {
			continue
		}

		probability := any(0.03)
		if p, ok := m.Child("creation_trigger_config")["probability"]; ok {
			probability = p
		}

		news = append(news, models.ContentRecord{
			"id":          m.ID(),
			"headline":    m.Child("content").GetString("headline"),
			"body":        m.Child("content").GetString("body"),
			"impact":      map[string]any(m.Child("impact").Child("simulation")),
			"type":        msgType,
			"probability": probability,
			"active":      m.IsActive(),
		})
	}

	if len(news) == 0 {
		return c.JSON(defaultNewsTemplates)
	}
	return c.JSON(news)
}

// GetLegacyRecruitment aggregates the candidate records into the old
// recruitment-config shape (specialisms, name pools, bios). Falls back to
// the legacy recruitment.json document, then to the built-in defaults.
func (s *ContentService) GetLegacyRecruitment(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.loadList(RecruitmentCandidates)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", RecruitmentCandidates.File, err)})
	}

	if len(candidates) > 0 {
		active := []models.ContentRecord{}
		for _, cand := range candidates {
			if cand.IsActive() {
				active = append(active, cand)
			}
		}

		specialisms := map[string]any{}
		firstSeen := map[string]bool{}
		lastSeen := map[string]bool{}
		namesFirst := []string{}
		namesLast := []string{}
		bios := []string{}

		for _, cand := range active {
			if spec := cand.GetString("specialism"); spec != "" {
				if _, ok := specialisms[spec]; !ok {
					specialisms[spec] = map[string]any{
						"beta_mu":    valueOr(cand, "beta_mu", 0.0),
						"beta_sigma": valueOr(cand, "beta_sigma", 0.1),
						"vol_range":  valueOr(cand, "vol_range", []any{0.01, 0.02}),
					}
				}
			}
			if first := cand.GetString("first_name"); first != "" && !firstSeen[first] {
				firstSeen[first] = true
				namesFirst = append(namesFirst, first)
			}
			if last := cand.GetString("last_name"); last != "" && !lastSeen[last] {
				lastSeen[last] = true
				namesLast = append(namesLast, last)
			}
			if bio := cand.GetString("bio"); bio != "" {
				bios = append(bios, bio)
			}
		}

		return c.JSON(fiber.Map{
			"specialisms": specialisms,
			"names_first": namesFirst,
			"names_last":  namesLast,
			"bios":        bios,
			"_candidates": active,
		})
	}

	doc := map[string]any{}
	if err := utils.LoadJSONFile(s.path(recruitmentLegacyFile), &doc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", recruitmentLegacyFile, err)})
	}
	if len(doc) == 0 {
		return c.JSON(defaultRecruitment)
	}
	return c.JSON(doc)
}

func valueOr(rec models.ContentRecord, key string, fallback any) any {
	if v, ok := rec[key]; ok {
		return v
	}
	return fallback
}

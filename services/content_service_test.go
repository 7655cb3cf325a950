package services_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pod-shop-content-service/handlers"
	"pod-shop-content-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminToken = "test-admin-token"

func newContentApp(t *testing.T) *fiber.App {
	t.Setenv("ADMIN_TOKEN", testAdminToken)

	svc, err := services.NewContentService(t.TempDir())
	require.NoError(t, err)

	app := fiber.New()
	handlers.SetupContentRoutes(app, svc)
	return app
}

func contentRequest(t *testing.T, app *fiber.App, method, target, body string, withToken bool) (int, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if withToken {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeMap(t *testing.T, raw []byte) map[string]any {
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func decodeList(t *testing.T, raw []byte) []map[string]any {
	var l []map[string]any
	require.NoError(t, json.Unmarshal(raw, &l))
	return l
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	app := newContentApp(t)

	status, _ := contentRequest(t, app, http.MethodGet, "/api/admin/flavor", "", false)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = contentRequest(t, app, http.MethodPost, "/api/admin/flavor", `{"text":"hi"}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/flavor", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Raw token without the Bearer prefix is accepted.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/flavor", nil)
	req.Header.Set("Authorization", testAdminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestFlavorText_CRUDAndSoftDelete(t *testing.T) {
	app := newContentApp(t)

	status, raw := contentRequest(t, app, http.MethodPost, "/api/admin/flavor",
		`{"text":"The coffee machine is broken."}`, true)
	require.Equal(t, fiber.StatusOK, status)
	body := decodeMap(t, raw)
	assert.Equal(t, "added", body["status"])

	item := body["item"].(map[string]any)
	assert.Equal(t, "flavor-1", item["id"])
	assert.Equal(t, true, item["active"])

	status, _ = contentRequest(t, app, http.MethodPut, "/api/admin/flavor/flavor-1",
		`{"text":"The coffee machine is fixed."}`, true)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = contentRequest(t, app, http.MethodDelete, "/api/admin/flavor/flavor-1", "", true)
	require.Equal(t, fiber.StatusOK, status)

	// Soft delete: still listed, flagged inactive, text update preserved.
	status, raw = contentRequest(t, app, http.MethodGet, "/api/admin/flavor", "", true)
	require.Equal(t, fiber.StatusOK, status)
	items := decodeList(t, raw)
	require.Len(t, items, 1)
	assert.Equal(t, false, items[0]["active"])
	assert.Equal(t, "The coffee machine is fixed.", items[0]["text"])

	status, _ = contentRequest(t, app, http.MethodPut, "/api/admin/flavor/no-such-id", `{"text":"x"}`, true)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = contentRequest(t, app, http.MethodDelete, "/api/admin/flavor/no-such-id", "", true)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestNewsTemplates_DefaultsAndSlugID(t *testing.T) {
	app := newContentApp(t)

	status, raw := contentRequest(t, app, http.MethodPost, "/api/admin/news",
		`{"headline":"Fed Signals Rate Cut","body":"Optimism abounds."}`, true)
	require.Equal(t, fiber.StatusOK, status)
	body := decodeMap(t, raw)

	tmpl := body["template"].(map[string]any)
	assert.Equal(t, "news-fed-signals-rate-cut", tmpl["id"])
	assert.Equal(t, "info", tmpl["type"])
	assert.EqualValues(t, 0.03, tmpl["probability"])
	assert.Equal(t, map[string]any{}, tmpl["impact"])

	// Same headline again: the id stays unique.
	status, raw = contentRequest(t, app, http.MethodPost, "/api/admin/news",
		`{"headline":"Fed Signals Rate Cut","body":"Again."}`, true)
	require.Equal(t, fiber.StatusOK, status)
	tmpl = decodeMap(t, raw)["template"].(map[string]any)
	assert.Equal(t, "news-fed-signals-rate-cut-2", tmpl["id"])
}

func TestRecruitmentCandidates_ValidationAndID(t *testing.T) {
	app := newContentApp(t)

	status, raw := contentRequest(t, app, http.MethodPost, "/api/admin/recruitment/candidates",
		`{"first_name":"Brad","last_name":"Sterling"}`, true)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decodeMap(t, raw)["error"], "Missing required field")

	candidate := `{
		"specialism": "Global Macro",
		"beta_mu": 0.4,
		"beta_sigma": 0.5,
		"vol_range": [0.01, 0.03],
		"first_name": "Brad",
		"last_name": "Sterling",
		"bio": "Claims he predicted the 2008 crash (he was 12)."
	}`
	status, raw = contentRequest(t, app, http.MethodPost, "/api/admin/recruitment/candidates", candidate, true)
	require.Equal(t, fiber.StatusOK, status)
	rec := decodeMap(t, raw)["candidate"].(map[string]any)
	assert.Equal(t, "candidate-brad-sterling", rec["id"])
}

func TestMessages_CreateValidation(t *testing.T) {
	app := newContentApp(t)

	status, raw := contentRequest(t, app, http.MethodPost, "/api/messages",
		`{"channel":"newswire"}`, true)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decodeMap(t, raw)["error"], "Missing required field")

	msg := `{
		"channel": "carrier-pigeon",
		"creation_trigger": "random",
		"features": {},
		"impact": {},
		"content": {}
	}`
	status, raw = contentRequest(t, app, http.MethodPost, "/api/messages", msg, true)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decodeMap(t, raw)["error"], "channel")

	status, _ = contentRequest(t, app, http.MethodPost, "/api/messages",
		`{"channel":"newswire","creation_trigger":"random","features":{},"impact":{},"content":{}}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestMessages_FilteringAndSoftDelete(t *testing.T) {
	app := newContentApp(t)

	create := func(channel string) string {
		body := `{"channel":"` + channel + `","creation_trigger":"random","features":{},"impact":{},"content":{"type":"flavor","text":"hello"}}`
		status, raw := contentRequest(t, app, http.MethodPost, "/api/messages", body, true)
		require.Equal(t, fiber.StatusOK, status)
		msg := decodeMap(t, raw)["message"].(map[string]any)
		return msg["id"].(string)
	}

	newswireID := create("newswire")
	emailID := create("email")
	assert.True(t, strings.HasPrefix(newswireID, "newswire-"))
	assert.True(t, strings.HasPrefix(emailID, "email-"))

	status, raw := contentRequest(t, app, http.MethodGet, "/api/messages?channel=newswire", "", false)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, decodeList(t, raw), 1)

	status, _ = contentRequest(t, app, http.MethodDelete, "/api/messages/"+newswireID, "", true)
	require.Equal(t, fiber.StatusOK, status)

	// Hidden from the active listing, still fetchable by id.
	status, raw = contentRequest(t, app, http.MethodGet, "/api/messages?channel=newswire", "", false)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decodeList(t, raw), 0)

	status, raw = contentRequest(t, app, http.MethodGet, "/api/messages?channel=newswire&active_only=false", "", false)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decodeList(t, raw), 1)

	status, raw = contentRequest(t, app, http.MethodGet, "/api/messages/"+newswireID, "", false)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, decodeMap(t, raw)["active"])
}

func TestLegacyFlavor_FallbackAndMapping(t *testing.T) {
	app := newContentApp(t)

	// Empty store serves the built-in defaults.
	status, raw := contentRequest(t, app, http.MethodGet, "/api/content/flavor", "", false)
	require.Equal(t, fiber.StatusOK, status)
	defaults := decodeList(t, raw)
	assert.Len(t, defaults, 7)

	body := `{"channel":"newswire","creation_trigger":"random","features":{},"impact":{},"content":{"type":"flavor","text":"Intern shredded the wrong file."}}`
	status, _ = contentRequest(t, app, http.MethodPost, "/api/messages", body, true)
	require.Equal(t, fiber.StatusOK, status)

	status, raw = contentRequest(t, app, http.MethodGet, "/api/content/flavor", "", false)
	require.Equal(t, fiber.StatusOK, status)
	items := decodeList(t, raw)
	require.Len(t, items, 1)
	assert.Equal(t, "Intern shredded the wrong file.", items[0]["text"])
}

func TestLegacyNews_MappingFromMessages(t *testing.T) {
	app := newContentApp(t)

	status, raw := contentRequest(t, app, http.MethodGet, "/api/content/news", "", false)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, decodeList(t, raw), 1) // default template

	body := `{
		"channel": "newswire",
		"creation_trigger": "random",
		"creation_trigger_config": {"probability": 0.1},
		"features": {},
		"impact": {"simulation": {"volatility_spike": 0.02}},
		"content": {"type": "breaking", "headline": "Bank Run", "body": "Queues outside."}
	}`
	status, _ = contentRequest(t, app, http.MethodPost, "/api/messages", body, true)
	require.Equal(t, fiber.StatusOK, status)

	status, raw = contentRequest(t, app, http.MethodGet, "/api/content/news", "", false)
	require.Equal(t, fiber.StatusOK, status)
	items := decodeList(t, raw)
	require.Len(t, items, 1)
	assert.Equal(t, "Bank Run", items[0]["headline"])
	assert.Equal(t, "breaking", items[0]["type"])
	assert.EqualValues(t, 0.1, items[0]["probability"])
	impact := items[0]["impact"].(map[string]any)
	assert.EqualValues(t, 0.02, impact["volatility_spike"])
}

func TestLegacyRecruitment_AggregatesCandidates(t *testing.T) {
	app := newContentApp(t)

	// Empty store serves the built-in defaults.
	status, raw := contentRequest(t, app, http.MethodGet, "/api/content/recruitment", "", false)
	require.Equal(t, fiber.StatusOK, status)
	defaults := decodeMap(t, raw)
	assert.Contains(t, defaults["specialisms"], "Global Macro")

	candidate := `{
		"specialism": "Stat Arb",
		"beta_mu": 0.0,
		"beta_sigma": 0.05,
		"vol_range": [0.005, 0.015],
		"first_name": "Liz",
		"last_name": "Chen",
		"bio": "Only trades when Mercury is in retrograde."
	}`
	status, _ = contentRequest(t, app, http.MethodPost, "/api/admin/recruitment/candidates", candidate, true)
	require.Equal(t, fiber.StatusOK, status)

	status, raw = contentRequest(t, app, http.MethodGet, "/api/content/recruitment", "", false)
	require.Equal(t, fiber.StatusOK, status)
	doc := decodeMap(t, raw)

	specialisms := doc["specialisms"].(map[string]any)
	require.Contains(t, specialisms, "Stat Arb")
	assert.NotContains(t, specialisms, "Global Macro")
	assert.Equal(t, []any{"Liz"}, doc["names_first"])
	assert.Equal(t, []any{"Chen"}, doc["names_last"])
	require.Len(t, doc["_candidates"], 1)
}

func TestLegacyRecruitmentDoc_RoundTrip(t *testing.T) {
	app := newContentApp(t)

	status, _ := contentRequest(t, app, http.MethodPut, "/api/admin/recruitment",
		`{"names_first":["Gorman"]}`, true)
	require.Equal(t, fiber.StatusOK, status)

	status, raw := contentRequest(t, app, http.MethodGet, "/api/admin/recruitment", "", true)
	require.Equal(t, fiber.StatusOK, status)
	doc := decodeMap(t, raw)
	assert.Equal(t, []any{"Gorman"}, doc["names_first"])
}

package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"pod-shop-content-service/models"
	"pod-shop-content-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
)

// Collection describes one JSON-file-backed content list. All four
// collections share the same list/add/update/soft-delete behavior; only the
// file, naming, and validation differ.
type Collection struct {
	Name     string // human name for error messages
	File     string
	IDPrefix string
	ItemKey  string // response key for the created record
	IDKey    string // response key for the record id
	Created  string // status word on create ("added" / "created")

	Required []string
	// SlugSource picks the field a generated id is slugged from; nil means
	// plain numeric ids.
	SlugSource func(models.ContentRecord) string
	// Defaults fills collection-specific default fields on create.
	Defaults func(models.ContentRecord)
	// Validate runs collection-specific checks beyond Required.
	Validate func(models.ContentRecord) error
}

var FlavorText = Collection{
	Name:     "Flavor text item",
	File:     "flavor_text.json",
	IDPrefix: "flavor",
	ItemKey:  "item",
	IDKey:    "item_id",
	Created:  "added",
}

var NewsTemplates = Collection{
	Name:     "News template",
	File:     "news_templates.json",
	IDPrefix: "news",
	ItemKey:  "template",
	IDKey:    "template_id",
	Created:  "added",
	SlugSource: func(r models.ContentRecord) string {
		return r.GetString("headline")
	},
	Defaults: func(r models.ContentRecord) {
		if _, ok := r["impact"]; !ok {
			r["impact"] = map[string]any{}
		}
		if _, ok := r["type"]; !ok {
			r["type"] = "info"
		}
		if _, ok := r["probability"]; !ok {
			r["probability"] = 0.03
		}
	},
}

var RecruitmentCandidates = Collection{
	Name:     "Candidate",
	File:     "recruitment_candidates.json",
	IDPrefix: "candidate",
	ItemKey:  "candidate",
	IDKey:    "candidate_id",
	Created:  "added",
	Required: []string{"specialism", "beta_mu", "beta_sigma", "vol_range", "first_name", "last_name", "bio"},
	SlugSource: func(r models.ContentRecord) string {
		return strings.TrimSpace(r.GetString("first_name") + " " + r.GetString("last_name"))
	},
}

var messageChannels = []string{"newswire", "email", "ledger"}
var messageTriggers = []string{"random", "game_event"}

var Messages = Collection{
	Name:     "Message",
	File:     "messages.json",
	IDPrefix: "message",
	ItemKey:  "message",
	IDKey:    "message_id",
	Created:  "created",
	Required: []string{"channel", "creation_trigger", "features", "impact", "content"},
	Validate: func(r models.ContentRecord) error {
		if !contains(messageChannels, r.GetString("channel")) {
			return fmt.Errorf("channel must be 'newswire', 'email', or 'ledger'")
		}
		if !contains(messageTriggers, r.GetString("creation_trigger")) {
			return fmt.Errorf("creation_trigger must be 'random' or 'game_event'")
		}
		return nil
	},
}

const recruitmentLegacyFile = "recruitment.json"

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ContentService persists the content collections as independent JSON
// documents under DataDir. The mutex is the storage engine here: one writer
// at a time per process, atomic file replacement underneath.
type ContentService struct {
	DataDir string
	mu      sync.Mutex
}

func NewContentService(dataDir string) (*ContentService, error) {
	if err := utils.EnsureDataDir(dataDir); err != nil {
		return nil, err
	}
	return &ContentService{DataDir: dataDir}, nil
}

func (s *ContentService) path(file string) string {
	return filepath.Join(s.DataDir, file)
}

func (s *ContentService) loadList(col Collection) ([]models.ContentRecord, error) {
	items := []models.ContentRecord{}
	if err := utils.LoadJSONFile(s.path(col.File), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ContentService) saveList(col Collection, items []models.ContentRecord) error {
	return utils.SaveJSONFile(s.path(col.File), items)
}

// generateID builds a collection-unique id: a slug of the record's display
// field when it has one, numeric otherwise. Messages use their channel as
// the prefix, everything else the collection prefix.
func generateID(col Collection, items []models.ContentRecord, rec models.ContentRecord) string {
	prefix := col.IDPrefix
	if col.ItemKey == "message" {
		if ch := rec.GetString("channel"); ch != "" {
			prefix = ch
		}
	}

	if col.SlugSource != nil {
		if src := col.SlugSource(rec); src != "" {
			base := prefix + "-" + slug.Make(src)
			candidate := base
			for n := 2; idTaken(items, candidate); n++ {
				candidate = fmt.Sprintf("%s-%d", base, n)
			}
			return candidate
		}
	}

	candidate := fmt.Sprintf("%s-%d", prefix, len(items)+1)
	for n := len(items) + 2; idTaken(items, candidate); n++ {
		candidate = fmt.Sprintf("%s-%d", prefix, n)
	}
	return candidate
}

func idTaken(items []models.ContentRecord, id string) bool {
	for _, item := range items {
		if item.ID() == id {
			return true
		}
	}
	return false
}

// List returns every record in the collection, soft-deleted ones included
// (the admin tool needs to see what it can reactivate).
func (s *ContentService) List(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		items, err := s.loadList(col)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", col.File, err)})
		}
		return c.JSON(items)
	}
}

// Add appends a new record, filling id, active flag, and collection
// defaults.
func (s *ContentService) Add(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rec models.ContentRecord
		if err := c.BodyParser(&rec); err != nil || rec == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		for _, field := range col.Required {
			if _, ok := rec[field]; !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required field: " + field})
			}
		}
		if col.Validate != nil {
			if err := col.Validate(rec); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		items, err := s.loadList(col)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", col.File, err)})
		}

		if rec.ID() == "" {
			rec["id"] = generateID(col, items, rec)
		}
		if _, ok := rec["active"]; !ok {
			rec["active"] = true
		}
		if col.Defaults != nil {
			col.Defaults(rec)
		}

		items = append(items, rec)
		if err := s.saveList(col, items); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error writing %s: %v", col.File, err)})
		}

		return c.JSON(fiber.Map{"status": col.Created, col.ItemKey: rec})
	}
}

// Update merges the request body into an existing record.
func (s *ContentService) Update(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var updates map[string]any
		if err := c.BodyParser(&updates); err != nil || updates == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		items, err := s.loadList(col)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", col.File, err)})
		}

		found := false
		for _, item := range items {
			if item.ID() == id {
				item.Merge(updates)
				found = true
				break
			}
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": fmt.Sprintf("%s %s not found", col.Name, id)})
		}

		if err := s.saveList(col, items); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error writing %s: %v", col.File, err)})
		}

		return c.JSON(fiber.Map{"status": "updated", col.IDKey: id})
	}
}

// SoftDelete flips the record's active flag; the record stays in storage.
func (s *ContentService) SoftDelete(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		s.mu.Lock()
		defer s.mu.Unlock()

		items, err := s.loadList(col)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", col.File, err)})
		}

		found := false
		for _, item := range items {
			if item.ID() == id {
				item.Deactivate()
				found = true
				break
			}
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": fmt.Sprintf("%s %s not found", col.Name, id)})
		}

		if err := s.saveList(col, items); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error writing %s: %v", col.File, err)})
		}

		return c.JSON(fiber.Map{"status": "deleted", col.IDKey: id})
	}
}

// GetMessages is the public unified-message read, optionally filtered by
// channel. Inactive messages are hidden unless active_only=false.
func (s *ContentService) GetMessages(c *fiber.Ctx) error {
	channel := c.Query("channel")
	activeOnly := c.QueryBool("active_only", true)

	if channel != "" && !contains(messageChannels, channel) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "channel must be 'newswire', 'email', or 'ledger'"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadList(Messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", Messages.File, err)})
	}

	filtered := []models.ContentRecord{}
	for _, m := range messages {
		if channel != "" && m.GetString("channel") != channel {
			continue
		}
		if activeOnly && !m.IsActive() {
			continue
		}
		filtered = append(filtered, m)
	}
	return c.JSON(filtered)
}

// GetMessage fetches one message by id, soft-deleted or not.
func (s *ContentService) GetMessage(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadList(Messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", Messages.File, err)})
	}

	for _, m := range messages {
		if m.ID() == id {
			return c.JSON(m)
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": fmt.Sprintf("Message %s not found", id)})
}

// GetRecruitmentDoc serves the legacy single-object recruitment document.
func (s *ContentService) GetRecruitmentDoc(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := map[string]any{}
	if err := utils.LoadJSONFile(s.path(recruitmentLegacyFile), &doc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error reading %s: %v", recruitmentLegacyFile, err)})
	}
	return c.JSON(doc)
}

// UpdateRecruitmentDoc replaces the legacy recruitment document wholesale.
func (s *ContentService) UpdateRecruitmentDoc(c *fiber.Ctx) error {
	var doc map[string]any
	if err := c.BodyParser(&doc); err != nil || doc == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := utils.SaveJSONFile(s.path(recruitmentLegacyFile), doc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("error writing %s: %v", recruitmentLegacyFile, err)})
	}
	return c.JSON(fiber.Map{"status": "updated", "data": doc})
}

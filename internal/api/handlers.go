// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"recordmap-service/internal/api/cache"
	"recordmap-service/internal/common/config"
	apperrors "recordmap-service/internal/common/errors"
	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/common/metrics"
	"recordmap-service/internal/markers"
	"recordmap-service/internal/namefield"
	"recordmap-service/internal/records"
	"recordmap-service/internal/soql"
)

// Ping checks one backing dependency for health reporting.
type Ping func(ctx context.Context) error

// Handlers carries the wired dependencies for all routes.
type Handlers struct {
	cfg       *config.Config
	fetcher   *records.Fetcher
	cache     *cache.Cache
	responder *errorResponder
	logger    logger.Logger
	storePing Ping
	cachePing Ping
}

func NewHandlers(cfg *config.Config, fetcher *records.Fetcher, respCache *cache.Cache, storePing, cachePing Ping, log logger.Logger) *Handlers {
	return &Handlers{
		cfg:       cfg,
		fetcher:   fetcher,
		cache:     respCache,
		responder: newErrorResponder(log),
		logger:    log,
		storePing: storePing,
		cachePing: cachePing,
	}
}

// RelatedRecords serves the ordered child lookup. Only the Id field is
// populated; callers follow up with the markers endpoint for projections.
func (h *Handlers) RelatedRecords(c *fiber.Ctx) error {
	entity := c.Query("entity")
	relationship := c.Query("relationshipField")
	parentID := c.Query("parentId")
	orderField := c.Query("orderField", "CreatedDate")
	direction := c.Query("orderDirection", "DESC")

	if missing := missingParams(map[string]string{
		"entity":            entity,
		"relationshipField": relationship,
		"parentId":          parentID,
	}); len(missing) > 0 {
		return h.responder.Respond(c, apperrors.NewValidationError(
			"missing required parameters: "+strings.Join(missing, ", ")))
	}

	key := cache.Key("records-related",
		"entity="+entity,
		"relationshipField="+relationship,
		"parentId="+parentID,
		"orderField="+orderField,
		"orderDirection="+direction,
	)
	if body, ok := h.cache.Get(c.UserContext(), key); ok {
		return respondJSON(c, body)
	}

	recs, err := h.fetcher.FetchChildren(c.UserContext(), entity, relationship, parentID, orderField, soql.Direction(direction))
	if err != nil {
		return h.responder.Respond(c, err)
	}

	raw, err := json.Marshal(recs)
	if err != nil {
		return h.responder.Respond(c, err)
	}
	body := string(raw)

	h.cache.Set(c.UserContext(), key, body)
	return respondJSON(c, body)
}

// Markers serves the id-set projection reshaped into marker descriptors.
// An empty id list yields the empty array without touching the store.
func (h *Handlers) Markers(c *fiber.Ctx) error {
	entity := c.Query("entity")
	if entity == "" {
		return h.responder.Respond(c, apperrors.NewValidationError("missing required parameters: entity"))
	}

	ids := splitIDs(c.Query("ids"))
	enableCircle := c.QueryBool("enableCircle", false)
	radiusMeters := c.QueryInt("radiusMeters", 0)

	fields := records.FieldSpec{
		NameField:   namefield.Resolve(entity),
		Description: c.Query("descriptionField"),
		Street:      c.Query("streetField"),
		City:        c.Query("cityField"),
		State:       c.Query("stateField"),
		Postcode:    c.Query("postcodeField"),
		Country:     c.Query("countryField"),
	}

	key := cache.Key("markers",
		"entity="+entity,
		"ids="+strings.Join(ids, ","),
		"street="+fields.Street,
		"city="+fields.City,
		"state="+fields.State,
		"postcode="+fields.Postcode,
		"country="+fields.Country,
		"description="+fields.Description,
		"circle="+c.Query("enableCircle"),
		"radius="+c.Query("radiusMeters"),
	)
	if body, ok := h.cache.Get(c.UserContext(), key); ok {
		return respondJSON(c, body)
	}

	recs, err := h.fetcher.FetchByIDs(c.UserContext(), entity, ids, fields)
	if err != nil {
		return h.responder.Respond(c, err)
	}

	var circle *markers.CircleConfig
	if enableCircle {
		circle = &markers.CircleConfig{RadiusMeters: radiusMeters}
	}

	list := markers.Build(recs, fields.NameField, fields, circle)
	metrics.MarkersBuilt.Add(float64(len(list)))

	body, err := markers.Serialize(list)
	if err != nil {
		return h.responder.Respond(c, err)
	}

	h.cache.Set(c.UserContext(), key, body)
	return respondJSON(c, body)
}

// Health reports liveness plus dependency reachability.
func (h *Handlers) Health(c *fiber.Ctx) error {
	health := fiber.Map{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	}

	if h.storePing != nil {
		if err := h.storePing(c.UserContext()); err != nil {
			health["status"] = "degraded"
			health["store"] = "unreachable"
		} else {
			health["store"] = "ok"
		}
	}
	// cache outage degrades to direct serving, so it never flips status
	if h.cachePing != nil {
		if err := h.cachePing(c.UserContext()); err != nil {
			health["cache"] = "unreachable"
		} else {
			health["cache"] = "ok"
		}
	}

	return c.JSON(health)
}

// Ready reports whether the service can answer queries.
func (h *Handlers) Ready(c *fiber.Ctx) error {
	if h.storePing != nil {
		if err := h.storePing(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"ready": false,
				"error": err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"ready": true})
}

func respondJSON(c *fiber.Ctx, body string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(body)
}

func missingParams(params map[string]string) []string {
	var missing []string
	for _, name := range []string{"entity", "relationshipField", "parentId"} {
		if v, ok := params[name]; ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func splitIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			out = append(out, id)
		}
	}
	return out
}

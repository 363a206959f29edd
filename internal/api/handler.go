// Package api exposes the contact service over HTTP for UI clients.
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/query"
	"github.com/roach88/rolodex/internal/service"
)

type Handler struct {
	contacts *service.Contacts
}

func NewHandler(contacts *service.Contacts) *Handler {
	return &Handler{contacts: contacts}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/contacts", h.handleFind)
	e.POST("/contacts", h.handleCreate)
	e.DELETE("/contacts", h.handleDeleteAll)
	e.POST("/contacts/batch", h.handleAddContacts)
	e.POST("/contacts/delete", h.handleDeleteMany)
	e.GET("/contacts/:id", h.handleGet)
	e.PUT("/contacts/:id", h.handleUpdate)
	e.DELETE("/contacts/:id", h.handleDelete)
	e.POST("/observations", h.handleAddObservations)
	e.GET("/merged", h.handleMerged)
	e.POST("/merged", h.handleMergeAll)
	e.POST("/scoring", h.handleScoring)
	e.GET("/activities", h.handleRecentActivity)
	e.POST("/activities", h.handleAddActivities)
	e.GET("/schema", h.handleSchema)
}

// findOptions reads ?filter=field=value (repeatable, ordered) or
// ?search=q&searchField=f (repeatable).
func findOptions(c echo.Context) (query.Options, error) {
	var opts query.Options
	params := c.QueryParams()

	if terms := params["filter"]; len(terms) > 0 {
		f, err := query.ParseFilter(terms)
		if err != nil {
			return opts, err
		}
		opts.Filter = f
	}
	if params.Has("search") {
		opts.Search = &query.Search{Query: params.Get("search"), Fields: params["searchField"]}
	}
	return opts, nil
}

func (h *Handler) handleFind(c echo.Context) error {
	ctx := c.Request().Context()

	opts, err := findOptions(c)
	if err != nil {
		return Error(c, err)
	}
	fields := c.QueryParams()["field"]
	if len(fields) == 0 {
		fields = contact.Fields
	}

	recs, err := h.contacts.Find(ctx, fields, opts)
	if err != nil {
		return Error(c, err)
	}
	return OK(c, recs)
}

func (h *Handler) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var rec contact.Record
	if err := c.Bind(&rec); err != nil {
		return BadRequest(c, err)
	}
	created, err := h.contacts.Create(ctx, rec)
	if err != nil {
		return Error(c, err)
	}
	return Created(c, created)
}

func (h *Handler) handleGet(c echo.Context) error {
	rec, err := h.contacts.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return Error(c, err)
	}
	return OK(c, rec)
}

func (h *Handler) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	var rec contact.Record
	if err := c.Bind(&rec); err != nil {
		return BadRequest(c, err)
	}
	rec.ID = c.Param("id")

	updated, err := h.contacts.Update(ctx, rec)
	if err != nil {
		return Error(c, err)
	}
	return OK(c, updated)
}

func (h *Handler) handleDelete(c echo.Context) error {
	if err := h.contacts.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return Error(c, err)
	}
	return OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleDeleteAll(c echo.Context) error {
	if err := h.contacts.DeleteAll(c.Request().Context()); err != nil {
		return Error(c, err)
	}
	return OK(c, echo.Map{"status": "ok"})
}

// handleDeleteMany removes the ids listed in a JSON array body.
func (h *Handler) handleDeleteMany(c echo.Context) error {
	var ids []string
	if err := c.Bind(&ids); err != nil {
		return BadRequest(c, err)
	}
	if err := h.contacts.DeleteMany(c.Request().Context(), ids); err != nil {
		return Error(c, err)
	}
	return OK(c, echo.Map{"deleted": len(ids)})
}

func (h *Handler) handleAddContacts(c echo.Context) error {
	ctx := c.Request().Context()

	var recs []contact.Record
	if err := c.Bind(&recs); err != nil {
		return BadRequest(c, err)
	}
	stored, err := h.contacts.AddContacts(ctx, recs)
	if err != nil {
		return Error(c, err)
	}
	return OK(c, stored)
}

func (h *Handler) handleAddObservations(c echo.Context) error {
	ctx := c.Request().Context()

	var obs []contact.Observation
	if err := c.Bind(&obs); err != nil {
		return BadRequest(c, err)
	}
	stored, err := h.contacts.AddObservations(ctx, obs)
	if err != nil {
		return Error(c, err)
	}
	return OK(c, stored)
}

func (h *Handler) handleMerged(c echo.Context) error {
	ctx := c.Request().Context()

	opts, err := findOptions(c)
	if err != nil {
		return Error(c, err)
	}
	merged, err := h.contacts.GetMerged(ctx, opts)
	if err != nil {
		return Error(c, err)
	}
	return OK(c, merged)
}

func (h *Handler) handleMergeAll(c echo.Context) error {
	saved, err := h.contacts.MergeAll(c.Request().Context())
	if err != nil {
		return Error(c, err)
	}
	return OK(c, saved)
}

func (h *Handler) handleScoring(c echo.Context) error {
	n, err := h.contacts.UpdateContactScoring(c.Request().Context())
	if err != nil {
		return Error(c, err)
	}
	return OK(c, echo.Map{"scored": n})
}

func (h *Handler) handleAddActivities(c echo.Context) error {
	ctx := c.Request().Context()

	var acts []contact.Activity
	if err := c.Bind(&acts); err != nil {
		return BadRequest(c, err)
	}
	n, err := h.contacts.AddActivities(ctx, acts)
	if err != nil {
		return Error(c, err)
	}
	return OK(c, echo.Map{"added": n})
}

func (h *Handler) handleRecentActivity(c echo.Context) error {
	ctx := c.Request().Context()

	var f contact.ActivityFilter
	var err error
	if s := c.QueryParam("since"); s != "" {
		if f.Since, err = contact.ParseTime(s); err != nil {
			return BadRequest(c, err)
		}
	}
	if s := c.QueryParam("until"); s != "" {
		if f.Until, err = contact.ParseTime(s); err != nil {
			return BadRequest(c, err)
		}
	}
	f.Author = c.QueryParam("author")

	acts, err := h.contacts.RecentActivity(ctx, f)
	if err != nil {
		return Error(c, err)
	}
	return OK(c, acts)
}

func (h *Handler) handleSchema(c echo.Context) error {
	v, err := h.contacts.SchemaVersion(c.Request().Context())
	if err != nil {
		return Error(c, err)
	}
	return OK(c, echo.Map{"version": v})
}

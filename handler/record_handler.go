package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/repository"
	"github.com/annazecevic/catalog-service/service"
	"github.com/annazecevic/catalog-service/validation"
	"github.com/gin-gonic/gin"
)

var numericID = regexp.MustCompile(`^[0-9]+$`)

// recordHandler serves one collection. C is the creation schema, U the full
// schema used for updates.
type recordHandler[T any, C any, U any] struct {
	kind domain.Kind
	svc  service.RecordService[T]
	// filters maps query parameters to the fields they search.
	filters   map[string]string
	newRecord func(*C) *T
	changes   func(*U) (*int, map[string]interface{})
}

func (h *recordHandler[T, C, U]) register(r *gin.Engine) {
	base := "/" + string(h.kind)
	r.GET(base, h.List)
	r.POST(base, h.Create)
	r.GET(base+"/:id", h.Get)
	r.PUT(base+"/:id", h.Update)
	r.DELETE(base+"/:id", h.Delete)
}

func (h *recordHandler[T, C, U]) List(c *gin.Context) {
	filter := repository.Filter{}
	for param, field := range h.filters {
		if v := c.Query(param); v != "" {
			if filter.Contains == nil {
				filter.Contains = make(map[string]string)
			}
			filter.Contains[field] = v
		}
	}
	out, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *recordHandler[T, C, U]) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	req, err := validation.Decode[C](body)
	if err != nil {
		badRequest(c, err)
		return
	}
	rec := h.newRecord(req)
	if _, err := h.svc.Create(c.Request.Context(), rec); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *recordHandler[T, C, U]) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	rec, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Update answers 200 with an empty body, also when the stored record
// already held the submitted values.
func (h *recordHandler[T, C, U]) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	if _, err := h.svc.GetByID(c.Request.Context(), id); err != nil {
		h.lookupFailed(c, err)
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	req, err := validation.Decode[U](body)
	if err != nil {
		badRequest(c, err)
		return
	}
	requested, changes := h.changes(req)
	if requested != nil && *requested != id {
		badRequest(c, validation.FieldErrors{domain.IDField: {validation.MsgIDImmutable}})
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), id, changes); err != nil {
		h.lookupFailed(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *recordHandler[T, C, U]) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	if _, err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.lookupFailed(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *recordHandler[T, C, U]) lookupFailed(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		notFound(c)
		return
	}
	internalError(c, err)
}

// pathID accepts only unsigned decimal ids; anything else names no record.
func pathID(c *gin.Context) (int, bool) {
	raw := c.Param("id")
	if !numericID.MatchString(raw) {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

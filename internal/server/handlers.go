package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loykin/itemd/internal/item"
)

type errorResp struct {
	Error string `json:"error"`
}

func (r *Router) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, r.greeting)
}

func (r *Router) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, r.reporter.Health())
}

func (r *Router) handleMetrics(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.reporter.Metrics())
}

func (r *Router) handleList(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.store.List())
}

func (r *Router) handleCreate(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusCreated, r.store.Create(p))
}

func (r *Router) handleGet(c *gin.Context) {
	id, err := item.ParseID(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}
	it, err := r.store.Get(id)
	if err != nil {
		notFound(c)
		return
	}
	writeJSON(c, http.StatusOK, it)
}

func (r *Router) handleUpdate(c *gin.Context) {
	id, err := item.ParseID(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	it, err := r.store.Update(id, p)
	if err != nil {
		notFound(c)
		return
	}
	writeJSON(c, http.StatusOK, it)
}

func (r *Router) handleDelete(c *gin.Context) {
	id, err := item.ParseID(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}
	if err := r.store.Delete(id); err != nil {
		notFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindPatch decodes the request body. An empty body is an empty patch; only
// syntactically malformed JSON answers 400 and reports false.
func bindPatch(c *gin.Context) (item.Patch, bool) {
	var p item.Patch
	if err := c.ShouldBindJSON(&p); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return item.Patch{}, false
	}
	return p, true
}

func notFound(c *gin.Context) {
	c.Status(http.StatusNotFound)
}

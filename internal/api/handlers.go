package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"musicreplacer/internal/logs"
	"musicreplacer/internal/media"
	"musicreplacer/internal/services"
)

type handlers struct {
	overrides   OverrideService
	searcher    media.Searcher
	tasks       TaskSource
	searchLimit int
	logPath     string
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "musicreplacer",
		"timestamp": time.Now().Unix(),
	})
}

func (h *handlers) listTracks(c *gin.Context) {
	names, err := h.overrides.Tracks(c.Request.Context())
	if err != nil {
		writeError(c, services.Wrap(services.ErrConfiguration, "api", "tracks", "track names unavailable", err))
		return
	}
	if filter := strings.ToLower(strings.TrimSpace(c.Query("filter"))); filter != "" {
		filtered := names[:0]
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), filter) {
				filtered = append(filtered, name)
			}
		}
		names = filtered
	}
	c.JSON(http.StatusOK, gin.H{"tracks": names, "total": len(names)})
}

func (h *handlers) getTrack(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()
	if !h.overrides.Exists(ctx, name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown track"})
		return
	}
	override, err := h.overrides.Get(ctx, name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TrackStatus{Name: name, Overridden: override != nil})
}

func (h *handlers) listOverrides(c *gin.Context) {
	list, err := h.overrides.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overrides": list, "total": len(list)})
}

func (h *handlers) getOverride(c *gin.Context) {
	override, err := h.overrides.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	if override == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no override for track"})
		return
	}
	c.JSON(http.StatusOK, override)
}

func (h *handlers) createOverride(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.File = strings.TrimSpace(req.File)
	req.URL = strings.TrimSpace(req.URL)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if (req.File == "") == (req.URL == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of file or url is required"})
		return
	}

	ctx := c.Request.Context()
	var (
		id  string
		err error
	)
	if req.File != "" {
		id, err = h.overrides.SubmitFromFile(ctx, req.Name, req.File)
	} else {
		id, err = h.overrides.CreateFromStream(ctx, req.Name, media.StreamItem{URL: req.URL, Name: req.Title})
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, Accepted{TaskIDs: []string{id}})
}

func (h *handlers) bulkCreate(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Dir) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dir is required"})
		return
	}
	id, err := h.overrides.BulkCreate(c.Request.Context(), strings.TrimSpace(req.Dir))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, Accepted{TaskIDs: []string{id}})
}

func (h *handlers) removeOverride(c *gin.Context) {
	id, err := h.overrides.Remove(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	if id == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no override for track"})
		return
	}
	c.JSON(http.StatusAccepted, Accepted{TaskIDs: []string{id}})
}

func (h *handlers) removeAll(c *gin.Context) {
	ids, err := h.overrides.RemoveAll(c.Request.Context())
	if err != nil && len(ids) == 0 {
		writeError(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusAccepted, Accepted{TaskIDs: ids})
}

func (h *handlers) search(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit := h.searchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = parsed
	}
	items, err := h.searcher.Search(c.Request.Context(), query, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []media.StreamItem{}
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "total": len(items)})
}

func (h *handlers) listTasks(c *gin.Context) {
	tasks := h.tasks.Tasks()
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Submitted.Before(tasks[j].Submitted) })
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (h *handlers) getTask(c *gin.Context) {
	task, ok := h.tasks.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) tailLogs(c *gin.Context) {
	opts := logs.TailOptions{Offset: -1, Limit: 100}
	if raw := c.Query("lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 5000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lines must be between 0 and 5000"})
			return
		}
		opts.Limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
			return
		}
		opts.Offset = parsed
	}
	if h.logPath == "" {
		c.JSON(http.StatusOK, logs.TailResult{Lines: []string{}})
		return
	}
	result, err := logs.Tail(c.Request.Context(), h.logPath, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.Lines == nil {
		result.Lines = []string{}
	}
	c.JSON(http.StatusOK, result)
}

func writeError(c *gin.Context, err error) {
	c.JSON(services.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"hint":  services.Hint(err),
	})
}

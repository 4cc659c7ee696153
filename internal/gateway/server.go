// Package gateway is the HTTP boundary in front of the aggregation engine:
// it validates submissions, resolves scores, appends the batch, and asks the
// background worker for a merge. Nothing here blocks on merge completion.
package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"comment-radar/internal/ai"
	"comment-radar/internal/model"
	"comment-radar/internal/store"

	"github.com/gin-gonic/gin"
)

// MergeRequester receives best-effort merge triggers after a successful append.
type MergeRequester interface {
	RequestMerge()
}

type Server struct {
	Batches      store.BatchStore
	Snapshots    store.SnapshotStore
	Scorer       ai.Scorer // nil disables model scoring; only pinned items get scores
	Merges       MergeRequester
	Instructions string // default scoring instructions
}

// SubmitRequest is one scoring pass submitted by a caller.
type SubmitRequest struct {
	Comments     []model.Comment `json:"comments"`
	Instructions string          `json:"instructions,omitempty"`
	TopN         int             `json:"topN,omitempty"`
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/batches", s.handleSubmit)
	api.GET("/comments/top", s.handleTop)
	api.GET("/snapshots/latest", s.handleLatest)
	api.POST("/purge", s.handlePurge)
	return r
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := validateSubmission(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instructions := strings.TrimSpace(req.Instructions)
	if instructions == "" {
		instructions = s.Instructions
	}

	scores := map[string]float64{}
	unpinned := make([]model.Comment, 0, len(req.Comments))
	for _, cm := range req.Comments {
		if cm.IsPinned {
			// Pinned comments skip the model and get the sentinel, which
			// outranks any organic score. The engine never knows about
			// pinning; it just sees a score.
			scores[strconv.Itoa(cm.ID)] = model.PinnedScore
			continue
		}
		unpinned = append(unpinned, cm)
	}
	if s.Scorer != nil && len(unpinned) > 0 {
		got, err := s.Scorer.ScoreComments(c.Request.Context(), unpinned, instructions)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "scoring failed: " + err.Error()})
			return
		}
		for id, sc := range got {
			scores[id] = sc
		}
	}

	rec := model.BatchRecord{
		CreatedAt: time.Now().UTC(),
		Items:     req.Comments,
		Scores:    scores,
		Prompt:    instructions,
		KeepHint:  req.TopN,
	}
	id, err := s.Batches.Append(c.Request.Context(), rec)
	if err != nil {
		// The batch is lost, not retried; callers do not block on durability.
		slog.Error("gateway: append failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist batch"})
		return
	}
	if s.Merges != nil {
		s.Merges.RequestMerge()
	}
	c.JSON(http.StatusAccepted, gin.H{"batchId": id, "scored": len(scores), "items": len(req.Comments)})
}

func (s *Server) handleTop(c *gin.Context) {
	n := 10
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = v
	}
	snap, err := s.Snapshots.Latest(c.Request.Context())
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot yet"})
		return
	}
	if err != nil {
		slog.Error("gateway: read latest snapshot failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return
	}
	items := snap.Items
	if len(items) > n {
		items = items[:n]
	}
	c.JSON(http.StatusOK, gin.H{
		"generatedAt": snap.GeneratedAt,
		"summary":     snap.Summary,
		"items":       items,
	})
}

func (s *Server) handleLatest(c *gin.Context) {
	snap, err := s.Snapshots.Latest(c.Request.Context())
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot yet"})
		return
	}
	if err != nil {
		slog.Error("gateway: read latest snapshot failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handlePurge(c *gin.Context) {
	// The two stores are purged independently; a failure in one must not hide
	// what the other removed.
	ctx := c.Request.Context()
	batchesRemoved, batchErr := s.Batches.Purge(ctx)
	snapshotsRemoved, snapErr := s.Snapshots.Purge(ctx)

	resp := gin.H{
		"batchesRemoved":   batchesRemoved,
		"snapshotsRemoved": snapshotsRemoved,
	}
	status := http.StatusOK
	if batchErr != nil {
		resp["batchesError"] = batchErr.Error()
		status = http.StatusInternalServerError
	}
	if snapErr != nil {
		resp["snapshotsError"] = snapErr.Error()
		status = http.StatusInternalServerError
	}
	c.JSON(status, resp)
}

func validateSubmission(req SubmitRequest) error {
	if len(req.Comments) == 0 {
		return errors.New("comments must not be empty")
	}
	if len(req.Comments) > model.MaxBatchItems {
		return fmt.Errorf("too many comments: %d (max %d)", len(req.Comments), model.MaxBatchItems)
	}
	seen := map[int]struct{}{}
	for i, cm := range req.Comments {
		if strings.TrimSpace(cm.Content) == "" {
			return fmt.Errorf("comment %d: content must not be empty", i)
		}
		if _, dup := seen[cm.ID]; dup {
			return fmt.Errorf("duplicate comment id %d within batch", cm.ID)
		}
		seen[cm.ID] = struct{}{}
	}
	if req.TopN < 0 {
		return errors.New("topN must not be negative")
	}
	return nil
}

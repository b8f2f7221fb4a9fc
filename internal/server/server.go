// Package server exposes voice control sessions over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/blockvoice/internal/core"
	"github.com/agenthands/blockvoice/internal/core/challenge"
	"github.com/agenthands/blockvoice/internal/core/model"
	"github.com/agenthands/blockvoice/internal/driver"
	"github.com/agenthands/blockvoice/internal/profile"
	"github.com/agenthands/blockvoice/internal/recognition"
)

const maxAudioChunk = 10 << 20

// SnapshotStore is satisfied by *driver.SnapshotStore.
type SnapshotStore interface {
	Save(ctx context.Context, id, language string, snap model.Snapshot) error
	Load(ctx context.Context, id string) (model.Snapshot, string, error)
}

type entry struct {
	session *core.VoiceControlSession
	mic     *recognition.PushMicrophone
	userID  string
}

type Server struct {
	Options   core.Options
	Deps      core.Deps
	Profiles  profile.Store
	Snapshots SnapshotStore
	Logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewServer builds a server whose sessions share deps. Each session gets its
// own push microphone; uploads in text/* are transcribed verbatim when the
// configured transcriber cannot handle them. Challenge progress goes to
// profiles unless deps names another recorder. snapshots may be nil.
func NewServer(opts core.Options, deps core.Deps, profiles profile.Store, snapshots SnapshotStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if profiles == nil {
		profiles = profile.NewMemoryStore()
	}
	if deps.Progress == nil {
		deps.Progress = profiles
	}
	return &Server{
		Options:   opts,
		Deps:      deps,
		Profiles:  profiles,
		Snapshots: snapshots,
		Logger:    logger,
		sessions:  make(map[string]*entry),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/sessions", s.CreateSession)
	sess := r.Group("/sessions/:id", s.lookup())
	{
		sess.GET("", s.GetSession)
		sess.DELETE("", s.DeleteSession)
		sess.POST("/transcript", s.Transcript)
		sess.POST("/listen/start", s.StartListening)
		sess.POST("/listen/audio", s.UploadAudio)
		sess.POST("/listen/stop", s.StopListening)
		sess.POST("/language", s.SwitchLanguage)
		sess.POST("/run", s.Run)
		sess.GET("/code", s.Code)
		sess.GET("/feedback", s.Feedback)
		sess.POST("/save", s.Save)
		sess.POST("/load", s.Load)
		sess.GET("/challenge", s.GetChallenge)
		sess.POST("/challenge", s.StartChallenge)
	}

	r.GET("/challenges", s.ListChallenges)
	r.GET("/profiles/:user", s.GetProfile)
	r.PUT("/profiles/:user", s.PutProfile)
	r.GET("/progress/:user", s.GetProgress)
	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) lookup() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.RLock()
		e, ok := s.sessions[c.Param("id")]
		s.mu.RUnlock()
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.Set("entry", e)
		c.Next()
	}
}

func current(c *gin.Context) *entry {
	return c.MustGet("entry").(*entry)
}

func (s *Server) transcriber() recognition.Transcriber {
	if s.Deps.Transcriber == nil {
		return recognition.PlainText{}
	}
	return recognition.Fallback{s.Deps.Transcriber, recognition.PlainText{}}
}

type CreateSessionRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	id := uuid.New().String()
	mic := recognition.NewPushMicrophone()
	deps := s.Deps
	deps.Mic = mic
	deps.Transcriber = s.transcriber()
	sess := core.NewVoiceControlSession(id, s.Options, deps, s.Logger)

	if req.UserID != "" {
		sess.BindUser(req.UserID)
		p, err := s.Profiles.Get(c.Request.Context(), req.UserID)
		switch {
		case err == nil:
			sess.ApplyProfile(p)
		case !errors.Is(err, profile.ErrNotFound):
			s.Logger.Warn("failed to load profile", zap.String("user", req.UserID), zap.Error(err))
		}
	}

	s.mu.Lock()
	s.sessions[id] = &entry{session: sess, mic: mic, userID: req.UserID}
	s.mu.Unlock()

	s.Logger.Info("session created", zap.String("session", id), zap.String("user", req.UserID))
	c.JSON(http.StatusCreated, sess.View())
}

func (s *Server) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).session.View())
}

func (s *Server) DeleteSession(c *gin.Context) {
	e := current(c)
	s.mu.Lock()
	delete(s.sessions, e.session.ID)
	s.mu.Unlock()

	if err := e.session.Dispose(); err != nil {
		s.Logger.Warn("dispose failed", zap.String("session", e.session.ID), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

type TranscriptRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

func (s *Server) Transcript(c *gin.Context) {
	var req TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	c.JSON(http.StatusOK, current(c).session.HandleTranscript(c.Request.Context(), req.Transcript))
}

func (s *Server) StartListening(c *gin.Context) {
	// The capture outlives this request.
	c.JSON(http.StatusOK, current(c).session.StartListening(context.Background()))
}

func (s *Server) UploadAudio(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioChunk))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read audio"})
		return
	}
	if err := current(c).mic.Write(data, c.ContentType()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Not listening"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"bytes": len(data)})
}

func (s *Server) StopListening(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).session.StopListening())
}

type LanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

func (s *Server) SwitchLanguage(c *gin.Context) {
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	c.JSON(http.StatusOK, current(c).session.SwitchLanguage(req.Language))
}

func (s *Server) Run(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).session.RunCode(c.Request.Context()))
}

func (s *Server) Code(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).session.Code())
}

func (s *Server) Feedback(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": current(c).session.Events.Drain()})
}

type SnapshotRequest struct {
	Name string `json:"name"`
}

func (s *Server) snapshotName(c *gin.Context) (string, bool) {
	var req SnapshotRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return "", false
		}
	}
	if req.Name == "" {
		req.Name = current(c).session.ID
	}
	return req.Name, true
}

func (s *Server) Save(c *gin.Context) {
	if s.Snapshots == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Snapshot storage is not configured"})
		return
	}
	name, ok := s.snapshotName(c)
	if !ok {
		return
	}
	snap, lang := current(c).session.Snapshot()
	if err := s.Snapshots.Save(c.Request.Context(), name, lang, snap); err != nil {
		s.Logger.Warn("failed to save snapshot", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save workspace"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "blocks": len(snap.Nodes)})
}

func (s *Server) Load(c *gin.Context) {
	if s.Snapshots == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Snapshot storage is not configured"})
		return
	}
	name, ok := s.snapshotName(c)
	if !ok {
		return
	}
	snap, lang, err := s.Snapshots.Load(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, driver.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
			return
		}
		s.Logger.Warn("failed to load snapshot", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workspace"})
		return
	}
	c.JSON(http.StatusOK, current(c).session.Restore(snap, lang))
}

func (s *Server) ListChallenges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"challenges": challenge.Catalog()})
}

type ChallengeRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
}

func (s *Server) StartChallenge(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if _, err := challenge.Lookup(req.ChallengeID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}
	c.JSON(http.StatusOK, current(c).session.StartChallenge(c.Request.Context(), req.ChallengeID))
}

func (s *Server) GetChallenge(c *gin.Context) {
	v, ok := current(c).session.Challenge()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No challenge selected"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) GetProgress(c *gin.Context) {
	list, err := s.Profiles.Progress(c.Request.Context(), c.Param("user"))
	if err != nil {
		s.Logger.Warn("failed to get progress", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get progress"})
		return
	}
	total := 0
	for _, p := range list {
		total += p.XPEarned
	}
	c.JSON(http.StatusOK, gin.H{"progress": list, "xp": total})
}

func (s *Server) GetProfile(c *gin.Context) {
	p, err := s.Profiles.Get(c.Request.Context(), c.Param("user"))
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		s.Logger.Warn("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get profile"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type ProfileRequest struct {
	Mode          string            `json:"mode"`
	Features      *profile.Features `json:"features"`
	Language      string            `json:"language"`
	VoiceDisabled bool              `json:"voiceDisabled"`
}

// PutProfile stores the profile and applies it to the user's live sessions.
// Without explicit features the mode's defaults are used.
func (s *Server) PutProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	mode, err := profile.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.Param("user")
	p := profile.New(userID, mode)
	if req.Features != nil {
		p.Features = *req.Features
	}
	p.Language = req.Language
	p.VoiceDisabled = req.VoiceDisabled

	if err := s.Profiles.Put(c.Request.Context(), p); err != nil {
		s.Logger.Warn("failed to store profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store profile"})
		return
	}
	stored, err := s.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		stored = p
	}

	s.mu.RLock()
	var live []*core.VoiceControlSession
	for _, e := range s.sessions {
		if e.userID == userID {
			live = append(live, e.session)
		}
	}
	s.mu.RUnlock()
	for _, sess := range live {
		sess.ApplyProfile(stored)
	}

	c.JSON(http.StatusOK, stored)
}

// Close disposes every session.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	for id, e := range sessions {
		if err := e.session.Dispose(); err != nil {
			s.Logger.Warn("dispose failed", zap.String("session", id), zap.Error(err))
		}
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg                 *config.Config
	uploadHandler       *Upload
	conversationHandler *Conversation
	noteHandler         *Note
	recordingHandler    *Recording
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, uploadHandler *Upload, conversationHandler *Conversation, noteHandler *Note, recordingHandler *Recording) *Router {
	return &Router{
		cfg:                 cfg,
		uploadHandler:       uploadHandler,
		conversationHandler: conversationHandler,
		noteHandler:         noteHandler,
		recordingHandler:    recordingHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupUploadRoutes(v1)
	rt.setupConversationRoutes(v1)
	rt.setupNoteRoutes(v1)
	rt.setupRecordingRoutes(v1)
}

// setupUploadRoutes configures chunked upload routes
func (rt *Router) setupUploadRoutes(g *echo.Group) {
	uploads := g.Group("/uploads")

	uploads.POST("/init", rt.uploadHandler.Init)
	uploads.POST("/:id/chunks/:index", rt.uploadHandler.Chunk)
	uploads.POST("/:id/finish", rt.uploadHandler.Finish)
	uploads.GET("/:id/recording", rt.recordingHandler.GetBySession)
}

// setupConversationRoutes configures live conversation routes
func (rt *Router) setupConversationRoutes(g *echo.Group) {
	conversations := g.Group("/conversations")

	conversations.POST("", rt.conversationHandler.Start)
	conversations.POST("/:id/utterances", rt.conversationHandler.Utterance)
	conversations.GET("/:id/stats", rt.conversationHandler.Stats)
	conversations.POST("/:id/end", rt.conversationHandler.End)
}

// setupNoteRoutes configures note resource routes
func (rt *Router) setupNoteRoutes(g *echo.Group) {
	notes := g.Group("/notes")

	notes.GET("", rt.noteHandler.List)
	notes.GET("/:id", rt.noteHandler.Get)
	notes.PUT("/:id", rt.noteHandler.Update)
}

// setupRecordingRoutes configures assembled recording routes
func (rt *Router) setupRecordingRoutes(g *echo.Group) {
	recordings := g.Group("/recordings")

	recordings.GET("/:id", rt.recordingHandler.Get)
	recordings.GET("/:id/audio", rt.recordingHandler.Audio)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}

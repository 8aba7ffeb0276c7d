package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/feedkit/app/async"
	"github.com/lysyi3m/feedkit/app/feed"
)

func NewHandler(profileCache *feed.ProfileCache, processor ProcessorInterface, bodyLimit int64, version string) *Handler {
	return &Handler{
		profileCache: profileCache,
		processor:    processor,
		bodyLimit:    bodyLimit,
		version:      version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"timestamp":       time.Now().In(time.Local).Format(time.RFC3339),
		"version":         h.version,
		"loaded_profiles": h.profileCache.GetProfileCount(),
	})
}

func (h *Handler) APIListProfiles(c *gin.Context) {
	names := h.profileCache.GetProfileNames()

	profiles := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		profile, err := h.profileCache.GetProfile(name)
		if err != nil {
			continue
		}

		sections := make([]string, 0, len(profile.Sections))
		for _, section := range profile.Sections {
			sections = append(sections, section.Name)
		}

		profiles = append(profiles, map[string]interface{}{
			"name":     profile.Name,
			"sections": sections,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"total":    len(profiles),
	})
}

func (h *Handler) APIGetProfileDetails(c *gin.Context) {
	name := c.Param("name")

	profile, err := h.profileCache.GetProfile(name)
	if err != nil {
		slog.Error("Profile not found", "profile", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	sections := make([]gin.H, 0, len(profile.Sections))
	for _, section := range profile.Sections {
		sections = append(sections, gin.H{
			"name":     section.Name,
			"path":     section.Path,
			"fields":   len(section.Fields),
			"links":    len(section.Links),
			"contents": len(section.Contents),
			"filters":  len(section.Filters),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"name":     profile.Name,
		"sections": sections,
	})
}

func (h *Handler) APIReloadProfile(c *gin.Context) {
	name := c.Param("name")

	profile, err := h.profileCache.LoadProfile(name)
	if err != nil {
		slog.Error("Error reloading profile", "profile", name, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to reload profile",
			"details": err.Error(),
		})
		return
	}

	slog.Info("Profile reloaded", "profile", name, "sections", len(profile.Sections))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile reloaded successfully",
		"profile": profile.Name,
	})
}

func (h *Handler) APINormalize(c *gin.Context) {
	name := c.Param("name")

	profile, err := h.profileCache.GetProfile(name)
	if err != nil {
		slog.Error("Profile not found", "profile", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.bodyLimit+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}
	if int64(len(data)) > h.bodyLimit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Document exceeds body limit"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document is empty"})
		return
	}

	contentType := c.GetHeader("Content-Type")
	future := async.Go(func() (*feed.Result, error) {
		return h.processor.Run(data, contentType, profile)
	})

	result, err := future.Wait(c.Request.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("Request ended before normalization finished", "profile", name, "error", err)
			c.Status(http.StatusRequestTimeout)
			return
		}
		slog.Error("Normalization error", "profile", name, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to normalize document",
			"details": err.Error(),
		})
		return
	}

	records := 0
	for _, section := range result.Sections {
		records += len(section)
	}

	c.Header("X-Encoding", result.Encoding)
	c.Header("X-Records", strconv.Itoa(records))
	c.JSON(http.StatusOK, result)
}

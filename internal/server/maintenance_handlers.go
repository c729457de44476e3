// file: internal/server/maintenance_handlers.go
// version: 1.2.0
// guid: 0b1c2d3e-4f5a-4b6c-7d8e-9f0a1b2c3d4f

package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/shelfkeeper/internal/backup"
	"github.com/jdfalk/shelfkeeper/internal/models"
)

func (s *Server) findDuplicates(c *gin.Context) {
	groups, err := s.svc.FindDuplicates(c.Query("shelf"))
	if err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"count":  len(groups),
	})
}

func (s *Server) nearTitleMatches(c *gin.Context) {
	maxRank := 10
	if v := c.Query("max_rank"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			RespondWithBadRequest(c, "max_rank must be an integer")
			return
		}
		maxRank = n
	}
	matches, err := s.svc.NearTitleMatches(c.Param("id"), maxRank)
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, matches)
}

func (s *Server) mergeDuplicates(c *gin.Context) {
	var req struct {
		IDs    []string `json:"ids" binding:"required"`
		KeepID string   `json:"keep_id"`
	}
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	res, err := s.svc.MergeDuplicates(req.IDs, req.KeepID)
	if err != nil {
		RespondWithBadRequest(c, err.Error())
		return
	}
	RespondWithOK(c, res)
}

func (s *Server) cleanupDuplicates(c *gin.Context) {
	res, err := s.svc.CleanupDuplicates(c.Query("shelf"))
	if err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	RespondWithOK(c, res)
}

func (s *Server) applyStaleRules(c *gin.Context) {
	res, err := s.svc.ApplyStaleRules()
	if err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	RespondWithOK(c, res)
}

func (s *Server) exportBackup(c *gin.Context) {
	data, err := s.svc.Export()
	if err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shelfkeeper-backup.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) importBackup(c *gin.Context) {
	mode, err := backup.ParseMode(c.Query("mode"))
	if err != nil {
		RespondWithBadRequest(c, err.Error())
		return
	}
	data, err := c.GetRawData()
	if err != nil {
		RespondWithBadRequest(c, "failed to read request body: "+err.Error())
		return
	}
	summary, err := s.svc.Import(data, mode)
	if err != nil {
		RespondWithBadRequest(c, err.Error())
		return
	}
	RespondWithOK(c, summary)
}

func (s *Server) getStats(c *gin.Context) {
	st, err := s.svc.Stats()
	if err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	RespondWithOK(c, st)
}

func (s *Server) getSettings(c *gin.Context) {
	st, err := s.svc.GetSettings()
	if err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	RespondWithOK(c, st)
}

func (s *Server) updateSettings(c *gin.Context) {
	var st models.LibrarySettings
	if HandleBindError(c, c.ShouldBindJSON(&st)) {
		return
	}
	if st.AutoHoldDays < 0 {
		RespondWithBadRequest(c, "auto_hold_days must not be negative")
		return
	}
	if err := s.svc.SetSettings(st); err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	RespondWithOK(c, st)
}

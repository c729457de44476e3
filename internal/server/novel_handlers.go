// file: internal/server/novel_handlers.go
// version: 1.3.0
// guid: 9a0b1c2d-3e4f-4a5b-6c7d-8e9f0a1b2c3e

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/shelfkeeper/internal/library"
	"github.com/jdfalk/shelfkeeper/internal/models"
	"github.com/jdfalk/shelfkeeper/internal/shelves"
)

type shelfResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Hosts []string `json:"hosts"`
	Color string   `json:"color"`
}

func (s *Server) listShelves(c *gin.Context) {
	all := shelves.All()
	out := make([]shelfResponse, 0, len(all))
	for _, sh := range all {
		out = append(out, shelfResponse{ID: sh.ID, Name: sh.Name, Hosts: sh.Hosts, Color: sh.Color})
	}
	RespondWithOK(c, out)
}

func (s *Server) validateURL(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		RespondWithBadRequest(c, "url query parameter is required")
		return
	}
	shelfID, siteID, err := library.ValidateURL(raw)
	if err != nil {
		RespondWithBadRequest(c, err.Error())
		return
	}
	RespondWithOK(c, gin.H{
		"shelf_id":      shelfID,
		"site_novel_id": siteID,
		"novel_id":      models.NovelID(shelfID, siteID),
	})
}

func (s *Server) listNovels(c *gin.Context) {
	novels, err := s.svc.ListNovels(c.Query("shelf"))
	if err != nil {
		RespondWithInternalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": novels,
		"count": len(novels),
	})
}

func (s *Server) getNovel(c *gin.Context) {
	n, chapters, err := s.svc.GetNovel(c.Param("id"))
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, gin.H{
		"novel":    n,
		"chapters": chapters,
	})
}

func (s *Server) editNovel(c *gin.Context) {
	var fields models.PartialNovel
	if HandleBindError(c, c.ShouldBindJSON(&fields)) {
		return
	}
	n, err := s.svc.EditNovel(c.Param("id"), fields)
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, n)
}

func (s *Server) deleteNovel(c *gin.Context) {
	if err := s.svc.DeleteNovel(c.Param("id")); err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setReadingStatus(c *gin.Context) {
	var req struct {
		Status models.ReadingStatus `json:"status" binding:"required"`
	}
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	n, err := s.svc.SetReadingStatus(c.Param("id"), req.Status)
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, n)
}

func (s *Server) updateProgress(c *gin.Context) {
	var req struct {
		Chapter int    `json:"chapter" binding:"required"`
		URL     string `json:"url"`
	}
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	n, err := s.svc.UpdateProgress(c.Param("id"), req.Chapter, req.URL)
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, n)
}

func (s *Server) resetEditedFields(c *gin.Context) {
	var req struct {
		Fields []models.FieldName `json:"fields"`
	}
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	n, err := s.svc.ResetEditedFields(c.Param("id"), req.Fields)
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, n)
}

func (s *Server) markChapterRead(c *gin.Context) {
	ch, err := s.svc.MarkChapterRead(c.Param("id"), c.Param("key"))
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, ch)
}

func (s *Server) markChapterEnhanced(c *gin.Context) {
	var req struct {
		Enhanced *bool `json:"enhanced" binding:"required"`
	}
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	ch, err := s.svc.MarkChapterEnhanced(c.Param("id"), c.Param("key"), *req.Enhanced)
	if err != nil {
		respondNovelError(c, err, c.Param("id"))
		return
	}
	RespondWithOK(c, ch)
}

// reconcileScrape is the extension's main entry point: the page URL plus
// whatever metadata the content script extracted.
func (s *Server) reconcileScrape(c *gin.Context) {
	var req struct {
		URL        string              `json:"url" binding:"required"`
		Novel      models.PartialNovel `json:"novel"`
		ManualEdit bool                `json:"manual_edit"`
	}
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	n, created, err := s.svc.ReconcileScrape(req.URL, req.Novel, req.ManualEdit)
	if err != nil {
		if errors.Is(err, library.ErrUnknownShelf) || errors.Is(err, library.ErrNoNovelID) {
			RespondWithBadRequest(c, err.Error())
			return
		}
		RespondWithInternalError(c, err.Error())
		return
	}
	if created {
		RespondWithCreated(c, n)
		return
	}
	RespondWithOK(c, n)
}

func respondNovelError(c *gin.Context, err error, id string) {
	if errors.Is(err, library.ErrNotFound) {
		RespondWithNotFound(c, "novel", id)
		return
	}
	RespondWithInternalError(c, err.Error())
}

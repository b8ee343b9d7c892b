package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pocketbreak/backend/internal/models"
)

// GetPlayerProfile returns a player's profile and match stats
// GET /api/v1/player/:handle
func GetPlayerProfile(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := strings.TrimSpace(c.Param("handle"))

		var player models.Player
		err := db.Get(&player, `
			SELECT id, handle, display_name, pin_hash, created_at, last_active,
			       total_matches_played, total_matches_won, is_active
			FROM players WHERE handle=$1`, handle)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			log.Printf("GetPlayerProfile DB error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"handle":               player.Handle,
			"display_name":         player.DisplayName,
			"has_pin":              player.PINHash.Valid && player.PINHash.String != "",
			"total_matches_played": player.TotalMatchesPlayed,
			"total_matches_won":    player.TotalMatchesWon,
			"created_at":           player.CreatedAt,
		})
	}
}

// UpdateDisplayName changes a player's display name
// PUT /api/v1/player/:handle/display-name
func UpdateDisplayName(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := strings.TrimSpace(c.Param("handle"))

		var req struct {
			DisplayName string `json:"display_name"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name required"})
			return
		}

		name := strings.TrimSpace(req.DisplayName)
		if name == "" || len(name) > 64 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name must be 1-64 characters"})
			return
		}

		res, err := db.Exec(`UPDATE players SET display_name=$1 WHERE handle=$2`, name, handle)
		if err != nil {
			log.Printf("UpdateDisplayName DB error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "display_name": name})
	}
}

package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/pocketbreak/backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const sessionTokenTTL = 24 * time.Hour

// SetPIN sets or updates a player's PIN
// POST /api/v1/auth/set-pin
func SetPIN(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Handle string `json:"handle"`
			PIN    string `json:"pin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle and pin required"})
			return
		}

		handle := strings.TrimSpace(req.Handle)
		if handle == "" || len(req.PIN) < 4 || len(req.PIN) > 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pin must be 4-8 digits"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("SetPIN hash error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		res, err := db.Exec(`UPDATE players SET pin_hash=$1 WHERE handle=$2`, string(hash), handle)
		if err != nil {
			log.Printf("SetPIN DB error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// LoginWithPIN verifies a player's PIN and issues a session token
// POST /api/v1/auth/login
func LoginWithPIN(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Handle string `json:"handle"`
			PIN    string `json:"pin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle and pin required"})
			return
		}

		var player struct {
			ID      int            `db:"id"`
			PINHash sql.NullString `db:"pin_hash"`
		}
		err := db.Get(&player, `SELECT id, pin_hash FROM players WHERE handle=$1`, strings.TrimSpace(req.Handle))
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid handle or pin"})
			return
		}
		if err != nil {
			log.Printf("LoginWithPIN DB error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if !player.PINHash.Valid ||
			bcrypt.CompareHashAndPassword([]byte(player.PINHash.String), []byte(req.PIN)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid handle or pin"})
			return
		}

		claims := jwt.RegisteredClaims{
			Subject:   strings.TrimSpace(req.Handle),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("LoginWithPIN sign error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		db.Exec(`UPDATE players SET last_active=NOW() WHERE id=$1`, player.ID)

		c.JSON(http.StatusOK, gin.H{"session_token": signed})
	}
}

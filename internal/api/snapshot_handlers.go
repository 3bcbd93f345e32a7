package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lenskeep/lenskeep/internal/backup"
	"github.com/lenskeep/lenskeep/internal/database"
)

type bulkRequest struct {
	Names []string `json:"names" binding:"required"`
}

// operatorEmail names the authenticated admin for the audit log
func operatorEmail(c *gin.Context) string {
	if user, ok := getUserFromContext(c); ok {
		return user.Email
	}
	return "unknown"
}

func (s *Server) createSnapshotHandler(c *gin.Context) {
	archive, err := s.manager.CreateSnapshot(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Snapshot creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create snapshot"})
		return
	}
	s.logger.Info().
		Str("operator", operatorEmail(c)).
		Str("name", archive.Name).
		Msg("Snapshot created by operator")
	c.JSON(http.StatusCreated, archive)
}

func (s *Server) listSnapshotsHandler(c *gin.Context) {
	archives, err := s.manager.ListSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list snapshots"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": archives})
}

func (s *Server) deleteSnapshotHandler(c *gin.Context) {
	name := c.Param("name")
	if err := s.manager.DeleteSnapshot(name); err != nil {
		switch {
		case backup.IsUnsafeName(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot name"})
		case backup.IsNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete snapshot"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Snapshot deleted"})
}

func (s *Server) bulkDeleteSnapshotsHandler(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	deleted, err := s.manager.BulkDeleteSnapshots(req.Names)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Bulk delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) bulkDownloadSnapshotsHandler(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="snapshots.zip"`)

	if err := s.manager.BulkDownloadSnapshots(req.Names, c.Writer); err != nil {
		// Headers may already be out; log and abort the stream
		s.logger.Error().Err(err).Msg("Bulk download failed")
		c.Abort()
		return
	}
}

func (s *Server) restoreFromStoredHandler(c *gin.Context) {
	name := c.Param("name")
	if err := s.manager.RestoreFromStored(c.Request.Context(), name); err != nil {
		s.respondRestoreError(c, err)
		return
	}
	s.logger.Info().
		Str("operator", operatorEmail(c)).
		Str("name", name).
		Msg("Restore triggered by operator")
	c.JSON(http.StatusOK, gin.H{"message": "Restore complete"})
}

func (s *Server) restoreFromUploadHandler(c *gin.Context) {
	file, _, err := c.Request.FormFile("backup")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing backup file"})
		return
	}
	defer file.Close()

	if err := s.manager.RestoreFromUpload(c.Request.Context(), file); err != nil {
		s.respondRestoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restore complete"})
}

func (s *Server) respondRestoreError(c *gin.Context, err error) {
	switch {
	case backup.IsUnsafeName(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot name"})
	case backup.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
	case backup.IsInvalidBackup(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid backup: " + err.Error()})
	case backup.IsSwapFailure(err):
		// Live state may be inconsistent; tell the operator plainly
		s.logger.Error().Err(err).Msg("Restore failed mid-swap, manual inspection required")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Restore failed mid-swap, manual inspection required: " + err.Error()})
	default:
		s.logger.Error().Err(err).Msg("Restore failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Restore failed"})
	}
}

func (s *Server) runMigrationsHandler(c *gin.Context) {
	if err := s.runner.Run(c.Request.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Migration run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Migrations complete"})
}

func (s *Server) revertLastMigrationHandler(c *gin.Context) {
	name, err := s.runner.RevertLast(c.Request.Context())
	if err != nil {
		if errors.Is(err, database.ErrRevertUnsupported) {
			// A one-way migration is a normal outcome, not a failure
			c.JSON(http.StatusOK, gin.H{"message": "Migration " + name + " has no revert", "reverted": false})
			return
		}
		s.logger.Error().Err(err).Msg("Migration revert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reverted migration " + name, "reverted": true})
}

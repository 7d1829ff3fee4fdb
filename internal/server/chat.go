package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"mindmate/internal/conversation"
)

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	_ = c.Bind(&req)
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.UserID) == "" {
		return c.JSON(http.StatusOK, replyResponse{Reply: "Please enter a message."})
	}
	reply := s.deps.Chat.Reply(c.Request().Context(), req.UserID, req.Message)
	return c.JSON(http.StatusOK, replyResponse{Reply: reply})
}

// voice stores the upload in the scratch directory for the duration of the
// transcription and removes it afterwards.
func (s *Server) voice(c echo.Context) error {
	ctx := c.Request().Context()
	userID := strings.TrimSpace(c.FormValue("user_id"))
	if userID == "" {
		return c.JSON(http.StatusOK, replyResponse{Reply: "Missing user ID."})
	}
	fh, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusOK, replyResponse{Reply: "No audio file uploaded."})
	}

	name := sanitizeFilename(fh.Filename)
	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+"_"+name)
	if err := saveUpload(fh, path); err != nil {
		s.logger.ErrorContext(ctx, "failed to store upload", "user_id", userID, "error", err)
		return c.JSON(http.StatusOK, replyResponse{Reply: conversation.ReplyUnrecognized})
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			s.logger.WarnContext(ctx, "failed to remove upload", "path", path, "error", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to reopen upload", "path", path, "error", err)
		return c.JSON(http.StatusOK, replyResponse{Reply: conversation.ReplyUnrecognized})
	}
	defer f.Close()

	reply := s.deps.Chat.ReplyVoice(ctx, userID, f, name)
	return c.JSON(http.StatusOK, replyResponse{Reply: reply})
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// sanitizeFilename keeps letters, digits, dot, dash and underscore of the
// base name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), "._")
	if out == "" {
		return "audio"
	}
	return out
}

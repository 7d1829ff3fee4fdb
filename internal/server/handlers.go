package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"mindmate/internal/auth"
	"mindmate/internal/journal"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type addJournalRequest struct {
	UserID  string `json:"user_id"`
	Journal string `json:"journal"`
}

type analyzeRequest struct {
	UserID  string `json:"user_id"`
	Journal string `json:"journal"`
}

type recommendRequest struct {
	UserID string `json:"user_id"`
	// Mood is accepted for compatibility and ignored.
	Mood       string `json:"mood"`
	MaxEntries int    `json:"max_entries"`
}

func (s *Server) home(c echo.Context) error {
	return c.String(http.StatusOK, "Hello! Your API is working.")
}

func (s *Server) addJournal(c echo.Context) error {
	var req addJournalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing data"})
	}
	if _, err := s.deps.Journals.Append(c.Request().Context(), req.UserID, req.Journal); err != nil {
		if errors.Is(err, journal.ErrValidation) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing data"})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Journal saved!"})
}

func (s *Server) getJournal(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing user_id"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	views, err := s.deps.Journals.List(c.Request().Context(), userID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to fetch journals"})
	}
	return c.JSON(http.StatusOK, map[string][]journal.View{"journals": views})
}

// analyzeJournal assesses the posted text, or the user's latest entry when
// no text is given.
func (s *Server) analyzeJournal(c echo.Context) error {
	var req analyzeRequest
	_ = c.Bind(&req)
	ctx := c.Request().Context()

	text := strings.TrimSpace(req.Journal)
	if text == "" && strings.TrimSpace(req.UserID) != "" {
		latest, ok, err := s.deps.Journals.Latest(ctx, req.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to fetch journals"})
		}
		if ok {
			text = latest.Text
		}
	}
	if text == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing journal text"})
	}
	return c.JSON(http.StatusOK, s.deps.Analyzer.Assess(text))
}

// moodStats reports per-day mood statistics over the last days (default 7).
func (s *Server) moodStats(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing user_id"})
	}
	days, _ := strconv.Atoi(c.QueryParam("days"))
	report, err := s.deps.Stats.Report(c.Request().Context(), userID, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to fetch journals"})
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) recommend(c echo.Context) error {
	var req recommendRequest
	_ = c.Bind(&req)
	return c.JSON(http.StatusOK, s.deps.Recommender.Recommend(c.Request().Context(), strings.TrimSpace(req.UserID)))
}

func (s *Server) recommendFromJournals(c echo.Context) error {
	var req recommendRequest
	_ = c.Bind(&req)
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing user_id"})
	}
	return c.JSON(http.StatusOK, s.deps.Recommender.FromJournals(c.Request().Context(), userID, req.MaxEntries))
}

func (s *Server) protected(c echo.Context) error {
	token, ok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok || s.deps.Verifier == nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	}
	p, err := s.deps.Verifier.Verify(c.Request().Context(), token)
	if err != nil {
		s.logger.WarnContext(c.Request().Context(), "token verification failed", "error", err)
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Hello, " + p.Email + "!"})
}

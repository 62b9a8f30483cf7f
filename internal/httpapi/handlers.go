package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openword/roundserver/internal/roomactor"
	"github.com/openword/roundserver/internal/roomstate"
)

func normalizeCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return code, roomCodePattern.MatchString(code)
}

func (s *Server) actorFor(c *gin.Context) (*roomactor.Actor, string, bool) {
	code, valid := normalizeCode(c.Param("code"))
	if !valid {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown room code"})
		return nil, "", false
	}
	a, ok := s.registry.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: fmt.Sprintf("room %q not found", code)})
		return nil, "", false
	}
	return a, code, true
}

func respond(c *gin.Context, status int, body any, ferr *roomstate.Failure) {
	if ferr != nil {
		c.JSON(statusFor(ferr.Kind), errorResponse{Error: ferr.Message})
		return
	}
	c.JSON(status, body)
}

type cachedEnvelope struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// withIdempotency replays a cached response for a repeated
// Idempotency-Key header instead of re-running a mutating command, per
// SPEC_FULL.md's idempotency-cache domain-stack component. Requests with
// no header bypass the cache entirely.
func (s *Server) withIdempotency(c *gin.Context, roomCode string, fn func() (int, any, *roomstate.Failure)) {
	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		status, body, ferr := fn()
		respond(c, status, body, ferr)
		return
	}

	ctx := c.Request.Context()
	var cached cachedEnvelope
	if found, err := s.idemp.Get(ctx, roomCode, key, &cached); err == nil && found {
		c.Data(cached.Status, "application/json", cached.Body)
		return
	} else if err != nil {
		s.log.Warn().Err(err).Str("room", roomCode).Msg("idempotency cache read failed")
	}

	status, body, ferr := fn()
	if ferr != nil {
		respond(c, status, body, ferr)
		return
	}
	if raw, err := json.Marshal(body); err == nil {
		if err := s.idemp.Put(ctx, roomCode, key, cachedEnvelope{Status: status, Body: raw}); err != nil {
			s.log.Warn().Err(err).Str("room", roomCode).Msg("idempotency cache write failed")
		}
	}
	respond(c, status, body, nil)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	result, ferr := s.registry.CreateRoom(req.HostName, req.MaxParticipants)
	if ferr != nil {
		respond(c, 0, nil, ferr)
		return
	}
	respond(c, http.StatusCreated, createRoomResponse{
		RoomCode:        result.RoomCode,
		HostName:        result.HostName,
		MaxParticipants: result.MaxParticipants,
		WSPath:          "/ws/" + result.RoomCode,
		HostToken:       result.HostToken,
	}, nil)
}

func (s *Server) handleGetRoom(c *gin.Context) {
	a, _, ok := s.actorFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.Snapshot())
}

func (s *Server) handleJoin(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		result, ferr := a.SubmitJoin(req.Name)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusAccepted, joinResponse{
			RequestID:   result.RequestID,
			Participant: result.Participant,
			Status:      result.Status,
		}, nil
	})
}

func (s *Server) handleAdmissions(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req admissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.ReviewJoin(req.HostToken, req.RequestID, req.Approve)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleStart(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.StartGame(req.HostToken, req.Config)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleCall(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.CallNumber(req.ParticipantID, req.Number)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleDraft(c *gin.Context) {
	a, _, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if ferr := a.UpdateDraft(req.ParticipantID, req.Answers); ferr != nil {
		respond(c, 0, nil, ferr)
		return
	}
	c.JSON(http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleSubmit(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.SubmitAnswers(req.ParticipantID, req.Answers)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleEndRound(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req endRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.EndRoundEarly(req.ParticipantID)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleScore(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.ScoreSubmission(req.HostToken, req.RoundNumber, req.ParticipantID, req.Marks)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handlePublish(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req roundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.PublishRound(req.HostToken, req.RoundNumber)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleDiscard(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req roundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.DiscardRound(req.HostToken, req.RoundNumber)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleCancel(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req hostOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.CancelGame(req.HostToken)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

func (s *Server) handleFinish(c *gin.Context) {
	a, code, ok := s.actorFor(c)
	if !ok {
		return
	}
	var req hostOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.withIdempotency(c, code, func() (int, any, *roomstate.Failure) {
		snap, ferr := a.EndGame(req.HostToken)
		if ferr != nil {
			return 0, nil, ferr
		}
		return http.StatusOK, snap, nil
	})
}

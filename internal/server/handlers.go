package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/leofalp/chatwidget/core/attachment"
	"github.com/leofalp/chatwidget/core/client"
	"github.com/leofalp/chatwidget/core/format"
	"github.com/leofalp/chatwidget/providers/ai"
)

type createSessionResponse struct {
	ID       string `json:"id"`
	Greeting string `json:"greeting,omitempty"`
}

type attachmentPayload struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type messageRequest struct {
	Text        string              `json:"text"`
	Attachments []attachmentPayload `json:"attachments"`
}

type messageResponse struct {
	Reply    string           `json:"reply"`
	Mode     format.Mode      `json:"mode,omitempty"`
	Segments []format.Segment `json:"segments,omitempty"`
	HTML     string           `json:"html,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type historyResponse struct {
	Turns []ai.Turn `json:"turns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.SessionCount()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.CreateSession(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "create session failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: id, Greeting: s.greeting})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	if !sess.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many messages, slow down")
		return
	}

	// Base64 inflates JSON payloads by a third; leave room for several images.
	r.Body = http.MaxBytesReader(w, r.Body, 8*s.loader.MaxBytes())

	text, attachments, warnings, err := s.readMessage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := sess.client.Submit(r.Context(), text, attachments)
	var perr *ai.ProviderError
	switch {
	case err == nil:
	case errors.Is(err, client.ErrNothingToSend):
		writeJSON(w, http.StatusBadRequest, messageResponse{Error: err.Error(), Warnings: warnings})
		return
	case errors.Is(err, client.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &perr):
		s.logger.WarnContext(r.Context(), "provider call failed",
			slog.String("session", sess.id),
			slog.String("kind", string(perr.Kind)),
			slog.String("error", perr.Error()),
		)
		writeJSON(w, http.StatusBadGateway, messageResponse{
			Reply:    client.FallbackMessage,
			Error:    string(perr.Kind),
			Warnings: warnings,
		})
		return
	default:
		s.logger.ErrorContext(r.Context(), "submit failed", slog.String("session", sess.id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, messageResponse{Reply: client.FallbackMessage, Warnings: warnings})
		return
	}

	text = reply.Display.Text()
	sess.mu.Lock()
	sess.lastReply = text
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, messageResponse{
		Reply:    text,
		Mode:     reply.Display.Mode,
		Segments: reply.Display.Segments,
		HTML:     reply.Display.HTML(),
		Warnings: warnings,
	})
}

// readMessage accepts either a JSON body or a multipart form with a text
// field and image files. Rejected attachments become warnings.
func (s *Server) readMessage(r *http.Request) (string, []attachment.Attachment, []string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.loader.MaxBytes()); err != nil {
			return "", nil, nil, fmt.Errorf("invalid form: %w", err)
		}
		var (
			attachments []attachment.Attachment
			warnings    []string
		)
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", fh.Filename, err))
				continue
			}
			a, err := s.loader.LoadReader(fh.Filename, f, fh.Header.Get("Content-Type"))
			f.Close()
			if err != nil {
				warnings = append(warnings, err.Error())
				continue
			}
			attachments = append(attachments, a)
		}
		return r.FormValue("text"), attachments, warnings, nil
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", nil, nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	var (
		inputs   []attachment.Input
		warnings []string
	)
	for _, p := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: invalid base64 data", p.Name))
			continue
		}
		inputs = append(inputs, attachment.Input{Name: p.Name, Data: data, DeclaredMime: p.MimeType})
	}
	attachments, errs := s.loader.Collect(inputs)
	for _, err := range errs {
		warnings = append(warnings, err.Error())
	}
	return req.Text, attachments, warnings, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	turns, err := sess.client.Store().ProviderPayload(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "history failed", slog.String("session", sess.id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Turns: turns})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	err := s.DeleteSession(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.ErrorContext(r.Context(), "delete session failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "could not delete session")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

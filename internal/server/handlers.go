package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jonathan/form-filler/internal/aliases"
	"github.com/jonathan/form-filler/internal/candidates"
	"github.com/jonathan/form-filler/internal/dom"
	"github.com/jonathan/form-filler/internal/filler"
	"github.com/jonathan/form-filler/internal/highlight"
	"github.com/jonathan/form-filler/internal/htmldoc"
	"github.com/jonathan/form-filler/internal/messaging"
	"github.com/jonathan/form-filler/internal/server/middleware"
	"github.com/jonathan/form-filler/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds the pages filled at once by POST /fill/batch.
const batchConcurrency = 4

// handleAliases returns the alias table in key order
func (s *Server) handleAliases(w http.ResponseWriter, _ *http.Request) {
	keys := aliases.Keys()
	entries := make([]types.AliasEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, types.AliasEntry{Key: k, Aliases: aliases.Lookup(k)})
	}
	s.jsonResponse(w, http.StatusOK, entries)
}

// handleCandidates lists candidates from the configured source
func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.writeError(w, &ErrUnavailable{Feature: "candidate listing"})
		return
	}
	list, err := s.source.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []types.Candidate{}
	}
	s.jsonResponse(w, http.StatusOK, types.CandidateListResponse{Candidates: list, Count: len(list)})
}

// handleFill fills one HTML document in memory
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var req types.FillRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, &ErrValidation{Field: "request", Message: err.Error()})
		return
	}

	c, err := s.resolveCandidate(r.Context(), req.Message, req.CandidateID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp, err := s.fillMarkup(r, req.HTML, c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleFillBatch fills several documents concurrently with one candidate
func (s *Server) handleFillBatch(w http.ResponseWriter, r *http.Request) {
	var req types.FillBatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, &ErrValidation{Field: "request", Message: err.Error()})
		return
	}

	c, err := s.resolveCandidate(r.Context(), req.Message, req.CandidateID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	results := make([]types.FillResponse, len(req.Pages))
	g, _ := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)
	for i, markup := range req.Pages {
		g.Go(func() error {
			resp, err := s.fillMarkup(r, markup, c)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.FillBatchResponse{Results: results})
}

// handleFillURL opens a URL in a browser and fills it live
func (s *Server) handleFillURL(w http.ResponseWriter, r *http.Request) {
	if s.openPage == nil {
		s.writeError(w, &ErrUnavailable{Feature: "browser fill"})
		return
	}

	var req types.FillURLRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, &ErrValidation{Field: "request", Message: err.Error()})
		return
	}

	c, err := s.resolveCandidate(r.Context(), req.Message, req.CandidateID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.browsers.Acquire(r.Context(), 1); err != nil {
		s.writeError(w, &ErrUnavailable{Feature: "browser fill"})
		return
	}
	defer s.browsers.Release(1)

	page, release, err := s.openPage(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer release()

	outcome := s.fill(r, page, c)
	markup, err := page.HTML()
	if err != nil {
		s.logger.Warn("failed to serialize live page", zap.String("url", req.URL), zap.Error(err))
	}
	s.jsonResponse(w, http.StatusOK, types.NewFillResponse(outcome, markup))
}

// decode reads a JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// resolveCandidate picks the record to fill from an inline message, or
// looks candidateID up in the candidate source when no message is given.
func (s *Server) resolveCandidate(ctx context.Context, raw json.RawMessage, candidateID string) (types.Candidate, error) {
	if len(raw) > 0 {
		msg, err := messaging.Parse(raw)
		if err != nil {
			return types.Candidate{}, err
		}
		if candidateID == "" {
			return msg.Candidate(), nil
		}
		for _, c := range msg.Candidates {
			if c.ID() == candidateID {
				return c, nil
			}
		}
		return types.Candidate{}, &ErrCandidateNotFound{ID: candidateID}
	}

	if s.source == nil {
		return types.Candidate{}, &ErrUnavailable{Feature: "candidate lookup"}
	}
	c, ok, err := candidates.Find(ctx, s.source, candidateID)
	if err != nil {
		return types.Candidate{}, err
	}
	if !ok {
		return types.Candidate{}, &ErrCandidateNotFound{ID: candidateID}
	}
	return c, nil
}

// fillMarkup parses markup, fills it and returns the filled document.
func (s *Server) fillMarkup(r *http.Request, markup string, c types.Candidate) (types.FillResponse, error) {
	doc, err := htmldoc.ParseString(markup)
	if err != nil {
		return types.FillResponse{}, err
	}
	outcome := s.fill(r, doc, c)
	html, err := doc.HTML()
	if err != nil {
		return types.FillResponse{}, err
	}
	return types.NewFillResponse(outcome, html), nil
}

// fill runs one fill with a private highlighter and records the outcome.
// Pending highlights are cancelled before returning so the page style is
// back to what the host set.
func (s *Server) fill(r *http.Request, page dom.Page, c types.Candidate) types.Outcome {
	h := highlight.New(s.highlight)
	opts := s.fillOpts
	opts.Flasher = h

	outcome := filler.New(opts).Fill(r.Context(), page, c)
	h.Stop()

	logger := s.logger.With(zap.Stringer("run_id", outcome.RunID), zap.String("state", string(outcome.State)))
	if clientID, err := middleware.GetClientID(r); err == nil {
		logger = logger.With(zap.Stringer("client_id", clientID))
	}
	logger.Info("fill finished", zap.Int("filled", outcome.Filled()))

	if s.recorder != nil {
		if err := s.recorder.RecordFillRun(r.Context(), c.ID(), outcome); err != nil {
			logger.Warn("failed to record fill run", zap.Error(err))
		}
	}
	return outcome
}

package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

// runAudit queues an audit. With ?wait=true it is processed inline with the
// worker code path and the finished detail is returned.
func (s *Server) runAudit(w http.ResponseWriter, r *http.Request) {
	var wait bool
	if err := runtime.BindQueryParameter("form", true, false, "wait", r.URL.Query(), &wait); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	var timeoutSec int
	if err := runtime.BindQueryParameter("form", true, false, "timeout", r.URL.Query(), &timeoutSec); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	var req ports.AuditRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	sess, err := s.audits.Enqueue(r.Context(), req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if !wait || s.runner == nil {
		writeJSON(w, http.StatusAccepted, sess)
		return
	}

	timeout := s.auditTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	if err := s.runner.ProcessInline(ctx, sess.ID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	d, err := s.audits.Get(r.Context(), sess.ID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.audits.List(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.AuditSession{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	d, err := s.audits.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateAssumptions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	var o domain.AssumptionOverrides
	if err := decodeJSON(w, r, &o, true); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	d, err := s.audits.UpdateAssumptions(r.Context(), id, o)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var in domain.AuditInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.audits.Evaluate(r.Context(), in))
}

func (s *Server) pdf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	link, err := s.reports.PDF(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	page, err := s.reports.HTML(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

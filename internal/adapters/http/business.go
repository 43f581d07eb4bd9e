package httpadapter

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

type connectRequest struct {
	OrgName string `json:"org_name"`
}

type connectResponse struct {
	Success      bool   `json:"success"`
	OrgName      string `json:"org_name"`
	Message      string `json:"message"`
	ConnectionID string `json:"connection_id"`
}

// connect stands in for the CRM OAuth handshake; the mock collector needs
// no credentials.
func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if strings.TrimSpace(req.OrgName) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "org_name is required")
		return
	}
	writeJSON(w, http.StatusOK, connectResponse{
		Success:      true,
		OrgName:      req.OrgName,
		Message:      "Successfully connected to the CRM org",
		ConnectionID: uuid.NewString(),
	})
}

func (s *Server) createBusinessInfo(w http.ResponseWriter, r *http.Request) {
	var req ports.BusinessInfoRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	p, err := s.businesses.CreateProfile(r.Context(), req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getBusinessInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	p, err := s.businesses.Profile(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) resolveStage(w http.ResponseWriter, r *http.Request) {
	var in domain.BusinessInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.businesses.ResolveStage(in))
}

func (s *Server) listStages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.businesses.Stages())
}

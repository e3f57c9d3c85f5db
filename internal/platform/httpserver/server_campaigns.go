package httpserver

import (
	"net/http"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	campaignhttp "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/transport/http"
)

// handleCreateBusiness godoc
// @Summary Create a business
// @Tags businesses
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Operator id"
// @Param request body campaignhttp.CreateBusinessRequest true "Business"
// @Success 201 {object} campaignhttp.BusinessDTO
// @Failure 409 {object} campaignhttp.ErrorResponse
// @Router /v1/businesses [post]
func (s *Server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.CreateBusinessRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.campaigns.Handler.CreateBusinessHandler(r.Context(), idempotencyKey(r), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreatePlaybook(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.CreatePlaybookRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.campaigns.Handler.CreatePlaybookHandler(
		r.Context(),
		r.PathValue("business_id"),
		idempotencyKey(r),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.CreateCampaignRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.campaigns.Handler.CreateCampaignHandler(
		r.Context(),
		r.PathValue("playbook_id"),
		idempotencyKey(r),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleGetCampaign godoc
// @Summary Get a campaign
// @Tags campaigns
// @Produce json
// @Param campaign_id path string true "Campaign id"
// @Success 200 {object} campaignhttp.CampaignDTO
// @Failure 404 {object} campaignhttp.ErrorResponse
// @Router /v1/campaigns/{campaign_id} [get]
func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	resp, err := s.campaigns.Handler.GetCampaignHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCampaignAction godoc
// @Summary Apply a lifecycle action (approve, launch, pause, resume, complete)
// @Tags campaigns
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Operator id"
// @Param campaign_id path string true "Campaign id"
// @Param request body campaignhttp.StatusActionRequest false "Optional reason"
// @Success 200 {object} campaignhttp.CampaignDTO
// @Failure 409 {object} campaignhttp.ErrorResponse
// @Router /v1/campaigns/{campaign_id}/launch [post]
func (s *Server) handleCampaignAction(action entities.CampaignAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req campaignhttp.StatusActionRequest
		if !decodeBody(w, r, &req, true) {
			return
		}
		resp, err := s.campaigns.Handler.CampaignActionHandler(
			r.Context(),
			userID,
			r.PathValue("campaign_id"),
			action,
			idempotencyKey(r),
			req,
		)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleAddContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.AddContentRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.campaigns.Handler.AddContentHandler(
		r.Context(),
		r.PathValue("campaign_id"),
		idempotencyKey(r),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

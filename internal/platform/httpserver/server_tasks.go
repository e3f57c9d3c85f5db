package httpserver

import (
	"net/http"
	"strconv"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/queries"
	campaignhttp "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/transport/http"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.CreateTaskRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.campaigns.Handler.CreateTaskHandler(
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

// handleListTasks godoc
// @Summary List tasks in board order
// @Tags tasks
// @Produce json
// @Param campaign_id query string false "Campaign id"
// @Param business_id query string false "Business id"
// @Param assignee query string false "human or system"
// @Param status query string false "pending, in_progress, completed or blocked"
// @Success 200 {object} campaignhttp.ListTasksResponse
// @Router /v1/tasks [get]
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.campaigns.Handler.ListTasksHandler(r.Context(), queries.ListTasksQuery{
		CampaignID: query.Get("campaign_id"),
		BusinessID: query.Get("business_id"),
		Assignee:   query.Get("assignee"),
		Status:     query.Get("status"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	resp, err := s.campaigns.Handler.GetTaskHandler(r.Context(), r.PathValue("task_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUpdateTask godoc
// @Summary Partially update a task; absent keys are untouched, null clears
// @Tags tasks
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Operator id"
// @Param task_id path string true "Task id"
// @Param request body campaignhttp.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} campaignhttp.TaskDTO
// @Router /v1/tasks/{task_id} [patch]
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.UpdateTaskRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.campaigns.Handler.UpdateTaskHandler(
		r.Context(),
		r.PathValue("task_id"),
		idempotencyKey(r),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCompleteTask godoc
// @Summary Complete a task, unblocking dependents
// @Tags tasks
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Operator id"
// @Param task_id path string true "Task id"
// @Param request body campaignhttp.CompleteTaskRequest false "Completion notes"
// @Success 200 {object} campaignhttp.CompleteTaskResponse
// @Failure 409 {object} campaignhttp.ErrorResponse
// @Router /v1/tasks/{task_id}/complete [post]
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.CompleteTaskRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	resp, err := s.campaigns.Handler.CompleteTaskHandler(
		r.Context(),
		r.PathValue("task_id"),
		idempotencyKey(r),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateEscalation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.CreateEscalationRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.campaigns.Handler.CreateEscalationHandler(
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

// handleListEscalations godoc
// @Summary List escalations, most severe first
// @Tags escalations
// @Produce json
// @Param status query string false "open, acknowledged, resolved or active"
// @Param severity query string false "low, medium, high or critical"
// @Param campaign_id query string false "Campaign id"
// @Success 200 {object} campaignhttp.ListEscalationsResponse
// @Router /v1/escalations [get]
func (s *Server) handleListEscalations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.campaigns.Handler.ListEscalationsHandler(r.Context(), queries.ListEscalationsQuery{
		Status:     query.Get("status"),
		Severity:   query.Get("severity"),
		CampaignID: query.Get("campaign_id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcknowledgeEscalation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.campaigns.Handler.AcknowledgeEscalationHandler(
		r.Context(),
		r.PathValue("escalation_id"),
		idempotencyKey(r),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveEscalation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req campaignhttp.ResolveEscalationRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	resp, err := s.campaigns.Handler.ResolveEscalationHandler(
		r.Context(),
		r.PathValue("escalation_id"),
		idempotencyKey(r),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListActivity godoc
// @Summary Read the activity log, newest first
// @Tags activity
// @Produce json
// @Param business_id query string false "Business id"
// @Param campaign_id query string false "Campaign id"
// @Param entity_type query string false "Entity type"
// @Param entity_id query string false "Entity id"
// @Param limit query int false "Max entries (default 50, max 500)"
// @Success 200 {object} campaignhttp.ListActivityResponse
// @Router /v1/activity [get]
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := queries.ListActivityQuery{
		BusinessID: query.Get("business_id"),
		CampaignID: query.Get("campaign_id"),
		EntityType: query.Get("entity_type"),
		EntityID:   query.Get("entity_id"),
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	resp, err := s.campaigns.Handler.ListActivityHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

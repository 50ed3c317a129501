package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Matfen2/daftlink-demo/internal/api/metrics"
	"github.com/Matfen2/daftlink-demo/internal/api/middleware"
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

// ChainHandler handles HTTP requests for chain operations.
type ChainHandler struct {
	service ports.ChainService
	now     func() time.Time
}

func NewChainHandler(service ports.ChainService) *ChainHandler {
	return &ChainHandler{service: service, now: time.Now}
}

// List handles GET /chains.
//
// @Summary      List my chains
// @Tags         chains
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "draft|active|paused|expired|completed|all"
// @Param        sort    query     string  false  "Sort key, prefix with - for descending (default -createdAt)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Page size 1..100 (default 10)"
// @Success      200     {object}  envelope{data=chainListResponse}
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Router       /chains [get]
func (h *ChainHandler) List(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}
	var q listChainsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return domain.Invalid("invalid query parameters")
	}

	page, err := h.service.ListOwned(c.Request().Context(), owner, ports.ListChainsInput{
		Status: q.Status,
		Sort:   q.Sort,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toChainListResponse(page, h.now()))
}

// Create handles POST /chains.
//
// @Summary      Create a chain
// @Tags         chains
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createChainRequest  true  "Chain details"
// @Success      201   {object}  envelope{data=chainResponse}
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse  "plan limit reached or plan required"
// @Router       /chains [post]
func (h *ChainHandler) Create(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req createChainRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	chain, err := h.service.Create(c.Request().Context(), owner, req.toInput())
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			metrics.QuotaDenialsTotal.WithLabelValues(string(owner.Plan)).Inc()
		}
		return err
	}

	metrics.ChainsCreatedTotal.WithLabelValues(string(owner.Plan), "create").Inc()
	return respondMessage(c, http.StatusCreated, "chain created", toChainResponse(chain, h.now()))
}

// Get handles GET /chains/:id.
//
// @Summary      Get one of my chains
// @Tags         chains
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Chain id"
// @Success      200  {object}  envelope{data=chainResponse}
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /chains/{id} [get]
func (h *ChainHandler) Get(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}

	chain, err := h.service.Get(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toChainResponse(chain, h.now()))
}

// Update handles PUT /chains/:id. Only the fields present in the body change.
//
// @Summary      Update a chain
// @Tags         chains
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Chain id"
// @Param        body  body      updateChainRequest  true  "Fields to change"
// @Success      200   {object}  envelope{data=chainResponse}
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /chains/{id} [put]
func (h *ChainHandler) Update(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req updateChainRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	chain, err := h.service.Update(c.Request().Context(), owner, c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "chain updated", toChainResponse(chain, h.now()))
}

// SetFeatured handles PUT /chains/:id/featured (pro and enterprise plans).
//
// @Summary      Feature or unfeature a chain
// @Tags         chains
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Chain id"
// @Param        body  body      featuredRequest  true  "Featured flag"
// @Success      200   {object}  envelope{data=chainResponse}
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /chains/{id}/featured [put]
func (h *ChainHandler) SetFeatured(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req featuredRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	chain, err := h.service.Update(c.Request().Context(), owner, c.Param("id"), ports.ChainPatch{
		Settings: &domain.SettingsPatch{Featured: req.Featured},
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toChainResponse(chain, h.now()))
}

// Delete handles DELETE /chains/:id.
//
// @Summary      Delete a chain
// @Tags         chains
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Chain id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  ErrorResponse
// @Router       /chains/{id} [delete]
func (h *ChainHandler) Delete(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), owner, c.Param("id")); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "chain deleted", nil)
}

// Duplicate handles POST /chains/:id/duplicate.
//
// @Summary      Duplicate a chain as a draft
// @Tags         chains
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Chain id"
// @Success      201  {object}  envelope{data=chainResponse}
// @Failure      404  {object}  ErrorResponse
// @Router       /chains/{id}/duplicate [post]
func (h *ChainHandler) Duplicate(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}

	chain, err := h.service.Duplicate(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.ChainsCreatedTotal.WithLabelValues(string(owner.Plan), "duplicate").Inc()
	return respondMessage(c, http.StatusCreated, "chain duplicated", toChainResponse(chain, h.now()))
}

// Reorder handles PUT /chains/reorder.
//
// @Summary      Reorder my chains
// @Tags         chains
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reorderRequest  true  "Chain ids in display order"
// @Success      200   {object}  envelope
// @Failure      400   {object}  ErrorResponse
// @Router       /chains/reorder [put]
func (h *ChainHandler) Reorder(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req reorderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.service.Reorder(c.Request().Context(), owner, req.ChainIDs); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "order updated", nil)
}

// Stats handles GET /chains/:id/stats.
//
// @Summary      Chain statistics
// @Tags         chains
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Chain id"
// @Success      200  {object}  envelope{data=chainStatsResponse}
// @Failure      404  {object}  ErrorResponse
// @Router       /chains/{id}/stats [get]
func (h *ChainHandler) Stats(c echo.Context) error {
	owner, err := ctxUser(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toChainStatsResponse(stats))
}

// Public handles GET /chains/public/:username.
//
// @Summary      Public chains of a user
// @Tags         public
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  envelope{data=publicChainsResponse}
// @Failure      404       {object}  ErrorResponse
// @Router       /chains/public/{username} [get]
func (h *ChainHandler) Public(c echo.Context) error {
	profile, chains, err := h.service.ListPublic(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}

	viewer := middleware.CurrentUser(c)
	return respond(c, http.StatusOK, publicChainsResponse{
		User:    toPublicProfileResponse(profile),
		Chains:  toPublicChainResponses(chains, h.now()),
		IsOwner: viewer != nil && viewer.Username == profile.Username,
	})
}

// View handles POST /chains/:id/view.
//
// @Summary      Record a view
// @Tags         public
// @Produce      json
// @Param        id   path      string  true  "Chain id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  ErrorResponse  "missing or not active"
// @Failure      429  {object}  ErrorResponse
// @Router       /chains/{id}/view [post]
func (h *ChainHandler) View(c echo.Context) error {
	if err := h.service.RecordView(c.Request().Context(), c.Param("id")); err != nil {
		metrics.EngagementTotal.WithLabelValues("view", engagementResult(err)).Inc()
		return err
	}
	metrics.EngagementTotal.WithLabelValues("view", "ok").Inc()
	return respondMessage(c, http.StatusOK, "view recorded", nil)
}

// Click handles POST /chains/:id/click and returns the link to follow.
//
// @Summary      Record a click
// @Tags         public
// @Produce      json
// @Param        id   path      string  true  "Chain id"
// @Success      200  {object}  envelope{data=clickResponse}
// @Failure      404  {object}  ErrorResponse  "missing or not active"
// @Failure      429  {object}  ErrorResponse
// @Router       /chains/{id}/click [post]
func (h *ChainHandler) Click(c echo.Context) error {
	url, err := h.service.RecordClick(c.Request().Context(), c.Param("id"))
	if err != nil {
		metrics.EngagementTotal.WithLabelValues("click", engagementResult(err)).Inc()
		return err
	}
	metrics.EngagementTotal.WithLabelValues("click", "ok").Inc()
	return respond(c, http.StatusOK, clickResponse{URL: url})
}

// Join handles POST /chains/:id/join.
//
// @Summary      Join a chain
// @Tags         public
// @Produce      json
// @Param        id   path      string  true  "Chain id"
// @Success      200  {object}  envelope{data=chainResponse}
// @Failure      403  {object}  ErrorResponse  "participant cap reached"
// @Failure      404  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /chains/{id}/join [post]
func (h *ChainHandler) Join(c echo.Context) error {
	chain, err := h.service.AddParticipant(c.Request().Context(), c.Param("id"))
	if err != nil {
		metrics.EngagementTotal.WithLabelValues("join", engagementResult(err)).Inc()
		return err
	}
	metrics.EngagementTotal.WithLabelValues("join", "ok").Inc()

	resp := toChainResponse(chain, h.now())
	resp.UserID = ""
	return respond(c, http.StatusOK, resp)
}

func engagementResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrChainNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "full"
	default:
		return "error"
	}
}

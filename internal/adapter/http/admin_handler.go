package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves manual member reactivation and batch job triggers.
type AdminHandler struct {
	members MemberService
	jobs    JobRunner
}

func NewAdminHandler(members MemberService, jobs JobRunner) *AdminHandler {
	return &AdminHandler{members: members, jobs: jobs}
}

type reactivateReq struct {
	Notes string `json:"notes" validate:"max=1000"`
}

func (h *AdminHandler) ReactivateMember(c echo.Context) error {
	var req reactivateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	m, err := h.members.ReactivateMember(c.Request().Context(), c.Param("member_id"), req.Notes, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) RunJob(c echo.Context) error {
	name := c.Param("name")
	summary, err := h.jobs.Trigger(c.Request().Context(), name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"job": name, "summary": summary})
}

package handler

import (
	"net/http"
	"strconv"

	"hcm/internal/domain/model"
	"hcm/internal/middleware"
	"hcm/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /api/persons のCRUD
type PersonHandler struct {
	uc *usecase.PersonUsecase
}

// DI
func NewPersonHandler(uc *usecase.PersonUsecase) *PersonHandler {
	return &PersonHandler{uc: uc}
}

// JWTクレームからActorを作る
func actorFromContext(c echo.Context) usecase.Actor {
	personID, _ := c.Get(middleware.CtxPersonIDKey).(string)
	role, _ := c.Get(middleware.CtxRoleKey).(string)
	department, _ := c.Get(middleware.CtxDepartmentKey).(string)

	return usecase.Actor{
		PersonID:   personID,
		Role:       model.Role(role),
		Department: department,
	}
}

// POST /api/persons（HrAdmin）
func (h *PersonHandler) Create(c echo.Context) error {
	var req usecase.CreatePersonInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreatePerson(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

// GET /api/persons（Manager/HrAdmin、ページング）
func (h *PersonHandler) List(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	// pageSize（default 20）
	pageSize := 20
	if v := c.QueryParam("pageSize"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid pageSize"})
		}
		pageSize = s
	}

	out, err := h.uc.ListPersons(c.Request().Context(), actorFromContext(c), usecase.ListPersonsInput{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// GET /api/persons/:id
func (h *PersonHandler) GetByID(c echo.Context) error {
	out, err := h.uc.GetPerson(c.Request().Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// PUT /api/persons/:id（Manager/HrAdmin）
func (h *PersonHandler) Update(c echo.Context) error {
	var req usecase.UpdatePersonInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdatePerson(c.Request().Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// DELETE /api/persons/:id（HrAdmin）
func (h *PersonHandler) Delete(c echo.Context) error {
	if err := h.uc.DeletePerson(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

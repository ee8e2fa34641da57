package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"contactbook/errs"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterContactRoutes(g *echo.Group) {
	g.GET("", s.handleListContacts)
	g.GET("/:id", s.handleGetContact)
	g.GET("/:firstName/:lastName", s.handleGetContactByName)
	g.POST("", s.handleAddContact)
	g.PUT("/:id", s.handleEditContact)
	g.PUT("/:firstName/:lastName", s.handleEditContactByName)
	g.DELETE("/:id", s.handleRemoveContact)
	g.DELETE("", s.handleRemoveAllContacts)
}

// handleListContacts godoc
// @Summary List contacts
// @Description Returns every stored contact in id order
// @Tags contact
// @Produce json
// @Success 200 {object} APIResponse
// @Router /contact [get]
func (s *Server) handleListContacts(c echo.Context) error {
	contacts, err := s.ContactService.FetchAll(c.Request().Context())
	if err != nil {
		return err
	}

	return writeList(c, http.StatusOK, contacts)
}

// handleGetContact godoc
// @Summary Get contact
// @Tags contact
// @Produce json
// @Param id path int true "Contact ID"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /contact/{id} [get]
func (s *Server) handleGetContact(c echo.Context) error {
	id, err := contactID(c)
	if err != nil {
		return err
	}

	found, err := s.ContactService.FetchByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return writeSuccess(c, http.StatusOK, found)
}

// handleGetContactByName godoc
// @Summary Get contact by name
// @Description Answers 200 with no result when nobody has the name pair
// @Tags contact
// @Produce json
// @Param firstName path string true "First name"
// @Param lastName path string true "Last name"
// @Success 200 {object} APIResponse
// @Router /contact/{firstName}/{lastName} [get]
func (s *Server) handleGetContactByName(c echo.Context) error {
	firstName, lastName := c.Param("firstName"), c.Param("lastName")

	found, err := s.ContactService.FetchByLastNameAndFirstName(c.Request().Context(), lastName, firstName)
	if err != nil {
		return err
	}
	if found == nil {
		return writeSuccess(c, http.StatusOK, nil)
	}

	return writeSuccess(c, http.StatusOK, found)
}

// handleAddContact godoc
// @Summary Create contact
// @Tags contact
// @Accept json
// @Produce json
// @Param contact body ContactRequest true "Contact"
// @Success 201 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /contact [post]
func (s *Server) handleAddContact(c echo.Context) error {
	req, err := bindContactRequest(c)
	if err != nil {
		return err
	}

	created, err := s.ContactService.Generate(c.Request().Context(), req.ToContact())
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, contactLocation(created.ID))
	return writeSuccess(c, http.StatusCreated, created)
}

// handleEditContact godoc
// @Summary Edit contact
// @Tags contact
// @Accept json
// @Produce json
// @Param id path int true "Contact ID"
// @Param contact body ContactRequest true "Contact"
// @Success 202 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /contact/{id} [put]
func (s *Server) handleEditContact(c echo.Context) error {
	id, err := contactID(c)
	if err != nil {
		return err
	}
	req, err := bindContactRequest(c)
	if err != nil {
		return err
	}

	edited, err := s.ContactService.EditByID(c.Request().Context(), id, req.ToContact())
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, contactLocation(edited.ID))
	return writeSuccess(c, http.StatusAccepted, edited)
}

// handleEditContactByName godoc
// @Summary Edit contact by name
// @Description Replaces mobile number, email address and date of birth
// @Tags contact
// @Accept json
// @Produce json
// @Param firstName path string true "First name"
// @Param lastName path string true "Last name"
// @Param contact body ContactRequest true "Contact"
// @Success 202 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /contact/{firstName}/{lastName} [put]
func (s *Server) handleEditContactByName(c echo.Context) error {
	firstName, lastName := c.Param("firstName"), c.Param("lastName")
	req, err := bindContactRequest(c)
	if err != nil {
		return err
	}

	edited, err := s.ContactService.EditByLastNameAndFirstName(c.Request().Context(), lastName, firstName, req.ToContact())
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation,
		fmt.Sprintf("/contact/%s/%s", url.PathEscape(edited.FirstName), url.PathEscape(edited.LastName)))
	return writeSuccess(c, http.StatusAccepted, edited)
}

// handleRemoveContact godoc
// @Summary Delete contact
// @Tags contact
// @Produce json
// @Param id path int true "Contact ID"
// @Success 202 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /contact/{id} [delete]
func (s *Server) handleRemoveContact(c echo.Context) error {
	id, err := contactID(c)
	if err != nil {
		return err
	}

	if err := s.ContactService.Remove(c.Request().Context(), id); err != nil {
		return err
	}

	return writeSuccess(c, http.StatusAccepted, nil)
}

// handleRemoveAllContacts godoc
// @Summary Delete all contacts
// @Tags contact
// @Produce json
// @Success 202 {object} APIResponse
// @Router /contact [delete]
func (s *Server) handleRemoveAllContacts(c echo.Context) error {
	if err := s.ContactService.RemoveAll(c.Request().Context()); err != nil {
		return err
	}

	return writeSuccess(c, http.StatusAccepted, nil)
}

func bindContactRequest(c echo.Context) (ContactRequest, error) {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return ContactRequest{}, errs.Errorf(errs.EINVALID, "Request body must be a JSON contact.")
	}
	if err := c.Validate(&req); err != nil {
		return ContactRequest{}, err
	}
	return req, nil
}

func contactID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errs.Errorf(errs.EINVALID, "Contact ID must be a number.")
	}
	return id, nil
}

func contactLocation(id int64) string {
	return "/contact/" + strconv.FormatInt(id, 10)
}

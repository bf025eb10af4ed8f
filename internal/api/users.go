package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/udovin/ctf/internal/models"
)

// registerUserHandlers registers handlers for users.
func (v *View) registerUserHandlers(g *echo.Group) {
	g.POST("/v0/users", v.registerUser)
	g.GET("/v0/users/:user", v.observeUser, v.extractUser)
}

// User represents user.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	TeamID   string   `json:"team_id,omitempty"`
	Score    int      `json:"score"`
	Solved   []string `json:"solved_challenges"`
}

func makeUser(user models.User) User {
	resp := User{
		ID:       user.ID,
		Username: user.Username,
		TeamID:   user.TeamID,
		Score:    user.Score,
		Solved:   user.Solved,
	}
	if resp.Solved == nil {
		resp.Solved = []string{}
	}
	return resp
}

type registerUserForm struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
}

func (v *View) registerUser(c echo.Context) error {
	var form registerUserForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errInvalidForm
	}
	user, err := v.users.Register(getContext(c), form.Username, form.Email)
	if err != nil {
		return err
	}
	resp := makeUser(user)
	resp.Email = user.Email
	return c.JSON(http.StatusCreated, resp)
}

func (v *View) observeUser(c echo.Context) error {
	user, ok := c.Get(userKey).(models.User)
	if !ok {
		return fmt.Errorf("user not extracted")
	}
	return c.JSON(http.StatusOK, makeUser(user))
}

func (v *View) extractUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := v.users.Get(c.Param("user"))
		if err != nil {
			return err
		}
		c.Set(userKey, user)
		return next(c)
	}
}

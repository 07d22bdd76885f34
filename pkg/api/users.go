package api

import (
	"context"
	"net/http"

	"taskdeck/pkg/session"
	"taskdeck/pkg/utils"
)

// UserRecord is the body of POST /users
type UserRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register records p with the user resource. A conflict means the user was
// registered before and counts as success. It satisfies session.Registrar.
func (c *Client) Register(ctx context.Context, p session.Principal) error {
	rec := UserRecord{ID: p.UID(), Email: p.Email(), Name: p.DisplayName()}
	err := c.do(ctx, p, http.MethodPost, "/users", rec, nil)
	if IsStatus(err, http.StatusConflict) {
		utils.Log("User %s already registered", p.UID())
		return nil
	}
	return err
}

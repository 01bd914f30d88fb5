package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/benjamonnguyen/dynsched"
)

const (
	msgLoginFailed    = "Failed to login. Please try again."
	msgRegisterFailed = "Failed to register. Please try again."
)

type authResponse struct {
	User  *dynsched.User `json:"user"`
	Token string         `json:"token"`
}

// Login exchanges credentials for the user and a bearer token. Both must be
// present in the response for the login to count.
func (c *Client) Login(ctx context.Context, creds dynsched.Credentials) (dynsched.LoginResult, error) {
	var resp authResponse
	if err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/login",
		body:    creds,
		failMsg: msgLoginFailed,
	}, &resp); err != nil {
		return dynsched.LoginResult{}, err
	}
	if resp.User == nil || resp.Token == "" {
		return dynsched.LoginResult{}, &dynsched.APIError{
			Status:  http.StatusOK,
			Message: msgLoginFailed,
			Err:     errors.New("login response missing user or token"),
		}
	}
	return dynsched.LoginResult{User: *resp.User, Token: resp.Token}, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req dynsched.RegisterRequest) (dynsched.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/register",
		body:    req,
		failMsg: msgRegisterFailed,
	}, &raw); err != nil {
		return dynsched.User{}, err
	}
	return decodeRegistered(raw, req)
}

// decodeRegistered accepts {"user": {...}} or a bare user object. An empty
// body falls back to what was submitted.
func decodeRegistered(raw json.RawMessage, req dynsched.RegisterRequest) (dynsched.User, error) {
	fallback := dynsched.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if len(raw) == 0 || string(raw) == "null" {
		return fallback, nil
	}

	var wrapped authResponse
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}
	var u dynsched.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return dynsched.User{}, &dynsched.APIError{Status: http.StatusOK, Message: msgRegisterFailed, Err: err}
	}
	if u.ID == "" && u.Username == "" {
		return fallback, nil
	}
	return u, nil
}

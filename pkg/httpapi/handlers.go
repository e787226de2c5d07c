package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/authgate"
)

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type federatedTokenRequest struct {
	Token string `json:"token"`
}

type federatedCodeRequest struct {
	Code string `json:"code"`
}

// TokenPairResponse is the body of every successful sign-in and refresh.
type TokenPairResponse struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	TokenType        string    `json:"tokenType"`
	ExpiresIn        int64     `json:"expiresIn"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// PrincipalResponse is the body of /auth/me.
type PrincipalResponse struct {
	Subject   string `json:"subject"`
	Strategy  string `json:"strategy"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Federated bool   `json:"federated"`
}

func (a *API) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := bindJSON(w, r, a.cfg.MaxBodyBytes, &req); err != nil {
		a.fail(w, r, "signup", err)
		return
	}
	if err := req.validate(); err != nil {
		a.fail(w, r, "signup", err)
		return
	}

	pair, err := a.service.SignUp(r.Context(), auth.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		a.fail(w, r, "signup", err)
		return
	}
	a.writePair(w, http.StatusCreated, "signup", pair)
}

func (a *API) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := bindJSON(w, r, a.cfg.MaxBodyBytes, &req); err != nil {
		a.fail(w, r, "signin", err)
		return
	}

	pair, err := a.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, "signin", err)
		return
	}
	a.writePair(w, http.StatusOK, "signin", pair)
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := bindJSON(w, r, a.cfg.MaxBodyBytes, &req); err != nil {
		a.fail(w, r, "refresh", err)
		return
	}

	pair, err := a.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.fail(w, r, "refresh", err)
		return
	}
	a.writePair(w, http.StatusOK, "refresh", pair)
}

func (a *API) federatedToken(w http.ResponseWriter, r *http.Request) {
	var req federatedTokenRequest
	if err := bindJSON(w, r, a.cfg.MaxBodyBytes, &req); err != nil {
		a.fail(w, r, "federated", err)
		return
	}

	pair, err := a.service.FederatedSignIn(r.Context(), req.Token)
	if err != nil {
		a.fail(w, r, "federated", err)
		return
	}
	a.writePair(w, http.StatusOK, "federated", pair)
}

func (a *API) federatedCode(w http.ResponseWriter, r *http.Request) {
	var req federatedCodeRequest
	if err := bindJSON(w, r, a.cfg.MaxBodyBytes, &req); err != nil {
		a.fail(w, r, "federated_code", err)
		return
	}

	pair, err := a.service.FederatedSignInWithCode(r.Context(), req.Code)
	if err != nil {
		a.fail(w, r, "federated_code", err)
		return
	}
	a.writePair(w, http.StatusOK, "federated_code", pair)
}

func (a *API) signOut(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := bindJSON(w, r, a.cfg.MaxBodyBytes, &req); err != nil {
		a.fail(w, r, "signout", err)
		return
	}

	if err := a.service.SignOut(r.Context(), req.RefreshToken); err != nil {
		a.fail(w, r, "signout", err)
		return
	}
	a.observe("signout", outcomeSuccess)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := authgate.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, ErrUnauthorized, nil)
		return
	}

	resp := PrincipalResponse{
		Subject:  principal.Subject,
		Strategy: principal.Strategy,
		Email:    principal.Email,
	}

	if principal.Strategy == authgate.StrategyBearer {
		account, err := a.service.Account(r.Context(), principal.Subject)
		switch {
		case errors.Is(err, auth.ErrAccountNotFound):
			writeError(w, ErrUnauthorized, nil)
			return
		case err != nil:
			a.fail(w, r, "me", err)
			return
		}
		resp.Email = account.Email
		resp.FirstName = account.FirstName
		resp.LastName = account.LastName
		resp.Federated = account.IsFederated()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) writePair(w http.ResponseWriter, status int, flow string, pair *auth.TokenPair) {
	a.observe(flow, outcomeSuccess)
	writeJSON(w, status, TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        max(int64(pair.AccessExpiresAt.Sub(a.now())/time.Second), 0),
		AccessExpiresAt:  pair.AccessExpiresAt.UTC(),
		RefreshExpiresAt: pair.RefreshExpiresAt.UTC(),
	})
}

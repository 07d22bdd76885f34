package server

import (
	"errors"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskdeck/pkg/database"
	"taskdeck/pkg/utils"
)

// minPasswordLength mirrors the hosted provider's rule
const minPasswordLength = 6

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	IDToken     string `json:"idToken"`
	DisplayName string `json:"displayName"`
}

type idpRequest struct {
	PostBody   string `json:"postBody"`
	RequestURI string `json:"requestUri"`
}

// handleIdentity dispatches identity toolkit actions such as
// "accounts:signUp". The action is one path segment so the colon never
// reaches the router.
func (s *Server) handleIdentity(c *gin.Context) {
	if s.apiKey != "" && c.Query("key") != s.apiKey {
		identityFailure(c, http.StatusBadRequest, "API_KEY_INVALID")
		return
	}

	switch c.Param("action") {
	case "accounts:signUp":
		s.signUp(c)
	case "accounts:signInWithPassword":
		s.signInWithPassword(c)
	case "accounts:update":
		s.updateProfile(c)
	case "accounts:signInWithIdp":
		s.signInWithIdp(c)
	default:
		identityFailure(c, http.StatusNotFound, "OPERATION_NOT_FOUND")
	}
}

func (s *Server) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		identityFailure(c, http.StatusBadRequest, "INVALID_JSON")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		identityFailure(c, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		identityFailure(c, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.identityInternal(c, err)
		return
	}
	acct := database.Account{
		LocalID:      uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Provider:     "password",
	}
	if err := database.AddAccount(s.db, acct); err != nil {
		if errors.Is(err, database.ErrEmailExists) {
			identityFailure(c, http.StatusBadRequest, "EMAIL_EXISTS")
			return
		}
		s.identityInternal(c, err)
		return
	}
	utils.Log("Created account %s for %s", acct.LocalID, email)
	s.respondSignedIn(c, "identitytoolkit#SignupNewUserResponse", acct)
}

func (s *Server) signInWithPassword(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		identityFailure(c, http.StatusBadRequest, "INVALID_JSON")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		identityFailure(c, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	if req.Password == "" {
		identityFailure(c, http.StatusBadRequest, "MISSING_PASSWORD")
		return
	}
	if !s.signInLimiter.Allow(email) {
		identityFailure(c, http.StatusBadRequest,
			"TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled due to many failed login attempts.")
		return
	}

	acct, err := database.AccountByEmail(s.db, email)
	if errors.Is(err, database.ErrNotFound) {
		identityFailure(c, http.StatusBadRequest, "EMAIL_NOT_FOUND")
		return
	}
	if err != nil {
		s.identityInternal(c, err)
		return
	}
	if acct.Disabled {
		identityFailure(c, http.StatusBadRequest, "USER_DISABLED")
		return
	}
	if !s.hasher.Verify(req.Password, acct.PasswordHash) {
		identityFailure(c, http.StatusBadRequest, "INVALID_PASSWORD")
		return
	}
	s.respondSignedIn(c, "identitytoolkit#VerifyPasswordResponse", acct)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		identityFailure(c, http.StatusBadRequest, "INVALID_JSON")
		return
	}
	claims, err := s.tokens.Validate(req.IDToken, tokenTypeID)
	if errors.Is(err, ErrExpiredToken) {
		identityFailure(c, http.StatusBadRequest, "TOKEN_EXPIRED")
		return
	}
	if err != nil {
		identityFailure(c, http.StatusBadRequest, "INVALID_ID_TOKEN")
		return
	}

	name := strings.TrimSpace(req.DisplayName)
	if err := database.UpdateAccountProfile(s.db, claims.Subject, name); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			identityFailure(c, http.StatusBadRequest, "USER_NOT_FOUND")
			return
		}
		s.identityInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":        "identitytoolkit#SetAccountInfoResponse",
		"localId":     claims.Subject,
		"email":       claims.Email,
		"displayName": name,
	})
}

func (s *Server) signInWithIdp(c *gin.Context) {
	var req idpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		identityFailure(c, http.StatusBadRequest, "INVALID_JSON")
		return
	}
	form, err := url.ParseQuery(req.PostBody)
	if err != nil || form.Get("id_token") == "" {
		identityFailure(c, http.StatusBadRequest, "INVALID_IDP_RESPONSE : missing id_token")
		return
	}
	provider := form.Get("providerId")
	if provider == "" {
		identityFailure(c, http.StatusBadRequest, "INVALID_PROVIDER_ID")
		return
	}

	assertion, err := s.tokens.Validate(form.Get("id_token"), tokenTypeAssertion)
	if err != nil || assertion.Email == "" {
		identityFailure(c, http.StatusBadRequest, "INVALID_IDP_RESPONSE")
		return
	}

	acct, err := database.AccountByEmail(s.db, assertion.Email)
	if errors.Is(err, database.ErrNotFound) {
		acct = database.Account{
			LocalID:     uuid.NewString(),
			Email:       strings.ToLower(assertion.Email),
			DisplayName: assertion.Name,
			Provider:    provider,
		}
		err = database.AddAccount(s.db, acct)
		if err == nil {
			utils.Log("Created %s account %s for %s", provider, acct.LocalID, acct.Email)
		}
	}
	if err != nil {
		s.identityInternal(c, err)
		return
	}
	if acct.Disabled {
		identityFailure(c, http.StatusBadRequest, "USER_DISABLED")
		return
	}
	s.respondSignedIn(c, "identitytoolkit#VerifyAssertionResponse", acct)
}

// handleToken exchanges a refresh token for a new id token
func (s *Server) handleToken(c *gin.Context) {
	if s.apiKey != "" && c.Query("key") != s.apiKey {
		identityFailure(c, http.StatusBadRequest, "API_KEY_INVALID")
		return
	}
	if c.PostForm("grant_type") != "refresh_token" {
		identityFailure(c, http.StatusBadRequest, "INVALID_GRANT_TYPE")
		return
	}
	refreshToken := c.PostForm("refresh_token")
	if refreshToken == "" {
		identityFailure(c, http.StatusBadRequest, "MISSING_REFRESH_TOKEN")
		return
	}

	claims, err := s.tokens.Validate(refreshToken, tokenTypeRefresh)
	if errors.Is(err, ErrExpiredToken) {
		identityFailure(c, http.StatusBadRequest, "TOKEN_EXPIRED")
		return
	}
	if err != nil {
		identityFailure(c, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
		return
	}

	acct, err := database.AccountByID(s.db, claims.Subject)
	if errors.Is(err, database.ErrNotFound) {
		identityFailure(c, http.StatusBadRequest, "USER_NOT_FOUND")
		return
	}
	if err != nil {
		s.identityInternal(c, err)
		return
	}
	if acct.Disabled {
		identityFailure(c, http.StatusBadRequest, "USER_DISABLED")
		return
	}

	idToken, err := s.tokens.IssueIDToken(acct.LocalID, acct.Email, acct.DisplayName)
	if err != nil {
		s.identityInternal(c, err)
		return
	}
	expiresIn := strconv.FormatInt(s.tokens.IDTokenSeconds(), 10)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  idToken,
		"expires_in":    expiresIn,
		"token_type":    "Bearer",
		"refresh_token": refreshToken,
		"id_token":      idToken,
		"user_id":       acct.LocalID,
	})
}

func (s *Server) respondSignedIn(c *gin.Context, kind string, acct database.Account) {
	idToken, err := s.tokens.IssueIDToken(acct.LocalID, acct.Email, acct.DisplayName)
	if err != nil {
		s.identityInternal(c, err)
		return
	}
	refreshToken, err := s.tokens.IssueRefreshToken(acct.LocalID)
	if err != nil {
		s.identityInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":         kind,
		"localId":      acct.LocalID,
		"email":        acct.Email,
		"displayName":  acct.DisplayName,
		"idToken":      idToken,
		"refreshToken": refreshToken,
		"expiresIn":    strconv.FormatInt(s.tokens.IDTokenSeconds(), 10),
		"registered":   true,
	})
}

func (s *Server) identityInternal(c *gin.Context, err error) {
	utils.Error("Identity %s: %v", c.Param("action"), err)
	identityFailure(c, http.StatusInternalServerError, "INTERNAL_ERROR")
}

// identityFailure writes a provider shaped error body
func identityFailure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    status,
			"message": message,
			"errors":  []gin.H{{"message": message, "domain": "global", "reason": "invalid"}},
		},
	})
}

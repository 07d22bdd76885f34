package identity

import (
	"encoding/json"
	"strconv"
	"strings"

	"taskdeck/pkg/session"
)

// classify maps a provider error code such as "EMAIL_NOT_FOUND" or
// "WEAK_PASSWORD : Password should be at least 6 characters" to an error kind.
func classify(message string) (string, session.ErrorKind) {
	code := strings.TrimSpace(message)
	if i := strings.Index(code, " "); i >= 0 {
		code = code[:i]
	}

	switch code {
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_IDP_RESPONSE":
		return code, session.KindWrongCredentials
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return code, session.KindUnknownAccount
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return code, session.KindRateLimited
	case "EMAIL_EXISTS":
		return code, session.KindAccountExists
	case "WEAK_PASSWORD":
		return code, session.KindWeakPassword
	case "USER_DISABLED":
		return code, session.KindAccountDisabled
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "INVALID_ID_TOKEN", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return code, session.KindSessionExpired
	case "INVALID_EMAIL", "MISSING_PASSWORD", "MISSING_EMAIL", "INVALID_GRANT_TYPE", "MISSING_REFRESH_TOKEN":
		return code, session.KindInvalidInput
	}
	return code, session.KindUnknown
}

// providerError decodes {"error":{"code":400,"message":"EMAIL_NOT_FOUND"}}
func providerError(status int, payload []byte) *session.IdentityError {
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Error.Message == "" {
		return &session.IdentityError{
			Kind: session.KindUnknown,
			Code: "HTTP_" + strconv.Itoa(status),
		}
	}
	code, kind := classify(body.Error.Message)
	return &session.IdentityError{Kind: kind, Code: code}
}

// revokes reports whether err means the stored session can no longer be used
func revokes(err error) bool {
	ierr := session.AsIdentityError(err)
	switch ierr.Kind {
	case session.KindSessionExpired, session.KindAccountDisabled, session.KindUnknownAccount:
		return true
	}
	return false
}


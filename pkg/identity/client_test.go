package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"taskdeck/pkg/session"
)

// fakeToolkit answers identity toolkit requests from handlers keyed by
// action, e.g. "accounts:signUp" or "token".
type fakeToolkit struct {
	mu       sync.Mutex
	handlers map[string]func(w http.ResponseWriter, body map[string]string)
	calls    []string
}

func newFakeToolkit(t *testing.T) (*fakeToolkit, *httptest.Server) {
	t.Helper()
	f := &fakeToolkit{handlers: map[string]func(http.ResponseWriter, map[string]string){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := strings.TrimPrefix(r.URL.Path, "/v1/")
		body := map[string]string{}
		if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
			r.ParseForm()
			for k := range r.PostForm {
				body[k] = r.PostForm.Get(k)
			}
		} else {
			var raw map[string]interface{}
			json.NewDecoder(r.Body).Decode(&raw)
			for k, v := range raw {
				if s, ok := v.(string); ok {
					body[k] = s
				}
			}
		}
		body["key"] = r.URL.Query().Get("key")

		f.mu.Lock()
		f.calls = append(f.calls, action)
		h := f.handlers[action]
		f.mu.Unlock()
		if h == nil {
			providerFailure(w, "OPERATION_NOT_ALLOWED")
			return
		}
		h(w, body)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeToolkit) handle(action string, h func(w http.ResponseWriter, body map[string]string)) {
	f.mu.Lock()
	f.handlers[action] = h
	f.mu.Unlock()
}

func (f *fakeToolkit) called(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == action {
			n++
		}
	}
	return n
}

func providerFailure(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"code": 400, "message": message},
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func signedInBody(uid, idToken, expiresIn string) map[string]string {
	return map[string]string{
		"localId":      uid,
		"email":        uid + "@example.com",
		"displayName":  "",
		"idToken":      idToken,
		"refreshToken": "refresh-" + uid,
		"expiresIn":    expiresIn,
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, sessionFile string) *Client {
	t.Helper()
	return NewClient(Config{
		APIKey:      "test-key",
		IdentityURL: srv.URL + "/v1",
		TokenURL:    srv.URL + "/v1/token",
		SessionFile: sessionFile,
	})
}

func TestSignInWithEmailNotifiesAndPersists(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.handle("accounts:signInWithPassword", func(w http.ResponseWriter, body map[string]string) {
		if body["email"] != "ana@example.com" || body["password"] != "secret1" || body["key"] != "test-key" {
			t.Errorf("request body = %v", body)
		}
		writeJSON(w, signedInBody("ana", "id-ana", "3600"))
	})

	file := filepath.Join(t.TempDir(), "session.json")
	c := newTestClient(t, srv, file)

	var seen []session.Principal
	unsubscribe := c.OnAuthStateChanged(func(p session.Principal) { seen = append(seen, p) })
	defer unsubscribe()

	p, err := c.SignInWithEmail(context.Background(), " ana@example.com ", "secret1")
	if err != nil {
		t.Fatalf("SignInWithEmail() error = %v", err)
	}
	if p.UID() != "ana" || p.Email() != "ana@example.com" {
		t.Errorf("principal = %s %s", p.UID(), p.Email())
	}
	if len(seen) != 2 || seen[0] != nil || seen[1] == nil || seen[1].UID() != "ana" {
		t.Errorf("listener saw %v, want [nil ana]", seen)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("session file mode = %v, want 0600", info.Mode().Perm())
	}

	restored := newTestClient(t, srv, file)
	var first session.Principal
	restored.OnAuthStateChanged(func(p session.Principal) { first = p })
	if first == nil || first.UID() != "ana" {
		t.Fatalf("restored principal = %v", first)
	}
	token, err := first.Token(context.Background())
	if err != nil || token != "id-ana" {
		t.Errorf("Token() = %q, %v; want cached id token", token, err)
	}
	if fake.called("token") != 0 {
		t.Error("valid token must not be refreshed")
	}
}

func TestSignInErrorsAreClassified(t *testing.T) {
	tests := []struct {
		message string
		want    session.ErrorKind
	}{
		{"INVALID_PASSWORD", session.KindWrongCredentials},
		{"INVALID_LOGIN_CREDENTIALS", session.KindWrongCredentials},
		{"EMAIL_NOT_FOUND", session.KindUnknownAccount},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled", session.KindRateLimited},
		{"USER_DISABLED", session.KindAccountDisabled},
		{"SOMETHING_NEW", session.KindUnknown},
	}

	fake, srv := newFakeToolkit(t)
	c := newTestClient(t, srv, "")

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			fake.handle("accounts:signInWithPassword", func(w http.ResponseWriter, body map[string]string) {
				providerFailure(w, tt.message)
			})
			_, err := c.SignInWithEmail(context.Background(), "ana@example.com", "secret1")
			var ierr *session.IdentityError
			if !errors.As(err, &ierr) {
				t.Fatalf("error = %v, want *IdentityError", err)
			}
			if ierr.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", ierr.Kind, tt.want)
			}
			if strings.Contains(ierr.Code, " ") {
				t.Errorf("Code = %q, want bare code", ierr.Code)
			}
		})
	}

	if c.CurrentUser() != nil {
		t.Error("failed sign-in must not set a user")
	}
}

func TestSignInNetworkFailure(t *testing.T) {
	_, srv := newFakeToolkit(t)
	c := newTestClient(t, srv, "")
	srv.Close()

	_, err := c.SignInWithEmail(context.Background(), "ana@example.com", "secret1")
	var ierr *session.IdentityError
	if !errors.As(err, &ierr) || ierr.Kind != session.KindNetwork {
		t.Fatalf("error = %v, want network IdentityError", err)
	}
}

func TestSignInRequiresCredentials(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	c := newTestClient(t, srv, "")

	_, err := c.SignInWithEmail(context.Background(), "", "")
	var ierr *session.IdentityError
	if !errors.As(err, &ierr) || ierr.Kind != session.KindInvalidInput {
		t.Fatalf("error = %v, want invalid input", err)
	}
	if fake.called("accounts:signInWithPassword") != 0 {
		t.Error("empty credentials were sent")
	}
}

func TestSignUpSetsDisplayName(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.handle("accounts:signUp", func(w http.ResponseWriter, body map[string]string) {
		writeJSON(w, signedInBody("bo", "id-bo", "3600"))
	})
	fake.handle("accounts:update", func(w http.ResponseWriter, body map[string]string) {
		if body["idToken"] != "id-bo" || body["displayName"] != "Bo Smith" {
			t.Errorf("update body = %v", body)
		}
		writeJSON(w, map[string]string{"localId": "bo", "displayName": "Bo Smith"})
	})

	c := newTestClient(t, srv, "")
	p, err := c.SignUpWithEmail(context.Background(), "bo@example.com", "secret1", "Bo Smith")
	if err != nil {
		t.Fatalf("SignUpWithEmail() error = %v", err)
	}
	if p.DisplayName() != "Bo Smith" {
		t.Errorf("DisplayName() = %q", p.DisplayName())
	}
	if token, _ := p.Token(context.Background()); token != "id-bo" {
		t.Errorf("Token() = %q, want sign-up token", token)
	}
}

func TestSignUpExistingEmail(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.handle("accounts:signUp", func(w http.ResponseWriter, body map[string]string) {
		providerFailure(w, "EMAIL_EXISTS")
	})

	_, err := newTestClient(t, srv, "").SignUpWithEmail(context.Background(), "bo@example.com", "secret1", "Bo")
	if ierr := session.AsIdentityError(err); ierr.Kind != session.KindAccountExists {
		t.Errorf("error = %v, want account exists", err)
	}
}

func TestFederatedSignInPostsIDToken(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.handle("accounts:signInWithIdp", func(w http.ResponseWriter, body map[string]string) {
		form, err := url.ParseQuery(body["postBody"])
		if err != nil || form.Get("id_token") != "google-assertion" || form.Get("providerId") != "google.com" {
			t.Errorf("postBody = %q", body["postBody"])
		}
		writeJSON(w, signedInBody("cy", "id-cy", "3600"))
	})

	c := NewClient(Config{
		APIKey:      "test-key",
		IdentityURL: srv.URL + "/v1",
		TokenURL:    srv.URL + "/v1/token",
		Credentials: StaticCredential("google-assertion"),
	})
	p, err := c.SignInWithFederated(context.Background())
	if err != nil {
		t.Fatalf("SignInWithFederated() error = %v", err)
	}
	if p.UID() != "cy" {
		t.Errorf("UID() = %q", p.UID())
	}
}

func TestFederatedSignInWithoutSource(t *testing.T) {
	_, srv := newFakeToolkit(t)
	_, err := newTestClient(t, srv, "").SignInWithFederated(context.Background())
	if !errors.Is(err, ErrNoCredentialSource) {
		t.Errorf("error = %v, want ErrNoCredentialSource", err)
	}
}

func TestTokenRefreshesNearExpiry(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.handle("accounts:signInWithPassword", func(w http.ResponseWriter, body map[string]string) {
		writeJSON(w, signedInBody("ana", "id-old", "30"))
	})
	fake.handle("token", func(w http.ResponseWriter, body map[string]string) {
		if body["grant_type"] != "refresh_token" || body["refresh_token"] != "refresh-ana" {
			t.Errorf("refresh form = %v", body)
		}
		writeJSON(w, map[string]interface{}{
			"id_token":      "id-new",
			"refresh_token": "refresh-ana-2",
			"expires_in":    "3600",
			"user_id":       "ana",
		})
	})

	file := filepath.Join(t.TempDir(), "session.json")
	c := newTestClient(t, srv, file)
	p, err := c.SignInWithEmail(context.Background(), "ana@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	token, err := p.Token(context.Background())
	if err != nil || token != "id-new" {
		t.Fatalf("Token() = %q, %v; want refreshed token", token, err)
	}
	if token, _ = p.Token(context.Background()); token != "id-new" || fake.called("token") != 1 {
		t.Errorf("second Token() = %q after %d refreshes", token, fake.called("token"))
	}

	su, err := readSession(file)
	if err != nil || su == nil || su.RefreshToken != "refresh-ana-2" {
		t.Errorf("saved session = %+v, %v", su, err)
	}
}

func TestRevokedRefreshTokenSignsOut(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.handle("accounts:signInWithPassword", func(w http.ResponseWriter, body map[string]string) {
		writeJSON(w, signedInBody("ana", "id-old", "10"))
	})
	fake.handle("token", func(w http.ResponseWriter, body map[string]string) {
		providerFailure(w, "TOKEN_EXPIRED")
	})

	file := filepath.Join(t.TempDir(), "session.json")
	c := newTestClient(t, srv, file)
	p, err := c.SignInWithEmail(context.Background(), "ana@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	var last session.Principal = p
	c.OnAuthStateChanged(func(p session.Principal) { last = p })

	_, err = p.Token(context.Background())
	if ierr := session.AsIdentityError(err); ierr.Kind != session.KindSessionExpired {
		t.Fatalf("Token() error = %v, want session expired", err)
	}
	if last != nil || c.CurrentUser() != nil {
		t.Error("revoked session must sign the user out")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("session file must be removed")
	}
}

func TestSignOutClearsSession(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.handle("accounts:signInWithPassword", func(w http.ResponseWriter, body map[string]string) {
		writeJSON(w, signedInBody("ana", "id-ana", "3600"))
	})

	file := filepath.Join(t.TempDir(), "session.json")
	c := newTestClient(t, srv, file)
	if _, err := c.SignInWithEmail(context.Background(), "ana@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}

	var last session.Principal
	unsubscribe := c.OnAuthStateChanged(func(p session.Principal) { last = p })
	if last == nil {
		t.Fatal("listener must receive the current user first")
	}
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if last != nil {
		t.Error("listener not told about sign-out")
	}
	unsubscribe()

	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("session file must be removed on sign-out")
	}
	if newTestClient(t, srv, file).CurrentUser() != nil {
		t.Error("signed-out session was restored")
	}
}

func TestCommandCredential(t *testing.T) {
	token, err := CommandCredential{Command: "echo '  assertion-123  '"}.IDToken(context.Background())
	if err != nil || token != "assertion-123" {
		t.Errorf("IDToken() = %q, %v", token, err)
	}
	if _, err := (CommandCredential{Command: "exit 3"}).IDToken(context.Background()); err == nil {
		t.Error("failing command must return an error")
	}
	if _, err := (CommandCredential{}).IDToken(context.Background()); !errors.Is(err, ErrNoCredentialSource) {
		t.Errorf("empty command error = %v", err)
	}
}

package identity

import (
	"context"
	"sync"
	"time"
)

// refreshMargin is how long before expiry an id token is renewed
const refreshMargin = time.Minute

// User is a signed-in account. It satisfies session.Principal.
type User struct {
	client *Client
	uid    string
	email  string

	refreshMu sync.Mutex

	mu           sync.Mutex
	displayName  string
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func (u *User) UID() string { return u.uid }
func (u *User) Email() string { return u.email }

func (u *User) DisplayName() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.displayName
}

// ExpiresAt returns when the current id token stops being valid
func (u *User) ExpiresAt() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.expiresAt
}

// Token returns the id token, exchanging the refresh token for a new one
// when it expires within a minute. A revoked refresh token signs the user
// out.
func (u *User) Token(ctx context.Context) (string, error) {
	u.refreshMu.Lock()
	defer u.refreshMu.Unlock()

	u.mu.Lock()
	if u.idToken != "" && u.client.now().Add(refreshMargin).Before(u.expiresAt) {
		token := u.idToken
		u.mu.Unlock()
		return token, nil
	}
	refreshToken := u.refreshToken
	u.mu.Unlock()

	res, err := u.client.refresh(ctx, refreshToken)
	if err != nil {
		if revokes(err) {
			u.client.revoke(u)
		}
		return "", err
	}

	u.mu.Lock()
	u.idToken = res.IDToken
	if res.RefreshToken != "" {
		u.refreshToken = res.RefreshToken
	}
	u.expiresAt = expiryOf(res.IDToken, int64(res.ExpiresIn), u.client.now())
	token := u.idToken
	u.mu.Unlock()

	u.client.persist(u)
	return token, nil
}

func (u *User) stored() storedUser {
	u.mu.Lock()
	defer u.mu.Unlock()
	return storedUser{
		UID:          u.uid,
		Email:        u.email,
		DisplayName:  u.displayName,
		IDToken:      u.idToken,
		RefreshToken: u.refreshToken,
		ExpiresAt:    u.expiresAt,
	}
}

// Package session tracks who is signed in. The Gate folds identity
// provider callbacks into a single state that every data operation checks.
package session

import "context"

// Principal is the signed-in user as reported by the identity provider
type Principal interface {
	UID() string
	Email() string
	DisplayName() string
	// Token returns a bearer token, refreshing it when it is about to expire
	Token(ctx context.Context) (string, error)
}

// IdentityProvider is the external capability that stores credentials and
// issues tokens.
type IdentityProvider interface {
	SignInWithEmail(ctx context.Context, email, password string) (Principal, error)
	SignUpWithEmail(ctx context.Context, email, password, displayName string) (Principal, error)
	SignInWithFederated(ctx context.Context) (Principal, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChanged reports the current principal (nil when signed out)
	// and every later change. The returned func removes the listener.
	OnAuthStateChanged(fn func(Principal)) (unsubscribe func())
}

// Registrar records a principal with the backend user resource
type Registrar interface {
	Register(ctx context.Context, p Principal) error
}

// RegistrarFunc adapts a function to Registrar
type RegistrarFunc func(ctx context.Context, p Principal) error

func (f RegistrarFunc) Register(ctx context.Context, p Principal) error {
	return f(ctx, p)
}

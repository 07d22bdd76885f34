package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoCredentialSource is returned by federated sign-in when no source of
// federated id tokens is configured.
var ErrNoCredentialSource = errors.New("no federated credential source configured")

// CredentialSource yields an id token issued by the federated provider
type CredentialSource interface {
	IDToken(ctx context.Context) (string, error)
}

// StaticCredential is a fixed id token
type StaticCredential string

func (s StaticCredential) IDToken(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredentialSource
	}
	return string(s), nil
}

// CommandCredential runs a shell command and uses its trimmed standard
// output as the id token, e.g. "gcloud auth print-identity-token".
type CommandCredential struct {
	Command string
}

func (c CommandCredential) IDToken(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.Command) == "" {
		return "", ErrNoCredentialSource
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", c.Command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("running credential command: %w", err)
		}
		return "", fmt.Errorf("running credential command: %w: %s", err, msg)
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", errors.New("credential command printed no token")
	}
	return token, nil
}

// Package modelguard resolves which generation model a chat request should
// use and verifies it is actually installed before any completion call.
package modelguard

import (
	"context"
	"fmt"
	"strings"
)

// ModelLister reports the models a generation backend has installed.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Resolved is the outcome of a successful resolution. Verified is false
// when the installed-model listing failed and the guard proceeded
// optimistically; the downstream completion call will fail clearly if the
// model truly is absent.
type Resolved struct {
	Name     string
	Verified bool
}

// ModelNotInstalledError reports a confirmed-absent model together with
// what is installed, so the caller can tell the operator how to fix it.
// This is a configuration error, not a transient condition.
type ModelNotInstalledError struct {
	Model     string
	Installed []string
}

func (e *ModelNotInstalledError) Error() string {
	return fmt.Sprintf("model %q is not installed (installed: %s); pull it or configure an installed model",
		e.Model, strings.Join(e.Installed, ", "))
}

// Resolve picks the requested model, falling back to `fallback` when the
// request names none, and checks it against the backend's installed models.
func Resolve(ctx context.Context, requested, fallback string, lister ModelLister) (Resolved, error) {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = strings.TrimSpace(fallback)
	}
	if name == "" {
		return Resolved{}, fmt.Errorf("no model requested and no fallback configured")
	}

	installed, err := lister.ListModels(ctx)
	if err != nil {
		// Listing failures are non-fatal: failing here would be stricter
		// than the completion call itself.
		return Resolved{Name: name, Verified: false}, nil
	}
	for _, m := range installed {
		if m == name {
			return Resolved{Name: name, Verified: true}, nil
		}
	}
	return Resolved{}, &ModelNotInstalledError{Model: name, Installed: installed}
}

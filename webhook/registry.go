package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jrsteele09/go-credential-gateway/users"
)

var ErrUnknownFunction = errors.New("unknown function")

// Call is an authenticated function call. Parameters never contain the caller's access token.
type Call struct {
	Name       string
	User       *users.User
	Parameters json.RawMessage
}

type HandlerFunc func(ctx context.Context, call Call) (any, error)

// Registry maps function names to handlers.
type Registry struct {
	handlers map[string]HandlerFunc
	lock     sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, handler HandlerFunc) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers[name] = handler
}

func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler registered for call.Name.
func (r *Registry) Dispatch(ctx context.Context, call Call) (any, error) {
	r.lock.RLock()
	handler, ok := r.handlers[call.Name]
	r.lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("[Registry Dispatch] %q: %w", call.Name, ErrUnknownFunction)
	}
	return handler(ctx, call)
}

package memengine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/kode4food/bpmspec/internal/util"
	"github.com/kode4food/bpmspec/pkg/api"
)

type user struct {
	api.User
	groups util.Set[string]
	hash   []byte
}

var (
	ErrUserIDRequired  = errors.New("user id is required")
	ErrGroupIDRequired = errors.New("group id is required")
)

// AddUser stores a user with a bcrypt hash of password and adds it to each
// group, creating groups that do not exist yet
func (e *Engine) AddUser(u api.User, password string, groups ...string) error {
	if u.ID == "" {
		return ErrUserIDRequired
	}
	hash, err := bcrypt.GenerateFromPassword(
		[]byte(password), bcrypt.MinCost,
	)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", u.ID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.users[u.ID] = &user{
		User:   u,
		groups: util.SetOf(groups...),
		hash:   hash,
	}
	for _, g := range groups {
		if _, ok := e.groups[g]; !ok {
			e.groups[g] = &api.Group{ID: g, Name: g}
		}
	}
	return nil
}

// AddGroup stores a group, replacing any group with the same id
func (e *Engine) AddGroup(g api.Group) error {
	if g.ID == "" {
		return ErrGroupIDRequired
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groups[g.ID] = &g
	return nil
}

func (e *Engine) User(
	_ context.Context, id string,
) (*api.User, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.users[id]
	if !ok {
		return nil, false, nil
	}
	cp := u.User
	return &cp, true, nil
}

func (e *Engine) Group(
	_ context.Context, id string,
) (*api.Group, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups[id]
	if !ok {
		return nil, false, nil
	}
	cp := *g
	return &cp, true, nil
}

// IsMember returns true if the user belongs to the group
func (e *Engine) IsMember(userID, groupID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.users[userID]
	return ok && u.groups.Contains(groupID)
}

// CheckPassword compares password with the stored hash. Unknown users never
// authenticate
func (e *Engine) CheckPassword(
	_ context.Context, userID, password string,
) (bool, error) {
	e.mu.Lock()
	u, ok := e.users[userID]
	e.mu.Unlock()
	if !ok {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword(u.hash, []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

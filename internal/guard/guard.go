// Package guard serializes return processing for a customer/movie pair.
package guard

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const returnKeyPrefix = "return-guard:"

// ReturnGuard hands out a short-lived exclusive claim on a key. Acquire
// returns a token naming the claim; Release only drops the claim that token
// still owns.
type ReturnGuard interface {
	// Acquire reports false when another holder already owns key.
	Acquire(ctx context.Context, key string) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
}

// ReturnKey builds the guard key for a customer/movie pair.
func ReturnKey(customerID, movieID string) string {
	return returnKeyPrefix + customerID + ":" + movieID
}

// LocalGuard keeps claims in process memory. It only dedupes requests that
// reach the same process.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]string
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]string)}
}

func (g *LocalGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	g.held[key] = token
	return token, true, nil
}

func (g *LocalGuard) Release(ctx context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] == token {
		delete(g.held, key)
	}
	return nil
}

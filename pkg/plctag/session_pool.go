// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plctag

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// SessionPool is an opt-in Transport that keeps idle sessions open between
// requests instead of tearing them down. A session is lent to one request at
// a time and goes back to the pool when that request closes it. Sessions that
// saw a failed Read or Write are closed instead of pooled.
type SessionPool struct {
	transport Transport

	mu     *sync.Mutex
	cache  *lru.Cache
	closed bool
}

type idleSession struct {
	tag   Tag
	taken bool
}

// NewSessionPool keeps at most size idle sessions opened through transport.
func NewSessionPool(transport Transport, size int) (*SessionPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("session pool size must be positive, got %d", size)
	}

	cache, err := lru.NewWithEvict(size, func(_ interface{}, value interface{}) {
		idle := value.(*idleSession)
		if !idle.taken {
			_ = idle.tag.Close()
		}
	})
	if err != nil {
		return nil, err
	}

	return &SessionPool{
		transport: transport,
		mu:        &sync.Mutex{},
		cache:     cache,
	}, nil
}

// Open lends an idle session for attrs, or opens a new one.
func (p *SessionPool) Open(attrs SessionAttributes) (Tag, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("session pool is closed")
	}
	if value, ok := p.cache.Get(attrs); ok {
		idle := value.(*idleSession)
		idle.taken = true
		p.cache.Remove(attrs)
		p.mu.Unlock()
		return &pooledTag{Tag: idle.tag, pool: p, attrs: attrs}, nil
	}
	p.mu.Unlock()

	tag, err := p.transport.Open(attrs)
	if err != nil {
		return nil, err
	}
	return &pooledTag{Tag: tag, pool: p, attrs: attrs}, nil
}

// Idle returns the number of pooled sessions not lent out.
func (p *SessionPool) Idle() int {
	return p.cache.Len()
}

// Close closes every idle session. Sessions currently lent out are closed
// when they are released.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.cache.Purge()
	return nil
}

func (p *SessionPool) release(attrs SessionAttributes, tag Tag, broken bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if broken || p.closed || p.cache.Contains(attrs) {
		return tag.Close()
	}
	p.cache.Add(attrs, &idleSession{tag: tag})
	return nil
}

type pooledTag struct {
	Tag
	pool     *SessionPool
	attrs    SessionAttributes
	broken   bool
	released bool
}

func (t *pooledTag) Read() error {
	err := t.Tag.Read()
	if err != nil {
		t.broken = true
	}
	return err
}

func (t *pooledTag) Write() error {
	err := t.Tag.Write()
	if err != nil {
		t.broken = true
	}
	return err
}

func (t *pooledTag) Close() error {
	if t.released {
		return nil
	}
	t.released = true
	return t.pool.release(t.attrs, t.Tag, t.broken)
}

// Package session keeps one live database connection per (bot credential,
// database URI) pair so requests sharing credentials do not reconnect.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/img2tg/img2tg/internal/logger"
)

const closeTimeout = 10 * time.Second

// Conn is the connection handle stored in the cache.
type Conn interface {
	Close(ctx context.Context) error
}

type entry struct {
	conn       Conn
	lastAccess time.Time
}

// Cache is an idle-timeout bounded connection cache. A background sweep
// closes and evicts entries untouched for longer than the timeout.
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// Key builds the composite cache key. Distinct credentials never share a
// connection even when they point at the same database.
func Key(credential, uri string) string {
	return credential + "\x00" + uri
}

func New(idleTimeout time.Duration) *Cache {
	c := &Cache{
		entries:     make(map[string]*entry),
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Get returns the cached connection for key, or a miss when absent or
// expired. A miss is never an error.
func (c *Cache) Get(key string) (Conn, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.lastAccess) > c.idleTimeout {
		c.Delete(key)
		return nil, false
	}
	return e.conn, true
}

// Set stores conn under key with the current timestamp. A superseded live
// connection is closed first so overwrites cannot leak.
func (c *Cache) Set(key string, conn Conn) {
	c.mu.Lock()
	prev, existed := c.entries[key]
	c.entries[key] = &entry{conn: conn, lastAccess: time.Now()}
	c.mu.Unlock()

	if existed && prev.conn != conn {
		closeConn(key, prev.conn)
	}
}

// Touch refreshes the timestamp of an existing entry.
func (c *Cache) Touch(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.lastAccess = time.Now()
	}
	c.mu.Unlock()
}

// Delete closes and removes the entry for key, if any.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	if ok {
		closeConn(key, e.conn)
	}
}

// Size returns the current number of cached connections.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweep and closes every cached connection. Called on
// process termination.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })

	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for key, e := range entries {
		closeConn(key, e.conn)
	}
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.idleTimeout / 12)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	var expired []string
	var conns []Conn
	for key, e := range c.entries {
		if now.Sub(e.lastAccess) > c.idleTimeout {
			expired = append(expired, key)
			conns = append(conns, e.conn)
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	for i, key := range expired {
		closeConn(key, conns[i])
		logger.Debug("Cleaned up expired session", map[string]interface{}{
			"sessions_left": c.Size(),
			"key_len":       len(key),
		})
	}
}

func closeConn(key string, conn Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		logger.Warn("Failed to close cached connection", map[string]interface{}{
			"error":   err.Error(),
			"key_len": len(key),
		})
	}
}

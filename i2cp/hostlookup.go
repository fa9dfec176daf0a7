package i2cp

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/wireutil"
)

const (
	hostCacheSize = 1000
	lookupTimeout = 10 * time.Second
)

// HostLookupResolver resolves hostnames and destination hashes to full
// destinations through the router's HostLookup message, caching successful
// answers in memory.
type HostLookupResolver struct {
	client *Client

	cache *lru.Cache[string, *destination.Destination]

	mu        sync.Mutex
	nextReqID uint32
	pending   map[uint16]chan hostReplyResult
}

type hostReplyResult struct {
	dest *destination.Destination
	code byte
}

// NewHostLookupResolver creates a resolver bound to client, backed by an
// LRU cache capped at hostCacheSize entries.
func NewHostLookupResolver(client *Client) (*HostLookupResolver, error) {
	cache, err := lru.New[string, *destination.Destination](hostCacheSize)
	if err != nil {
		return nil, fmt.Errorf("i2cp: create host lookup cache: %w", err)
	}
	return &HostLookupResolver{
		client:  client,
		cache:   cache,
		pending: make(map[uint16]chan hostReplyResult),
	}, nil
}

func (r *HostLookupResolver) nextRequestID() uint16 {
	n := atomic.AddUint32(&r.nextReqID, 1)
	return uint16(n % 65536)
}

// LookupName resolves name (an I2P hostname) to a destination, consulting
// the cache first.
func (r *HostLookupResolver) LookupName(sessionID uint16, name string) (*destination.Destination, error) {
	if d, ok := r.cache.Get(name); ok {
		return d, nil
	}

	reqID := r.nextRequestID()
	payload := wireutil.PutUint16(nil, sessionID)
	payload = wireutil.PutUint32(payload, uint32(reqID))
	payload = append(payload, byte(HostLookupByName))
	payload = append(payload, byte(len(name)))
	payload = append(payload, name...)

	ch := make(chan hostReplyResult, 1)
	r.mu.Lock()
	r.pending[reqID] = ch
	r.mu.Unlock()

	if err := r.client.WriteMessage(MsgHostLookup, payload); err != nil {
		r.mu.Lock()
		delete(r.pending, reqID)
		r.mu.Unlock()
		return nil, fmt.Errorf("i2cp: send host lookup: %w", err)
	}

	select {
	case result := <-ch:
		if result.code != HostLookupSuccess || result.dest == nil {
			return nil, fmt.Errorf("i2cp: host lookup for %q failed with code %d", name, result.code)
		}
		r.cache.Add(name, result.dest)
		return result.dest, nil
	case <-time.After(lookupTimeout):
		r.mu.Lock()
		delete(r.pending, reqID)
		r.mu.Unlock()
		return nil, fmt.Errorf("i2cp: host lookup for %q timed out after %s", name, lookupTimeout)
	}
}

// HandleHostReply routes a decoded HostReply message payload to the
// waiting LookupName call. It should be called from the connection's
// read loop for every MsgHostReply frame received.
func (r *HostLookupResolver) HandleHostReply(payload []byte) error {
	if len(payload) < 7 {
		return fmt.Errorf("i2cp: host reply payload too short")
	}
	reqID := uint16(wireutil.Uint32(payload[2:6]))
	code := payload[6]

	r.mu.Lock()
	ch, ok := r.pending[reqID]
	delete(r.pending, reqID)
	r.mu.Unlock()
	if !ok {
		log.Warn("i2cp: host reply for unknown request id dropped")
		return nil
	}

	if code != HostLookupSuccess {
		ch <- hostReplyResult{code: code}
		return nil
	}

	d, _, err := destination.Parse(payload[7:])
	if err != nil {
		ch <- hostReplyResult{code: code}
		return fmt.Errorf("i2cp: parse host reply destination: %w", err)
	}
	ch <- hostReplyResult{dest: d, code: code}
	return nil
}

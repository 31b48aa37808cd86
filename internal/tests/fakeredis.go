package tests

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FakeRedis answers the handful of commands the cache, lock and idempotency
// stores issue, in process. Hooked into a real *redis.Client, it never dials.
type FakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration

	// Err, when set, fails every command.
	Err      error
	// Commands counts processed commands by lower-case name.
	Commands map[string]int
}

// NewFakeRedis returns a client backed by a fresh FakeRedis.
func NewFakeRedis() (*redis.Client, *FakeRedis) {
	fake := &FakeRedis{
		data:     make(map[string]string),
		ttl:      make(map[string]time.Duration),
		Commands: make(map[string]int),
	}
	client := redis.NewClient(&redis.Options{Addr: "fake:6379"})
	client.AddHook(fake)
	return client, fake
}

// Get returns a stored value.
func (f *FakeRedis) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// Set overwrites a value, as another process would.
func (f *FakeRedis) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

// TTL returns the expiry the key was last written with.
func (f *FakeRedis) TTL(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttl[key]
}

// Keys lists the stored keys with the given prefix.
func (f *FakeRedis) Keys(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (f *FakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("fake redis: dial %s refused", addr)
	}
}

func (f *FakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return f.process(cmd)
	}
}

func (f *FakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if err := f.process(cmd); err != nil && err != redis.Nil {
				return err
			}
		}
		return nil
	}
}

func (f *FakeRedis) process(cmd redis.Cmder) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := strings.ToLower(cmd.Name())
	f.Commands[name]++
	if f.Err != nil {
		cmd.SetErr(f.Err)
		return f.Err
	}

	args := cmd.Args()
	switch name {
	case "ping":
		cmd.(*redis.StatusCmd).SetVal("PONG")
	case "get":
		v, ok := f.data[argString(args[1])]
		if !ok {
			cmd.SetErr(redis.Nil)
			return redis.Nil
		}
		cmd.(*redis.StringCmd).SetVal(v)
	case "set", "setnx":
		return f.set(cmd, args)
	case "del":
		var n int64
		for _, a := range args[1:] {
			key := argString(a)
			if _, ok := f.data[key]; ok {
				delete(f.data, key)
				delete(f.ttl, key)
				n++
			}
		}
		cmd.(*redis.IntCmd).SetVal(n)
	case "evalsha", "eval":
		// Only the compare-and-delete script is served.
		key, token := argString(args[3]), argString(args[4])
		var n int64
		if v, ok := f.data[key]; ok && v == token {
			delete(f.data, key)
			delete(f.ttl, key)
			n = 1
		}
		cmd.(*redis.Cmd).SetVal(n)
	default:
		err := fmt.Errorf("fake redis: unsupported command %q", name)
		cmd.SetErr(err)
		return err
	}
	return nil
}

func (f *FakeRedis) set(cmd redis.Cmder, args []interface{}) error {
	key, value := argString(args[1]), argString(args[2])
	nx := cmd.Name() == "setnx"
	var ttl time.Duration
	for i := 3; i < len(args); i++ {
		switch strings.ToLower(argString(args[i])) {
		case "nx":
			nx = true
		case "ex":
			i++
			ttl = time.Duration(argInt(args[i])) * time.Second
		case "px":
			i++
			ttl = time.Duration(argInt(args[i])) * time.Millisecond
		}
	}

	_, exists := f.data[key]
	written := !(nx && exists)
	if written {
		f.data[key] = value
		f.ttl[key] = ttl
	}

	switch c := cmd.(type) {
	case *redis.BoolCmd:
		c.SetVal(written)
	case *redis.StatusCmd:
		c.SetVal("OK")
	}
	return nil
}

func argString(a interface{}) string {
	switch v := a.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func argInt(a interface{}) int64 {
	switch v := a.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		var n int64
		_, _ = fmt.Sscan(argString(a), &n)
		return n
	}
}

package redis

import "strings"

// Keyspace prefixes every key this service writes so a shared redis can be
// inspected and flushed per application.
type Keyspace string

const DefaultKeyspace Keyspace = "zz"

func (k Keyspace) join(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(string(k))
	b.WriteByte(':')
	b.WriteString(kind)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (c *Client) keyspace() Keyspace {
	if c.keys == "" {
		return DefaultKeyspace
	}
	return c.keys
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.keyspace().join("idempotency", scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.keyspace().join("rate_limit", scope)
}

// LockKey names a distributed lock such as the cron worker's.
func (c *Client) LockKey(name string) string {
	return c.keyspace().join("lock", name)
}

package cache

import "fmt"

// ResultKey addresses a cached extraction result by the digest of the audio
// clip plus its prior context.
func ResultKey(digest string) string {
	return fmt.Sprintf("extract:result:%s", digest)
}

// RateLimitKey addresses the sliding-window counter for one client.
func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

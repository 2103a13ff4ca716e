package common

import "fmt"

func RedisKeyRateLimit(dimension, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", dimension, key)
}

// Package redisevents implements the quiz generation event transport on
// Redis. Events travel over per-user pub/sub channels for live delivery and
// are mirrored into a short-TTL hash per user so reconnecting clients can
// recover the latest state of each in-flight generation.
package redisevents

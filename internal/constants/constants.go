package constants

import "time"

const (
	TargetScore        = 5
	MinGamesForWinRate = 3
	MinStreakLength    = 2
)

const (
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeLength   = 6
	InviteCodeAttempts = 5
	IDLength           = 21
	MaxNameLength      = 40
	MaxLocationLength  = 120
	MaxAvatarURLLength = 2048
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	WebhookTimeout  = 10 * time.Second
	PublishTimeout  = 2 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SubscriberBuffer = 32
	StreamHeartbeat  = 15 * time.Second
	TokenCookieName  = "sesh_token"
)

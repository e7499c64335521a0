package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar HTTP.

func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

func Method(v string) zap.Field {
	return zap.String("method", v)
}

func Path(v string) zap.Field {
	return zap.String("path", v)
}

func Status(v int) zap.Field {
	return zap.Int("status", v)
}

func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// Campos estándar OAuth.

func ClientID(v string) zap.Field {
	return zap.String("client_id", v)
}

func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

func GrantType(v string) zap.Field {
	return zap.String("grant_type", v)
}

func Scope(v string) zap.Field {
	return zap.String("scope", v)
}

// Campos genéricos.

func Component(v string) zap.Field {
	return zap.String("component", v)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

func String(key, v string) zap.Field {
	return zap.String(key, v)
}

func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

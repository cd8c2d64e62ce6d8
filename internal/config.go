package internal

import "time"

type Config struct {
	Host              string        `env:"HOST,required=true"`
	Port              int           `env:"PORT,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	Debug             bool          `env:"DEBUG,default=false"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	CensoredChar      string        `env:"CENSORED_CHAR,default=*"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,required=true"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
}

package redis_client

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/util"
)

var Client *redis.Client

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

// Options resolves the connection settings from DEPARTUREBOARD_REDIS_* variables
func Options(env map[string]string) (*redis.Options, error) {
	address := util.BoardEnv(env, "REDIS_ADDRESS", defaultConnectionAddress)
	password := util.BoardEnv(env, "REDIS_PASSWORD", defaultConnectionPassword)
	database := defaultDatabase

	if value := util.BoardEnv(env, "REDIS_DATABASE", ""); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		database = n
	}

	options := &redis.Options{
		Addr: address,
		DB:   database,
	}
	if password != "" {
		options.Password = password
	}

	return options, nil
}

func Connect(ctx context.Context) error {
	options, err := Options(util.GetEnvironmentVariables())
	if err != nil {
		return err
	}

	Client = redis.NewClient(options)

	if err := Client.Ping(ctx).Err(); err != nil {
		return err
	}

	log.Info().Str("address", options.Addr).Int("database", options.DB).Msg("Connected to redis")

	return nil
}

// Package main prints an access token for calling the saved-journey
// endpoints of a local RoadPlanner API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/auth"
	"github.com/roadplanner/roadplanner/internal/config"
)

func main() {
	userID := flag.String("user", "usr_local", "user ID to issue the token for")
	ttl := flag.Duration("ttl", auth.AccessTokenExpiry, "token lifetime")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsProduction() {
		log.Fatal().Msg("refusing to issue tokens in production")
	}

	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWT.SigningKey,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
	})

	token, expiresAt, err := tokens.IssueAccessToken(*userID, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue token")
	}

	log.Info().Str("user_id", *userID).Time("expires_at", expiresAt).Msg("token issued")
	fmt.Println(token)
}

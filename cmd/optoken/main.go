// Command optoken issues and revokes operator tokens for the vendor and admin API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bookingcore/internal/auth"
	"bookingcore/internal/cache"
	"bookingcore/internal/config"
	"bookingcore/internal/logging"
)

func main() {
	id := flag.Uint("id", 0, "operator id (the vendor id for vendor tokens)")
	roleFlag := flag.String("role", string(auth.RoleVendor), "vendor or admin")
	ttl := flag.Duration("ttl", auth.DefaultTokenExpiry, "token lifetime")
	revoke := flag.String("revoke", "", "revoke this token instead of issuing one")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, false)
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	if *revoke != "" {
		claims, err := jwtService.ValidateToken(*revoke)
		if err != nil {
			logger.WithError(err).Fatal("token is not valid")
		}
		cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cacheClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := auth.RevokeClaims(ctx, auth.NewTokenStore(cacheClient), claims); err != nil {
			logger.WithError(err).Fatal("revoke failed")
		}
		logger.WithField("jti", claims.ID).Info("token revoked")
		return
	}

	role, err := auth.ParseRole(*roleFlag)
	if err != nil {
		logger.WithError(err).Fatal("bad role")
	}
	if *id == 0 && role == auth.RoleVendor {
		logger.Fatal("vendor tokens need -id")
	}

	token, err := jwtService.GenerateOperatorToken(uint(*id), role, *ttl)
	if err != nil {
		logger.WithError(err).Fatal("issue token")
	}
	fmt.Fprintln(os.Stdout, token)
}

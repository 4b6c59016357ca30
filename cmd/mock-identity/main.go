package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-auth-client/internal/mockidentity"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8572", "Listen address")
	signingKey := flag.String("signing-key", "", "HS256 signing key")
	tokenField := flag.String("token-field", "", "Wrap tokens in a JSON object under this field")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	seedEmail := flag.String("seed-email", "", "Email of an account created at startup")
	seedPassword := flag.String("seed-password", "", "Password of the seeded account")
	flag.Parse()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("mock-identity"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("mockidentity")

	server := mockidentity.New(mockidentity.Config{
		SigningKey: *signingKey,
		TokenTTL:   *ttl,
		TokenField: *tokenField,
		Logger:     logger,
	})

	if *seedEmail != "" {
		if err := server.AddUser(*seedEmail, *seedPassword); err != nil {
			logger.Error("unable to seed account", "email", *seedEmail, "error", err)
			os.Exit(1)
		}
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("mock identity endpoint listening", "addr", *addr)
	if err := server.Listen(*addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

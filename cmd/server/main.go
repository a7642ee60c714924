package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-marathon-server/auth"
	"github.com/jrsteele09/go-marathon-server/internal/config"
	"github.com/jrsteele09/go-marathon-server/internal/logging"
	"github.com/jrsteele09/go-marathon-server/mail"
	"github.com/jrsteele09/go-marathon-server/render"
	"github.com/jrsteele09/go-marathon-server/server"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/static"
	"github.com/jrsteele09/go-marathon-server/storage"
	"github.com/jrsteele09/go-marathon-server/tokens"
	"github.com/rs/zerolog/log"
)

const storeRetryStep = time.Second

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(c.IsDevelopment(), c.GetLogLevel(), os.Stderr)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Err(err).Msg("closing store")
		}
	}()
	if err := storage.Setup(ctx, store, c.GetStartupAttempts(), storeRetryStep); err != nil {
		return err
	}

	files, err := newFileStore(ctx, c)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(
		auth.Repos{Users: store, Sessions: store},
		newMailer(c),
		tokens.NewCodeGenerator(c.GetFixedLoginCode()),
		auth.Settings{
			SiteName:        c.GetAppName(),
			WebRoot:         c.GetWebRoot(),
			MailFrom:        c.GetSmtpFrom(),
			TagLength:       c.GetLoginTagLength(),
			SessionIDLength: c.GetSessionIDLength(),
			LoginRequestTTL: c.GetLoginRequestTTL(),
			SessionTTL:      c.GetSessionTTL(),
			CodeSalt:        c.GetLoginCodeSalt(),
		},
	)
	if err != nil {
		return err
	}

	handler, err := server.New(c, server.Deps{
		Auth:     authService,
		Users:    store,
		Files:    files,
		Expander: render.NewExpander(),
		Health:   store,
	})
	if err != nil {
		return err
	}
	if err := handler.InitialiseSystem(ctx); err != nil {
		return err
	}

	if interval := c.GetSweepInterval(); interval > 0 {
		go func() {
			_ = sessions.NewSweeper(store, interval).Run(ctx)
		}()
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	cancel()
	returnError = shutdown(httpServer)
	return returnError
}

func newMailer(c config.Config) mail.Sender {
	if c.IsDevelopment() {
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(mail.SMTPSettings{
		Host:     c.GetSmtpHost(),
		Port:     c.GetSmtpPort(),
		Account:  c.GetSmtpAccount(),
		Password: c.GetSmtpPassword(),
		Domain:   c.GetSmtpDomain(),
	})
}

func newFileStore(ctx context.Context, c config.Config) (static.Store, error) {
	switch backend := c.GetStaticBackend(); backend {
	case config.StaticDir:
		log.Info().Str("dir", c.GetStaticDir()).Msg("serving site from directory")
		return static.NewDirStore(c.GetStaticDir()), nil
	case config.StaticS3:
		log.Info().Str("bucket", c.GetS3Bucket()).Str("prefix", c.GetS3Prefix()).Msg("serving site from S3")
		return static.NewS3Store(ctx, static.S3Settings{
			Bucket:    c.GetS3Bucket(),
			Region:    c.GetS3Region(),
			Endpoint:  c.GetS3Endpoint(),
			Prefix:    c.GetS3Prefix(),
			AccessKey: c.GetS3AccessKey(),
			SecretKey: c.GetS3SecretKey(),
		})
	default:
		return nil, fmt.Errorf("unknown static backend %q", backend)
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

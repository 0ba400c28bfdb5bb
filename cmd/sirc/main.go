// Command sirc connects to a Twitch-style chat server, joins the configured
// channels and logs the chat. It exits with status 104 when the server resets
// the connection so that a supervisor can restart it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jazzpi/sirc"
	"github.com/jazzpi/sirc/config"
	"github.com/jazzpi/sirc/ircdebug"
)

// exitError asks main to exit with a specific status.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }
func (e exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
		logLevel   string
		debugWire  bool
	)

	rootCmd := &cobra.Command{
		Use:           "sirc",
		Short:         "Simple IRC client for Twitch-style chat",
		Long:          `Connects to a chat server, joins the configured channels, and logs everything said in them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("error loading %s: %w", envFile, err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if debugWire {
				logger.SetLevel(logrus.DebugLevel)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger, debugWire)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (.yaml, .toml or .json)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "file with SIRC_* environment variables")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warning, error)")
	rootCmd.Flags().BoolVar(&debugWire, "debug-wire", false, "log raw transport traffic at debug level")

	return rootCmd
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func newClient(cfg *config.Config, logger *logrus.Logger, debugWire bool) *sirc.Client {
	client := &sirc.Client{
		Addr:           cfg.Addr(),
		Nickname:       cfg.Nick,
		Pass:           cfg.Password,
		FlushInterval:  cfg.FlushInterval.Duration,
		LoginTimeout:   cfg.LoginTimeout.Duration,
		MalformedBurst: cfg.Malformed.Burst,
		MalformedRate:  rate.Limit(cfg.Malformed.PerMinute / 60),
		Logger:         logger,
	}
	client.PrivateMessages = sirc.PrivateMessageHandlerFunc(func(w sirc.MessageWriter, channel, user, text string) {
		logger.WithFields(logrus.Fields{
			"channel": channel,
			"user":    user,
		}).Info(text)
	})
	if debugWire {
		client.DialFn = func() (io.ReadWriteCloser, error) {
			conn, err := net.Dial("tcp", cfg.Addr())
			if err != nil {
				return nil, err
			}
			return ircdebug.Tee(conn, logger.WithField("addr", cfg.Addr())), nil
		}
	}
	for _, ch := range cfg.Channels {
		client.JoinChannel(ch)
	}
	return client
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, debugWire bool) error {
	client := newClient(cfg, logger, debugWire)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           newStatusRouter(client),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("Status server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Infof("Serving metrics on %s", cfg.MetricsAddr)
	}

	logger.Infof("Connecting to %s as %s", cfg.Addr(), cfg.Nick)
	err := client.ConnectAndRun(ctx)
	switch {
	case errors.Is(err, sirc.ErrTransportReset):
		logger.WithError(err).Log(logrus.FatalLevel, "Connection reset by peer. Exiting.")
		return exitError{code: sirc.ExitCodeTransportReset, err: err}
	case ctx.Err() != nil:
		logger.Info("Shutting down")
		return nil
	default:
		return err
	}
}

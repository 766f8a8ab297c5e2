// Command smppsimd runs the SMPP gateway simulator: the SMPP listener, the
// delivery-receipt lifecycle engine, the mobile-originated traffic service
// and the web API, all coordinated under one shutdown path.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smppsim/smppsim/internal/config"
	"github.com/smppsim/smppsim/internal/lifecycle"
	"github.com/smppsim/smppsim/internal/logbuf"
	"github.com/smppsim/smppsim/internal/metrics"
	"github.com/smppsim/smppsim/internal/mo"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/queue"
	"github.com/smppsim/smppsim/internal/registry"
	"github.com/smppsim/smppsim/internal/smsc"
	"github.com/smppsim/smppsim/internal/webapi"
)

// shutdownGrace bounds how long a graceful shutdown waits for the web API
// and SMPP sessions to drain before the process exits anyway.
const shutdownGrace = 10 * time.Second

var runMode string

var rootCmd = &cobra.Command{
	Use:   "smppsimd",
	Short: "SMPP gateway simulator",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(runMode)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&runMode, "mode", "default", "run mode; selects config.<mode>.yaml as an overlay")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(mode string) error {
	cfg, err := config.Load(mode)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logs := logbuf.New(500)
	base := kitlog.NewJSONLogger(kitlog.NewSyncWriter(os.Stdout))
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC)
	tee := kitlog.NewJSONLogger(kitlog.NewSyncWriter(logs))
	logger := smsc.NewKitLogger(kitlog.LoggerFunc(func(kv ...interface{}) error {
		_ = base.Log(kv...)
		return tee.Log(kv...)
	}))

	metrics.MustRegister()

	reg := registry.New()
	q := queue.New()

	accounts := make([]smsc.Account, 0, len(cfg.Smpp.Accounts)+1)
	accounts = append(accounts, smsc.Account{SystemID: cfg.Smpp.SystemID, Password: cfg.Smpp.Password})
	for _, a := range cfg.Smpp.Accounts {
		accounts = append(accounts, smsc.Account{SystemID: a.SystemID, Password: a.Password})
	}
	auth := smsc.NewAuthenticator(accounts)

	dispatcher := &smsc.Dispatcher{
		Auth:     auth,
		Registry: reg,
		Queue:    q,
		Logger:   logger,
	}

	protocolMode := pdu.V50
	if cfg.Smpp.Version == "3.4" {
		protocolMode = pdu.V34
	}

	sessionConf := smsc.SessionConf{
		Logger:       logger,
		Handler:      dispatcher,
		ProtocolMode: protocolMode,
	}

	smppAddr := fmt.Sprintf(":%d", cfg.Smpp.Port)
	srv := smsc.NewServer(smppAddr, sessionConf, reg)

	injectCh := make(chan mo.Message, 64)
	moService := mo.New(mo.Config{
		Enabled:       cfg.MoService.Enabled,
		RatePerMinute: cfg.MoService.DeliveryMessagesPerMinute,
		FilePath:      cfg.MoService.FilePath,
	}, injectCh, reg, logger)

	lcEngine := lifecycle.New(lifecycle.Config{
		CheckFrequency:   time.Duration(cfg.Lifecycle.MessageStateCheckFrequencyMs) * time.Millisecond,
		MaxTimeEnroute:   time.Duration(cfg.Lifecycle.MaxTimeEnrouteMs) * time.Millisecond,
		PercentDelivered: cfg.Lifecycle.PercentDelivered,
		PercentUndeliv:   cfg.Lifecycle.PercentUndeliverable,
		PercentAccepted:  cfg.Lifecycle.PercentAccepted,
		PercentRejected:  cfg.Lifecycle.PercentRejected,
	}, q, reg, logger)

	webHandler := &webapi.Handler{
		Registry: reg,
		Queue:    q,
		Logs:     logs,
		Inject:   injectCh,
		Logger:   logger,
	}
	webAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	webServer := &http.Server{Addr: webAddr, Handler: webapi.NewRouter(webHandler)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoF("smpp listener starting on %s", smppAddr)
		if err := srv.ListenAndServe(); err != nil {
			return fmt.Errorf("smpp listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.InfoF("web api listening on %s", webAddr)
		if err := webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("web api: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := lcEngine.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		err := moService.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoF("shutdown signal received, draining sessions")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = webServer.Shutdown(shCtx)
		return srv.Shutdown(shCtx)
	})

	return g.Wait()
}

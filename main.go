// Command orbitfight runs an orbital arena server (--headless) or a client
// that mirrors one.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"orbitfight/client"
	"orbitfight/config"
	"orbitfight/logger"
	"orbitfight/server"
)

func main() {
	headless := flag.Bool("headless", false, "run as a dedicated server")
	cfgPath := flag.String("config", "config.txt", "path to the config file")
	flag.Parse()

	cfg, reg, err := config.Load(*cfgPath)
	// bad lines are reported once the logger exists
	lineErrs := err

	in := bufio.NewReader(os.Stdin)
	if !*headless && cfg.Name == "" {
		cfg.Name = prompt(in, "Specify a username.")
		persist(reg, *cfgPath, "name")
	}
	if cfg.Port == 0 {
		msg := "Specify the port you will connect to."
		if *headless {
			msg = "Specify the port you will host on."
		}
		for cfg.Port == 0 {
			p, err := strconv.ParseUint(prompt(in, msg), 10, 16)
			if err == nil {
				cfg.Port = uint16(p)
			}
		}
		persist(reg, *cfgPath, "port")
	}

	log := logger.New(cfg.LogFile, cfg.Debug)
	defer logger.Sync(log)
	if lineErrs != nil {
		log.Warnf("config: %v", lineErrs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headless {
		runServer(ctx, cfg, reg, *cfgPath, log)
		return
	}
	runClient(ctx, cfg, log)
}

func prompt(in *bufio.Reader, msg string) string {
	for {
		fmt.Println(msg)
		line, err := in.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "no input")
			os.Exit(1)
		}
	}
}

func persist(reg *config.Registry, path, name string) {
	if err := reg.Persist(path, name); err != nil {
		fmt.Fprintf(os.Stderr, "could not save %s to %s: %v\n", name, path, err)
	}
}

func runServer(ctx context.Context, cfg *config.Settings, reg *config.Registry, cfgPath string, log *zap.SugaredLogger) {
	var db *server.DB
	if cfg.StatsDB != "" {
		var err error
		db, err = server.OpenDB(cfg.StatsDB)
		if err != nil {
			log.Warnf("stats disabled: %v", err)
			db = nil
		}
	}
	var ledger *server.Ledger
	if db != nil {
		ledger = server.NewLedger(db, log)
		defer db.Close()
	}

	auth, err := server.NewAuth(cfg.AdminPassword, cfg.AdminSecret)
	if err != nil {
		log.Fatalf("admin auth: %v", err)
	}
	if !auth.Enabled() {
		log.Info("admin_password is not set; the admin API is disabled")
	}

	srv := server.New(cfg, log, ledger)
	srv.Bootstrap()

	ln, err := net.Listen("tcp", ":"+strconv.Itoa(int(cfg.Port)))
	if err != nil {
		log.Fatalf("Could not host server on port %d: %v", cfg.Port, err)
	}
	log.Infof("Hosted server on port %d.", cfg.Port)

	httpSrv := &http.Server{Handler: server.SetupRoutes(srv, auth, db)}
	go func() {
		if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http: %v", err)
		}
	}()

	if w, err := config.Watch(cfgPath); err != nil {
		log.Warnf("config reload disabled: %v", err)
	} else {
		defer w.Close()
		go func() {
			for path := range w.Events {
				srv.Do(func() {
					if err := reg.LoadFile(path); err != nil {
						log.Warnf("config reload: %v", err)
						return
					}
					log.Infof("Reloaded %s.", path)
				})
			}
		}()
	}

	srv.Run(ctx)

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutCtx)
	if err := srv.SaveWorld(); err != nil {
		log.Warnf("%v", err)
	}
	ledger.Stop()
	log.Info("Server stopped.")
}

func runClient(ctx context.Context, cfg *config.Settings, log *zap.SugaredLogger) {
	url := fmt.Sprintf("ws://%s:%d/ws", cfg.Address, cfg.Port)
	c := client.New(url, cfg.Name, &cfg.Physics, log)
	c.PredictSteps = cfg.PredictSteps
	c.Renderer = &client.Headless{Log: log, Every: cfg.TickRate}

	if err := c.Connect(ctx); err != nil {
		log.Fatalf("Could not connect to %s: %v", url, err)
	}
	log.Infof("Connected to %s as %s.", url, cfg.Name)
	if err := c.Run(ctx, cfg.TickRate); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("%v", err)
	}
}

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"kanbo/internal/config"
	"kanbo/internal/db"
	"kanbo/internal/tui"
	"kanbo/internal/web"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	boardFlag := flag.String("board", "", "slug of the board to open")
	webFlag := flag.Bool("web", false, "enable web viewer")
	webOnlyFlag := flag.Bool("web-only", false, "run web viewer only")
	portFlag := flag.Int("port", 0, "web viewer port")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		logrus.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "kanbo.db")
	}
	if *webFlag {
		cfg.WebEnabled = true
	}
	if *portFlag != 0 {
		cfg.WebPort = *portFlag
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		logrus.Fatal(err)
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if cfg.WebEnabled || *webOnlyFlag {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(store).Handler()
		if *webOnlyFlag {
			logrus.WithField("addr", addr).Info("web viewer listening")
			logrus.Fatal(http.ListenAndServe(addr, handler))
		}

		go func() {
			logrus.WithField("addr", addr).Info("web viewer listening")
			if err := http.ListenAndServe(addr, handler); err != nil {
				logrus.WithError(err).Error("web viewer stopped")
			}
		}()
	}

	slug := *boardFlag
	if slug == "" {
		slug = cfg.DefaultBoard
	}

	if err := tui.Run(store, slug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openStore(dbPath string) (*db.Store, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return db.NewStore(conn), nil
}

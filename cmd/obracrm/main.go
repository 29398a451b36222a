package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/Joseda-hg/obracrm/internal/catalog"
	"github.com/Joseda-hg/obracrm/internal/config"
	"github.com/Joseda-hg/obracrm/internal/db"
	"github.com/Joseda-hg/obracrm/internal/model"
	"github.com/Joseda-hg/obracrm/internal/tui"
	"github.com/Joseda-hg/obracrm/internal/web"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	catalogFlag := flag.String("catalog", "", "field catalog yaml path")
	importFlag := flag.String("import", "", "yaml file of records to import")
	kindFlag := flag.String("kind", "", "record kind shown first (task, notification, client, invoice, project)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	fileCfg, err := config.LoadFile(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	applyFlags := func(cfg *config.Config) {
		if *dbPathFlag != "" {
			cfg.DBPath = *dbPathFlag
		}
		if *webFlag || *webOnlyFlag {
			cfg.WebEnabled = true
		}
		if *portFlag != 0 {
			cfg.WebPort = *portFlag
		}
		if *catalogFlag != "" {
			cfg.CatalogPath = *catalogFlag
		}
	}

	applyFlags(&fileCfg)
	if fileCfg.DBPath == "" {
		fileCfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "obracrm.db")
	}
	if fileCfg.WebPort == 0 {
		fileCfg.WebPort = 8080
	}
	if err := config.Save(cfgPath, fileCfg); err != nil {
		log.Fatal(err)
	}

	// Environment overrides apply to this run only; flags still win.
	cfg := fileCfg
	config.ApplyEnv(&cfg)
	applyFlags(&cfg)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	kind := model.KindTask
	if *kindFlag != "" {
		parsed, ok := model.ParseKind(*kindFlag)
		if !ok {
			log.Fatalf("unknown kind %q", *kindFlag)
		}
		kind = parsed
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal(err)
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}

	if *importFlag != "" {
		inputs, err := db.LoadRecordsYAML(*importFlag, loc)
		if err != nil {
			log.Fatal(err)
		}
		imported, err := store.ImportRecords(context.Background(), inputs)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("imported %d records from %s", len(imported), *importFlag)
	}

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(store, cat, web.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			Location:       loc,
			PageSize:       cfg.PageSize,
		}).Handler()
		if *webOnlyFlag {
			log.Printf("Web server running at http://localhost%s", addr)
			log.Fatal(http.ListenAndServe(addr, handler))
		}

		go func() {
			log.Printf("Web server running at http://localhost%s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.Printf("web server error: %v", err)
			}
		}()
	}

	if *webOnlyFlag {
		return
	}

	if err := tui.Run(store, cat, tui.Options{Location: loc, PageSize: cfg.PageSize, Kind: kind}); err != nil {
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

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func openStore(dbPath string) (*db.Store, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return db.NewStore(sqlDB), nil
}

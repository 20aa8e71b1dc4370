package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"fuel-client/pkg/api"
	"fuel-client/pkg/db"
	"fuel-client/pkg/store"
	"fuel-client/pkg/version"
)

func main() {
	flags := pflag.NewFlagSet("fuel-api", pflag.ExitOnError)
	addr := flags.String("addr", ":8000", "listen address")
	storeType := flags.String("store", "memory", "store backend: memory|sqlite|mysql|consul (consul requires build tag consul)")
	sqlitePath := flags.String("sqlite-path", "data/fuel.db", "database file (when store=sqlite)")
	consulAddr := flags.String("consul-addr", "127.0.0.1:8500", "consul address (when store=consul)")
	seed := flags.String("seed", "", "YAML or JSON fixture to load at startup")
	demo := flags.Bool("demo", false, "load the built-in demo environment")
	requireAuth := flags.Bool("auth", false, "require X-Auth-Token on /api/v1")
	legacyHistory := flags.Bool("legacy-history", false, "report history task names under deployment_graph_task_name")
	tlsCert := flags.String("tls-cert", "", "TLS cert path (enables HTTPS if set with --tls-key)")
	tlsKey := flags.String("tls-key", "", "TLS key path (enables HTTPS if set with --tls-cert)")
	clientCA := flags.String("client-ca", "", "require and verify client certs using this CA (optional)")
	_ = flags.Parse(os.Args[1:])

	var st store.Store
	switch *storeType {
	case "memory":
		st = store.NewMemoryStore()
	case "sqlite":
		s, err := store.OpenSQLite(*sqlitePath)
		if err != nil {
			log.Fatalf("sqlite store: %v", err)
		}
		defer s.Close()
		st = s
	case "mysql":
		conn, err := db.Init()
		if err != nil {
			log.Fatalf("mysql store: %v", err)
		}
		st = store.NewGormStore(conn)
	case "consul":
		st = store.NewConsulStore(*consulAddr)
	default:
		log.Fatalf("unsupported store type: %s", *storeType)
	}

	if *demo {
		f, err := store.DemoFixture()
		if err != nil {
			log.Fatalf("demo fixture: %v", err)
		}
		if err := store.Seed(st, f); err != nil {
			log.Fatalf("seed demo: %v", err)
		}
	}
	if *seed != "" {
		f, err := store.LoadFixture(*seed)
		if err != nil {
			log.Fatalf("load seed: %v", err)
		}
		if err := store.Seed(st, f); err != nil {
			log.Fatalf("seed %s: %v", *seed, err)
		}
	}

	mux := http.NewServeMux()
	api.NewController(st, api.Options{RequireAuth: *requireAuth, LegacyHistory: *legacyHistory}).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("fuel-api %s listening on %s (store=%s auth=%v)", version.Build, *addr, *storeType, *requireAuth)
	if err := api.Serve(srv, *tlsCert, *tlsKey, *clientCA); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

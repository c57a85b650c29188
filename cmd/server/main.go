package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nickyhof/SQLitePlus"
	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/ps"
	log "github.com/sirupsen/logrus"
)

// Version is set at build time via -ldflags
var Version = SQLitePlus.Version

func main() {
	port := flag.Int("port", 5433, "TCP port to listen on")
	path := flag.String("path", "", "Database file (in-memory when empty)")
	archiveDir := flag.String("archiveDir", "", "Directory of the snapshot archive (no archive when empty)")
	gitUrl := flag.String("gitUrl", "", "Git URL to clone the snapshot archive from")
	tlsCert := flag.String("tlsCert", "", "TLS certificate file (TLS disabled when empty)")
	tlsKey := flag.String("tlsKey", "", "TLS key file")
	jwtSecret := flag.String("jwtSecret", "", "Shared secret for AUTH JWT (authentication disabled when empty)")
	jwtIssuer := flag.String("jwtIssuer", "", "Required JWT issuer")
	jwtAudience := flag.String("jwtAudience", "", "Required JWT audience")
	verbose := flag.Bool("verbose", false, "Log debug events")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("SQLitePlus Server v%s\n", Version)
		return
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var archive *ps.Archive
	if *archiveDir != "" {
		if *path == "" {
			log.Fatal("-archiveDir needs a database file (-path)")
		}
		var gitUrlPtr *string
		if *gitUrl != "" {
			gitUrlPtr = gitUrl
		}
		var err error
		archive, err = ps.NewFileArchive(*archiveDir, gitUrlPtr)
		if err != nil {
			log.WithError(err).Fatal("failed to open snapshot archive")
		}
		log.WithField("dir", *archiveDir).Info("archiving snapshots")
	}

	dbPath := *path
	if dbPath == "" {
		dbPath = ":memory:"
	}
	instance := SQLitePlus.Open(archive)

	var server *Server
	var err error
	if *jwtSecret != "" {
		server, err = NewServerWithAuth(instance, dbPath, &AuthConfig{
			Enabled:   true,
			JWTSecret: *jwtSecret,
			Issuer:    *jwtIssuer,
			Audience:  *jwtAudience,
		})
	} else {
		server, err = NewServer(instance, dbPath, core.Identity{
			Name:  "SQLitePlus Server",
			Email: "server@sqliteplus.local",
		})
	}
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	addr := fmt.Sprintf(":%d", *port)
	if *tlsCert != "" {
		err = server.StartTLS(addr, *tlsCert, *tlsKey)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		log.WithError(err).Fatal("failed to start server")
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   SQLitePlus Server v%-16s ║\n", Version)
	fmt.Println("║   SQLite with implicit transactions   ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on port %d (database %s)\n", *port, dbPath)
	fmt.Println("Send SQL or JSON requests (one per line), COMMIT to persist, 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down, uncommitted changes are discarded")
	if err := server.Stop(); err != nil {
		log.WithError(err).Error("failed to close database")
	}
	log.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"CityVision/shared/config"
	"CityVision/shared/scene"
	"CityVision/shared/tiledoc"
	"CityVision/shared/tilestore"
)

func main() {
	importPath := flag.String("import", "", "arquivo JSON com tiles para importar no dataset")
	reseed := flag.Bool("seed", false, "regera a cidade de demonstração mesmo com dataset existente")
	flag.Parse()

	// Garante que o working directory é o mesmo diretório do executável,
	// para que caminhos relativos (saves/, tmp/) funcionem corretamente.
	if exePath, err := os.Executable(); err == nil {
		os.Chdir(filepath.Dir(exePath))
	}

	log.SetFlags(log.Ltime | log.Lshortfile)

	if err := os.MkdirAll("tmp", 0755); err == nil {
		logFile, err := os.OpenFile("tmp/server.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, logFile))
		}
	}
	log.Println("╔══════════════════════════════════════╗")
	log.Println("║      CityVision SERVER v" + serverVersion + "        ║")
	log.Println("╚══════════════════════════════════════╝")

	cfg := config.Load()

	store := tilestore.NewTileStore(cfg.SavesDir)
	if err := store.OpenInitialize(cfg.Dataset); err != nil {
		log.Fatalf("Erro fatal ao abrir o dataset %s: %v", cfg.Dataset, err)
	}
	defer store.Close()

	highlight := &scene.Material{Name: "destaque", Color: cfg.Highlight()}
	tiles := NewTileService(store, highlight)

	if err := seedDataset(cfg, store, tiles, *importPath, *reseed); err != nil {
		log.Fatalf("Erro fatal ao preparar o dataset: %v", err)
	}

	hub := newHub()
	go hub.run()

	go purgeLoop(cfg, tiles)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, tiles, cfg.Dataset, w, r)
	})
	api := &API{
		tiles: tiles,
		store: store,
		cache: newAttributeCache(cfg.RedisAddr, cfg.CacheTTL()),
		hub:   hub,
	}
	if err := api.Routes(mux, cfg.RateLimit); err != nil {
		log.Fatalf("Erro fatal na configuração da API: %v", err)
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Printf("╔══════════════════════════════════════════════════════════════╗")
		log.Printf("║ ERRO CRÍTICO: Não foi possível abrir %s.", cfg.HTTPAddr)
		log.Printf("║ Provavelmente há outra instância do servidor rodando.        ║")
		log.Printf("╚══════════════════════════════════════════════════════════════╝")
		log.Fatalf("Erro ao iniciar servidor: %v", err)
	}

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}

	go func() {
		log.Printf("Servidor CityVision iniciado em %s (dataset %s)", cfg.HTTPAddr, cfg.Dataset)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Erro fatal no servidor HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Encerrando servidor...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Erro ao encerrar servidor: %v", err)
	}
}

// seedDataset importa o arquivo pedido ou, com o dataset vazio, gera a cidade de demonstração.
func seedDataset(cfg *config.Config, store *tilestore.TileStore, tiles *TileService, importPath string, reseed bool) error {
	if importPath != "" {
		docs, err := tiledoc.LoadJSON(importPath)
		if err != nil {
			return err
		}
		_, err = tiles.Import(docs)
		return err
	}

	if store.HasData() && !reseed {
		log.Println("[Startup] Dataset ok. Usando tiles persistidos.")
		return nil
	}

	log.Printf("[Startup] Gerando cidade de demonstração %dx%d (seed %d)...", cfg.DemoTilesX, cfg.DemoTilesZ, cfg.DemoSeed)
	docs := tiledoc.GenerateCity(tiledoc.GeneratorOptions{
		Seed:             cfg.DemoSeed,
		TilesX:           cfg.DemoTilesX,
		TilesZ:           cfg.DemoTilesZ,
		BuildingsPerTile: cfg.DemoBuildings,
		Layer:            defaultLayer,
	})
	_, err := tiles.Import(docs)
	return err
}

// purgeLoop descarrega periodicamente os tiles sem uso.
func purgeLoop(cfg *config.Config, tiles *TileService) {
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Purge-Loop] Recuperado de pânico: %v", r)
				}
			}()
			tiles.Purge(cfg.PurgeIdle())
		}()
		time.Sleep(cfg.PurgeInterval())
	}
}

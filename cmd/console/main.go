package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/npc-dialogue/internal/agent"
	"github.com/jwebster45206/npc-dialogue/internal/config"
	"github.com/jwebster45206/npc-dialogue/internal/logger"
	"github.com/jwebster45206/npc-dialogue/internal/services"
	"github.com/jwebster45206/npc-dialogue/internal/storage"
	"github.com/jwebster45206/npc-dialogue/pkg/actor"
	"github.com/jwebster45206/npc-dialogue/pkg/inventory"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
	"github.com/jwebster45206/npc-dialogue/pkg/textfilter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs always go to a file.
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "console.log")
	}
	log := logger.Setup(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game, cleanup, err := buildGame(ctx, cfg, log)
	if err != nil {
		log.Error("Startup failed", "error", err)
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	p := tea.NewProgram(NewConsoleUI(game, cfg.FrameInterval),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func buildGame(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Game, func(), error) {
	items, err := inventory.LoadRegistry(cfg.ItemsPath())
	if err != nil {
		return nil, nil, err
	}

	world, err := actor.LoadWorld(cfg.WorldPath())
	if err != nil {
		return nil, nil, err
	}

	player, err := actor.NewPlayer(&world.Player, inventory.New(cfg.InventorySlots))
	if err != nil {
		return nil, nil, err
	}

	library := script.NewLibrary(cfg.ScriptsDir(), log)
	if err := library.Load(); err != nil {
		return nil, nil, err
	}
	if cfg.WatchScripts {
		go func() {
			if err := library.Watch(ctx); err != nil {
				log.Error("Script watcher stopped", "error", err)
			}
		}()
	}

	roster, err := agent.LoadRoster(cfg.CharactersPath())
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("No characters file, dynamic NPCs will use fallback lines", "path", cfg.CharactersPath())
		roster, err = agent.NewRoster(nil)
	}
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	llm, err := services.NewLLMService(cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	ag := agent.New(llm, store, roster, textfilter.New(cfg.ContentRating), log)

	log.Info("Console ready",
		"npcs", len(world.NPCs),
		"scripts", len(library.Names()),
		"characters", len(roster.Keys()),
		"history_backend", cfg.HistoryBackend,
		"llm_provider", cfg.LLMProvider)

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close history store", "error", err)
		}
	}
	return NewGame(world, player, items, library, ag, roster, log), cleanup, nil
}

package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/api"
	"github.com/chatpoc-ai/BuddyUp/internal/assistant"
	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/config"
	"github.com/chatpoc-ai/BuddyUp/internal/gemini"
	"github.com/chatpoc-ai/BuddyUp/internal/logging"
	"github.com/chatpoc-ai/BuddyUp/internal/match"
	"github.com/chatpoc-ai/BuddyUp/internal/reply"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

// Params holds the resolved startup options passed to the fx module.
type Params struct {
	ConfigPath string // empty = ~/.buddyup/config.toml
	APIKey     string // overrides config and GEMINI_API_KEY
}

// Module returns the fx module composing the whole engine.
func Module(p Params) fx.Option {
	return fx.Module("buddyup",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideRegistry,
			provideGateway,
			provideOrchestrator,
			provideSession,
			provideSimulator,
			provideChatService,
			provideMessageService,
			provideAssistantService,
			provideProfileService,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".buddyup", "config.toml")
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}

	if p.APIKey != "" {
		cfg.Gemini.APIKey = p.APIKey
	} else if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Path)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideRegistry() *store.Registry {
	return store.NewRegistry()
}

func provideGateway(cfg *config.Config, logger *zap.Logger) (*gemini.Gateway, error) {
	return gemini.New(context.Background(), gemini.Config{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	}, logger)
}

func provideOrchestrator(reg *store.Registry, b *bus.Bus, logger *zap.Logger, cfg *config.Config) *match.Orchestrator {
	return match.New(reg, b, logger, time.Duration(cfg.Match.SynthesisDelayMs)*time.Millisecond)
}

func provideSession(gw *gemini.Gateway, orch *match.Orchestrator, b *bus.Bus, logger *zap.Logger, cfg *config.Config) *assistant.Session {
	return assistant.NewSession(gw, orch, b, logger,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second)
}

func provideSimulator(reg *store.Registry, b *bus.Bus, logger *zap.Logger, cfg *config.Config) *reply.Simulator {
	return reply.NewSimulator(reg, b, logger, time.Duration(cfg.Reply.DelayMs)*time.Millisecond)
}

func provideChatService(reg *store.Registry, b *bus.Bus, logger *zap.Logger) *api.ChatService {
	return api.NewChatService(reg, b, logger)
}

func provideMessageService(reg *store.Registry, b *bus.Bus, logger *zap.Logger) *api.MessageService {
	return api.NewMessageService(reg, b, logger)
}

func provideAssistantService(session *assistant.Session, chats *api.ChatService) *api.AssistantService {
	return api.NewAssistantService(session, chats)
}

func provideProfileService() *api.ProfileService {
	return api.NewProfileService(selfParticipant(), defaultTasks())
}

func registerLifecycle(lc fx.Lifecycle, sim *reply.Simulator, session *assistant.Session, reg *store.Registry, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sim.Start(context.Background())
			if cfg.Seed.Demo {
				if err := seedDemo(reg); err != nil {
					return err
				}
				logger.Info("demo conversations seeded")
			}
			session.SeedWelcome(selfParticipant().Name)
			logger.Info("engine started", zap.String("model", cfg.Gemini.Model))
			return nil
		},
		OnStop: func(_ context.Context) error {
			sim.Stop()
			logger.Info("engine stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

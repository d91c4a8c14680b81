package main

import (
	"context"
	"flag"

	"go.uber.org/fx"

	"github.com/chatpoc-ai/BuddyUp/internal/api"
	"github.com/chatpoc-ai/BuddyUp/internal/app"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default ~/.buddyup/config.toml)")
	apiKeyFlag := flag.String("api-key", "", "Gemini API key (overrides config and GEMINI_API_KEY)")
	flag.Parse()

	fxApp := fx.New(
		app.Module(app.Params{
			ConfigPath: *configFlag,
			APIKey:     *apiKeyFlag,
		}),
		fx.NopLogger,
		fx.Invoke(registerREPL),
	)

	fxApp.Run()
}

func registerREPL(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	assistantSvc *api.AssistantService,
	chats *api.ChatService,
	messages *api.MessageService,
	profile *api.ProfileService,
) {
	r := newREPL(assistantSvc, chats, messages, profile, shutdowner)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go r.run()
			return nil
		},
		OnStop: func(_ context.Context) error {
			r.stop()
			return nil
		},
	})
}

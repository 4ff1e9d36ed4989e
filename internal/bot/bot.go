package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"sync"
)

type Bot struct {
	api        *botApi.BotAPI
	controller *Controller
	wg         sync.WaitGroup
	// done is closed when Run returns, no handler is started after that
	done chan struct{}
}

// NewAPI authorizes the bot and routes library logs to logrus.
func NewAPI(token string) (*botApi.BotAPI, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	if err = botApi.SetLogger(log.StandardLogger()); err != nil {
		return nil, err
	}
	return api, nil
}

func NewBot(api *botApi.BotAPI, deps Dependencies, opts Options) (*Bot, error) {

	controller, err := NewController(api, deps, opts)
	if err != nil {
		return nil, err
	}

	return &Bot{api: api, controller: controller, done: make(chan struct{})}, nil
}

// Run polls updates until ctx is done. Every update is handled on its own goroutine.
func (b *Bot) Run(ctx context.Context) {

	commands := botApi.NewSetMyCommands(
		botApi.BotCommand{Command: startCommandName, Description: "Начать регистрацию"},
		botApi.BotCommand{Command: materialsCommandName, Description: "Материалы по предмету"},
		botApi.BotCommand{Command: cancelCommandName, Description: "Отменить регистрацию"},
	)
	requestWithLogError(b.api, commands)

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = 60

	b.dispatch(ctx, b.api.GetUpdatesChan(updateConfig))
}

func (b *Bot) dispatch(ctx context.Context, updates botApi.UpdatesChannel) {

	defer close(b.done)

	// in-flight handlers finish even after shutdown starts
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			event, ok := eventFromUpdate(update)
			if !ok {
				continue
			}

			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.controller.Handle(handlerCtx, event)
			}()
		}
	}
}

// Stop stops polling and waits for running handlers. Run must have been started.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.wait()
}

func (b *Bot) wait() {
	<-b.done
	b.wg.Wait()
}

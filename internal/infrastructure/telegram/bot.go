package telegram

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

// Config holds the bot credentials and polling settings.
type Config struct {
	Token       string
	PollTimeout time.Duration
	// APIURL overrides the Bot API root; empty selects api.telegram.org.
	APIURL string
	// Offline skips the getMe handshake.
	Offline bool
}

// Bot owns the telebot instance shared by delivery and the command surface.
type Bot struct {
	bot *tele.Bot
	log zerolog.Logger

	runMu   sync.Mutex
	running bool
	done    chan struct{}
}

// New connects a bot with long polling.
func New(cfg Config, log zerolog.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Poller:  &tele.LongPoller{Timeout: timeout},
		Offline: cfg.Offline,
		OnError: func(err error, c tele.Context) {
			log.Warn().Err(err).Msg("telegram handler error")
		},
	})
	if err != nil {
		return nil, err
	}
	return &Bot{bot: b, log: log}, nil
}

// Start polls updates in the background until Stop.
func (b *Bot) Start() {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	if b.running {
		return
	}
	b.running = true
	b.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		b.log.Info().Str("username", b.bot.Me.Username).Msg("telegram polling started")
		b.bot.Start()
	}(b.done)
}

// Stop halts polling and waits for the poll loop to exit.
func (b *Bot) Stop() {
	b.runMu.Lock()
	if !b.running {
		b.runMu.Unlock()
		return
	}
	b.running = false
	done := b.done
	b.runMu.Unlock()

	b.bot.Stop()
	<-done
	b.log.Info().Msg("telegram polling stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/meir-san/ultimateholdem/internal/config"
	"github.com/meir-san/ultimateholdem/internal/feed"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/odds"
	"github.com/meir-san/ultimateholdem/internal/randutil"
	"github.com/meir-san/ultimateholdem/internal/round"
	"github.com/meir-san/ultimateholdem/internal/statistics"
)

var (
	winStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	loseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// PlayCmd runs rounds on the real clock
type PlayCmd struct {
	Config  string `short:"c" default:"oddsmarket.hcl" type:"path" help:"HCL configuration file; missing means defaults"`
	Variant string `short:"g" help:"Table variant (blackjack, uth, holdem3); overrides the config file"`
	Rounds  int    `short:"r" help:"Stop after this many resolved rounds; 0 runs until interrupted"`
	Listen  string `short:"l" help:"Serve the websocket feed on this address; overrides the config file"`
	AutoBet bool   `help:"Bet the default amount on the favourite once per round"`
	Seed    *int64 `help:"Deterministic seed for dealing and the crowd"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Variant != "" {
		cfg.Game.Variant = c.Variant
	}
	if c.Listen != "" {
		cfg.Feed.Enabled = true
		cfg.Feed.Listen = c.Listen
	}
	if c.Seed != nil {
		cfg.Game.Seed = *c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := cli.level(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(level)

	rc, err := cfg.Round()
	if err != nil {
		return err
	}
	engine := odds.New(cfg.Odds(), logger.WithPrefix("odds"))

	var opts []round.Option
	if cfg.Game.Seed != 0 {
		opts = append(opts, round.WithRand(randutil.New(cfg.Game.Seed)))
	}
	game, err := round.New(rc, engine, logger, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := newSession(game, logger, c.Rounds, c.AutoBet, cancel)
	game.Events().Subscribe(session)

	logger.Info("Starting market",
		"variant", rc.Variant,
		"decks", rc.Decks,
		"window", rc.PredictionWindow,
		"balance", rc.InitialBalance,
		"pricing", rc.Market.Pricing)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return game.Run(ctx) })
	if cfg.Feed.Enabled {
		srv := feed.NewServer(cfg.Feed.Listen, game, logger,
			feed.WithAllowedOrigins(cfg.Feed.AllowedOrigins),
			feed.WithAccessLog(cfg.Feed.AccessLog))
		game.Events().Subscribe(srv)
		g.Go(func() error { return srv.Serve(ctx) })
	}

	err = g.Wait()
	snap := game.Snapshot()
	stats := session.Stats()
	logger.Info("Session finished",
		"rounds", stats.Rounds,
		"balance", fmt.Sprintf("%.2f", snap.Balance),
		"volume", fmt.Sprintf("%.2f", snap.LifetimeVolume))
	if stats.Rounds > 0 {
		fmt.Print(summary(rc.Variant, snap.Outcomes, stats))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// session logs round results and drives the optional auto-bettor. OnEvent
// runs under the game's publish order, so actions are issued from a
// separate goroutine.
type session struct {
	game    *round.Game
	logger  *log.Logger
	limit   int
	autoBet bool
	done    context.CancelFunc

	mu       sync.Mutex
	stats    statistics.Statistics
	betRound int
}

func newSession(game *round.Game, logger *log.Logger, limit int, autoBet bool, done context.CancelFunc) *session {
	return &session{
		game:    game,
		logger:  logger.WithPrefix("session"),
		limit:   limit,
		autoBet: autoBet,
		done:    done,
	}
}

func (s *session) OnEvent(event round.Event) {
	state := event.State()
	switch e := event.(type) {
	case round.PhaseChangeEvent:
		s.logger.Debug("Phase", "round", state.RoundNumber, "from", e.From, "to", e.To)

	case round.OddsUpdateEvent:
		if s.autoBet && s.betRound != state.RoundNumber && !state.Locked {
			s.betRound = state.RoundNumber
			favourite := favourite(e.Odds, state.Outcomes)
			go s.bet(favourite)
		}

	case round.RoundResolveEvent:
		s.mu.Lock()
		s.stats.Add(statistics.RoundResult{
			Round:  e.Result.Round,
			Winner: e.Result.Winner,
			Staked: e.Payout - state.RoundProfit,
			Profit: state.RoundProfit,
		})
		resolved := s.stats.Rounds
		s.mu.Unlock()

		style := loseStyle
		if e.Payout > 0 {
			style = winStyle
		}
		s.logger.Info(style.Render(fmt.Sprintf("Round %d: %s", e.Result.Round, e.Result.Label)),
			"hand", e.Result.HandDescription,
			"payout", fmt.Sprintf("%.2f", e.Payout),
			"balance", fmt.Sprintf("%.2f", state.Balance))
		if s.limit > 0 && resolved >= s.limit {
			s.done()
		}
	}
}

// Stats returns a copy of the session statistics
func (s *session) Stats() statistics.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Values = slices.Clone(s.stats.Values)
	return stats
}

func (s *session) bet(o market.Outcome) {
	pos, err := s.game.PlaceBet(o)
	if err != nil {
		s.logger.Debug("Auto bet rejected", "outcome", o, "error", err)
		return
	}
	s.logger.Info("Auto bet placed",
		"outcome", o,
		"paid", fmt.Sprintf("%.2f", pos.AmountPaid),
		"shares", fmt.Sprintf("%.2f", pos.Shares))
}

func favourite(odds market.Odds, outcomes []market.Outcome) market.Outcome {
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if odds[o] > odds[best] {
			best = o
		}
	}
	return best
}

func summary(variant round.Variant, outcomes []market.Outcome, stats statistics.Statistics) string {
	low, high := stats.ConfidenceInterval95()
	rows := []string{
		headerStyle.Render("Session"),
		fmt.Sprintf("%-16s %d (%d traded, %d won)", "Rounds", stats.Rounds, stats.TradedRounds, stats.Wins),
		fmt.Sprintf("%-16s %.2f", "Profit", stats.SumProfit),
		fmt.Sprintf("%-16s %.2f ± %.2f (95%%: %.2f to %.2f)", "Per round", stats.Mean(), stats.StdDev(), low, high),
		fmt.Sprintf("%-16s %.2f / %.2f", "Best / worst", stats.BestRound, stats.WorstRound),
		fmt.Sprintf("%-16s %.1f%%", "ROI", stats.ROI()*100),
		"",
		headerStyle.Render("Results"),
	}
	for _, o := range outcomes {
		rows = append(rows, fmt.Sprintf("%-16s %s  %d rounds",
			variant.Label(o),
			percentStyle.Render(fmt.Sprintf("%6.1f%%", stats.Frequency(o)*100)),
			stats.Outcomes[o].Rounds))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/evaluator"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/odds"
	"github.com/meir-san/ultimateholdem/internal/round"
	"github.com/meir-san/ultimateholdem/internal/strategy"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	percentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// OddsCmd prices a single information state
type OddsCmd struct {
	Variant      string   `short:"g" default:"uth" enum:"blackjack,uth,holdem3" help:"Table variant (blackjack, uth, holdem3)"`
	Seat         []string `short:"s" help:"Revealed cards per seat in seat order, e.g. --seat AsKd --seat ''; blackjack takes player then dealer"`
	Board        string   `short:"b" help:"Community cards, e.g. Td7s8h"`
	DealerHidden bool     `help:"Blackjack dealer still holds a face-down card"`
	Raised       bool     `help:"Seat 1 has already put in its play bet"`
	FoldUnraised bool     `help:"Seat 1 folds when it never raises (UTH)"`
	Samples      int      `short:"n" default:"20000" help:"Monte-Carlo trials when the position is too large to enumerate"`
	Seed         int64    `help:"Random seed for reproducible results"`
}

func (c *OddsCmd) Run(cli *CLI) error {
	level, err := cli.level("warn")
	if err != nil {
		return err
	}
	logger := newLogger(level)

	variant, err := round.ParseVariant(c.Variant)
	if err != nil {
		return err
	}
	req, err := c.request(variant)
	if err != nil {
		return err
	}

	engine := odds.New(odds.Config{Samples: c.Samples, PreDealSamples: c.Samples, Seed: c.Seed}, logger)
	start := time.Now()
	result, err := engine.Compute(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Print(render(variant, req, result, time.Since(start)))
	return nil
}

// request builds the engine request. Every card not shown is unknown.
func (c *OddsCmd) request(variant round.Variant) (odds.Request, error) {
	seats := variant.Seats()
	if len(c.Seat) > seats {
		return odds.Request{}, fmt.Errorf("%s has %d seats, got %d", variant, seats, len(c.Seat))
	}

	holes := make([][]deck.Card, seats)
	for i, s := range c.Seat {
		cards, err := deck.ParseCards(s)
		if err != nil {
			return odds.Request{}, fmt.Errorf("seat %d: %w", i+1, err)
		}
		holes[i] = cards
	}

	var board []deck.Card
	if c.Board != "" {
		if variant == round.Blackjack {
			return odds.Request{}, fmt.Errorf("blackjack has no board")
		}
		var err error
		if board, err = deck.ParseCards(c.Board); err != nil {
			return odds.Request{}, fmt.Errorf("board: %w", err)
		}
	}

	shoe := deck.FromCards(deck.Universe(1))
	seen := deck.NewCardSet()
	for _, group := range append([][]deck.Card{board}, holes...) {
		for _, card := range group {
			if seen.Contains(card) {
				return odds.Request{}, fmt.Errorf("card %s appears twice", card)
			}
			seen.Add(card)
		}
		shoe.Remove(group...)
	}
	unknown := shoe.Cards()

	return odds.Request{
		Rules:        variant.Rules(c.FoldUnraised),
		Holes:        holes,
		Community:    board,
		Unknown:      unknown,
		DealerHidden: c.DealerHidden,
		Raised:       c.Raised,
	}, nil
}

func render(variant round.Variant, req odds.Request, result market.Odds, took time.Duration) string {
	var b strings.Builder

	if len(req.Community) > 0 {
		fmt.Fprintf(&b, "%s %s\n\n", headerStyle.Render("Board:"), deck.FormatCards(req.Community))
	}

	rows := make([]string, 0, len(req.Holes)+2)
	rows = append(rows, headerStyle.Render(fmt.Sprintf("%-10s %-8s %8s  %s", "Outcome", "Cards", "Odds", "Hand")))
	for i, hole := range req.Holes {
		o := market.Seat(i)
		rows = append(rows, fmt.Sprintf("%-10s %s %s  %s",
			variant.Label(o),
			handStyle.Render(fmt.Sprintf("%-8s", deck.FormatCards(hole))),
			percentStyle.Render(fmt.Sprintf("%7.2f%%", result[o])),
			describeSeat(variant, hole, req.Community)))
	}
	rows = append(rows, fmt.Sprintf("%-10s %-8s %s", variant.Label(market.Push), "",
		percentStyle.Render(fmt.Sprintf("%7.2f%%", result[market.Push]))))
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n")

	if variant == round.UTH && len(req.Holes[0]) == 2 && !req.Raised {
		fmt.Fprintf(&b, "\n%s %s\n", headerStyle.Render("Play:"), strategy.Decide(req.Holes[0], req.Community))
	}
	fmt.Fprintf(&b, "\n%s\n", noteStyle.Render(fmt.Sprintf("Computed in %v", took.Round(time.Millisecond))))
	return b.String()
}

func describeSeat(variant round.Variant, hole, board []deck.Card) string {
	if len(hole) == 0 {
		return ""
	}
	if variant == round.Blackjack {
		total := evaluator.BlackjackCards(hole)
		if evaluator.IsSoft(hole) {
			return fmt.Sprintf("soft %d", total)
		}
		return fmt.Sprintf("%d", total)
	}
	return evaluator.Describe(hole, board)
}

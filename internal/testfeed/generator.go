package testfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/internal/domain/scoring"
)

// Feed is a generated batch plus what a correct merge must produce.
type Feed struct {
	Lines []string
	// Best maps a folded team name to its highest challenge accuracy.
	Best map[string]float64
	// Valid counts lines that parse.
	Valid int
}

// Generate builds a deterministic feed from cfg.
func Generate(cfg Config) (Feed, error) {
	if cfg.Teams <= 0 || cfg.Records < 0 {
		return Feed{}, fmt.Errorf("teams must be positive and records non-negative: %d/%d", cfg.Teams, cfg.Records)
	}
	if cfg.Format == "" {
		cfg.Format = FormatLine
	}
	if cfg.Format != FormatLine && cfg.Format != FormatJSON {
		return Feed{}, fmt.Errorf("unknown format %q", cfg.Format)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	teams := TeamNames(cfg.Seed, cfg.Teams)

	feed := Feed{Best: make(map[string]float64, cfg.Teams)}
	for i := range cfg.Records {
		if rng.Float64() < cfg.MalformedRate {
			feed.Lines = append(feed.Lines, fmt.Sprintf("broken-record-%d:%s", i, "n/a"))
			continue
		}

		team := teams[rng.IntN(len(teams))]
		if rng.Float64() < cfg.CaseNoiseRate {
			team = strings.ToUpper(team)
		}
		c := quantize(rng.Float64())
		o := quantize(rng.Float64())
		gap := math.Abs(c - o)
		if rng.Float64() < cfg.GapNoiseRate {
			gap = quantize(rng.Float64())
		}

		feed.Lines = append(feed.Lines, format(cfg.Format, team, c, o, gap))
		feed.Valid++
		key := model.TeamKey(team)
		if best, ok := feed.Best[key]; !ok || c > best {
			feed.Best[key] = c
		}
	}
	return feed, nil
}

// TeamNames returns n stable team names derived from seed.
func TeamNames(seed uint64, n int) []string {
	names := make([]string, n)
	for i := range n {
		id := uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "graphboard/%d/%d", seed, i))
		names[i] = "team-" + id.String()[:8]
	}
	return names
}

// quantize keeps six decimals, the precision of score lines.
func quantize(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func format(f, team string, c, o, gap float64) string {
	if f == FormatJSON {
		b, _ := json.Marshal(map[string]any{
			"team":          team,
			"challenge_acc": c,
			"original_acc":  o,
			"gap":           gap,
		})
		return string(b)
	}
	return scoring.FormatLine(team, c, o, gap)
}

// Write emits the feed one record per line.
func (f Feed) Write(w io.Writer) error {
	for _, l := range f.Lines {
		if _, err := io.WriteString(w, l+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// MessageWriter is the subset of *kafka.Writer used to publish a feed.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publish sends the feed as messages of at most perMessage lines each.
func (f Feed) Publish(ctx context.Context, w MessageWriter, perMessage int) (int, error) {
	if perMessage <= 0 {
		perMessage = 1
	}
	var msgs []kafka.Message
	for start := 0; start < len(f.Lines); start += perMessage {
		end := min(start+perMessage, len(f.Lines))
		msgs = append(msgs, kafka.Message{Value: []byte(strings.Join(f.Lines[start:end], "\n"))})
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish feed: %w", err)
	}
	return len(msgs), nil
}

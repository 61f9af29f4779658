// Package notifier delivers deal alerts
package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/samber/lo"

	"sjsage522/dealwatcher/internal/crawler"
	"sjsage522/dealwatcher/logger"
)

const (
	// FeaturedCount is the number of deals sent as individual messages
	FeaturedCount = 3
	// MaxDeals caps how many deals a single run announces
	MaxDeals = 10
)

// Notifier sends alerts for new deals and returns the number of messages delivered
type Notifier interface {
	Notify(ctx context.Context, deals []crawler.Product) int
}

// Sender is the message transport used by DealNotifier
type Sender interface {
	SendText(ctx context.Context, text string, disablePreview bool) error
	SendPhoto(ctx context.Context, photoURL, caption string) error
}

// DealNotifier formats deals into HTML messages and hands them to a Sender
type DealNotifier struct {
	sender   Sender
	siteName string
	log      *logger.Logger
}

// NewDealNotifier creates a notifier on top of sender
func NewDealNotifier(sender Sender, siteName string) *DealNotifier {
	return &DealNotifier{
		sender:   sender,
		siteName: siteName,
		log:      logger.ForNotifier(),
	}
}

// Notify sends the first FeaturedCount deals one by one and the rest, up to MaxDeals,
// as a single list. A failed send is logged and does not stop the others.
func (n *DealNotifier) Notify(ctx context.Context, deals []crawler.Product) int {
	if len(deals) == 0 {
		return 0
	}

	sent := 0
	featured := deals[:min(FeaturedCount, len(deals))]
	for i, d := range featured {
		caption := FormatDeal(d, i == 0, n.siteName)

		var err error
		if d.Image != "" {
			err = n.sender.SendPhoto(ctx, d.Image, caption)
		} else {
			err = n.sender.SendText(ctx, caption, false)
		}
		if err != nil {
			n.log.Error().Err(err).Str("link", d.Link).Msg("Failed to send deal")
			continue
		}
		sent++
	}

	if len(deals) > FeaturedCount {
		rest := deals[FeaturedCount:min(MaxDeals, len(deals))]
		if err := n.sender.SendText(ctx, FormatList(rest), true); err != nil {
			n.log.Error().Err(err).Int("deals", len(rest)).Msg("Failed to send deal list")
		} else {
			sent++
		}
	}

	n.log.Info().Int("deals", len(deals)).Int("messages", sent).Msg("Alerts sent")
	return sent
}

// FormatDeal renders the caption of an individually announced deal
func FormatDeal(d crawler.Product, top bool, siteName string) string {
	label := "📌 <b>Hot Deal</b>"
	if top {
		label = "🔥 <b>TOP DEAL</b> 🔥"
	}

	var b strings.Builder
	b.WriteString(label + "\n")
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(d.Name))
	fmt.Fprintf(&b, "💰 Price: <b>%s</b>", html.EscapeString(d.Price))
	if d.Discount != "" {
		fmt.Fprintf(&b, " <s>%s</s>", html.EscapeString(d.Discount))
	}
	if d.Percentage != "" {
		fmt.Fprintf(&b, " (%s)", html.EscapeString(d.Percentage))
	}
	fmt.Fprintf(&b, "\n🔗 <a href=\"%s\">View on %s</a>", html.EscapeString(d.Link), html.EscapeString(siteName))
	return b.String()
}

// FormatList renders the consolidated message for the remaining deals
func FormatList(deals []crawler.Product) string {
	lines := lo.Map(deals, func(d crawler.Product, _ int) string {
		return fmt.Sprintf("• <a href=\"%s\">%s</a> - <b>%s</b>",
			html.EscapeString(d.Link), html.EscapeString(d.Name), html.EscapeString(d.Price))
	})
	return "\n<b>⚡ Even More Deals:</b>\n\n" + strings.Join(lines, "\n")
}

// NopNotifier is used when no credentials are configured
type NopNotifier struct{}

// Notify logs that alerts are skipped
func (NopNotifier) Notify(_ context.Context, deals []crawler.Product) int {
	logger.ForNotifier().Warn().Int("deals", len(deals)).Msg("Telegram credentials missing, skipping alert")
	return 0
}

// internal/telegram/bridge.go
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"omnilertlab-service/internal/model"
)

// SecretTokenHeader carries the webhook shared secret set via setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const defaultBaseURL = "https://api.telegram.org"

const separator = "━━━━━━━━━━━━━━━━━━━"

// sendMessageRequest is the Bot API sendMessage body.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK bool `json:"ok"`
}

// Update is the subset of a Bot API webhook delivery this service reads.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// Bridge relays structured events to the operator's Telegram account and
// accepts inbound operator replies via webhook. Every relay reports a bare
// success boolean; it never returns an error.
type Bridge struct {
	client        *resty.Client
	botToken      string
	chatID        string
	webhookSecret string
	logger        *slog.Logger
}

// NewBridge creates a Bridge. Empty botToken or chatID leaves the bridge
// unconfigured: every relay then reports failure without a network call.
func NewBridge(botToken, chatID, webhookSecret string, logger *slog.Logger) *Bridge {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &Bridge{
		client:        client,
		botToken:      botToken,
		chatID:        chatID,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// SetBaseURL points the bridge at a different Bot API host. Used by tests.
func (b *Bridge) SetBaseURL(url string) {
	b.client.SetBaseURL(url)
}

// NotifyDispatch relays a terminal DISPATCH lead to the operator channel.
func (b *Bridge) NotifyDispatch(ctx context.Context, d model.Dispatch) bool {
	text := strings.Join([]string{
		"🚨 *NEW TRANSMISSION — OMNILERTLAB*",
		"",
		separator,
		"👤 *Agent:* " + d.Identity,
		"📡 *Comms:* " + d.Email,
		"📂 *Brief:* " + d.Brief,
		separator,
		"",
		"_Received via omnilertlab.com_",
	}, "\n")

	return b.send(ctx, b.chatID, text)
}

// NotifyOrder relays an accepted commission order to the operator channel.
func (b *Bridge) NotifyOrder(ctx context.Context, o model.Order) bool {
	lines := []string{
		"🚀 *NEW COMMISSION — OMNILERTLAB*",
		"",
		separator,
		"📋 *Type:* " + o.ProjectType,
		"📝 *Project:* " + o.ProjectName,
		"💬 *Brief:* " + o.Description,
		"💰 *Budget:* " + o.Budget,
		"⏱ *Timeline:* " + o.Timeline,
		separator,
		"👤 *Client:* " + o.Name,
		"📧 *Email:* " + o.Email,
	}
	if o.LinkedIn != "" {
		lines = append(lines, "🔗 *LinkedIn:* "+o.LinkedIn)
	}
	lines = append(lines, separator, "", "_Received via omnilertlab.dev_")

	return b.send(ctx, b.chatID, strings.Join(lines, "\n"))
}

// RelayReply sends free text to the operator channel tagged with the
// originating visitor session.
func (b *Bridge) RelayReply(ctx context.Context, sessionID, text string) bool {
	if sessionID == "" {
		sessionID = "anonymous"
	}
	formatted := strings.Join([]string{
		"💬 *OmnilertLab Visitor*",
		fmt.Sprintf("_Session: %s_", sessionID),
		"",
		text,
	}, "\n")

	return b.send(ctx, b.chatID, formatted)
}

// VerifySecret reports whether an inbound webhook request carries the shared
// secret. With no secret configured every request is accepted.
func (b *Bridge) VerifySecret(got string) bool {
	return b.webhookSecret == "" || got == b.webhookSecret
}

// send posts one sendMessage call. Success means the Bot API's own ok flag
// was truthy; every other outcome, configuration gaps included, is failure.
func (b *Bridge) send(ctx context.Context, chatID, text string) bool {
	if b.botToken == "" || chatID == "" {
		b.logger.Warn("Telegram not configured, dropping relay")
		return false
	}

	var result sendMessageResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatID:    chatID,
			Text:      text,
			ParseMode: "Markdown",
		}).
		SetResult(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", b.botToken))
	if err != nil {
		b.logger.Error("Telegram sendMessage failed", "error", err)
		return false
	}
	if resp.IsError() || !result.OK {
		b.logger.Error("Telegram sendMessage rejected", "status", resp.StatusCode())
		return false
	}
	return true
}

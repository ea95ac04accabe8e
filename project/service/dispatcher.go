package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"timebot/project/domain"
	"timebot/project/infrastructure/logger"
	"timebot/project/infrastructure/metrics"
	"timebot/project/interaction"
)

// StaleMessage は古いUIや改ざんされたトークンへの応答です
const StaleMessage = "This action is no longer valid, please try again."

// Dispatcher はインタラクションのペイロードを型付きに変換し、Registry の処理に振り分けます
type Dispatcher struct {
	handler interaction.Handler
}

// NewDispatcher は Dispatcher を作成します
func NewDispatcher(h interaction.Handler) *Dispatcher {
	return &Dispatcher{handler: h}
}

// Dispatch は payload JSON を処理します。
// 戻り値の Envelope は変換できた場合のみ設定されます（ダイアログ送信かどうかの判定に使用）
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (*interaction.Envelope, *interaction.Reply, error) {
	p, err := interaction.Resolve(body)
	if err != nil {
		reply, err := d.normalize(ctx, "unresolved", err)
		return nil, reply, err
	}

	env := p.Meta()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SlackUserID:   env.UserID,
		ChannelID:     env.ChannelID,
		Discriminator: env.Discriminator,
		Component:     "timebot.service.dispatcher",
	})
	ctx, span := logger.StartSpan(ctx, "interaction."+env.Discriminator,
		attribute.String("slack.callback_id", env.Discriminator))
	defer span.End()

	reply, err := p.Accept(ctx, d.handler)
	if err != nil {
		reply, err = d.normalize(ctx, env.Discriminator, err)
		logger.RecordError(span, err)
		return env, reply, err
	}

	metrics.Interactions.WithLabelValues(env.Discriminator, metrics.OutcomeOK).Inc()
	return env, reply, nil
}

// normalize は回復可能なエラーを応答に変換します。それ以外はエラーとして返します
func (d *Dispatcher) normalize(ctx context.Context, discriminator string, err error) (*interaction.Reply, error) {
	if vf, ok := domain.AsValidationFailure(err); ok {
		metrics.Interactions.WithLabelValues(discriminator, metrics.OutcomeValidation).Inc()
		slog.DebugContext(ctx, "interaction validation failed", "errors", vf.Errors)
		return interaction.FieldErrors(vf.Errors), nil
	}

	if reason := staleReason(err); reason != "" {
		metrics.StaleInteractions.WithLabelValues(reason).Inc()
		metrics.Interactions.WithLabelValues(discriminator, metrics.OutcomeStale).Inc()
		slog.WarnContext(ctx, "stale interaction", "reason", reason, "error", err)
		return interaction.EphemeralText(StaleMessage), nil
	}

	metrics.Interactions.WithLabelValues(discriminator, metrics.OutcomeError).Inc()
	return nil, fmt.Errorf("インタラクション %q 処理失敗: %w", discriminator, err)
}

func staleReason(err error) string {
	switch {
	case errors.Is(err, interaction.ErrUnknownDiscriminator):
		return metrics.ReasonUnknownDiscriminator
	case errors.Is(err, interaction.ErrMalformedToken):
		return metrics.ReasonMalformedToken
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ReasonNotFound
	}
	return ""
}

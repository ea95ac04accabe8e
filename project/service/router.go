package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"timebot/project/domain"
	"timebot/project/infrastructure/logger"
	"timebot/project/infrastructure/metrics"
	"timebot/project/interaction"
)

// Router はスラッシュコマンドを動詞と引数に分解し、Registry の処理に振り分けます
type Router struct {
	registry *Registry
}

// NewRouter は Router を作成します
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// ParseCommand はコマンド本文を最初の空白で動詞と引数に分けます。動詞は小文字化します
func ParseCommand(text string) (verb string, args []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// Route はコマンドを処理します。
// ValidationFailure はフィールドエラーの応答に変換し、それ以外のエラーはそのまま返します
func (r *Router) Route(ctx context.Context, cmd *Command) (*interaction.Reply, error) {
	verb, args := ParseCommand(cmd.Text)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SlackUserID: cmd.UserID,
		ChannelID:   cmd.ChannelID,
		Verb:        verb,
		Component:   "timebot.service.router",
	})

	spec, ok := r.registry.Lookup(verb)
	if !ok {
		metrics.Commands.WithLabelValues("unknown", metrics.OutcomeOK).Inc()
		slog.DebugContext(ctx, "unknown verb")
		return interaction.EphemeralText(fmt.Sprintf("I don't understand `%s`. Try `%s help`", verb, cmd.Name)), nil
	}

	label := verbLabel(verb)
	ctx, span := logger.StartSpan(ctx, "command."+label, attribute.String("slack.verb", label))
	defer span.End()

	reply, err := spec.Run(ctx, cmd, args)
	if vf, ok := domain.AsValidationFailure(err); ok {
		metrics.Commands.WithLabelValues(label, metrics.OutcomeValidation).Inc()
		slog.DebugContext(ctx, "command validation failed", "errors", vf.Errors)
		return interaction.FieldErrors(vf.Errors), nil
	}
	if err != nil {
		metrics.Commands.WithLabelValues(label, metrics.OutcomeError).Inc()
		logger.RecordError(span, err)
		return nil, fmt.Errorf("コマンド %q 処理失敗: %w", label, err)
	}

	metrics.Commands.WithLabelValues(label, metrics.OutcomeOK).Inc()
	return reply, nil
}

func verbLabel(verb string) string {
	if verb == "" {
		return "submit"
	}
	return verb
}

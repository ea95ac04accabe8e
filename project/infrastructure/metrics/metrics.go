package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Commands はスラッシュコマンドの処理数です（verb, outcome）
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timebot",
		Name:      "commands_total",
		Help:      "Slash commands handled by verb and outcome.",
	}, []string{"verb", "outcome"})

	// Interactions はインタラクションの処理数です（discriminator, outcome）
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timebot",
		Name:      "interactions_total",
		Help:      "Interactive payloads handled by discriminator and outcome.",
	}, []string{"discriminator", "outcome"})

	// StaleInteractions は古いUIや改ざんにより復元できなかったインタラクション数です
	StaleInteractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timebot",
		Name:      "stale_interactions_total",
		Help:      "Interactions rejected because of an unknown discriminator or malformed token.",
	}, []string{"reason"})

	// NotificationFailures は書き込み後の通知失敗数です（ロールバックしない）
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timebot",
		Name:      "notification_failures_total",
		Help:      "Best-effort Slack or calendar notifications that failed after a committed write.",
	}, []string{"kind"})

	// RemindersSent はリマインドDMの送信数です
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "timebot",
		Name:      "reminders_sent_total",
		Help:      "Time report reminders sent.",
	})
)

// 処理結果のラベル値
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeStale      = "stale"
	OutcomeError      = "error"
)

// Stale の理由ラベル値
const (
	ReasonUnknownDiscriminator = "unknown_discriminator"
	ReasonMalformedToken       = "malformed_token"
	ReasonNotFound             = "not_found"
)

// Package metrics 定义业务指标，通过 /metrics 暴露给Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CampaignTransitions 活动状态迁移次数，按目标状态区分
	CampaignTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodconnect",
		Name:      "campaign_transitions_total",
		Help:      "Number of campaign lifecycle transitions by target status.",
	}, []string{"to"})

	// ApplicationsSubmitted 报名提交次数
	ApplicationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodconnect",
		Name:      "applications_submitted_total",
		Help:      "Number of applications submitted.",
	})

	// ApplicationDecisions 报名审核次数，按结果区分
	ApplicationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodconnect",
		Name:      "application_decisions_total",
		Help:      "Number of application status decisions by outcome.",
	}, []string{"status"})

	// ApplicationRejections 报名被业务规则拒绝的次数，按错误类型区分
	ApplicationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodconnect",
		Name:      "application_rejections_total",
		Help:      "Number of apply or accept attempts refused by a business rule.",
	}, []string{"kind"})

	// CommissionsGenerated 生成的佣金记录数
	CommissionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodconnect",
		Name:      "commissions_generated_total",
		Help:      "Number of commission records generated.",
	})

	// CommissionAmount 生成的佣金金额累计
	CommissionAmount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodconnect",
		Name:      "commission_amount_total",
		Help:      "Sum of generated commission amounts.",
	})

	// LoginFailures 登录失败次数
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodconnect",
		Name:      "login_failures_total",
		Help:      "Number of failed login attempts.",
	})
)

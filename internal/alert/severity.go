// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

// Package alert implements the realtime security alert path: one CloudTrail
// event in, one severity-classified Slack message out. The path is stateless;
// classification is a closed lookup with an explicit default.
package alert

// Severity grades how urgently an audit event needs attention.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Label returns the Korean severity label shown in alert messages.
func (s Severity) Label() string {
	switch s {
	case SeverityHigh:
		return "높음"
	case SeverityMedium:
		return "중간"
	default:
		return "낮음"
	}
}

// Emoji returns the severity marker used in alert headers.
func (s Severity) Emoji() string {
	switch s {
	case SeverityHigh:
		return "🔴"
	case SeverityMedium:
		return "🟠"
	default:
		return "🟡"
	}
}

// Color returns the Slack attachment color for the severity.
func (s Severity) Color() string {
	switch s {
	case SeverityHigh:
		return "danger"
	case SeverityMedium:
		return "warning"
	default:
		return "good"
	}
}

// classification pairs a severity with its Korean event description.
type classification struct {
	severity    Severity
	description string
}

// eventClassifications is the closed ISMS-P event table. Events absent from
// the table classify as low severity with the event name as description.
var eventClassifications = map[string]classification{
	// High: immediate response required
	"ConsoleLogin":        {SeverityHigh, "콘솔 로그인"},
	"CreateUser":          {SeverityHigh, "사용자 생성"},
	"DeleteUser":          {SeverityHigh, "사용자 삭제"},
	"CreateAccessKey":     {SeverityHigh, "Access Key 생성"},
	"AttachUserPolicy":    {SeverityHigh, "사용자 정책 연결"},
	"AttachRolePolicy":    {SeverityHigh, "역할 정책 연결"},
	"CreateRole":          {SeverityHigh, "IAM 역할 생성"},
	"DisableKey":          {SeverityHigh, "KMS 키 비활성화"},
	"ScheduleKeyDeletion": {SeverityHigh, "KMS 키 삭제 예약"},

	// Medium: monitoring required
	"DeleteAccessKey":               {SeverityMedium, "Access Key 삭제"},
	"DetachUserPolicy":              {SeverityMedium, "사용자 정책 분리"},
	"DeleteRole":                    {SeverityMedium, "IAM 역할 삭제"},
	"AuthorizeSecurityGroupIngress": {SeverityMedium, "보안그룹 인바운드 규칙 추가"},
	"AuthorizeSecurityGroupEgress":  {SeverityMedium, "보안그룹 아웃바운드 규칙 추가"},
	"CreateSecurityGroup":           {SeverityMedium, "보안그룹 생성"},
	"DeleteSecurityGroup":           {SeverityMedium, "보안그룹 삭제"},
	"DeleteBucketPolicy":            {SeverityMedium, "S3 버킷 정책 삭제"},

	// Low: informational
	"PutBucketPolicy":            {SeverityLow, "S3 버킷 정책 변경"},
	"PutBucketPublicAccessBlock": {SeverityLow, "S3 퍼블릭 액세스 설정"},
	"CreateKey":                  {SeverityLow, "KMS 키 생성"},
}

// Classify returns the severity and description for an event name.
func Classify(eventName string) (Severity, string) {
	if c, ok := eventClassifications[eventName]; ok {
		return c.severity, c.description
	}
	return SeverityLow, eventName
}

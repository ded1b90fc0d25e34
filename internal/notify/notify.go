package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/logger"
)

var (
	// ErrConfigInvalid 通知配置错误
	ErrConfigInvalid = errors.New("notify config invalid")
	// ErrContactInvalid 接收号码无效
	ErrContactInvalid = errors.New("notify contact invalid")
	// ErrKindUnsupported 不支持的通知模板
	ErrKindUnsupported = errors.New("notify kind unsupported")
	// ErrSendFailed 发送失败
	ErrSendFailed = errors.New("notify send failed")
)

var templateVarPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

var templates = map[string]string{
	constants.NotifyKindNewDeliveryRequest: "New delivery request! Order {{order_number}} from {{restaurant_name}} to {{delivery_address}}. Distance: {{distance_km}}km. Fee: ₱{{delivery_fee}}. Accept in app now!",
	constants.NotifyKindDriverAssigned:     "Driver {{driver_name}} has been assigned to your order {{order_number}}. Vehicle: {{vehicle_type}} ({{vehicle_number}}). Track: {{app_url}}/track/{{order_id}}",
	constants.NotifyKindDriverReassigned:   "Your order {{order_number}} has a new driver: {{driver_name}}. Vehicle: {{vehicle_type}} ({{vehicle_number}}). Track: {{app_url}}/track/{{order_id}}",
}

// Message 通知消息
type Message struct {
	Contact string
	Kind    string
	Payload map[string]interface{}
}

// Notifier 通知发送能力
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Render 按模板渲染短信内容，缺失的变量渲染为空
func Render(kind string, payload map[string]interface{}) (string, error) {
	tpl, ok := templates[strings.TrimSpace(kind)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKindUnsupported, kind)
	}
	return templateVarPattern.ReplaceAllStringFunc(tpl, func(matched string) string {
		submatch := templateVarPattern.FindStringSubmatch(matched)
		if len(submatch) != 2 {
			return matched
		}
		value, ok := payload[submatch[1]]
		if !ok || value == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	}), nil
}

// FormatPhoneNumber 规范化菲律宾手机号为 +63 格式
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(cleaned, "0"):
		cleaned = "63" + cleaned[1:]
	case strings.HasPrefix(cleaned, "9"):
		cleaned = "63" + cleaned
	}
	return "+" + cleaned
}

// LogNotifier 仅记录日志的通知实现，用于开发与测试环境
type LogNotifier struct{}

// Notify 记录通知内容
func (LogNotifier) Notify(_ context.Context, msg Message) error {
	text, err := Render(msg.Kind, msg.Payload)
	if err != nil {
		return err
	}
	logger.Infow("notify_log_message",
		"contact", FormatPhoneNumber(msg.Contact),
		"kind", msg.Kind,
		"message", text,
	)
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const trackingSnapshotTTL = 2 * time.Hour

// LocationEvent 骑手位置推送事件
type LocationEvent struct {
	OrderID          uint      `json:"order_id"`
	DriverID         uint      `json:"driver_id"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	DistanceKm       float64   `json:"distance_km"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	Phase            string    `json:"phase"`
	Timestamp        time.Time `json:"timestamp"`
}

// TrackingChannelName 订单跟踪频道名（不含前缀）
func TrackingChannelName(orderID uint) string {
	return fmt.Sprintf("tracking:order:%d", orderID)
}

// TrackingChannel 基于 Redis PUBLISH 的位置推送
type TrackingChannel struct {
	client *redis.Client
}

// NewTrackingChannel 创建位置推送，client 为空时所有操作为空操作
func NewTrackingChannel(client *redis.Client) *TrackingChannel {
	return &TrackingChannel{client: client}
}

// PublishLocation 发布位置事件，同时写入最近一次快照供前端首屏读取
func (t *TrackingChannel) PublishLocation(ctx context.Context, event LocationEvent) error {
	if t == nil || t.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := BuildKey(TrackingChannelName(event.OrderID))
	pipe := t.client.TxPipeline()
	pipe.Publish(ctx, channel, payload)
	pipe.Set(ctx, channel+":last", payload, trackingSnapshotTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// LastLocation 读取最近一次位置快照
func (t *TrackingChannel) LastLocation(ctx context.Context, orderID uint) (*LocationEvent, error) {
	if t == nil || t.client == nil {
		return nil, nil
	}
	raw, err := t.client.Get(ctx, BuildKey(TrackingChannelName(orderID))+":last").Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var event LocationEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Subscribe 订阅订单位置频道
func (t *TrackingChannel) Subscribe(ctx context.Context, orderID uint) *redis.PubSub {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Subscribe(ctx, BuildKey(TrackingChannelName(orderID)))
}
